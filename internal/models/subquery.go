package models

import "time"

// MaxSubQueries is the hard cap on decomposition width.
const MaxSubQueries = 5

// TimeWindow bounds a search in time. Either side may be open (nil).
type TimeWindow struct {
	Start *time.Time
	End   *time.Time
}

// IsZero reports whether no bound is set.
func (w TimeWindow) IsZero() bool {
	return w.Start == nil && w.End == nil
}

// Contains reports whether t falls inside the window; open sides always match.
func (w TimeWindow) Contains(t time.Time) bool {
	if w.Start != nil && t.Before(*w.Start) {
		return false
	}
	if w.End != nil && t.After(*w.End) {
		return false
	}
	return true
}

// Normalize swaps inverted bounds so Start <= End always holds.
func (w TimeWindow) Normalize() TimeWindow {
	if w.Start != nil && w.End != nil && w.End.Before(*w.Start) {
		return TimeWindow{Start: w.End, End: w.Start}
	}
	return w
}

// MetadataFilters constrains a search by structured passage metadata. Empty
// slices mean "no constraint", never "match nothing".
type MetadataFilters struct {
	Variants   []string
	Sentiments []string
	Tags       []string
}

// IsZero reports whether no filter is set.
func (f MetadataFilters) IsZero() bool {
	return len(f.Variants) == 0 && len(f.Sentiments) == 0 && len(f.Tags) == 0
}

// SubQuery is one focused, independently searchable question derived from the
// user's original question.
type SubQuery struct {
	Text    string
	Window  TimeWindow
	Filters MetadataFilters
}
