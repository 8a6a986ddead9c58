package engine

import (
	"testing"
	"time"

	"github.com/lumenstack/lumen-rag/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveWindowAbsolute(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	w := resolveWindow(rawWindow{Start: "2026-01-01", End: "2026-02-01"}, now)
	if w.Start == nil || !w.Start.Equal(date(2026, 1, 1)) {
		t.Errorf("start = %v", w.Start)
	}
	if w.End == nil || !w.End.Equal(date(2026, 2, 1)) {
		t.Errorf("end = %v", w.End)
	}

	// Absolute bounds win over the relative phrase.
	w = resolveWindow(rawWindow{Start: "2026-01-01", Relative: "last week"}, now)
	if w.Start == nil || !w.Start.Equal(date(2026, 1, 1)) {
		t.Errorf("start = %v, absolute bound should win", w.Start)
	}
	if w.End != nil {
		t.Errorf("end = %v, want open", w.End)
	}
}

func TestResolveWindowInvertedBoundsSwap(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	w := resolveWindow(rawWindow{Start: "2026-02-01", End: "2026-01-01"}, now)
	if w.Start == nil || w.End == nil {
		t.Fatal("expected both bounds")
	}
	if !w.Start.Before(*w.End) {
		t.Fatalf("start %v not before end %v after normalisation", w.Start, w.End)
	}
}

func TestResolveWindowRelativePhrases(t *testing.T) {
	// A Sunday afternoon, so week arithmetic is exercised.
	now := time.Date(2026, 3, 15, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		phrase    string
		wantStart time.Time
	}{
		{"today", date(2026, 3, 15)},
		{"yesterday", date(2026, 3, 14)},
		{"this week", date(2026, 3, 9)},
		{"last week", date(2026, 3, 8)},
		{"this month", date(2026, 3, 1)},
		{"last month", date(2026, 2, 15)},
		{"this year", date(2026, 1, 1)},
		{"last year", date(2025, 3, 15)},
		{"past 3 days", date(2026, 3, 12)},
		{"past 2 weeks", date(2026, 3, 1)},
		{"Last 6 Months", date(2025, 9, 15)},
	}

	for _, tc := range cases {
		t.Run(tc.phrase, func(t *testing.T) {
			w := resolveWindow(rawWindow{Relative: tc.phrase}, now)
			if w.Start == nil {
				t.Fatal("expected a bounded start")
			}
			if !w.Start.Equal(tc.wantStart) {
				t.Fatalf("start = %v, want %v", w.Start, tc.wantStart)
			}
			if tc.phrase != "yesterday" && (w.End == nil || !w.End.Equal(now)) {
				t.Fatalf("end = %v, want %v", w.End, now)
			}
		})
	}
}

func TestResolveWindowUnknownInputsStayOpen(t *testing.T) {
	now := time.Now()
	cases := []rawWindow{
		{},
		{Relative: "whenever"},
		{Start: "not a date"},
		{Relative: "past zero days"},
	}
	for _, raw := range cases {
		if w := resolveWindow(raw, now); !w.IsZero() {
			t.Errorf("resolveWindow(%+v) = %+v, want open window", raw, w)
		}
	}
}

func TestTimeWindowContains(t *testing.T) {
	start := date(2026, 1, 1)
	end := date(2026, 2, 1)
	w := models.TimeWindow{Start: &start, End: &end}

	if !w.Contains(date(2026, 1, 15)) {
		t.Error("timestamp inside the window should match")
	}
	if w.Contains(date(2025, 12, 31)) {
		t.Error("timestamp before the window should not match")
	}
	if w.Contains(date(2026, 3, 1)) {
		t.Error("timestamp after the window should not match")
	}

	open := models.TimeWindow{Start: &start}
	if !open.Contains(date(2030, 1, 1)) {
		t.Error("open-ended window should match any later timestamp")
	}
}
