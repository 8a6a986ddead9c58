package utils

import (
	"testing"
	"time"
)

func TestParseFlexibleTime(t *testing.T) {
	cases := []struct {
		in     string
		want   time.Time
		wantOK bool
	}{
		{"2026-02-10T15:04:05Z", time.Date(2026, 2, 10, 15, 4, 5, 0, time.UTC), true},
		{"2026-02-10T15:04:05", time.Date(2026, 2, 10, 15, 4, 5, 0, time.UTC), true},
		{"2026-02-10", time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"  ", time.Time{}, false},
		{"10/02/2026", time.Time{}, false},
	}

	for _, tc := range cases {
		got, ok := ParseFlexibleTime(tc.in)
		if ok != tc.wantOK {
			t.Errorf("ParseFlexibleTime(%q) ok = %v, want %v", tc.in, ok, tc.wantOK)
			continue
		}
		if ok && !got.Equal(tc.want) {
			t.Errorf("ParseFlexibleTime(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestStartOfDay(t *testing.T) {
	in := time.Date(2026, 2, 10, 23, 59, 59, 1, time.UTC)
	got := StartOfDay(in)
	if got != time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("StartOfDay = %v", got)
	}
}
