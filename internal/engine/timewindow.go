package engine

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lumenstack/lumen-rag/internal/models"
	"github.com/lumenstack/lumen-rag/internal/utils"
)

// rawWindow is the window shape the optimizer asks the model to emit.
// Absolute bounds win over the relative phrase when both are present.
type rawWindow struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Relative string `json:"relative"`
}

var pastNRe = regexp.MustCompile(`(?:past|last)\s+(\d+)\s+(day|week|month|year)s?`)

// resolveWindow turns the model-provided window into concrete bounds using
// the injected now. Malformed dates and unrecognised phrases become open
// bounds rather than errors; inverted bounds are normalised by swapping.
func resolveWindow(raw rawWindow, now time.Time) models.TimeWindow {
	var window models.TimeWindow

	if t, ok := utils.ParseFlexibleTime(raw.Start); ok {
		window.Start = &t
	}
	if t, ok := utils.ParseFlexibleTime(raw.End); ok {
		window.End = &t
	}
	if window.IsZero() && raw.Relative != "" {
		window = resolveRelative(raw.Relative, now)
	}

	return window.Normalize()
}

// resolveRelative maps phrases like "last week" or "past 3 months" onto a
// window ending at now. Unknown phrases resolve to an open window.
func resolveRelative(phrase string, now time.Time) models.TimeWindow {
	normalized := strings.ToLower(strings.TrimSpace(phrase))
	now = now.UTC()
	today := utils.StartOfDay(now)

	bounded := func(start time.Time) models.TimeWindow {
		end := now
		return models.TimeWindow{Start: &start, End: &end}
	}

	switch normalized {
	case "today":
		return bounded(today)
	case "yesterday":
		start := today.AddDate(0, 0, -1)
		end := today
		return models.TimeWindow{Start: &start, End: &end}
	case "this week":
		return bounded(startOfWeek(today))
	case "last week", "past week":
		return bounded(today.AddDate(0, 0, -7))
	case "this month":
		return bounded(time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC))
	case "last month", "past month":
		return bounded(today.AddDate(0, -1, 0))
	case "this year":
		return bounded(time.Date(today.Year(), 1, 1, 0, 0, 0, 0, time.UTC))
	case "last year", "past year":
		return bounded(today.AddDate(-1, 0, 0))
	}

	if m := pastNRe.FindStringSubmatch(normalized); len(m) == 3 {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return models.TimeWindow{}
		}
		switch m[2] {
		case "day":
			return bounded(today.AddDate(0, 0, -n))
		case "week":
			return bounded(today.AddDate(0, 0, -7*n))
		case "month":
			return bounded(today.AddDate(0, -n, 0))
		case "year":
			return bounded(today.AddDate(-n, 0, 0))
		}
	}

	return models.TimeWindow{}
}

func startOfWeek(day time.Time) time.Time {
	weekday := int(day.Weekday())
	// Weeks start on Monday.
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, -(weekday - 1))
}
