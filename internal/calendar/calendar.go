// Package calendar turns a reference date into the windows shown by the
// calendar views and converts between dates and their YYYY-MM-DD keys.
//
// All arithmetic uses the date's own local year/month/day fields. Nothing
// here converts to UTC, so a local midnight never slides into the previous day.
package calendar

import (
	"fmt"
	"time"
)

// KeyLayout is the canonical date key layout.
const KeyLayout = "2006-01-02"

// GridCells is the number of cells in a month grid (6 weeks of 7 days).
const GridCells = 42

// Window is an inclusive range of calendar days.
type Window struct {
	Start time.Time
	End   time.Time
}

// StartKey returns the date key of the first day.
func (w Window) StartKey() string { return DateKey(w.Start) }

// EndKey returns the date key of the last day.
func (w Window) EndKey() string { return DateKey(w.End) }

// Contains reports whether t falls on a day inside the window.
func (w Window) Contains(t time.Time) bool {
	k := DateKey(t)
	return k >= w.StartKey() && k <= w.EndKey()
}

// Days expands the window day by day, both ends included.
func (w Window) Days() []time.Time {
	var days []time.Time
	end := DateKey(w.End)
	for d := Midnight(w.Start); DateKey(d) <= end; d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// DateKey formats t as YYYY-MM-DD from its local fields.
func DateKey(t time.Time) string {
	y, m, d := t.Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

// FromDateKey parses a YYYY-MM-DD key into local midnight of that day.
func FromDateKey(key string) (time.Time, error) {
	var y, m, d int
	if _, err := fmt.Sscanf(key, "%4d-%2d-%2d", &y, &m, &d); err != nil {
		return time.Time{}, fmt.Errorf("not a YYYY-MM-DD date: %q", key)
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.Local)
	// Reject keys that normalize to another day, e.g. 2025-02-30.
	if DateKey(t) != key {
		return time.Time{}, fmt.Errorf("not a YYYY-MM-DD date: %q", key)
	}
	return t, nil
}

// Midnight returns local midnight of t's day, in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// AddMonths moves a month start by n months.
func AddMonths(t time.Time, n int) time.Time {
	return MonthStart(t).AddDate(0, n, 0)
}

// MonthBounds returns the first and last day of t's month.
func MonthBounds(t time.Time) Window {
	start := MonthStart(t)
	// Day 0 of the next month is the last day of this one.
	end := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location())
	return Window{Start: start, End: end}
}

// MonthGrid returns 42 consecutive days starting on the Monday on or before
// the first of t's month.
func MonthGrid(t time.Time) []time.Time {
	start := MonthStart(t)
	// Monday-first index: Sunday (0) becomes 6.
	weekday := int(start.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	first := start.AddDate(0, 0, -(weekday - 1))

	days := make([]time.Time, GridCells)
	for i := range days {
		days[i] = first.AddDate(0, 0, i)
	}
	return days
}

// KanbanWindow returns the kanban columns for the selected date. A dayCount
// of 0 means the whole month containing selected.
func KanbanWindow(selected time.Time, dayCount int) []time.Time {
	if dayCount == 0 {
		return MonthBounds(selected).Days()
	}
	start := Midnight(selected)
	days := make([]time.Time, dayCount)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// ValidKanbanDays reports whether n is a supported kanban day count.
func ValidKanbanDays(n int) bool {
	switch n {
	case 0, 7, 14, 30:
		return true
	}
	return false
}

// Keys maps dates to their keys.
func Keys(days []time.Time) []string {
	keys := make([]string, len(days))
	for i, d := range days {
		keys[i] = DateKey(d)
	}
	return keys
}

// ParseMonth parses YYYY-MM into the first day of that month.
func ParseMonth(s string) (time.Time, error) {
	t, err := FromDateKey(s + "-01")
	if err != nil {
		return time.Time{}, fmt.Errorf("not a YYYY-MM month: %q", s)
	}
	return t, nil
}
