package cache

import (
	"sort"

	"famcal/internal/service"
)

// Less is the canonical order within a day: timed tasks by start time, then
// untimed ones; equal start times fall back to a byte-wise title comparison,
// and identical titles to the id so the order is total.
func Less(a, b service.Task) bool {
	as, bs := normTime(a.StartTime), normTime(b.StartTime)
	if as == bs {
		if a.Title == b.Title {
			return a.ID < b.ID
		}
		return a.Title < b.Title
	}
	if as == "" {
		return false
	}
	if bs == "" {
		return true
	}
	return as < bs
}

// normTime pads "HH:MM" to "HH:MM:SS" so both accepted forms compare equal.
func normTime(s string) string {
	if len(s) == len("15:04") {
		return s + ":00"
	}
	return s
}

// Sort orders tasks canonically.
func Sort(tasks []service.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return Less(tasks[i], tasks[j])
	})
}
