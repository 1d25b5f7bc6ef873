package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"famcal/internal/calendar"
	"famcal/internal/engine"
	"famcal/internal/service"
)

// ErrTaskNotFound is returned when a task id is in none of the searched months.
var ErrTaskNotFound = errors.New("task not found")

// locateTask makes sure task id is in e's cache. The engine's current month
// is searched first, then each extra month in order; a month is fetched at
// most once. On success the engine is left viewing the month that holds it.
func locateTask(ctx context.Context, e *engine.Engine, id int64, months ...time.Time) (service.Task, error) {
	if t, ok := e.Lookup(id); ok {
		return t, nil
	}

	seen := map[string]bool{calendar.DateKey(e.Month()): true}
	for _, m := range months {
		key := calendar.DateKey(calendar.MonthStart(m))
		if seen[key] {
			continue
		}
		seen[key] = true

		if err := e.SetMonth(ctx, m); err != nil {
			return service.Task{}, err
		}
		if t, ok := e.Lookup(id); ok {
			return t, nil
		}
	}
	return service.Task{}, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
}
