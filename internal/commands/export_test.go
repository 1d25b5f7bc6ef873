package commands

import (
	"testing"
	"time"
)

// SetClock replaces the command clock until the test ends.
func SetClock(t testing.TB, fn func() time.Time) {
	t.Helper()
	old := now
	now = fn
	t.Cleanup(func() { now = old })
}
