package engine

import (
	"context"
	"fmt"

	"famcal/internal/cache"
	"famcal/internal/calendar"
)

// MoveState is the state of one optimistic move attempt.
type MoveState int

const (
	MoveIdle MoveState = iota
	MoveApplied
	MoveConfirmed
	MoveRolledBack
)

func (s MoveState) String() string {
	switch s {
	case MoveApplied:
		return "applied"
	case MoveConfirmed:
		return "confirmed"
	case MoveRolledBack:
		return "rolled back"
	default:
		return "idle"
	}
}

// Pending records an applied move so it can be confirmed or undone.
// FromIndex is the task's position in the From bucket before the move, or
// -1 when nothing was applied.
type Pending struct {
	TaskID    int64
	From      string
	To        string
	FromIndex int
	State     MoveState
}

// ApplyOptimistic moves task id to the to bucket. It reports false, and
// returns c unchanged, when the task is not cached or is already on that date.
func ApplyOptimistic(c cache.Cache, id int64, to string) (cache.Cache, Pending, bool) {
	from, ok := c.Find(id)
	if !ok || from == to {
		return c, Pending{TaskID: id, To: to, FromIndex: -1, State: MoveIdle}, false
	}
	p := Pending{TaskID: id, From: from, To: to, FromIndex: c.Index(from, id), State: MoveApplied}
	return c.MoveTask(id, from, to), p, true
}

// Confirm accepts an applied move. The cache already holds the end state.
func Confirm(c cache.Cache, p Pending) (cache.Cache, Pending) {
	p.State = MoveConfirmed
	return c, p
}

// Rollback puts the task back at its old position in p.From, so the order
// of the bucket as the server returned it survives. Without a recorded
// position the task is re-sorted into p.From. If the cache was rebuilt in
// the meantime and the task is no longer under p.To, nothing changes.
func Rollback(c cache.Cache, p Pending) (cache.Cache, Pending) {
	p.State = MoveRolledBack
	if p.FromIndex < 0 {
		return c.MoveTask(p.TaskID, p.To, p.From), p
	}
	return c.MoveTaskAt(p.TaskID, p.To, p.From, p.FromIndex), p
}

// MoveError reports a move that the backend rejected and that was rolled back.
type MoveError struct {
	TaskID int64
	From   string
	To     string
	Err    error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move task %d to %s: %v (kept on %s)", e.TaskID, e.To, e.Err, e.From)
}

func (e *MoveError) Unwrap() error { return e.Err }

// Move reschedules a cached task to the date key to. The cache changes
// before the remote call starts; if the call fails or times out the move is
// rolled back and a *MoveError is returned. Moving to the same date, or a
// task that is not in the cache, does nothing.
func (e *Engine) Move(ctx context.Context, id int64, to string) error {
	if _, err := calendar.FromDateKey(to); err != nil {
		return &ValidationError{Field: "date", Err: err}
	}

	e.mu.Lock()
	next, p, ok := ApplyOptimistic(e.tasks, id, to)
	if !ok {
		e.mu.Unlock()
		e.log.Debug("move skipped", "task", id, "to", to)
		return nil
	}
	e.tasks = next
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.log.Debug("move applied", "task", id, "from", p.From, "to", p.To)
	e.notify(snap)

	callCtx, cancel := context.WithTimeout(ctx, e.moveTimeout)
	_, err := e.svc.MoveTask(callCtx, id, to)
	cancel()

	e.mu.Lock()
	if err == nil {
		e.tasks, p = Confirm(e.tasks, p)
		e.mu.Unlock()
		e.log.Debug("move confirmed", "task", id, "to", p.To)
		return nil
	}
	e.tasks, p = Rollback(e.tasks, p)
	snap = e.snapshotLocked()
	e.mu.Unlock()

	e.log.Warn("move rolled back", "task", id, "from", p.From, "to", p.To, "error", err)
	e.notify(snap)
	return &MoveError{TaskID: id, From: p.From, To: p.To, Err: err}
}
