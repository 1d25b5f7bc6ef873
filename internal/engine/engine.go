// Package engine owns the client-side scheduling state: the active scope,
// the month being viewed, and the task cache fetched for that pair.
//
// The engine is the only writer of that state. Remote calls run without the
// lock held, so other actions may change the state while a call is in flight;
// each individual transition (rebuild, move, rollback) is atomic.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"famcal/internal/cache"
	"famcal/internal/calendar"
	"famcal/internal/scope"
	"famcal/internal/service"
)

// DefaultMoveTimeout bounds the remote call that persists a move.
const DefaultMoveTimeout = 10 * time.Second

// DefaultKanbanDays is the initial kanban window length.
const DefaultKanbanDays = 7

// Snapshot is a read-only copy of the engine state.
type Snapshot struct {
	Scope      scope.Scope
	Month      time.Time
	Window     calendar.Window
	Selected   time.Time
	KanbanDays int
	Tasks      cache.Cache
	Fetched    bool
	Groups     []service.Group
}

// Day is one cell of a rendered view.
type Day struct {
	Date     time.Time
	Key      string
	InMonth  bool
	Selected bool
	Tasks    []service.Task
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithClock sets the clock used for the initial month and selected date.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithKanbanDays sets the initial kanban day count. Unsupported values are ignored.
func WithKanbanDays(n int) Option {
	return func(e *Engine) {
		if calendar.ValidKanbanDays(n) {
			e.kanbanDays = n
		}
	}
}

// WithMoveTimeout bounds each move persistence call.
func WithMoveTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.moveTimeout = d
		}
	}
}

// WithOnChange registers a callback run after every state change, outside
// the engine lock.
func WithOnChange(fn func(Snapshot)) Option {
	return func(e *Engine) { e.onChange = fn }
}

// Engine is the sync engine. Create one per session with New.
type Engine struct {
	svc         service.Service
	log         *slog.Logger
	now         func() time.Time
	onChange    func(Snapshot)
	moveTimeout time.Duration

	mu         sync.Mutex
	scope      *scope.Model
	month      time.Time
	selected   time.Time
	kanbanDays int
	tasks      cache.Cache
	fetched    bool
	fetchSeq   uint64
	groups     []service.Group
}

// New creates an engine in the personal scope, viewing the current month.
// Nothing is fetched until Refresh or a state change that refetches.
func New(svc service.Service, opts ...Option) *Engine {
	e := &Engine{
		svc:         svc,
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         time.Now,
		moveTimeout: DefaultMoveTimeout,
		scope:       scope.NewModel(),
		kanbanDays:  DefaultKanbanDays,
		tasks:       cache.Rebuild(nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	today := calendar.Midnight(e.now())
	e.month = calendar.MonthStart(today)
	e.selected = today
	return e
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	groups := make([]service.Group, len(e.groups))
	copy(groups, e.groups)
	return Snapshot{
		Scope:      e.scope.Current(),
		Month:      e.month,
		Window:     calendar.MonthBounds(e.month),
		Selected:   e.selected,
		KanbanDays: e.kanbanDays,
		Tasks:      e.tasks,
		Fetched:    e.fetched,
		Groups:     groups,
	}
}

func (e *Engine) notify(s Snapshot) {
	if e.onChange != nil {
		e.onChange(s)
	}
}

// Scope returns the active scope.
func (e *Engine) Scope() scope.Scope {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scope.Current()
}

// IsActive reports whether s is the active scope.
func (e *Engine) IsActive(s scope.Scope) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scope.IsActive(s)
}

// Month returns the first day of the viewed month.
func (e *Engine) Month() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.month
}

// Window returns the fetch window for the viewed month.
func (e *Engine) Window() calendar.Window {
	e.mu.Lock()
	defer e.mu.Unlock()
	return calendar.MonthBounds(e.month)
}

// SelectedDate returns the selected day.
func (e *Engine) SelectedDate() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// Tasks returns the cached tasks of one day in cache order.
func (e *Engine) Tasks(key string) []service.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tasks.Get(key)
}

// Lookup returns a cached task by id.
func (e *Engine) Lookup(id int64) (service.Task, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tasks.Lookup(id)
}

// SetScope switches the active scope and refetches.
func (e *Engine) SetScope(ctx context.Context, s scope.Scope) error {
	if err := s.Validate(); err != nil {
		return &ValidationError{Field: "scope", Err: err}
	}
	e.mu.Lock()
	e.scope.Set(s)
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)

	return e.Refresh(ctx)
}

// SetMonth switches the viewed month and refetches.
func (e *Engine) SetMonth(ctx context.Context, t time.Time) error {
	e.mu.Lock()
	e.month = calendar.MonthStart(t)
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)

	return e.Refresh(ctx)
}

// View switches scope and month together and fetches once.
func (e *Engine) View(ctx context.Context, s scope.Scope, month time.Time) error {
	if err := s.Validate(); err != nil {
		return &ValidationError{Field: "scope", Err: err}
	}
	e.mu.Lock()
	e.scope.Set(s)
	e.month = calendar.MonthStart(month)
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)

	return e.Refresh(ctx)
}

// NextMonth moves the view one month forward and refetches.
func (e *Engine) NextMonth(ctx context.Context) error {
	return e.SetMonth(ctx, calendar.AddMonths(e.Month(), 1))
}

// PrevMonth moves the view one month back and refetches.
func (e *Engine) PrevMonth(ctx context.Context) error {
	return e.SetMonth(ctx, calendar.AddMonths(e.Month(), -1))
}

// SelectDate changes the selected day. It does not refetch.
func (e *Engine) SelectDate(t time.Time) {
	e.mu.Lock()
	e.selected = calendar.Midnight(t)
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)
}

// SetKanbanDays sets the kanban window length: 7, 14, 30, or 0 for the
// whole month.
func (e *Engine) SetKanbanDays(n int) error {
	if !calendar.ValidKanbanDays(n) {
		return &ValidationError{Field: "days", Err: fmt.Errorf("unsupported day count: %d", n)}
	}
	e.mu.Lock()
	e.kanbanDays = n
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)
	return nil
}

// Refresh fetches the tasks of the active scope and month and replaces the
// whole cache with the result. On failure the previous cache stays.
//
// Every call takes a sequence number. A response that arrives after a newer
// fetch was issued is dropped, so the cache always reflects the most recently
// requested scope and month.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	sc := e.scope.Current()
	if err := sc.Validate(); err != nil {
		e.mu.Unlock()
		return &ValidationError{Field: "scope", Err: err}
	}
	e.fetchSeq++
	seq := e.fetchSeq
	w := calendar.MonthBounds(e.month)
	e.mu.Unlock()

	q := service.TaskQuery{Scope: sc, Start: w.StartKey(), End: w.EndKey()}
	e.log.Debug("fetch tasks", "seq", seq, "scope", sc.String(), "start", q.Start, "end", q.End)

	tasks, err := e.svc.ListTasks(ctx, q)

	e.mu.Lock()
	if seq != e.fetchSeq {
		latest := e.fetchSeq
		e.mu.Unlock()
		e.log.Debug("discard stale fetch", "seq", seq, "latest", latest)
		return nil
	}
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("fetch tasks: %w", err)
	}
	e.tasks = cache.Rebuild(tasks)
	e.fetched = true
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.log.Debug("cache rebuilt", "seq", seq, "tasks", len(tasks))
	e.notify(snap)
	return nil
}

// MonthDays returns the 42 grid cells of the viewed month with their tasks
// in display order.
func (e *Engine) MonthDays() []Day {
	e.mu.Lock()
	defer e.mu.Unlock()

	w := calendar.MonthBounds(e.month)
	return e.daysLocked(calendar.MonthGrid(e.month), w)
}

// KanbanDays returns the kanban columns for the selected date.
func (e *Engine) KanbanDays() []Day {
	e.mu.Lock()
	defer e.mu.Unlock()

	w := calendar.MonthBounds(e.month)
	return e.daysLocked(calendar.KanbanWindow(e.selected, e.kanbanDays), w)
}

func (e *Engine) daysLocked(dates []time.Time, month calendar.Window) []Day {
	selected := calendar.DateKey(e.selected)
	days := make([]Day, len(dates))
	for i, d := range dates {
		key := calendar.DateKey(d)
		tasks := e.tasks.Get(key)
		cache.Sort(tasks)
		days[i] = Day{
			Date:     d,
			Key:      key,
			InMonth:  month.Contains(d),
			Selected: key == selected,
			Tasks:    tasks,
		}
	}
	return days
}
