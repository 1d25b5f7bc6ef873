package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famcal/internal/calendar"
	"famcal/internal/scope"
	"famcal/internal/service"
	"famcal/internal/testutil"
)

var june2025 = func() time.Time { return time.Date(2025, time.June, 10, 9, 30, 0, 0, time.Local) }

func newTestEngine(t *testing.T, svc service.Service, opts ...Option) *Engine {
	t.Helper()
	return New(svc, append([]Option{WithClock(june2025)}, opts...)...)
}

func ids(tasks []service.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func familyTask(id int64, date string, fam scope.FamilyID) service.Task {
	return service.Task{ID: id, Date: date, Title: "task", Scope: scope.KindFamily, FamilyID: fam}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testutil.NewFakeService())
	snap := e.Snapshot()

	assert.True(t, snap.Scope.IsPersonal())
	assert.Equal(t, "2025-06-01", calendar.DateKey(snap.Month))
	assert.Equal(t, "2025-06-10", calendar.DateKey(snap.Selected))
	assert.Equal(t, DefaultKanbanDays, snap.KanbanDays)
	assert.False(t, snap.Fetched)
	assert.Equal(t, "2025-06-30", snap.Window.EndKey())
}

func TestRefresh_ReplacesCacheOnScopeSwitch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := testutil.NewFakeService()
	svc.AddTask(familyTask(1, "2025-06-01", 42))
	svc.AddTask(familyTask(2, "2025-06-15", 42))
	svc.AddTask(familyTask(3, "2025-06-15", 42))
	svc.AddTask(familyTask(4, "2025-07-01", 42)) // outside the window

	e := newTestEngine(t, svc)
	require.NoError(t, e.SetScope(ctx, scope.Family(42)))

	snap := e.Snapshot()
	assert.Equal(t, 3, snap.Tasks.Len())
	assert.Equal(t, []string{"2025-06-01", "2025-06-15"}, snap.Tasks.Keys())
	require.Len(t, svc.Queries, 1)
	assert.Equal(t, service.TaskQuery{Scope: scope.Family(42), Start: "2025-06-01", End: "2025-06-30"}, svc.Queries[0])

	require.NoError(t, e.SetScope(ctx, scope.Personal()))

	snap = e.Snapshot()
	assert.Zero(t, snap.Tasks.Len())
	assert.Empty(t, snap.Tasks.Keys())
	assert.Empty(t, e.Tasks("2025-06-15"))
}

func TestRefresh_FailureKeepsCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := testutil.NewFakeService()
	svc.AddTask(service.Task{ID: 1, Date: "2025-06-03", Title: "A"})
	e := newTestEngine(t, svc)
	require.NoError(t, e.Refresh(ctx))

	svc.ListTasksErr = errors.New("boom")
	err := e.NextMonth(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	// Month moved, cache did not.
	assert.Equal(t, "2025-07-01", calendar.DateKey(e.Month()))
	assert.Equal(t, []int64{1}, ids(e.Tasks("2025-06-03")))
	assert.Len(t, svc.Queries, 2)
}

func TestSetScope_RejectsFamilyWithoutID(t *testing.T) {
	t.Parallel()

	svc := testutil.NewFakeService()
	e := newTestEngine(t, svc)

	err := e.SetScope(context.Background(), scope.Family(0))
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Empty(t, svc.Queries)
	assert.True(t, e.Scope().IsPersonal())
}

func TestView_FetchesOnce(t *testing.T) {
	t.Parallel()

	svc := testutil.NewFakeService()
	e := newTestEngine(t, svc)

	require.NoError(t, e.View(context.Background(), scope.Family(3), time.Date(2025, time.February, 14, 0, 0, 0, 0, time.Local)))

	require.Len(t, svc.Queries, 1)
	assert.Equal(t, service.TaskQuery{Scope: scope.Family(3), Start: "2025-02-01", End: "2025-02-28"}, svc.Queries[0])
	assert.Equal(t, scope.Family(3), e.Scope())

	err := e.View(context.Background(), scope.Family(-1), time.Now())
	assert.True(t, IsValidation(err))
	assert.Len(t, svc.Queries, 1)
}

func TestMonthNavigation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := testutil.NewFakeService()
	e := newTestEngine(t, svc)

	require.NoError(t, e.PrevMonth(ctx))
	require.NoError(t, e.PrevMonth(ctx))
	require.NoError(t, e.NextMonth(ctx))

	require.Len(t, svc.Queries, 3)
	assert.Equal(t, "2025-05-01", svc.Queries[0].Start)
	assert.Equal(t, "2025-04-30", svc.Queries[1].End)
	assert.Equal(t, "2025-05-31", svc.Queries[2].End)
}

// gatedService blocks each ListTasks call until the test releases it.
type gatedService struct {
	*testutil.FakeService

	mu      sync.Mutex
	entered chan string
	release map[string]chan []service.Task
}

func newGatedService() *gatedService {
	return &gatedService{
		FakeService: testutil.NewFakeService(),
		entered:     make(chan string, 4),
		release: map[string]chan []service.Task{
			"2025-06-01": make(chan []service.Task, 1),
			"2025-07-01": make(chan []service.Task, 1),
		},
	}
}

func (g *gatedService) ListTasks(ctx context.Context, q service.TaskQuery) ([]service.Task, error) {
	g.mu.Lock()
	ch := g.release[q.Start]
	g.mu.Unlock()
	g.entered <- q.Start
	return <-ch, nil
}

func TestRefresh_DiscardsOutOfOrderResponse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newGatedService()
	e := newTestEngine(t, svc)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, e.Refresh(ctx)) // June, issued first
	}()
	require.Equal(t, "2025-06-01", <-svc.entered)

	go func() {
		defer wg.Done()
		assert.NoError(t, e.NextMonth(ctx)) // July, issued second
	}()
	require.Equal(t, "2025-07-01", <-svc.entered)

	// July resolves first, June last.
	svc.release["2025-07-01"] <- []service.Task{{ID: 7, Date: "2025-07-04", Title: "July"}}
	require.Eventually(t, func() bool { return e.Snapshot().Fetched }, time.Second, time.Millisecond)
	svc.release["2025-06-01"] <- []service.Task{{ID: 6, Date: "2025-06-04", Title: "June"}}
	wg.Wait()

	snap := e.Snapshot()
	assert.Equal(t, []string{"2025-07-04"}, snap.Tasks.Keys())
	assert.Empty(t, e.Tasks("2025-06-04"))
}

func seedMoveFixture(svc *testutil.FakeService) {
	svc.AddTask(service.Task{ID: 1, Date: "2025-06-05", StartTime: "08:00", Title: "Gym"})
	svc.AddTask(service.Task{ID: 17, Date: "2025-06-05", StartTime: "10:00", Title: "Dentist"})
	svc.AddTask(service.Task{ID: 3, Date: "2025-06-05", Title: "Call mom"})
	svc.AddTask(service.Task{ID: 4, Date: "2025-06-07", StartTime: "09:00", Title: "Market"})
}

func TestMove_AppliesBeforeNetworkAndConfirms(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := testutil.NewFakeService()
	seedMoveFixture(svc)
	e := newTestEngine(t, svc)
	require.NoError(t, e.Refresh(ctx))

	var during []int64
	svc.OnMoveTask = func(ctx context.Context, id int64, date string) error {
		during = ids(e.Tasks("2025-06-07"))
		return nil
	}

	require.NoError(t, e.Move(ctx, 17, "2025-06-07"))

	assert.Equal(t, []int64{4, 17}, during)
	assert.Equal(t, []int64{1, 3}, ids(e.Tasks("2025-06-05")))
	assert.Equal(t, []int64{4, 17}, ids(e.Tasks("2025-06-07")))
	got, ok := e.Lookup(17)
	require.True(t, ok)
	assert.Equal(t, "2025-06-07", got.Date)

	stored, _ := svc.Task(17)
	assert.Equal(t, "2025-06-07", stored.Date)
}

func TestMove_RollsBackOnFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := testutil.NewFakeService()
	seedMoveFixture(svc)
	e := newTestEngine(t, svc)
	require.NoError(t, e.Refresh(ctx))
	before5 := e.Tasks("2025-06-05")
	before7 := e.Tasks("2025-06-07")

	var during []int64
	svc.OnMoveTask = func(ctx context.Context, id int64, date string) error {
		during = ids(e.Tasks("2025-06-07"))
		return errors.New("server said no")
	}

	err := e.Move(ctx, 17, "2025-06-07")

	var moveErr *MoveError
	require.ErrorAs(t, err, &moveErr)
	assert.Equal(t, "2025-06-05", moveErr.From)
	assert.Contains(t, err.Error(), "server said no")

	assert.Equal(t, []int64{4, 17}, during)
	assert.Equal(t, before5, e.Tasks("2025-06-05"))
	assert.Equal(t, before7, e.Tasks("2025-06-07"))
	got, _ := e.Lookup(17)
	assert.Equal(t, "2025-06-05", got.Date)
}

func TestMove_RollbackKeepsServerOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// Ties come back in insertion order, not title order.
	svc := testutil.NewFakeService()
	svc.AddTask(service.Task{ID: 20, Date: "2025-06-05", StartTime: "09:00", Title: "B"})
	svc.AddTask(service.Task{ID: 21, Date: "2025-06-05", StartTime: "09:00", Title: "A"})
	svc.AddTask(service.Task{ID: 17, Date: "2025-06-05", StartTime: "10:00", Title: "Dentist"})
	svc.AddTask(service.Task{ID: 4, Date: "2025-06-07", StartTime: "09:00", Title: "Market"})
	svc.AddTask(service.Task{ID: 5, Date: "2025-06-07", StartTime: "09:00", Title: "Bakery"})
	e := newTestEngine(t, svc)
	require.NoError(t, e.Refresh(ctx))
	require.Equal(t, []int64{20, 21, 17}, ids(e.Tasks("2025-06-05")))
	require.Equal(t, []int64{4, 5}, ids(e.Tasks("2025-06-07")))

	var during []int64
	svc.OnMoveTask = func(ctx context.Context, id int64, date string) error {
		during = ids(e.Tasks("2025-06-07"))
		return errors.New("server said no")
	}

	for _, tc := range []struct {
		id     int64
		during []int64
	}{
		{17, []int64{4, 5, 17}},
		{20, []int64{20, 4, 5}},
		{21, []int64{21, 4, 5}},
	} {
		err := e.Move(ctx, tc.id, "2025-06-07")
		var moveErr *MoveError
		require.ErrorAs(t, err, &moveErr)
		assert.Equal(t, tc.during, during, "task %d", tc.id)
		assert.Equal(t, []int64{20, 21, 17}, ids(e.Tasks("2025-06-05")), "task %d", tc.id)
		assert.Equal(t, []int64{4, 5}, ids(e.Tasks("2025-06-07")), "task %d", tc.id)
	}
}

func TestMove_TimeoutRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := testutil.NewFakeService()
	seedMoveFixture(svc)
	e := newTestEngine(t, svc, WithMoveTimeout(20*time.Millisecond))
	require.NoError(t, e.Refresh(ctx))

	svc.OnMoveTask = func(ctx context.Context, id int64, date string) error {
		<-ctx.Done()
		return ctx.Err()
	}

	err := e.Move(ctx, 1, "2025-06-20")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []int64{1, 17, 3}, ids(e.Tasks("2025-06-05")))
	assert.Empty(t, e.Tasks("2025-06-20"))
}

func TestMove_NoOps(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := testutil.NewFakeService()
	seedMoveFixture(svc)
	e := newTestEngine(t, svc)
	require.NoError(t, e.Refresh(ctx))

	require.NoError(t, e.Move(ctx, 17, "2025-06-05"))
	require.NoError(t, e.Move(ctx, 999, "2025-06-06"))
	assert.NotContains(t, svc.Calls, "MoveTask")

	err := e.Move(ctx, 17, "06/07/2025")
	assert.True(t, IsValidation(err))
	assert.NotContains(t, svc.Calls, "MoveTask")
}

func TestMove_RefetchDuringFlightWins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := testutil.NewFakeService()
	seedMoveFixture(svc)
	e := newTestEngine(t, svc)
	require.NoError(t, e.Refresh(ctx))

	// A scope switch lands while the move is in flight, then the move fails.
	svc.OnMoveTask = func(ctx context.Context, id int64, date string) error {
		require.NoError(t, e.SetScope(ctx, scope.Family(42)))
		return errors.New("offline")
	}

	err := e.Move(ctx, 17, "2025-06-07")
	require.Error(t, err)

	// The rollback finds nothing to undo in the rebuilt cache.
	assert.Zero(t, e.Snapshot().Tasks.Len())
	assert.Equal(t, scope.Family(42), e.Scope())
}

func TestTransitions(t *testing.T) {
	t.Parallel()

	svc := testutil.NewFakeService()
	seedMoveFixture(svc)
	e := newTestEngine(t, svc)
	require.NoError(t, e.Refresh(context.Background()))
	c := e.Snapshot().Tasks

	applied, p, ok := ApplyOptimistic(c, 17, "2025-06-07")
	require.True(t, ok)
	assert.Equal(t, Pending{TaskID: 17, From: "2025-06-05", To: "2025-06-07", FromIndex: 1, State: MoveApplied}, p)

	confirmed, cp := Confirm(applied, p)
	assert.Equal(t, MoveConfirmed, cp.State)
	assert.Equal(t, applied, confirmed)

	rolled, rp := Rollback(applied, p)
	assert.Equal(t, MoveRolledBack, rp.State)
	assert.Equal(t, c.Get("2025-06-05"), rolled.Get("2025-06-05"))
	assert.Equal(t, c.Get("2025-06-07"), rolled.Get("2025-06-07"))

	same, sp, ok := ApplyOptimistic(c, 17, "2025-06-05")
	assert.False(t, ok)
	assert.Equal(t, MoveIdle, sp.State)
	assert.Equal(t, c, same)
}

func TestViews(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := testutil.NewFakeService()
	svc.AddTask(service.Task{ID: 1, Date: "2025-06-10", Title: "B", StartTime: "09:00"})
	svc.AddTask(service.Task{ID: 2, Date: "2025-06-10", Title: "A", StartTime: "09:00"})
	svc.AddTask(service.Task{ID: 3, Date: "2025-06-10", Title: "C"})
	e := newTestEngine(t, svc)
	require.NoError(t, e.Refresh(ctx))

	grid := e.MonthDays()
	require.Len(t, grid, calendar.GridCells)
	assert.Equal(t, "2025-05-26", grid[0].Key)
	assert.False(t, grid[0].InMonth)
	assert.True(t, grid[6].InMonth)

	var tenth Day
	for _, d := range grid {
		if d.Key == "2025-06-10" {
			tenth = d
		}
	}
	assert.True(t, tenth.Selected)
	assert.Equal(t, []int64{2, 1, 3}, ids(tenth.Tasks))

	cols := e.KanbanDays()
	require.Len(t, cols, 7)
	assert.Equal(t, "2025-06-10", cols[0].Key)
	assert.Equal(t, []int64{2, 1, 3}, ids(cols[0].Tasks))

	require.NoError(t, e.SetKanbanDays(0))
	assert.Len(t, e.KanbanDays(), 30)
	assert.True(t, IsValidation(e.SetKanbanDays(5)))

	e.SelectDate(time.Date(2025, time.June, 28, 15, 0, 0, 0, time.Local))
	require.NoError(t, e.SetKanbanDays(7))
	cols = e.KanbanDays()
	assert.Equal(t, "2025-07-04", cols[6].Key)
	assert.False(t, cols[6].InMonth)
}

func TestOnChange(t *testing.T) {
	t.Parallel()

	var snaps []Snapshot
	svc := testutil.NewFakeService()
	e := newTestEngine(t, svc, WithOnChange(func(s Snapshot) { snaps = append(snaps, s) }))

	require.NoError(t, e.SetScope(context.Background(), scope.Family(9)))
	require.Len(t, snaps, 2) // scope applied, then cache rebuilt
	assert.Equal(t, scope.Family(9), snaps[0].Scope)
	assert.False(t, snaps[0].Fetched)
	assert.True(t, snaps[1].Fetched)
}
