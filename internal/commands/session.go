package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"famcal/internal/calendar"
	"famcal/internal/config"
	"famcal/internal/engine"
	"famcal/internal/exitcode"
	"famcal/internal/scope"
	"famcal/internal/service"
)

// now is the clock commands use for "this month" and "today".
var now = time.Now

// newEngine builds the sync engine for one command run.
func newEngine(cfg *config.Config, svc service.Service) *engine.Engine {
	return engine.New(svc,
		engine.WithLogger(cfg.Log()),
		engine.WithClock(now),
		engine.WithKanbanDays(cfg.KanbanDays),
	)
}

// viewFlags are the flags shared by commands that read a month of tasks.
type viewFlags struct {
	group string
	month string
}

func (v *viewFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&v.group, "group", "", "")
	fs.StringVar(&v.group, "g", "", "")
	fs.StringVar(&v.month, "month", "", "")
	fs.StringVar(&v.month, "m", "", "")
}

// resolveScope turns a --group value into a scope. Empty means personal.
func resolveScope(ctx context.Context, e *engine.Engine, group string) (scope.Scope, error) {
	if group == "" {
		return scope.Personal(), nil
	}
	g, err := resolveGroup(ctx, e, group)
	if err != nil {
		return scope.Scope{}, err
	}
	return g.Scope(), nil
}

// resolveGroup loads the user's groups and finds one by id or name.
func resolveGroup(ctx context.Context, e *engine.Engine, ref string) (service.Group, error) {
	if _, err := e.LoadGroups(ctx); err != nil {
		return service.Group{}, err
	}
	return e.ResolveGroup(ref)
}

// openView resolves the scope and month flags and fetches that window.
// An empty month means the current one.
func openView(ctx context.Context, cfg *config.Config, svc service.Service, v viewFlags) (*engine.Engine, error) {
	month := now()
	if v.month != "" {
		m, err := calendar.ParseMonth(v.month)
		if err != nil {
			return nil, &engine.ValidationError{Field: "month", Err: err}
		}
		month = m
	}
	return openAt(ctx, cfg, svc, v.group, month)
}

// openAt fetches the month containing day for the given group.
func openAt(ctx context.Context, cfg *config.Config, svc service.Service, group string, day time.Time) (*engine.Engine, error) {
	e := newEngine(cfg, svc)
	sc, err := resolveScope(ctx, e, group)
	if err != nil {
		return nil, err
	}
	if err := e.View(ctx, sc, day); err != nil {
		return nil, err
	}
	return e, nil
}

// parseDate parses a YYYY-MM-DD argument.
func parseDate(s string) (time.Time, error) {
	t, err := calendar.FromDateKey(s)
	if err != nil {
		return time.Time{}, &engine.ValidationError{Field: "date", Err: err}
	}
	return t, nil
}

// fail prints err and returns the exit code for its class.
func fail(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	case isUserError(err):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

func isUserError(err error) bool {
	return engine.IsValidation(err) ||
		errors.Is(err, engine.ErrGroupNotFound) ||
		errors.Is(err, engine.ErrGroupAmbiguous) ||
		errors.Is(err, service.ErrNotFound) ||
		errors.Is(err, service.ErrForbidden) ||
		errors.Is(err, ErrTaskNotFound)
}

// ok prints the success marker unless quiet.
func ok(cfg *config.Config, out io.Writer) int {
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
