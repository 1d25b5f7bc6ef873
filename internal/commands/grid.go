package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"famcal/internal/config"
	"famcal/internal/exitcode"
	"famcal/internal/output"
	"famcal/internal/service"
)

func init() {
	Register(&GridCmd{})
	Register(&KanbanCmd{})
}

// GridCmd implements the grid command.
type GridCmd struct {
	view viewFlags
}

// SetMonth sets the month flag (for testing).
func (c *GridCmd) SetMonth(month string) { c.view.month = month }

func (c *GridCmd) Name() string      { return "grid" }
func (c *GridCmd) Aliases() []string { return []string{"month"} }
func (c *GridCmd) Synopsis() string  { return "Print a month grid with task counts" }
func (c *GridCmd) Usage() string {
	return "famcal grid [--group <group>] [--month YYYY-MM]"
}
func (c *GridCmd) NeedsAuth() bool { return true }

func (c *GridCmd) RegisterFlags(fs *flag.FlagSet) {
	c.view.register(fs)
}

func (c *GridCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	e, err := openView(ctx, cfg, svc, c.view)
	if err != nil {
		return fail(errOut, err)
	}
	output.FormatGrid(out, e.Month(), e.MonthDays())
	return exitcode.Success
}

// KanbanCmd implements the kanban command.
type KanbanCmd struct {
	group string
	date  string
	days  int
}

// SetDate sets the date flag (for testing).
func (c *KanbanCmd) SetDate(date string) { c.date = date }

// SetDays sets the days flag (for testing).
func (c *KanbanCmd) SetDays(days int) { c.days = days }

func (c *KanbanCmd) Name() string      { return "kanban" }
func (c *KanbanCmd) Aliases() []string { return nil }
func (c *KanbanCmd) Synopsis() string  { return "Print day columns from a date" }
func (c *KanbanCmd) Usage() string {
	return "famcal kanban [--group <group>] [--date YYYY-MM-DD] [--days 7|14|30|0]"
}
func (c *KanbanCmd) NeedsAuth() bool { return true }

func (c *KanbanCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.group, "group", "", "")
	fs.StringVar(&c.group, "g", "", "")
	fs.StringVar(&c.date, "date", "", "")
	fs.StringVar(&c.date, "d", "", "")
	fs.IntVar(&c.days, "days", -1, "")
}

func (c *KanbanCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	day := now()
	if c.date != "" {
		d, err := parseDate(c.date)
		if err != nil {
			return fail(errOut, err)
		}
		day = d
	}

	e := newEngine(cfg, svc)
	// -1 means the flag was not given; keep the configured default.
	if c.days != -1 {
		if err := e.SetKanbanDays(c.days); err != nil {
			return fail(errOut, err)
		}
	}

	sc, err := resolveScope(ctx, e, c.group)
	if err != nil {
		return fail(errOut, err)
	}
	e.SelectDate(day)
	if err := e.View(ctx, sc, day); err != nil {
		return fail(errOut, err)
	}

	for _, col := range e.KanbanDays() {
		output.FormatKanbanColumn(out, col)
	}
	return exitcode.Success
}
