package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"famcal/internal/cache"
	"famcal/internal/calendar"
	"famcal/internal/config"
	"famcal/internal/exitcode"
	"famcal/internal/output"
	"famcal/internal/service"
)

func init() {
	Register(&ListCmd{})
	Register(&DayCmd{})
}

// ListCmd implements the list command.
// Handles both `famcal` (no args) and `famcal list`.
type ListCmd struct {
	view viewFlags
}

// SetGroup sets the group flag (for testing).
func (c *ListCmd) SetGroup(group string) { c.view.group = group }

// SetMonth sets the month flag (for testing).
func (c *ListCmd) SetMonth(month string) { c.view.month = month }

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List a month of tasks by day" }
func (c *ListCmd) Usage() string {
	return "famcal list [--group <group>] [--month YYYY-MM]"
}
func (c *ListCmd) NeedsAuth() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	c.view.register(fs)
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	e, err := openView(ctx, cfg, svc, c.view)
	if err != nil {
		return fail(errOut, err)
	}

	snap := e.Snapshot()
	keys := snap.Tasks.Keys()
	if len(keys) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks found")
		}
		return exitcode.Success
	}

	selected := calendar.DateKey(snap.Selected)
	for _, day := range snap.Window.Days() {
		key := calendar.DateKey(day)
		tasks := e.Tasks(key)
		if len(tasks) == 0 {
			continue
		}
		cache.Sort(tasks)
		output.FormatDayHeader(out, day, key == selected)
		for _, t := range tasks {
			output.FormatTask(out, t)
		}
	}
	return exitcode.Success
}

// DayCmd implements the day command.
type DayCmd struct {
	group string
}

// SetGroup sets the group flag (for testing).
func (c *DayCmd) SetGroup(group string) { c.group = group }

func (c *DayCmd) Name() string      { return "day" }
func (c *DayCmd) Aliases() []string { return nil }
func (c *DayCmd) Synopsis() string  { return "List one day's tasks" }
func (c *DayCmd) Usage() string     { return "famcal day [--group <group>] [YYYY-MM-DD]" }
func (c *DayCmd) NeedsAuth() bool   { return true }

func (c *DayCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.group, "group", "", "")
	fs.StringVar(&c.group, "g", "", "")
}

func (c *DayCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	day := calendar.Midnight(now())
	if len(args) > 0 {
		d, err := parseDate(strings.TrimSpace(args[0]))
		if err != nil {
			return fail(errOut, err)
		}
		day = d
	}

	e, err := openAt(ctx, cfg, svc, c.group, day)
	if err != nil {
		return fail(errOut, err)
	}

	tasks := e.Tasks(calendar.DateKey(day))
	cache.Sort(tasks)
	if len(tasks) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks found")
		}
		return exitcode.Success
	}
	for _, t := range tasks {
		output.FormatTask(out, t)
	}
	return exitcode.Success
}
