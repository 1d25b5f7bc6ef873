package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"famcal/internal/calendar"
	"famcal/internal/config"
	"famcal/internal/engine"
	"famcal/internal/exitcode"
	"famcal/internal/service"
)

func init() {
	Register(&AddCmd{})
	Register(&CreateCmd{})
}

// taskFlags holds the task form fields shared by add and create.
type taskFlags struct {
	group      string
	date       string
	start      string
	end        string
	desc       string
	color      string
	tags       string
	remindDay  bool
	remindHour bool
}

func (f *taskFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.group, "group", "", "")
	fs.StringVar(&f.group, "g", "", "")
	fs.StringVar(&f.date, "date", "", "")
	fs.StringVar(&f.date, "d", "", "")
	fs.StringVar(&f.start, "start", "", "")
	fs.StringVar(&f.end, "end", "", "")
	fs.StringVar(&f.desc, "desc", "", "")
	fs.StringVar(&f.color, "color", "", "")
	fs.StringVar(&f.tags, "tags", "", "")
	fs.BoolVar(&f.remindDay, "remind-day", false, "")
	fs.BoolVar(&f.remindHour, "remind-hour", false, "")
}

// AddCmd implements the add command.
type AddCmd struct {
	form taskFlags
}

// SetGroup sets the group flag (for testing).
func (c *AddCmd) SetGroup(group string) { c.form.group = group }

// SetDate sets the date flag (for testing).
func (c *AddCmd) SetDate(date string) { c.form.date = date }

// SetTimes sets the start and end flags (for testing).
func (c *AddCmd) SetTimes(start, end string) { c.form.start, c.form.end = start, end }

// SetTags sets the tags flag (for testing).
func (c *AddCmd) SetTags(tags string) { c.form.tags = tags }

// SetReminders sets the reminder flags (for testing).
func (c *AddCmd) SetReminders(day, hour bool) { c.form.remindDay, c.form.remindHour = day, hour }

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return nil }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "famcal add [--group <group>] [--date YYYY-MM-DD] [--start HH:MM] [--end HH:MM] [--desc <text>] [--color #RRGGBB] [--tags a,b] [--remind-day] [--remind-hour] <title...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	c.form.register(fs)
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	return runAdd(ctx, cfg, svc, c.form, args, out, errOut)
}

// CreateCmd is an alias for AddCmd.
type CreateCmd struct {
	form taskFlags
}

func (c *CreateCmd) Name() string      { return "create" }
func (c *CreateCmd) Aliases() []string { return nil }
func (c *CreateCmd) Synopsis() string  { return "Create a task (alias for add)" }
func (c *CreateCmd) Usage() string {
	return "famcal create [--group <group>] [--date YYYY-MM-DD] [task flags] <title...>"
}
func (c *CreateCmd) NeedsAuth() bool { return true }

func (c *CreateCmd) RegisterFlags(fs *flag.FlagSet) {
	c.form.register(fs)
}

func (c *CreateCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	return runAdd(ctx, cfg, svc, c.form, args, out, errOut)
}

// runAdd is the shared implementation for add and create commands.
func runAdd(ctx context.Context, cfg *config.Config, svc service.Service, form taskFlags, args []string, out, errOut io.Writer) int {
	// Join args to form title
	title := strings.Join(args, " ")
	if strings.TrimSpace(title) == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	date := form.date
	if date == "" {
		date = calendar.DateKey(now())
	}
	day, err := parseDate(date)
	if err != nil {
		return fail(errOut, err)
	}

	e := newEngine(cfg, svc)
	sc, err := resolveScope(ctx, e, form.group)
	if err != nil {
		return fail(errOut, err)
	}
	// Refetch the window the new task lands in.
	if err := e.View(ctx, sc, day); err != nil {
		return fail(errOut, err)
	}

	task, err := e.CreateTask(ctx, engine.TaskDraft{
		Title:       title,
		Description: form.desc,
		Date:        date,
		StartTime:   form.start,
		EndTime:     form.end,
		Scope:       sc,
		Color:       form.color,
		Tags:        form.tags,
		RemindDay:   form.remindDay,
		RemindHour:  form.remindHour,
	})
	if err != nil && task.ID == 0 {
		return fail(errOut, err)
	}
	if err != nil {
		// Created; only the refetch failed.
		cfg.Log().Warn("refresh after create failed", "task", task.ID, "error", err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "ok %d\n", task.ID)
	}
	return exitcode.Success
}
