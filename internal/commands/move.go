package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"famcal/internal/config"
	"famcal/internal/exitcode"
	"famcal/internal/service"
)

func init() {
	Register(&MoveCmd{})
	Register(&RmCmd{})
}

// MoveCmd implements the move command.
type MoveCmd struct {
	view viewFlags
}

// SetGroup sets the group flag (for testing).
func (c *MoveCmd) SetGroup(group string) { c.view.group = group }

// SetMonth sets the month flag (for testing).
func (c *MoveCmd) SetMonth(month string) { c.view.month = month }

func (c *MoveCmd) Name() string      { return "move" }
func (c *MoveCmd) Aliases() []string { return []string{"mv"} }
func (c *MoveCmd) Synopsis() string  { return "Reschedule a task to another day" }
func (c *MoveCmd) Usage() string {
	return "famcal move [--group <group>] [--month YYYY-MM] <task-id> <YYYY-MM-DD>"
}
func (c *MoveCmd) NeedsAuth() bool { return true }

func (c *MoveCmd) RegisterFlags(fs *flag.FlagSet) {
	c.view.register(fs)
}

func (c *MoveCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if len(args) < 2 {
		fmt.Fprintln(errOut, "error: target date required")
		return exitcode.UserError
	}
	to, err := parseDate(args[1])
	if err != nil {
		return fail(errOut, err)
	}

	e, err := openView(ctx, cfg, svc, c.view)
	if err != nil {
		return fail(errOut, err)
	}

	// The task may live in the target month instead of the viewed one.
	task, err := locateTask(ctx, e, id, to)
	if err != nil {
		return fail(errOut, err)
	}

	if err := e.Move(ctx, task.ID, args[1]); err != nil {
		return fail(errOut, err)
	}
	return ok(cfg, out)
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "famcal rm <task-id>" }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	e := newEngine(cfg, svc)
	if err := e.DeleteTask(ctx, id); err != nil {
		return fail(errOut, err)
	}
	return ok(cfg, out)
}
