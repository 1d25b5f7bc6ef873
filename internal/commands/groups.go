package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"famcal/internal/config"
	"famcal/internal/engine"
	"famcal/internal/exitcode"
	"famcal/internal/output"
	"famcal/internal/service"
)

func init() {
	Register(&GroupsCmd{})
	Register(&CreateGroupCmd{})
	Register(&JoinCmd{})
	Register(&LeaveCmd{})
	Register(&InviteCmd{})
}

// GroupsCmd implements the groups command.
type GroupsCmd struct{}

func (c *GroupsCmd) Name() string      { return "groups" }
func (c *GroupsCmd) Aliases() []string { return nil }
func (c *GroupsCmd) Synopsis() string  { return "Print your groups" }
func (c *GroupsCmd) Usage() string     { return "famcal groups [common flags]" }
func (c *GroupsCmd) NeedsAuth() bool   { return true }

func (c *GroupsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *GroupsCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	groups, err := newEngine(cfg, svc).LoadGroups(ctx)
	if err != nil {
		return fail(errOut, err)
	}

	if len(groups) == 0 && !cfg.Quiet {
		fmt.Fprintln(out, "no groups")
	}
	for _, g := range groups {
		output.FormatGroup(out, g)
	}
	return exitcode.Success
}

// CreateGroupCmd implements the creategroup command.
type CreateGroupCmd struct{}

func (c *CreateGroupCmd) Name() string      { return "creategroup" }
func (c *CreateGroupCmd) Aliases() []string { return []string{"addgroup"} }
func (c *CreateGroupCmd) Synopsis() string  { return "Create a group" }
func (c *CreateGroupCmd) Usage() string     { return "famcal creategroup [common flags] <name>" }
func (c *CreateGroupCmd) NeedsAuth() bool   { return true }

func (c *CreateGroupCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *CreateGroupCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	// Join args to form group name
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		fmt.Fprintln(errOut, "error: group name required")
		return exitcode.UserError
	}

	e := newEngine(cfg, svc)
	if _, err := resolveGroup(ctx, e, name); err == nil {
		fmt.Fprintf(errOut, "error: group already exists: %s\n", name)
		return exitcode.UserError
	} else if !isUserError(err) {
		return fail(errOut, err)
	}

	g, err := e.CreateGroup(ctx, name)
	if err != nil && g.ID == 0 {
		return fail(errOut, err)
	}
	if err != nil {
		cfg.Log().Warn("reload groups after create failed", "group", g.ID, "error", err)
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "ok %d\n", g.ID)
	}
	return exitcode.Success
}

// JoinCmd implements the join command.
type JoinCmd struct{}

func (c *JoinCmd) Name() string      { return "join" }
func (c *JoinCmd) Aliases() []string { return nil }
func (c *JoinCmd) Synopsis() string  { return "Join a group by invite code or link" }
func (c *JoinCmd) Usage() string     { return "famcal join [common flags] <code|link>" }
func (c *JoinCmd) NeedsAuth() bool   { return true }

func (c *JoinCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *JoinCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: invite code required")
		return exitcode.UserError
	}
	if err := newEngine(cfg, svc).Join(ctx, args[0]); err != nil {
		return fail(errOut, err)
	}
	return ok(cfg, out)
}

// LeaveCmd implements the leave command.
type LeaveCmd struct{}

func (c *LeaveCmd) Name() string      { return "leave" }
func (c *LeaveCmd) Aliases() []string { return nil }
func (c *LeaveCmd) Synopsis() string  { return "Leave a group" }
func (c *LeaveCmd) Usage() string     { return "famcal leave [common flags] <group>" }
func (c *LeaveCmd) NeedsAuth() bool   { return true }

func (c *LeaveCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LeaveCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	ref := strings.TrimSpace(strings.Join(args, " "))
	if ref == "" {
		fmt.Fprintln(errOut, "error: group required")
		return exitcode.UserError
	}

	e := newEngine(cfg, svc)
	g, err := resolveGroup(ctx, e, ref)
	if err != nil {
		return fail(errOut, err)
	}
	if err := e.Leave(ctx, g.ID); err != nil {
		return fail(errOut, err)
	}
	return ok(cfg, out)
}

// InviteCmd implements the invite command.
type InviteCmd struct {
	share bool
}

// SetShare sets the share flag (for testing).
func (c *InviteCmd) SetShare(share bool) { c.share = share }

func (c *InviteCmd) Name() string      { return "invite" }
func (c *InviteCmd) Aliases() []string { return nil }
func (c *InviteCmd) Synopsis() string  { return "Print a group's invite link" }
func (c *InviteCmd) Usage() string     { return "famcal invite [--share] <group>" }
func (c *InviteCmd) NeedsAuth() bool   { return true }

func (c *InviteCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.share, "share", false, "")
}

func (c *InviteCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	ref := strings.TrimSpace(strings.Join(args, " "))
	if ref == "" {
		fmt.Fprintln(errOut, "error: group required")
		return exitcode.UserError
	}

	g, err := resolveGroup(ctx, newEngine(cfg, svc), ref)
	if err != nil {
		return fail(errOut, err)
	}

	// Without a bot name only the raw code can be shared.
	if cfg.BotUsername == "" {
		fmt.Fprintln(out, g.InviteCode)
		return exitcode.Success
	}
	link := engine.InviteLink(cfg.BotUsername, cfg.MiniApp, g.InviteCode)
	if c.share {
		link = engine.ShareURL(link, g.Name)
	}
	fmt.Fprintln(out, link)
	return exitcode.Success
}
