package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"famcal/internal/config"
	"famcal/internal/engine"
	"famcal/internal/exitcode"
	"famcal/internal/output"
	"famcal/internal/scope"
	"famcal/internal/service"
)

func init() {
	Register(&MembersCmd{})
	Register(&memberActionCmd{name: "block", synopsis: "Block a member", apply: (*engine.Engine).Block})
	Register(&memberActionCmd{name: "unblock", synopsis: "Unblock a member", apply: (*engine.Engine).Unblock})
	Register(&memberActionCmd{name: "kick", synopsis: "Remove a member from a group", apply: (*engine.Engine).RemoveMember})
}

// MembersCmd implements the members command.
type MembersCmd struct {
	search string
}

// SetSearch sets the search flag (for testing).
func (c *MembersCmd) SetSearch(q string) { c.search = q }

func (c *MembersCmd) Name() string      { return "members" }
func (c *MembersCmd) Aliases() []string { return nil }
func (c *MembersCmd) Synopsis() string  { return "Print a group's members" }
func (c *MembersCmd) Usage() string     { return "famcal members [--search <text>] <group>" }
func (c *MembersCmd) NeedsAuth() bool   { return true }

func (c *MembersCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.search, "search", "", "")
	fs.StringVar(&c.search, "s", "", "")
}

func (c *MembersCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: group required")
		return exitcode.UserError
	}

	e := newEngine(cfg, svc)
	g, err := resolveGroup(ctx, e, args[0])
	if err != nil {
		return fail(errOut, err)
	}
	members, err := e.Members(ctx, g.ID)
	if err != nil {
		return fail(errOut, err)
	}

	shown := engine.FilterMembers(members, c.search)
	if len(shown) == 0 && !cfg.Quiet {
		fmt.Fprintln(out, "no members found")
	}
	for _, m := range shown {
		output.FormatMember(out, m)
	}

	if !cfg.Quiet {
		me, err := svc.Me(ctx)
		if err == nil && engine.CanManage(members, me.ID) {
			fmt.Fprintf(out, "\nmanage: famcal block|unblock|kick %s <user-id>\n", g.ID)
		}
	}
	return exitcode.Success
}

// memberActionCmd implements block, unblock and kick.
type memberActionCmd struct {
	name     string
	synopsis string
	apply    func(*engine.Engine, context.Context, scope.FamilyID, int64) ([]service.Member, error)
}

// NewBlockCmd returns the block command (for testing).
func NewBlockCmd() Command {
	c, _ := DefaultRegistry.Find("block")
	return c
}

// NewKickCmd returns the kick command (for testing).
func NewKickCmd() Command {
	c, _ := DefaultRegistry.Find("kick")
	return c
}

func (c *memberActionCmd) Name() string      { return c.name }
func (c *memberActionCmd) Aliases() []string { return nil }
func (c *memberActionCmd) Synopsis() string  { return c.synopsis }
func (c *memberActionCmd) Usage() string {
	return "famcal " + c.name + " [common flags] <group> <user-id>"
}
func (c *memberActionCmd) NeedsAuth() bool { return true }

func (c *memberActionCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *memberActionCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: group required")
		return exitcode.UserError
	}
	userID, err := ParseUserRef(args[1:])
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	e := newEngine(cfg, svc)
	g, err := resolveGroup(ctx, e, args[0])
	if err != nil {
		return fail(errOut, err)
	}
	if _, err := c.apply(e, ctx, g.ID, userID); err != nil {
		return fail(errOut, err)
	}
	return ok(cfg, out)
}
