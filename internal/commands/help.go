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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "famcal help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  famcal                                             List this month's personal tasks
  famcal list [common flags] [--group <group>] [--month YYYY-MM]
  famcal day [common flags] [--group <group>] [YYYY-MM-DD]
  famcal grid [common flags] [--group <group>] [--month YYYY-MM]
  famcal kanban [common flags] [--group <group>] [--date YYYY-MM-DD] [--days 7|14|30|0]
  famcal add [common flags] [--group <group>] [--date YYYY-MM-DD] [--start HH:MM] [--end HH:MM]
             [--desc <text>] [--color #RRGGBB] [--tags a,b] [--remind-day] [--remind-hour] <title...>
  famcal move [common flags] [--group <group>] <task-id> <YYYY-MM-DD>
  famcal rm [common flags] <task-id>
  famcal groups [common flags]
  famcal creategroup [common flags] <name>
  famcal join [common flags] <code|link>
  famcal leave [common flags] <group>
  famcal invite [common flags] [--share] <group>
  famcal members [common flags] [--search <text>] <group>
  famcal block|unblock|kick [common flags] <group> <user-id>
  famcal whoami [common flags]
  famcal init [common flags]
  famcal login [common flags] [--force] [--init-data <data>]
  famcal logout [common flags]
  famcal help
  famcal version

A group is a family id or name. Without --group commands use personal tasks.

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
