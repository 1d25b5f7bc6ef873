package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"famcal/internal/config"
	"famcal/internal/exitcode"
	"famcal/internal/service"
)

func init() {
	Register(&InitCmd{})
}

// InitCmd implements the init command.
type InitCmd struct{}

func (c *InitCmd) Name() string      { return "init" }
func (c *InitCmd) Aliases() []string { return nil }
func (c *InitCmd) Synopsis() string  { return "Write a default config.yaml" }
func (c *InitCmd) Usage() string     { return "famcal init [common flags]" }
func (c *InitCmd) NeedsAuth() bool   { return false }

func (c *InitCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *InitCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if err := cfg.WriteDefault(); err != nil {
		if errors.Is(err, config.ErrSettingsExist) {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		fmt.Fprintf(errOut, "error: failed to write settings: %v\n", err)
		return exitcode.AuthError
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, cfg.SettingsPath())
	}
	return exitcode.Success
}
