// Package commands implements the famcal subcommands on top of the engine.
package commands

import (
	"context"
	"flag"
	"io"

	"famcal/internal/config"
	"famcal/internal/service"
)

// Command is one famcal subcommand.
//
// The dispatcher parses the common flags and the ones a command adds in
// RegisterFlags, then calls Run with what is left of the command line. Run
// writes results to out and diagnostics to errOut and returns an exitcode
// value. svc is the calendar API client and is nil for commands whose
// NeedsAuth reports false (help, version, init, login, logout).
type Command interface {
	Name() string
	Aliases() []string
	Synopsis() string
	Usage() string
	NeedsAuth() bool
	RegisterFlags(fs *flag.FlagSet)
	Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int
}

// names returns the primary name of c followed by its aliases.
func names(c Command) []string {
	return append([]string{c.Name()}, c.Aliases()...)
}
