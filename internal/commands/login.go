package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"famcal/internal/backend/restapi"
	"famcal/internal/config"
	"famcal/internal/exitcode"
	"famcal/internal/service"
)

// InitDataEnv names the variable login reads init data from when
// --init-data is not given.
const InitDataEnv = config.EnvPrefix + "_INIT_DATA"

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	initData string
	force    bool
}

// SetInitData sets the init-data flag (for testing).
func (c *LoginCmd) SetInitData(data string) { c.initData = data }

// SetForce sets the force flag (for testing).
func (c *LoginCmd) SetForce(force bool) { c.force = force }

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Exchange Telegram init data for a session token" }
func (c *LoginCmd) Usage() string     { return "famcal login [common flags] [--force] [--init-data <data>]" }
func (c *LoginCmd) NeedsAuth() bool   { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.initData, "init-data", "", "")
	fs.BoolVar(&c.force, "force", false, "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	// A readable token is enough; the server decides if it is still valid.
	if !c.force && cfg.HasToken() {
		if _, err := cfg.LoadToken(); err == nil {
			if !cfg.Quiet {
				fmt.Fprintln(out, "already logged in")
			}
			return exitcode.Success
		}
	}

	initData := strings.TrimSpace(c.initData)
	if initData == "" {
		initData = strings.TrimSpace(os.Getenv(InitDataEnv))
	}
	if initData == "" {
		fmt.Fprintf(errOut, "error: init data required (pass --init-data or set %s)\n", InitDataEnv)
		return exitcode.AuthError
	}

	token, err := restapi.Verify(ctx, cfg.APIURL, initData,
		restapi.WithTimeout(cfg.Timeout),
		restapi.WithLogger(cfg.Log()),
	)
	if err != nil {
		return fail(errOut, err)
	}

	if err := cfg.SaveToken(token); err != nil {
		fmt.Fprintf(errOut, "error: failed to save token: %v\n", err)
		return exitcode.AuthError
	}
	return ok(cfg, out)
}
