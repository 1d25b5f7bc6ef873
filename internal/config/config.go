// Package config handles the XDG configuration directory, the settings file
// and the stored session token.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "famcal"

	// SettingsFile is the settings filename inside the config directory.
	SettingsFile = "config.yaml"

	// TokenFile is the stored session token filename.
	TokenFile = "token.json"

	// EnvPrefix prefixes environment overrides, e.g. FAMCAL_API_URL.
	EnvPrefix = "FAMCAL"

	// EnvFile is loaded from the working directory when present.
	EnvFile = ".env"
)

// Defaults for settings that are absent everywhere.
const (
	DefaultAPIURL     = "http://localhost:8000"
	DefaultTimeout    = 5 * time.Second
	DefaultKanbanDays = 7
	DefaultMiniApp    = "app"
)

// ErrSettingsExist is returned by WriteDefault when config.yaml is already there.
var ErrSettingsExist = errors.New("settings file already exists")

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// APIURL is the calendar API base URL.
	APIURL string

	// DebugUser, when set and no token is stored, is sent as X-Debug-User-Id.
	// Only development backends honor it.
	DebugUser string

	// Timeout bounds every API call.
	Timeout time.Duration

	// KanbanDays is the default kanban window (7, 14, 30, or 0 for the month).
	KanbanDays int

	// BotUsername and MiniApp build invite links.
	BotUsername string
	MiniApp     string

	// Logger receives debug output. Nil means discard.
	Logger *slog.Logger
}

// Settings is the on-disk shape of config.yaml.
type Settings struct {
	APIURL      string `yaml:"api_url"`
	DebugUser   string `yaml:"debug_user,omitempty"`
	Timeout     string `yaml:"timeout"`
	KanbanDays  int    `yaml:"kanban_days"`
	BotUsername string `yaml:"bot_username"`
	MiniApp     string `yaml:"mini_app"`
}

// New creates a Config with default settings and the default or specified
// config directory. Nothing is read from disk.
// If configDir is empty, uses XDG_CONFIG_HOME/famcal or $HOME/.config/famcal.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{
		Dir:        dir,
		APIURL:     DefaultAPIURL,
		Timeout:    DefaultTimeout,
		KanbanDays: DefaultKanbanDays,
		MiniApp:    DefaultMiniApp,
	}, nil
}

// Load creates a Config and applies, in order: config.yaml from the config
// directory, a .env file in the working directory, and FAMCAL_* variables.
// Missing files are not an error.
func Load(configDir string) (*Config, error) {
	cfg, err := New(configDir)
	if err != nil {
		return nil, err
	}

	if err := godotenv.Load(EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", EnvFile, err)
	}

	v := viper.New()
	v.SetConfigFile(cfg.SettingsPath())
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("api_url", cfg.APIURL)
	v.SetDefault("debug_user", "")
	v.SetDefault("timeout", cfg.Timeout.String())
	v.SetDefault("kanban_days", cfg.KanbanDays)
	v.SetDefault("bot_username", "")
	v.SetDefault("mini_app", cfg.MiniApp)

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("invalid %s: %w", SettingsFile, err)
	}

	cfg.APIURL = strings.TrimRight(v.GetString("api_url"), "/")
	cfg.DebugUser = v.GetString("debug_user")
	cfg.BotUsername = strings.TrimPrefix(v.GetString("bot_username"), "@")
	cfg.MiniApp = v.GetString("mini_app")

	timeout, err := time.ParseDuration(v.GetString("timeout"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("invalid timeout: %q", v.GetString("timeout"))
	}
	cfg.Timeout = timeout

	days := v.GetInt("kanban_days")
	switch days {
	case 0, 7, 14, 30:
		cfg.KanbanDays = days
	default:
		return nil, fmt.Errorf("invalid kanban_days: %d (want 7, 14, 30 or 0)", days)
	}

	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// Log returns the configured logger, or one that discards everything.
func (c *Config) Log() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}

// SettingsPath returns the path to config.yaml.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// TokenPath returns the path to the stored session token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// WriteDefault writes config.yaml with the current settings. It refuses to
// overwrite an existing file.
func (c *Config) WriteDefault() error {
	if _, err := os.Stat(c.SettingsPath()); err == nil {
		return fmt.Errorf("%w: %s", ErrSettingsExist, c.SettingsPath())
	}
	if err := c.EnsureDir(); err != nil {
		return err
	}
	data, err := yaml.Marshal(Settings{
		APIURL:      c.APIURL,
		DebugUser:   c.DebugUser,
		Timeout:     c.Timeout.String(),
		KanbanDays:  c.KanbanDays,
		BotUsername: c.BotUsername,
		MiniApp:     c.MiniApp,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(c.SettingsPath(), data, 0600)
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// LoadToken reads the stored session token.
func (c *Config) LoadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.TokenPath())
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", TokenFile, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("invalid %s: empty access token", TokenFile)
	}
	return &token, nil
}

// SaveToken stores a session token with mode 0600.
func (c *Config) SaveToken(token *oauth2.Token) error {
	if err := c.EnsureDir(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.TokenPath(), data, 0600)
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
