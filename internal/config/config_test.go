package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// isolate runs the test in an empty working directory with no FAMCAL_*
// variables leaking in from the environment.
func isolate(t *testing.T) string {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, key := range []string{"API_URL", "DEBUG_USER", "TIMEOUT", "KANBAN_DAYS", "BOT_USERNAME", "MINI_APP"} {
		t.Setenv(EnvPrefix+"_"+key, "")
		os.Unsetenv(EnvPrefix + "_" + key)
	}
	return t.TempDir()
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Dir)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultKanbanDays, cfg.KanbanDays)
	assert.Equal(t, DefaultMiniApp, cfg.MiniApp)
	assert.Empty(t, cfg.DebugUser)
}

func TestLoad_SettingsFile(t *testing.T) {
	dir := isolate(t)
	settings := "api_url: https://cal.example.com/\ntimeout: 12s\nkanban_days: 14\nbot_username: \"@famcal_bot\"\ndebug_user: \"7\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFile), []byte(settings), 0600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://cal.example.com", cfg.APIURL)
	assert.Equal(t, 12*time.Second, cfg.Timeout)
	assert.Equal(t, 14, cfg.KanbanDays)
	assert.Equal(t, "famcal_bot", cfg.BotUsername)
	assert.Equal(t, "7", cfg.DebugUser)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFile), []byte("api_url: http://file\nkanban_days: 14\n"), 0600))
	t.Setenv("FAMCAL_API_URL", "http://env")
	t.Setenv("FAMCAL_KANBAN_DAYS", "0")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "http://env", cfg.APIURL)
	assert.Equal(t, 0, cfg.KanbanDays)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(EnvFile, []byte("FAMCAL_DEBUG_USER=42\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("FAMCAL_DEBUG_USER") })

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "42", cfg.DebugUser)
}

func TestLoad_Invalid(t *testing.T) {
	dir := isolate(t)

	t.Setenv("FAMCAL_KANBAN_DAYS", "5")
	_, err := Load(dir)
	assert.ErrorContains(t, err, "kanban_days")

	t.Setenv("FAMCAL_KANBAN_DAYS", "7")
	t.Setenv("FAMCAL_TIMEOUT", "soon")
	_, err = Load(dir)
	assert.ErrorContains(t, err, "timeout")
}

func TestWriteDefault(t *testing.T) {
	isolate(t)
	dir := filepath.Join(t.TempDir(), "nested")

	cfg, err := New(dir)
	require.NoError(t, err)
	cfg.BotUsername = "famcal_bot"
	require.NoError(t, cfg.WriteDefault())

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "famcal_bot", loaded.BotUsername)
	assert.Equal(t, DefaultTimeout, loaded.Timeout)

	err = cfg.WriteDefault()
	assert.ErrorIs(t, err, ErrSettingsExist)
}

func TestToken_RoundTrip(t *testing.T) {
	cfg := &Config{Dir: filepath.Join(t.TempDir(), "famcal")}

	assert.False(t, cfg.HasToken())
	_, err := cfg.LoadToken()
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, cfg.SaveToken(&oauth2.Token{AccessToken: "abc", TokenType: "Bearer"}))
	assert.True(t, cfg.HasToken())

	info, err := os.Stat(cfg.TokenPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	tok, err := cfg.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)

	require.NoError(t, cfg.RemoveToken())
	assert.False(t, cfg.HasToken())
}

func TestLoadToken_Empty(t *testing.T) {
	cfg := &Config{Dir: t.TempDir()}
	require.NoError(t, os.WriteFile(cfg.TokenPath(), []byte(`{"token_type":"Bearer"}`), 0600))

	_, err := cfg.LoadToken()
	assert.ErrorContains(t, err, "empty access token")
}

func TestDefaultConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, "/tmp/xdg/famcal", DefaultConfigDir())
}
