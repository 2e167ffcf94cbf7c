package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvDataDir, EnvStorageDriver, EnvUser, EnvLogLevel} {
		t.Setenv(key, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotEmpty(t, cfg.DataDir)
	assert.NotEmpty(t, cfg.UserID)
	assert.Equal(t, DriverJSON, cfg.Storage.Driver)
	assert.Equal(t, 25, cfg.Timer.FocusMinutes)
	assert.Equal(t, 5, cfg.Timer.BreakMinutes)
	assert.True(t, cfg.Timer.BreakEnabled)
	assert.True(t, cfg.Notifications.Enabled)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadNoConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "#8B5CF6", cfg.Theme.Primary)
	assert.Equal(t, 25, cfg.Timer.FocusMinutes)
}

func TestPathUsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	assert.Equal(t, filepath.Join(dir, "focusflow", "config.yaml"), Path())
}

func TestLoadWithConfigFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
data_dir: /custom/data
user_id: ada
storage:
  driver: sqlite
timer:
  focus_minutes: 50
theme:
  primary: "#FF0000"
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/custom/data", cfg.DataDir)
	assert.Equal(t, "ada", cfg.UserID)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, filepath.Join("/custom/data", "focusflow.db"), cfg.SQLitePath())
	assert.Equal(t, 50, cfg.Timer.FocusMinutes)
	assert.Equal(t, 5, cfg.Timer.BreakMinutes, "unset keys keep defaults")
	assert.Equal(t, "#FF0000", cfg.Theme.Primary)
	assert.Equal(t, "#10B981", cfg.Theme.Accent)
}

func TestMissingBoolKeysDoNotClobberDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "theme:\n  accent: \"#00FF00\"\n")
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, cfg.Timer.BreakEnabled)
	assert.True(t, cfg.Notifications.Enabled)
	assert.False(t, cfg.Log.Debug)
}

func TestExplicitFalseBoolsApply(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
timer:
  break_enabled: false
notifications:
  enabled: false
  sound: true
log:
  debug: true
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.False(t, cfg.Timer.BreakEnabled)
	assert.False(t, cfg.Notifications.Enabled)
	assert.True(t, cfg.Notifications.Sound)
	assert.True(t, cfg.Log.Debug)
}

func TestMergeNonEmpty(t *testing.T) {
	base := Default()
	base.mergeNonEmpty(&Config{DataDir: "/override/path", Theme: ThemeConfig{Primary: "#123456"}})
	assert.Equal(t, "/override/path", base.DataDir)
	assert.Equal(t, "#123456", base.Theme.Primary)
	assert.Equal(t, "#10B981", base.Theme.Accent)
	assert.Equal(t, 25, base.Timer.FocusMinutes)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvDataDir, "/env/data")
	t.Setenv(EnvStorageDriver, "SQLite")
	t.Setenv(EnvUser, "grace")
	t.Setenv(EnvLogLevel, "debug")
	path := writeConfig(t, "data_dir: /file/data\nuser_id: ada\n")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/env/data", cfg.DataDir)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "grace", cfg.UserID)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInvalidValues(t *testing.T) {
	clearEnv(t)
	tests := map[string]string{
		"driver":        "storage:\n  driver: postgres\n",
		"zero minutes":  "timer:\n  focus_minutes: 0\n",
		"level":         "log:\n  level: loud\n",
		"color":         "theme:\n  primary: violet\n",
		"break too big": "timer:\n  break_minutes: 90\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}

func TestMalformedYAML(t *testing.T) {
	clearEnv(t)
	_, err := LoadFile(writeConfig(t, "timer: [unclosed"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.UserID = "ada"
	cfg.Timer.BreakEnabled = false
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ada", loaded.UserID)
	assert.False(t, loaded.Timer.BreakEnabled)
}

func TestGetDataDirExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := &Config{DataDir: "~/habits"}
	assert.Equal(t, filepath.Join(home, "habits"), cfg.GetDataDir())
	cfg.DataDir = "~"
	assert.Equal(t, home, cfg.GetDataDir())
	cfg.DataDir = "/abs"
	assert.Equal(t, "/abs", cfg.GetDataDir())
}
