// Package config loads focusflow settings from
// $XDG_CONFIG_HOME/focusflow/config.yaml, environment variables and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"focusflow/internal/fsutil"
	"focusflow/internal/storage"
)

const appName = "focusflow"

// Storage drivers.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Environment overrides.
const (
	EnvDataDir       = "FOCUSFLOW_DATA_DIR"
	EnvStorageDriver = "FOCUSFLOW_STORAGE_DRIVER"
	EnvUser          = "FOCUSFLOW_USER"
	EnvLogLevel      = "FOCUSFLOW_LOG_LEVEL"
)

// Config is the application configuration.
type Config struct {
	// DataDir holds habits, sessions, local state and logs (default ~/.focusflow).
	DataDir string `yaml:"data_dir,omitempty"`
	// UserID owns every record this install creates.
	UserID string `yaml:"user_id,omitempty" validate:"required"`

	Storage       StorageConfig      `yaml:"storage,omitempty"`
	Timer         TimerConfig        `yaml:"timer,omitempty"`
	Notifications NotificationConfig `yaml:"notifications,omitempty"`
	Theme         ThemeConfig        `yaml:"theme,omitempty"`
	Log           LogConfig          `yaml:"log,omitempty"`
}

// StorageConfig selects the backend.
type StorageConfig struct {
	Driver string `yaml:"driver,omitempty" validate:"oneof=json sqlite"`
	// Path is the SQLite file; empty means <data_dir>/focusflow.db.
	Path string `yaml:"path,omitempty"`
}

// TimerConfig holds focus timer defaults.
type TimerConfig struct {
	FocusMinutes int  `yaml:"focus_minutes,omitempty" validate:"min=1,max=240"`
	BreakMinutes int  `yaml:"break_minutes,omitempty" validate:"min=1,max=60"`
	BreakEnabled bool `yaml:"break_enabled"`
}

// NotificationConfig controls desktop notifications.
type NotificationConfig struct {
	Enabled bool `yaml:"enabled"`
	Sound   bool `yaml:"sound"`
}

// ThemeConfig holds UI colors as hex strings.
type ThemeConfig struct {
	Primary string `yaml:"primary,omitempty" validate:"omitempty,hexcolor"`
	Accent  string `yaml:"accent,omitempty" validate:"omitempty,hexcolor"`
	Muted   string `yaml:"muted,omitempty" validate:"omitempty,hexcolor"`
	Warning string `yaml:"warning,omitempty" validate:"omitempty,hexcolor"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level string `yaml:"level,omitempty" validate:"oneof=debug info warn error"`
	Debug bool   `yaml:"debug"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DataDir: defaultDataDir(),
		UserID:  defaultUser(),
		Storage: StorageConfig{Driver: DriverJSON},
		Timer: TimerConfig{
			FocusMinutes: 25,
			BreakMinutes: 5,
			BreakEnabled: true,
		},
		Notifications: NotificationConfig{Enabled: true},
		Theme: ThemeConfig{
			Primary: "#8B5CF6", // Violet
			Accent:  "#10B981", // Emerald
			Muted:   "#6B7280", // Gray
			Warning: "#F59E0B", // Amber
		},
		Log: LogConfig{Level: "warn"},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + appName
	}
	return filepath.Join(home, "."+appName)
}

func defaultUser() string {
	for _, key := range []string{"USER", "USERNAME"} {
		if u := os.Getenv(key); u != "" {
			return u
		}
	}
	return "local"
}

// Dir returns the configuration directory (XDG compliant).
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// Path returns the default config file path, or "" when there is no home.
func Path() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the default config file. See LoadFile.
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile merges the YAML file at path (if any) onto the defaults, then
// applies environment overrides. Variables from a .env file in the working
// directory are loaded first without replacing ones already set.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := cfg.mergeYAML(data); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeYAML(data []byte) error {
	var user Config
	if err := yaml.Unmarshal(data, &user); err != nil {
		return err
	}
	var doc yaml.Node
	_ = yaml.Unmarshal(data, &doc) // best-effort; without it only non-empty values merge
	c.mergeFrom(&user, &doc)
	return nil
}

// mergeNonEmpty copies non-empty strings and positive ints from other.
// Booleans need presence information and are handled by mergeFrom.
func (c *Config) mergeNonEmpty(other *Config) {
	setString(&c.DataDir, other.DataDir)
	setString(&c.UserID, other.UserID)
	setString(&c.Storage.Driver, other.Storage.Driver)
	setString(&c.Storage.Path, other.Storage.Path)
	setString(&c.Theme.Primary, other.Theme.Primary)
	setString(&c.Theme.Accent, other.Theme.Accent)
	setString(&c.Theme.Muted, other.Theme.Muted)
	setString(&c.Theme.Warning, other.Theme.Warning)
	setString(&c.Log.Level, other.Log.Level)

	if other.Timer.FocusMinutes > 0 {
		c.Timer.FocusMinutes = other.Timer.FocusMinutes
	}
	if other.Timer.BreakMinutes > 0 {
		c.Timer.BreakMinutes = other.Timer.BreakMinutes
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *Config) mergeFrom(other *Config, doc *yaml.Node) {
	c.mergeNonEmpty(other)
	if doc == nil || len(doc.Content) == 0 {
		return
	}

	// Explicit values win, including zero, so that validation can reject them.
	if yamlHasPath(doc, "timer", "focus_minutes") {
		c.Timer.FocusMinutes = other.Timer.FocusMinutes
	}
	if yamlHasPath(doc, "timer", "break_minutes") {
		c.Timer.BreakMinutes = other.Timer.BreakMinutes
	}
	if yamlHasPath(doc, "timer", "break_enabled") {
		c.Timer.BreakEnabled = other.Timer.BreakEnabled
	}
	if yamlHasPath(doc, "notifications", "enabled") {
		c.Notifications.Enabled = other.Notifications.Enabled
	}
	if yamlHasPath(doc, "notifications", "sound") {
		c.Notifications.Sound = other.Notifications.Sound
	}
	if yamlHasPath(doc, "log", "debug") {
		c.Log.Debug = other.Log.Debug
	}
}

func yamlHasPath(doc *yaml.Node, path ...string) bool {
	if doc == nil || len(path) == 0 {
		return false
	}
	n := doc
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	for _, key := range path {
		if n == nil || n.Kind != yaml.MappingNode {
			return false
		}
		var next *yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			if k := n.Content[i]; k.Kind == yaml.ScalarNode && k.Value == key {
				next = n.Content[i+1]
				break
			}
		}
		if next == nil {
			return false
		}
		n = next
	}
	return true
}

func (c *Config) applyEnv(getenv func(string) string) {
	setString(&c.DataDir, strings.TrimSpace(getenv(EnvDataDir)))
	setString(&c.Storage.Driver, strings.ToLower(strings.TrimSpace(getenv(EnvStorageDriver))))
	setString(&c.UserID, strings.TrimSpace(getenv(EnvUser)))
	setString(&c.Log.Level, strings.ToLower(strings.TrimSpace(getenv(EnvLogLevel))))
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: invalid value %v (%s %s)", fe.Namespace(), fe.Value(), fe.Tag(), fe.Param()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), fsutil.DirPerm); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, fsutil.FilePerm)
}

// GetDataDir returns DataDir with a leading ~ expanded.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return defaultDataDir()
	}
	if c.DataDir == "~" || strings.HasPrefix(c.DataDir, "~/") || strings.HasPrefix(c.DataDir, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return c.DataDir
		}
		return filepath.Join(home, strings.TrimLeft(c.DataDir[1:], `/\`))
	}
	return c.DataDir
}

// SQLitePath returns where the SQLite database lives.
func (c *Config) SQLitePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	return filepath.Join(c.GetDataDir(), storage.SQLiteFile)
}
