// Package config handles the configuration directory, the dotenv settings
// file and the derived runtime settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"taskctl/internal/logging"
	"taskctl/internal/session"
)

const (
	// AppName is the application directory name.
	AppName = "taskctl"

	// SettingsFile is the dotenv settings filename inside the config dir.
	SettingsFile = "config.env"

	// LogFile receives logs from the interactive view.
	LogFile = "taskctl.log"

	// DefaultBaseURL is used when no API URL is configured.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultLogLevel is used when no log level is configured.
	DefaultLogLevel = "warn"
)

// Settings keys, read from the environment first and then from SettingsFile.
const (
	KeyBaseURL  = "TASKCTL_API_URL"
	KeyLogLevel = "TASKCTL_LOG_LEVEL"
	KeyTimeout  = "TASKCTL_TIMEOUT"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// BaseURL is the task API base URL, without trailing slash.
	BaseURL string

	// LogLevel is the charm log level name.
	LogLevel string

	// Timeout bounds each API request. Zero means no timeout.
	Timeout time.Duration

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Logger is set by the dispatcher. Use Log() to read it.
	Logger logging.Logger

	// Session is the session store, opened by the dispatcher.
	Session *session.Store
}

// New creates a new Config with the default or specified config directory
// and loads settings from the environment and the settings file.
// If configDir is empty, uses XDG_CONFIG_HOME/taskctl or $HOME/.config/taskctl.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir}
	if err := cfg.load(); err != nil {
		return nil, err
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

func (c *Config) load() error {
	fromFile, err := godotenv.Read(c.SettingsPath())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("invalid %s: %w", SettingsFile, err)
		}
		fromFile = map[string]string{}
	}

	c.BaseURL = strings.TrimRight(coalesce(os.Getenv(KeyBaseURL), fromFile[KeyBaseURL], DefaultBaseURL), "/")
	c.LogLevel = coalesce(os.Getenv(KeyLogLevel), fromFile[KeyLogLevel], DefaultLogLevel)

	if raw := coalesce(os.Getenv(KeyTimeout), fromFile[KeyTimeout]); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid %s: %q", KeyTimeout, raw)
		}
		c.Timeout = d
	}
	return nil
}

// SettingsPath returns the path to the dotenv settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// LogPath returns the path to the interactive view log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Dir, LogFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// Log returns the configured logger, or a discarding one.
func (c *Config) Log() logging.Logger {
	if c.Logger == nil {
		return logging.Discard()
	}
	return c.Logger
}

// EffectiveLogLevel returns the log level, raised to debug by --debug.
func (c *Config) EffectiveLogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.LogLevel
}

func coalesce(args ...string) string {
	for _, s := range args {
		if s != "" {
			return s
		}
	}
	return ""
}

// OpenSession opens the session store kept in the config directory.
func (c *Config) OpenSession() (*session.Store, error) {
	return session.Open(session.NewFileStorage(c.Dir))
}
