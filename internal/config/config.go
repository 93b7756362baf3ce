package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"

	"github.com/theirongolddev/bizdash/internal/sheets"
	"github.com/theirongolddev/bizdash/internal/snapshot"
)

// Environment overrides, applied after the config file.
const (
	EnvSourceURL       = "BIZDASH_SOURCE_URL"
	EnvRefreshInterval = "BIZDASH_REFRESH_INTERVAL"
	EnvAddr            = "BIZDASH_ADDR"
	EnvLogLevel        = "BIZDASH_LOG_LEVEL"
)

// Config holds all bizdash configuration.
type Config struct {
	Source  SourceConfig  `toml:"source"`
	Refresh RefreshConfig `toml:"refresh"`
	Server  ServerConfig  `toml:"server"`
	Display DisplayConfig `toml:"display"`
	Log     LogConfig     `toml:"log"`
}

// SourceConfig locates the spreadsheet export.
type SourceConfig struct {
	URL     string `toml:"url"` // http(s) export URL or local file path
	Timeout string `toml:"timeout"`
}

// RefreshConfig controls the auto-refresh schedule.
type RefreshConfig struct {
	Interval string `toml:"interval"`
}

// ServerConfig holds daemon settings.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	EventsBuffer int    `toml:"events_buffer"`
	MCP          bool   `toml:"mcp"`
}

// DisplayConfig holds terminal output preferences.
type DisplayConfig struct {
	Currency string `toml:"currency"`
	Theme    string `toml:"theme"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Source: SourceConfig{
			URL:     sheets.DefaultURL,
			Timeout: "15s",
		},
		Refresh: RefreshConfig{
			Interval: "30s",
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8788",
			EventsBuffer: 200,
			MCP:          true,
		},
		Display: DisplayConfig{
			Currency: "INR",
			Theme:    "flexoki-dark",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "bizdash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "bizdash")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads .env (if present), the config file (if present) and the
// environment, in that order of increasing precedence.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), fmt.Errorf("loading .env: %w", err)
	}
	return LoadFile(ConfigPath())
}

// LoadFile reads the config at path, returning defaults plus environment
// overrides if it doesn't exist.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvSourceURL); v != "" {
		cfg.Source.URL = v
	}
	if v := os.Getenv(EnvRefreshInterval); v != "" {
		cfg.Refresh.Interval = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
}

// Validate checks values that would otherwise fail later at startup.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Source.URL) == "" {
		return errors.New("config: source.url is empty")
	}
	if _, err := c.SourceTimeout(); err != nil {
		return err
	}
	interval, err := c.RefreshInterval()
	if err != nil {
		return err
	}
	if interval < snapshot.MinInterval {
		return fmt.Errorf("config: refresh.interval must be at least %s, got %s", snapshot.MinInterval, c.Refresh.Interval)
	}
	if money.GetCurrency(strings.ToUpper(c.Display.Currency)) == nil {
		return fmt.Errorf("config: unknown display.currency %q", c.Display.Currency)
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// SourceTimeout returns the fetch timeout.
func (c Config) SourceTimeout() (time.Duration, error) {
	return parsePositiveDuration("source.timeout", c.Source.Timeout)
}

// RefreshInterval returns the auto-refresh cadence.
func (c Config) RefreshInterval() (time.Duration, error) {
	return parsePositiveDuration("refresh.interval", c.Refresh.Interval)
}

func parsePositiveDuration(key, s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive, got %s", key, s)
	}
	return d, nil
}

// ParseLogLevel maps a config level name to a slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("config: unknown log.level %q", level)
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveFile(ConfigPath(), cfg)
}

// SaveFile writes the config to path, creating parent directories.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
