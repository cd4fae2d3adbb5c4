// Package config provides configuration loading and defaults for fav.
//
// Configuration is loaded from config.toml in the data directory. A missing
// file yields [DefaultConfig]; a present file only needs the keys it wants
// to override.
package config

//go:generate go run ../../cmd/genconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"tools.zach/dev/fav/internal/paths"
)

// CurrentVersion is the config schema version this build reads and writes.
const CurrentVersion = 1

// ///////////////////////////////////////////////
// Configuration Types
// ///////////////////////////////////////////////

// Config represents the top-level configuration.
type Config struct {
	// Version is the config schema version.
	Version int `toml:"version"`
	// Database holds storage settings.
	Database DatabaseConfig `toml:"database"`
	// List holds output settings for `fav list`.
	List ListConfig `toml:"list"`
	// Log holds logging settings.
	Log LogConfig `toml:"log"`

	// Unknown lists keys in the file that matched no field, set by [Load].
	Unknown []string `toml:"-"`
}

// DatabaseConfig holds storage settings.
type DatabaseConfig struct {
	// File is the database file name inside the data directory, or an
	// absolute path to a database elsewhere.
	File string `toml:"file"`
	// BusyTimeoutMS is how long a write waits on a locked database.
	BusyTimeoutMS int `toml:"busy_timeout_ms"`
	// WAL enables write-ahead logging.
	WAL bool `toml:"wal"`
}

// ListConfig holds output settings for `fav list`.
type ListConfig struct {
	// Verbose shows aliases and creation time by default.
	Verbose bool `toml:"verbose"`
	// TimeFormat is the Go reference-time layout for creation times.
	TimeFormat string `toml:"time_format"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `toml:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb"`
}

// ///////////////////////////////////////////////
// Default Configuration
// ///////////////////////////////////////////////

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Database: DatabaseConfig{
			File:          paths.DatabaseFile,
			BusyTimeoutMS: 5000,
			WAL:           true,
		},
		List: ListConfig{
			Verbose:    false,
			TimeFormat: "2006-01-02 15:04",
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 5,
		},
	}
}

// ExampleConfig returns the Config rendered into config.default.toml.
func ExampleConfig() *Config {
	return DefaultConfig()
}

// PeekVersion reads just the version field from raw TOML bytes.
// Returns 1 if the version field is missing, zero, or unreadable.
func PeekVersion(data []byte) int {
	var v struct {
		Version int `toml:"version"`
	}
	if err := toml.Unmarshal(data, &v); err != nil || v.Version == 0 {
		return 1
	}
	return v.Version
}

// ///////////////////////////////////////////////
// Loading
// ///////////////////////////////////////////////

// Load reads and parses dataDir/config.toml. If the file doesn't exist,
// returns DefaultConfig. Unknown keys are ignored and listed in
// [Config.Unknown] for the caller to report.
func Load(dataDir string) (*Config, error) {
	path := filepath.Join(dataDir, paths.ConfigFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if v := PeekVersion(data); v > CurrentVersion {
		return nil, fmt.Errorf("config version %d is newer than supported %d", v, CurrentVersion)
	}

	cfg := DefaultConfig()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	for _, key := range md.Undecoded() {
		cfg.Unknown = append(cfg.Unknown, key.String())
	}
	cfg.Version = CurrentVersion

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

// validLogLevels is the set of accepted log level strings.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks that all configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.File) == "" {
		return errors.New("database.file must not be empty")
	}
	if c.Database.BusyTimeoutMS < 0 {
		return fmt.Errorf("busy_timeout_ms must be >= 0, got %d", c.Database.BusyTimeoutMS)
	}
	if strings.TrimSpace(c.List.TimeFormat) == "" {
		return errors.New("list.time_format must not be empty")
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be trace, debug, info, warn, or error", c.Log.Level)
	}
	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("max_size_mb must be > 0, got %d", c.Log.MaxSizeMB)
	}
	return nil
}

// ///////////////////////////////////////////////
// Accessors
// ///////////////////////////////////////////////

// BusyTimeout returns the configured busy timeout as a duration.
func (c *Config) BusyTimeout() time.Duration {
	return time.Duration(c.Database.BusyTimeoutMS) * time.Millisecond
}

// DatabasePath returns the database location under dir.
func (c *Config) DatabasePath(dir paths.DataDir) string {
	return dir.Database(c.Database.File)
}

// FormatTime renders t in local time with the configured list layout.
func (c *Config) FormatTime(t time.Time) string {
	return t.Local().Format(c.List.TimeFormat)
}
