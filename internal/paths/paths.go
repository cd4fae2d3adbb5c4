// Package paths centralizes file and directory names used across the project.
// All data directory file names are defined here as the single source of truth.
package paths

import (
	"os"
	"path/filepath"
)

// ///////////////////////////////////////////////
// Constants
// ///////////////////////////////////////////////

// Data directory file names.
const (
	ConfigFile   = "config.toml"
	DatabaseFile = "fav.db"
	LogFile      = "fav.log"
	LockFile     = "fav.lock"
)

// Locations of the data directory itself.
const (
	BinaryName = "fav"
	DataDirRel = ".config/fav" // relative to $HOME
	HomeEnv    = "FAV_HOME"
)

// ///////////////////////////////////////////////
// DataDir
// ///////////////////////////////////////////////

// DataDir provides path construction methods rooted at a data directory.
type DataDir struct {
	Root string
}

// Config returns the full path to the config file.
func (d DataDir) Config() string { return filepath.Join(d.Root, ConfigFile) }

// Log returns the full path to the log file.
func (d DataDir) Log() string { return filepath.Join(d.Root, LogFile) }

// Lock returns the full path to the invocation lock file.
func (d DataDir) Lock() string { return filepath.Join(d.Root, LockFile) }

// Database returns the database location for name. Absolute names are used
// as-is; relative names (including the empty default) live under Root.
func (d DataDir) Database(name string) string {
	if name == "" {
		name = DatabaseFile
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.Root, name)
}

// Default returns the data directory to use when none is given explicitly:
// $FAV_HOME if set, otherwise ~/.config/fav. Falls back to ./.config/fav if
// the home directory cannot be determined.
func Default() DataDir {
	if env := os.Getenv(HomeEnv); env != "" {
		return DataDir{Root: env}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return DataDir{Root: filepath.Join(".", filepath.FromSlash(DataDirRel))}
	}
	return DataDir{Root: filepath.Join(home, filepath.FromSlash(DataDirRel))}
}
