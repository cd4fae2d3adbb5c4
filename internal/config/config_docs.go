package config

// ///////////////////////////////////////////////
// Documentation Types
// ///////////////////////////////////////////////

// FieldDoc holds documentation and alternative examples for a single config field.
// The genconfig tool uses [FieldDoc] values to annotate config.default.toml.
type FieldDoc struct {
	// Comment is shown as a header comment above the field.
	Comment string

	// Alternatives are shown as commented-out lines below the active value.
	Alternatives []string
}

// ///////////////////////////////////////////////
// Field Documentation Map
// ///////////////////////////////////////////////

// ConfigDocs maps TOML field paths (dot-separated, e.g. "database.wal") to
// their [FieldDoc] entries.
var ConfigDocs = map[string]FieldDoc{
	// Root
	"version": {
		Comment: "Config schema version. Do not edit.",
	},

	// Database
	"database.file": {
		Comment: "Database file. Relative names live in the data directory.",
		Alternatives: []string{
			`file = "/srv/shared/fav.db"`,
		},
	},
	"database.busy_timeout_ms": {
		Comment: "How long a command waits on a database locked by another process.",
	},
	"database.wal": {
		Comment: "Write-ahead logging. Turn off for databases on network filesystems.",
	},

	// List
	"list.verbose": {
		Comment: "Show aliases and creation time in `fav list` without -v.",
	},
	"list.time_format": {
		Comment: "Go reference-time layout for creation times in verbose listings.",
		Alternatives: []string{
			`time_format = "2006-01-02T15:04:05Z07:00"`,
			`time_format = "Jan 2 2006"`,
		},
	},

	// Log
	"log.level": {
		Comment: "Minimum log level: trace, debug, info, warn, error",
		Alternatives: []string{
			`level = "debug"`,
		},
	},
	"log.max_size_mb": {
		Comment: "Rotate fav.log after this many megabytes.",
	},
}
