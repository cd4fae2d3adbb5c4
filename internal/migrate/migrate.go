// Package migrate applies sequential schema migrations to a SQLite database,
// upgrading from one version to the next.
//
// The schema version lives in PRAGMA user_version. Each migration runs in its
// own transaction together with the version bump, so a failed upgrade leaves
// the database at the last version that fully applied.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
)

// ///////////////////////////////////////////////
// Types
// ///////////////////////////////////////////////

// Migration represents a schema migration that upgrades the database
// from one version to the next.
type Migration struct {
	// Version is the schema version this migration produces.
	Version int
	// Description is a short human-readable label for log output.
	Description string
	// Upgrade transforms the schema from the prior version to [Migration.Version].
	Upgrade func(ctx context.Context, tx *sql.Tx) error
}

// ///////////////////////////////////////////////
// Public API
// ///////////////////////////////////////////////

// Version reads the schema version stored in the database.
func Version(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return v, nil
}

// Run applies migrations sequentially where the stored version < m.Version.
// Returns the final version reached and any error.
func Run(ctx context.Context, db *sql.DB, migrations []Migration) (int, error) {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Version < sorted[j].Version
	})

	version, err := Version(ctx, db)
	if err != nil {
		return 0, err
	}
	for _, m := range sorted {
		if version >= m.Version {
			continue
		}
		slog.Info("applying migration", "version", m.Version, "description", m.Description)
		if err := apply(ctx, db, m); err != nil {
			return version, fmt.Errorf("migration to v%d failed: %w", m.Version, err)
		}
		version = m.Version
	}
	return version, nil
}

// NeedsMigration reports whether a database at dbVersion would have any
// migrations applied given the registered migrations.
func NeedsMigration(dbVersion int, migrations []Migration) bool {
	for _, m := range migrations {
		if dbVersion < m.Version {
			return true
		}
	}
	return false
}

// apply runs one migration and records its version in a single transaction.
func apply(ctx context.Context, db *sql.DB, m Migration) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = m.Upgrade(ctx, tx); err != nil {
		return err
	}
	// PRAGMA does not accept bound parameters.
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
