package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Registry holds the version and migrations for a single schema target.
type Registry struct {
	// CurrentVersion is the latest schema version that this registry targets.
	CurrentVersion int
	// Migrations is the ordered list of versioned upgrades. Exported so
	// tests can override the migration list for a given registry instance.
	Migrations []Migration
}

// Register appends a migration to the registry and raises CurrentVersion to
// match. It panics if a migration with the same version is already
// registered, preventing silent conflicts.
func (r *Registry) Register(m Migration) {
	for _, existing := range r.Migrations {
		if existing.Version == m.Version {
			panic(fmt.Sprintf("migrate: duplicate migration version %d (description: %q)", m.Version, m.Description))
		}
	}
	r.Migrations = append(r.Migrations, m)
	if m.Version > r.CurrentVersion {
		r.CurrentVersion = m.Version
	}
}

// NeedsMigration reports whether a database at dbVersion would have any
// registered migrations applied.
func (r *Registry) NeedsMigration(dbVersion int) bool {
	return NeedsMigration(dbVersion, r.Migrations)
}

// Run applies registered migrations to db. A database whose stored version is
// newer than [Registry.CurrentVersion] was written by a newer binary and is
// rejected rather than silently used.
func (r *Registry) Run(ctx context.Context, db *sql.DB) (int, error) {
	v, err := Version(ctx, db)
	if err != nil {
		return 0, err
	}
	if v > r.CurrentVersion {
		return v, fmt.Errorf("database schema v%d is newer than supported v%d", v, r.CurrentVersion)
	}
	if !r.NeedsMigration(v) {
		slog.Debug("schema up to date", "version", v)
		return v, nil
	}
	return Run(ctx, db, r.Migrations)
}

// Exec returns an Upgrade func that executes each statement in order.
func Exec(stmts ...string) func(context.Context, *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		for _, s := range stmts {
			if _, err := tx.ExecContext(ctx, s); err != nil {
				return err
			}
		}
		return nil
	}
}
