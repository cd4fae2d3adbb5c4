// Package store owns the on-disk SQLite database that holds favorites and
// their aliases.
//
// [Open] creates the database file if needed, turns on foreign-key
// enforcement, and brings the schema up to date. All writes go through
// [Store.InTx] so a failed operation never leaves a partial change behind.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ///////////////////////////////////////////////
// Errors
// ///////////////////////////////////////////////

var (
	// ErrStorageInit is returned when the database cannot be created or opened.
	ErrStorageInit = errors.New("storage init failed")
	// ErrSchemaMigration is returned when the schema cannot be brought up to date.
	ErrSchemaMigration = errors.New("schema migration failed")
)

// ///////////////////////////////////////////////
// Types
// ///////////////////////////////////////////////

// Options tunes how the database connection is opened.
type Options struct {
	// BusyTimeout is how long SQLite waits on a locked database before
	// failing with SQLITE_BUSY. Zero uses the driver default.
	BusyTimeout time.Duration
	// WAL switches the journal to write-ahead logging.
	WAL bool
}

// Querier is the subset of [sql.DB] and [sql.Tx] used by repositories, so the
// same code runs inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is an open favorites database.
type Store struct {
	// db is the single-connection pool backing the store.
	db *sql.DB
	// location is the database file path passed to [Open].
	location string
}

// ///////////////////////////////////////////////
// Open / Close
// ///////////////////////////////////////////////

// Open opens the database at location, creating it and its parent directory
// if absent, and applies pending schema migrations. Failures to reach the
// file wrap [ErrStorageInit]; failures to migrate wrap [ErrSchemaMigration].
func Open(ctx context.Context, location string, opts Options) (*Store, error) {
	if dir := filepath.Dir(location); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create %s: %w", ErrStorageInit, dir, err)
		}
	}

	db, err := sql.Open("sqlite", dsn(location, opts))
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStorageInit, location, err)
	}
	// One invocation, one writer. A single connection also keeps per-connection
	// pragmas in force for every statement.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: open %s: %w", ErrStorageInit, location, err)
	}
	if err := ensureForeignKeys(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", ErrStorageInit, err)
	}

	version, err := Schema.Run(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", ErrSchemaMigration, err)
	}
	slog.Debug("store opened", "location", location, "schema_version", version)

	return &Store{db: db, location: location}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// dsn builds the driver data source name. Pragmas are applied by the driver
// on every new connection.
func dsn(location string, opts Options) string {
	pragmas := []string{"_pragma=foreign_keys(1)"}
	if opts.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("_pragma=busy_timeout(%d)", opts.BusyTimeout.Milliseconds()))
	}
	if opts.WAL {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	return location + "?" + strings.Join(pragmas, "&")
}

// ensureForeignKeys verifies that the connection enforces foreign keys.
func ensureForeignKeys(ctx context.Context, db *sql.DB) error {
	var on int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&on); err != nil {
		return fmt.Errorf("read foreign_keys: %w", err)
	}
	if on == 1 {
		return nil
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign_keys: %w", err)
	}
	return nil
}

// ///////////////////////////////////////////////
// Accessors
// ///////////////////////////////////////////////

// DB returns the underlying handle for read-only callers.
func (s *Store) DB() *sql.DB { return s.db }

// Location returns the database file path.
func (s *Store) Location() string { return s.location }

// SchemaVersion reports the schema version recorded in the database.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// ///////////////////////////////////////////////
// Transactions
// ///////////////////////////////////////////////

// InTx runs fn in a transaction, committing if fn returns nil and rolling
// back otherwise. The error from fn is returned unchanged.
func (s *Store) InTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Warn("rollback failed", "error", rbErr)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ///////////////////////////////////////////////
// Constraint Classification
// ///////////////////////////////////////////////

// IsUniqueViolation reports whether err was caused by a UNIQUE or PRIMARY KEY
// constraint.
func IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE")
	}
	return false
}

// IsForeignKeyViolation reports whether err was caused by a FOREIGN KEY
// constraint.
func IsForeignKeyViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "FOREIGN KEY")
	}
	return false
}
