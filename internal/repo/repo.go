// Package repo mediates all access to the favorites and aliases relations.
//
// Repositories are the only place uniqueness and referential invariants are
// enforced at write time. Each write runs as one transaction; bind a
// repository to an outer transaction with WithTx to compose several writes
// atomically.
//
// The store uses a single connection, so do not call back into a repository
// while ranging over one of its lazy listings.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"time"

	"tools.zach/dev/fav/internal/store"
)

// ///////////////////////////////////////////////
// Errors
// ///////////////////////////////////////////////

var (
	// ErrDuplicatePath is returned when a favorite with the same canonical
	// path already exists.
	ErrDuplicatePath = errors.New("path already exists")
	// ErrDuplicateAlias matches any [*DuplicateAliasError].
	ErrDuplicateAlias = errors.New("alias already exists")
	// ErrFavoriteNotFound is returned when an alias would point at a missing
	// favorite.
	ErrFavoriteNotFound = errors.New("favorite not found")
	// ErrNotFound is returned when the record to remove does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidAlias is returned for empty or whitespace-only alias names.
	ErrInvalidAlias = errors.New("invalid alias name")
)

// DuplicateAliasError names the alias that collided.
type DuplicateAliasError struct {
	Name string
}

func (e *DuplicateAliasError) Error() string {
	return fmt.Sprintf("alias %q already exists", e.Name)
}

// Is makes errors.Is(err, ErrDuplicateAlias) hold.
func (e *DuplicateAliasError) Is(target error) bool {
	return target == ErrDuplicateAlias
}

// ///////////////////////////////////////////////
// Models
// ///////////////////////////////////////////////

// Favorite is a bookmarked canonical path.
type Favorite struct {
	ID        int64
	Path      string
	CreatedAt time.Time
}

// Alias is a globally unique name bound to one favorite.
type Alias struct {
	ID         int64
	FavoriteID int64
	Name       string
	CreatedAt  time.Time
}

// FavoriteDetail is the verbose listing record for one favorite.
type FavoriteDetail struct {
	Path      string
	Aliases   []string
	CreatedAt time.Time
}

// ///////////////////////////////////////////////
// Timestamps
// ///////////////////////////////////////////////

// now is swapped in tests for deterministic timestamps.
var now = time.Now

const timeLayout = time.RFC3339Nano

func timestamp() string {
	return now().UTC().Format(timeLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse created_at %q: %w", s, err)
	}
	return t, nil
}

// ///////////////////////////////////////////////
// Scope
// ///////////////////////////////////////////////

// scope binds a repository to the store, optionally inside a caller's
// transaction.
type scope struct {
	st *store.Store
	tx *sql.Tx
}

func (s scope) querier() store.Querier {
	if s.tx != nil {
		return s.tx
	}
	return s.st.DB()
}

// write runs fn atomically: inside the bound transaction if there is one,
// otherwise in a fresh one.
func (s scope) write(ctx context.Context, fn func(q store.Querier) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	return s.st.InTx(ctx, func(tx *sql.Tx) error { return fn(tx) })
}

// ///////////////////////////////////////////////
// Sequences
// ///////////////////////////////////////////////

// stringSeq returns a lazy sequence over the single string column produced by
// query. Each range re-runs the query, so the sequence is restartable.
func stringSeq(ctx context.Context, q store.Querier, what, query string, args ...any) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			yield("", fmt.Errorf("list %s: %w", what, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var s string
			if err := rows.Scan(&s); err != nil {
				yield("", fmt.Errorf("scan %s: %w", what, err))
				return
			}
			if !yield(s, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield("", fmt.Errorf("list %s: %w", what, err))
		}
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect(seq iter.Seq2[string, error]) ([]string, error) {
	out := []string{}
	for s, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
