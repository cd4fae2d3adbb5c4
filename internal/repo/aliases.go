package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"tools.zach/dev/fav/internal/store"
)

// Aliases is the repository for the aliases relation.
type Aliases struct {
	scope
}

// NewAliases returns an Aliases repository backed by st.
func NewAliases(st *store.Store) *Aliases {
	return &Aliases{scope{st: st}}
}

// WithTx returns a copy of r whose operations run inside tx.
func (r *Aliases) WithTx(tx *sql.Tx) *Aliases {
	return &Aliases{scope{st: r.st, tx: tx}}
}

// Attach binds every name to favoriteID as one atomic batch: either all names
// are inserted or none are. Repeated names in the batch count once. An empty
// batch only checks that favoriteID exists.
//
// Errors: [*DuplicateAliasError] for the first name already in use,
// ErrFavoriteNotFound if favoriteID does not exist, ErrInvalidAlias for a
// blank name.
func (r *Aliases) Attach(ctx context.Context, favoriteID int64, names []string) error {
	names = dedupe(names)
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			return fmt.Errorf("%w: %q", ErrInvalidAlias, n)
		}
	}

	return r.write(ctx, func(q store.Querier) error {
		var exists int
		err := q.QueryRowContext(ctx, "SELECT 1 FROM favorites WHERE id = ?", favoriteID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: id %d", ErrFavoriteNotFound, favoriteID)
		}
		if err != nil {
			return fmt.Errorf("find favorite: %w", err)
		}

		created := timestamp()
		for _, name := range names {
			_, err := q.ExecContext(ctx,
				"INSERT INTO aliases (favorite_id, name, created_at) VALUES (?, ?, ?)",
				favoriteID, name, created)
			switch {
			case err == nil:
			case store.IsUniqueViolation(err):
				return &DuplicateAliasError{Name: name}
			case store.IsForeignKeyViolation(err):
				return fmt.Errorf("%w: id %d", ErrFavoriteNotFound, favoriteID)
			default:
				return fmt.Errorf("insert alias %q: %w", name, err)
			}
		}
		if len(names) > 0 {
			slog.Debug("aliases attached", "favorite_id", favoriteID, "names", names)
		}
		return nil
	})
}

// RemoveByName deletes the alias called name. Returns ErrNotFound if there
// is none.
func (r *Aliases) RemoveByName(ctx context.Context, name string) error {
	return r.write(ctx, func(q store.Querier) error {
		res, err := q.ExecContext(ctx, "DELETE FROM aliases WHERE name = ?", name)
		if err != nil {
			return fmt.Errorf("delete alias: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete alias: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("alias %q: %w", name, ErrNotFound)
		}
		slog.Debug("alias removed", "name", name)
		return nil
	})
}

// FindByName looks up an alias by name. A missing alias is not an error.
func (r *Aliases) FindByName(ctx context.Context, name string) (Alias, bool, error) {
	return r.findOne(ctx, "SELECT id, favorite_id, name, created_at FROM aliases WHERE name = ?", name)
}

// FindByID looks up an alias by id. A missing alias is not an error.
func (r *Aliases) FindByID(ctx context.Context, id int64) (Alias, bool, error) {
	return r.findOne(ctx, "SELECT id, favorite_id, name, created_at FROM aliases WHERE id = ?", id)
}

func (r *Aliases) findOne(ctx context.Context, query string, arg any) (Alias, bool, error) {
	var (
		a       Alias
		created string
	)
	err := r.querier().QueryRowContext(ctx, query, arg).Scan(&a.ID, &a.FavoriteID, &a.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Alias{}, false, nil
	}
	if err != nil {
		return Alias{}, false, fmt.Errorf("find alias: %w", err)
	}
	if a.CreatedAt, err = parseTimestamp(created); err != nil {
		return Alias{}, false, err
	}
	return a, true, nil
}

// ListNames returns all alias names in insertion order.
func (r *Aliases) ListNames(ctx context.Context) iter.Seq2[string, error] {
	return stringSeq(ctx, r.querier(), "aliases", "SELECT name FROM aliases ORDER BY id")
}

// NamesFor returns the alias names bound to favoriteID in insertion order.
func (r *Aliases) NamesFor(ctx context.Context, favoriteID int64) ([]string, error) {
	return Collect(stringSeq(ctx, r.querier(), "aliases",
		"SELECT name FROM aliases WHERE favorite_id = ? ORDER BY id", favoriteID))
}

// dedupe drops repeated names, keeping first occurrences in order.
func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
