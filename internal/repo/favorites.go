package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"tools.zach/dev/fav/internal/store"
)

// Favorites is the repository for the favorites relation. Paths passed in
// must already be canonical.
type Favorites struct {
	scope
}

// NewFavorites returns a Favorites repository backed by st.
func NewFavorites(st *store.Store) *Favorites {
	return &Favorites{scope{st: st}}
}

// WithTx returns a copy of r whose operations run inside tx.
func (r *Favorites) WithTx(tx *sql.Tx) *Favorites {
	return &Favorites{scope{st: r.st, tx: tx}}
}

// Add inserts a favorite for path and returns its new id.
func (r *Favorites) Add(ctx context.Context, path string) (int64, error) {
	var id int64
	err := r.write(ctx, func(q store.Querier) error {
		res, err := q.ExecContext(ctx,
			"INSERT INTO favorites (path, created_at) VALUES (?, ?)", path, timestamp())
		if err != nil {
			if store.IsUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrDuplicatePath, path)
			}
			return fmt.Errorf("insert favorite: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("favorite id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	slog.Debug("favorite added", "id", id, "path", path)
	return id, nil
}

// List returns all favorite paths in insertion order.
func (r *Favorites) List(ctx context.Context) iter.Seq2[string, error] {
	return stringSeq(ctx, r.querier(), "favorites", "SELECT path FROM favorites ORDER BY id")
}

// Remove deletes the favorite at path together with every alias that points
// at it. Returns ErrNotFound if no favorite has that path.
func (r *Favorites) Remove(ctx context.Context, path string) error {
	return r.write(ctx, func(q store.Querier) error {
		var id int64
		err := q.QueryRowContext(ctx, "SELECT id FROM favorites WHERE path = ?", path).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("favorite %s: %w", path, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("find favorite: %w", err)
		}

		res, err := q.ExecContext(ctx, "DELETE FROM aliases WHERE favorite_id = ?", id)
		if err != nil {
			return fmt.Errorf("delete aliases: %w", err)
		}
		dropped, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete aliases: %w", err)
		}

		if _, err := q.ExecContext(ctx, "DELETE FROM favorites WHERE id = ?", id); err != nil {
			return fmt.Errorf("delete favorite: %w", err)
		}
		slog.Debug("favorite removed", "id", id, "path", path, "aliases_removed", dropped)
		return nil
	})
}

// FindByPath looks up a favorite by canonical path.
func (r *Favorites) FindByPath(ctx context.Context, path string) (Favorite, bool, error) {
	return r.findOne(ctx, "SELECT id, path, created_at FROM favorites WHERE path = ?", path)
}

// FindByID looks up a favorite by id.
func (r *Favorites) FindByID(ctx context.Context, id int64) (Favorite, bool, error) {
	return r.findOne(ctx, "SELECT id, path, created_at FROM favorites WHERE id = ?", id)
}

func (r *Favorites) findOne(ctx context.Context, query string, arg any) (Favorite, bool, error) {
	var (
		f       Favorite
		created string
	)
	err := r.querier().QueryRowContext(ctx, query, arg).Scan(&f.ID, &f.Path, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Favorite{}, false, nil
	}
	if err != nil {
		return Favorite{}, false, fmt.Errorf("find favorite: %w", err)
	}
	if f.CreatedAt, err = parseTimestamp(created); err != nil {
		return Favorite{}, false, err
	}
	return f, true, nil
}

// Details returns every favorite with its alias names, in insertion order.
// Alias names within a favorite are in insertion order too.
func (r *Favorites) Details(ctx context.Context) ([]FavoriteDetail, error) {
	rows, err := r.querier().QueryContext(ctx, `
		SELECT f.id, f.path, f.created_at, a.name
		FROM favorites f
		LEFT JOIN aliases a ON a.favorite_id = f.id
		ORDER BY f.id, a.id`)
	if err != nil {
		return nil, fmt.Errorf("list favorite details: %w", err)
	}
	defer rows.Close()

	var (
		out    []FavoriteDetail
		lastID int64 = -1
	)
	for rows.Next() {
		var (
			id      int64
			path    string
			created string
			name    sql.NullString
		)
		if err := rows.Scan(&id, &path, &created, &name); err != nil {
			return nil, fmt.Errorf("scan favorite details: %w", err)
		}
		if id != lastID {
			ts, err := parseTimestamp(created)
			if err != nil {
				return nil, err
			}
			out = append(out, FavoriteDetail{Path: path, Aliases: []string{}, CreatedAt: ts})
			lastID = id
		}
		if name.Valid {
			d := &out[len(out)-1]
			d.Aliases = append(d.Aliases, name.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list favorite details: %w", err)
	}
	return out, nil
}
