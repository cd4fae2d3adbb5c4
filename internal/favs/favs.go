// Package favs implements the operations the command layer offers: adding
// and removing favorites, attaching and removing aliases, resolving aliases,
// and listing.
//
// Every path argument is normalized before it reaches the repositories.
// Multi-item operations report a result per item: an item that is not found
// (or, for paths, cannot be parsed) is recorded and the batch continues,
// while any storage failure aborts the batch.
package favs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/bmatcuk/doublestar/v4"
	"tools.zach/dev/fav/internal/pathnorm"
	"tools.zach/dev/fav/internal/repo"
	"tools.zach/dev/fav/internal/resolve"
	"tools.zach/dev/fav/internal/store"
)

// ErrInvalidPattern is returned for a malformed --match glob.
var ErrInvalidPattern = errors.New("invalid pattern")

// Normalizer canonicalizes a user-supplied path.
type Normalizer func(string) (string, error)

// ItemResult is the outcome of one item of a batch operation.
type ItemResult struct {
	// Input is the item as the caller gave it.
	Input string
	// Value is the item's output, e.g. the resolved path. Empty on a miss.
	Value string
	// Err is the per-item failure, nil on success.
	Err error
}

// OK reports whether the item succeeded.
func (r ItemResult) OK() bool { return r.Err == nil }

// Misses counts the failed items in results.
func Misses(results []ItemResult) int {
	n := 0
	for _, r := range results {
		if !r.OK() {
			n++
		}
	}
	return n
}

// Service is the operation set consumed by the command layer.
type Service struct {
	store     *store.Store
	favorites *repo.Favorites
	aliases   *repo.Aliases
	resolver  *resolve.Service
	normalize Normalizer
}

// New wires a Service over st. A nil normalize uses [pathnorm.Normalize].
func New(st *store.Store, normalize Normalizer) *Service {
	if normalize == nil {
		normalize = pathnorm.Normalize
	}
	favorites, aliases := repo.NewFavorites(st), repo.NewAliases(st)
	return &Service{
		store:     st,
		favorites: favorites,
		aliases:   aliases,
		resolver:  resolve.New(favorites, aliases, normalize),
		normalize: normalize,
	}
}

// ///////////////////////////////////////////////
// Single-Item Operations
// ///////////////////////////////////////////////

// AddFavorite bookmarks path with optional initial alias names. The favorite
// and its aliases are committed together or not at all. Returns the
// canonical path stored.
func (s *Service) AddFavorite(ctx context.Context, path string, names []string) (string, error) {
	canonical, err := s.normalize(path)
	if err != nil {
		return "", err
	}
	err = s.store.InTx(ctx, func(tx *sql.Tx) error {
		id, err := s.favorites.WithTx(tx).Add(ctx, canonical)
		if err != nil {
			return err
		}
		return s.aliases.WithTx(tx).Attach(ctx, id, names)
	})
	if err != nil {
		return "", err
	}
	slog.Info("favorite added", "path", canonical, "aliases", len(names))
	return canonical, nil
}

// SetAliases attaches more names to the existing favorite at path. An empty
// names list changes nothing but still requires the favorite.
func (s *Service) SetAliases(ctx context.Context, path string, names []string) error {
	canonical, err := s.normalize(path)
	if err != nil {
		return err
	}
	err = s.store.InTx(ctx, func(tx *sql.Tx) error {
		fav, ok, err := s.favorites.WithTx(tx).FindByPath(ctx, canonical)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", repo.ErrFavoriteNotFound, canonical)
		}
		return s.aliases.WithTx(tx).Attach(ctx, fav.ID, names)
	})
	if err != nil {
		return err
	}
	slog.Info("aliases set", "path", canonical, "aliases", names)
	return nil
}

// AliasNames returns the alias names of the favorite at path.
func (s *Service) AliasNames(ctx context.Context, path string) ([]string, error) {
	return s.resolver.AliasNames(ctx, path)
}

// PathOf resolves one alias name. ok is false if the alias does not exist.
func (s *Service) PathOf(ctx context.Context, name string) (path string, ok bool, err error) {
	return s.resolver.Resolve(ctx, resolve.ByName(name))
}

// ///////////////////////////////////////////////
// Batch Operations
// ///////////////////////////////////////////////

// Resolve resolves each name independently. Unknown names yield an item
// wrapping [repo.ErrNotFound].
func (s *Service) Resolve(ctx context.Context, names []string) ([]ItemResult, error) {
	return batch(names, func(name string) (string, error) {
		path, ok, err := s.PathOf(ctx, name)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("alias %q: %w", name, repo.ErrNotFound)
		}
		return path, nil
	})
}

// RemoveAliases deletes each alias by name.
func (s *Service) RemoveAliases(ctx context.Context, names []string) ([]ItemResult, error) {
	return batch(names, func(name string) (string, error) {
		return "", s.aliases.RemoveByName(ctx, name)
	})
}

// RemovePaths deletes each favorite, with its aliases. The item value is the
// canonical path.
func (s *Service) RemovePaths(ctx context.Context, paths []string) ([]ItemResult, error) {
	return batch(paths, func(p string) (string, error) {
		canonical, err := s.normalize(p)
		if err != nil {
			return "", err
		}
		if err := s.favorites.Remove(ctx, canonical); err != nil {
			return canonical, err
		}
		slog.Info("favorite removed", "path", canonical)
		return canonical, nil
	})
}

// batch applies fn to every item. Per-item misses are recorded; anything
// else stops the batch and is returned with the results so far.
func batch(items []string, fn func(string) (string, error)) ([]ItemResult, error) {
	results := make([]ItemResult, 0, len(items))
	for _, item := range items {
		value, err := fn(item)
		if err != nil && !isItemError(err) {
			return results, err
		}
		if err != nil {
			slog.Debug("batch item failed", "item", item, "error", err)
			value = ""
		}
		results = append(results, ItemResult{Input: item, Value: value, Err: err})
	}
	return results, nil
}

func isItemError(err error) bool {
	return errors.Is(err, repo.ErrNotFound) || errors.Is(err, pathnorm.ErrInvalidPath)
}

// ///////////////////////////////////////////////
// Listing
// ///////////////////////////////////////////////

// ListPaths returns the favorite paths in insertion order. A non-empty
// pattern keeps only paths matching that doublestar glob (e.g. "/src/**").
func (s *Service) ListPaths(ctx context.Context, pattern string) (iter.Seq2[string, error], error) {
	if err := checkPattern(pattern); err != nil {
		return nil, err
	}
	all := s.favorites.List(ctx)
	if pattern == "" {
		return all, nil
	}
	return func(yield func(string, error) bool) {
		for p, err := range all {
			if err != nil {
				yield("", err)
				return
			}
			if !matches(pattern, p) {
				continue
			}
			if !yield(p, nil) {
				return
			}
		}
	}, nil
}

// ListAliases returns all alias names in insertion order.
func (s *Service) ListAliases(ctx context.Context) iter.Seq2[string, error] {
	return s.aliases.ListNames(ctx)
}

// ListDetails returns the verbose listing, filtered like [Service.ListPaths].
func (s *Service) ListDetails(ctx context.Context, pattern string) ([]repo.FavoriteDetail, error) {
	if err := checkPattern(pattern); err != nil {
		return nil, err
	}
	details, err := s.favorites.Details(ctx)
	if err != nil {
		return nil, err
	}
	if pattern == "" {
		return details, nil
	}
	kept := details[:0]
	for _, d := range details {
		if matches(pattern, d.Path) {
			kept = append(kept, d)
		}
	}
	return kept, nil
}

func checkPattern(pattern string) error {
	if pattern != "" && !doublestar.ValidatePathPattern(pattern) {
		return fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}
	return nil
}

// matches reports whether path matches pattern using OS separators. The
// pattern was validated up front, so the error is ignored.
func matches(pattern, path string) bool {
	ok, _ := doublestar.PathMatch(pattern, path)
	return ok
}
