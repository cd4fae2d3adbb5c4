// Package resolve maps alias references to the canonical path of the
// favorite they name, and paths back to their alias names.
package resolve

import (
	"context"
	"errors"
	"fmt"

	"tools.zach/dev/fav/internal/repo"
)

// ErrConsistencyViolation means an alias points at a favorite that no longer
// exists. Cascading deletes should make this unreachable.
var ErrConsistencyViolation = errors.New("consistency violation")

// ///////////////////////////////////////////////
// References
// ///////////////////////////////////////////////

// Reference identifies an alias. It is implemented only by [ByName], [ByID]
// and [ByRecord].
type Reference interface {
	isReference()
}

// ByName refers to an alias by its name.
type ByName string

// ByID refers to an alias by its store identifier.
type ByID int64

// ByRecord is an alias the caller already loaded; resolving it skips the
// alias lookup.
type ByRecord repo.Alias

func (ByName) isReference()   {}
func (ByID) isReference()     {}
func (ByRecord) isReference() {}

// ///////////////////////////////////////////////
// Service
// ///////////////////////////////////////////////

// Service resolves aliases against the repositories.
type Service struct {
	favorites *repo.Favorites
	aliases   *repo.Aliases
	normalize func(string) (string, error)
}

// New returns a Service. normalize canonicalizes user paths for
// [Service.AliasNames].
func New(favorites *repo.Favorites, aliases *repo.Aliases, normalize func(string) (string, error)) *Service {
	return &Service{favorites: favorites, aliases: aliases, normalize: normalize}
}

// Resolve returns the canonical path of the favorite ref points at. ok is
// false, with a nil error, when the alias does not exist, including a
// [ByRecord] whose row has since been deleted.
func (s *Service) Resolve(ctx context.Context, ref Reference) (path string, ok bool, err error) {
	var (
		alias  repo.Alias
		record bool
	)
	switch r := ref.(type) {
	case ByName:
		alias, ok, err = s.aliases.FindByName(ctx, string(r))
	case ByID:
		alias, ok, err = s.aliases.FindByID(ctx, int64(r))
	case ByRecord:
		alias, ok, record = repo.Alias(r), true, true
	default:
		return "", false, fmt.Errorf("unsupported alias reference %T", ref)
	}
	if err != nil || !ok {
		return "", false, err
	}

	fav, found, err := s.favorites.FindByID(ctx, alias.FavoriteID)
	if err != nil {
		return "", false, err
	}
	if !found && record {
		// A held record outlives its row once the favorite is removed.
		_, live, err := s.aliases.FindByID(ctx, alias.ID)
		if err != nil || !live {
			return "", false, err
		}
	}
	if !found {
		return "", false, fmt.Errorf("%w: alias %q points at missing favorite %d",
			ErrConsistencyViolation, alias.Name, alias.FavoriteID)
	}
	return fav.Path, true, nil
}

// AliasNames returns the alias names bound to the favorite at rawPath, which
// is normalized first. A path that is not a favorite has no names.
func (s *Service) AliasNames(ctx context.Context, rawPath string) ([]string, error) {
	path, err := s.normalize(rawPath)
	if err != nil {
		return nil, err
	}
	fav, ok, err := s.favorites.FindByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}
	return s.aliases.NamesFor(ctx, fav.ID)
}
