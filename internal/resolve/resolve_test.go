package resolve

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"tools.zach/dev/fav/internal/pathnorm"
	"tools.zach/dev/fav/internal/repo"
	"tools.zach/dev/fav/internal/store"
)

// ///////////////////////////////////////////////
// Helpers
// ///////////////////////////////////////////////

type fixture struct {
	st      *store.Store
	favs    *repo.Favorites
	aliases *repo.Aliases
	svc     *Service
	base    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(context.Background(), filepath.Join(dir, "fav.db"), store.Options{})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	base := filepath.Join(dir, "work")
	favs, aliases := repo.NewFavorites(st), repo.NewAliases(st)
	normalize := func(p string) (string, error) { return pathnorm.NormalizeFrom(base, p) }
	return &fixture{st: st, favs: favs, aliases: aliases, svc: New(favs, aliases, normalize), base: base}
}

func (f *fixture) addWithAliases(t *testing.T, path string, names ...string) int64 {
	t.Helper()
	ctx := context.Background()
	id, err := f.favs.Add(ctx, path)
	if err != nil {
		t.Fatalf("Add(%q): %v", path, err)
	}
	if err := f.aliases.Attach(ctx, id, names); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	return id
}

// ///////////////////////////////////////////////
// Resolve
// ///////////////////////////////////////////////

func TestResolveAllReferenceKinds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addWithAliases(t, "/home/u/docs", "d")

	alias, ok, err := f.aliases.FindByName(ctx, "d")
	if err != nil || !ok {
		t.Fatalf("FindByName: %v, %v", ok, err)
	}

	refs := map[string]Reference{
		"by name":   ByName("d"),
		"by id":     ByID(alias.ID),
		"by record": ByRecord(alias),
	}
	for name, ref := range refs {
		t.Run(name, func(t *testing.T) {
			path, ok, err := f.svc.Resolve(ctx, ref)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if !ok || path != "/home/u/docs" {
				t.Errorf("Resolve = %q, %v; want /home/u/docs, true", path, ok)
			}
		})
	}
}

func TestResolveUnknownIsNotAnError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, ref := range []Reference{ByName("never"), ByID(12345)} {
		path, ok, err := f.svc.Resolve(ctx, ref)
		if err != nil || ok || path != "" {
			t.Errorf("Resolve(%v) = %q, %v, %v; want \"\", false, nil", ref, path, ok, err)
		}
	}
}

func TestResolveAfterRemoveReturnsNone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addWithAliases(t, "/a", "x")

	if err := f.favs.Remove(ctx, "/a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	_, ok, err := f.svc.Resolve(ctx, ByName("x"))
	if err != nil || ok {
		t.Errorf("Resolve after cascade = %v, %v; want false, nil", ok, err)
	}
}

func TestResolveStaleRecordAfterRemoveReturnsNone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addWithAliases(t, "/a", "x")

	rec, ok, err := f.aliases.FindByName(ctx, "x")
	if err != nil || !ok {
		t.Fatalf("FindByName(x) = %v, %v", ok, err)
	}
	if err := f.favs.Remove(ctx, "/a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	path, ok, err := f.svc.Resolve(ctx, ByRecord(rec))
	if err != nil || ok || path != "" {
		t.Errorf("Resolve(stale record) = %q, %v, %v; want \"\", false, nil", path, ok, err)
	}
}

func TestResolveUnknownRecordReturnsNone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stale := repo.Alias{ID: 1, FavoriteID: 999, Name: "ghost"}
	_, ok, err := f.svc.Resolve(ctx, ByRecord(stale))
	if err != nil || ok {
		t.Errorf("Resolve(unknown record) = %v, %v; want false, nil", ok, err)
	}
}

func TestResolveRecordWithDanglingRowIsConsistencyViolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addWithAliases(t, "/a", "x")

	rec, _, err := f.aliases.FindByName(ctx, "x")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	db := f.st.DB()
	if _, err := db.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		t.Fatalf("disable foreign keys: %v", err)
	}
	if _, err := db.Exec("DELETE FROM favorites WHERE path = '/a'"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, _, err = f.svc.Resolve(ctx, ByRecord(rec))
	if !errors.Is(err, ErrConsistencyViolation) {
		t.Fatalf("err = %v, want ErrConsistencyViolation", err)
	}
}

func TestResolveDanglingRowIsConsistencyViolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addWithAliases(t, "/a", "x")

	// Simulate a broken cascade by bypassing foreign keys on the one connection.
	db := f.st.DB()
	if _, err := db.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		t.Fatalf("disable foreign keys: %v", err)
	}
	if _, err := db.Exec("DELETE FROM favorites WHERE path = '/a'"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, _, err := f.svc.Resolve(ctx, ByName("x"))
	if !errors.Is(err, ErrConsistencyViolation) {
		t.Fatalf("err = %v, want ErrConsistencyViolation", err)
	}
}

// ///////////////////////////////////////////////
// AliasNames
// ///////////////////////////////////////////////

func TestAliasNamesNormalizesPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	target := filepath.Join(f.base, "proj")
	f.addWithAliases(t, target, "p", "q")

	got, err := f.svc.AliasNames(ctx, "./x/../proj/")
	if err != nil {
		t.Fatalf("AliasNames: %v", err)
	}
	if want := []string{"p", "q"}; !reflect.DeepEqual(got, want) {
		t.Errorf("AliasNames() = %v, want %v", got, want)
	}
}

func TestAliasNamesUnknownPath(t *testing.T) {
	f := newFixture(t)
	got, err := f.svc.AliasNames(context.Background(), "/nowhere")
	if err != nil {
		t.Fatalf("AliasNames: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("AliasNames() = %v, want empty", got)
	}
}

func TestAliasNamesInvalidPath(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AliasNames(context.Background(), "")
	if !errors.Is(err, pathnorm.ErrInvalidPath) {
		t.Fatalf("err = %v, want ErrInvalidPath", err)
	}
}
