// write_test.go tests [Write] and [Create] for correctness, overwrite and
// no-clobber behavior, and cleanup of temp files.

package atomicfile

import (
	"os"
	"path/filepath"
	"testing"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return string(got)
}

func assertNoTemps(t *testing.T, dir string) {
	t.Helper()
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if matched, _ := filepath.Match("*.tmp.*", e.Name()); matched {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

// ///////////////////////////////////////////////
// Write
// ///////////////////////////////////////////////

func TestWriteReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := Write(path, []byte("version = 1\n"), 0o644); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	if err := Write(path, []byte("version = 2\n"), 0o644); err != nil {
		t.Fatalf("second Write: %v", err)
	}
	if got := readFile(t, path); got != "version = 2\n" {
		t.Errorf("content = %q, want second write", got)
	}
	assertNoTemps(t, dir)
}

func TestWritePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "private.toml")
	if err := Write(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	// Windows only honors the owner write bit.
	if info.Mode().Perm()&0o600 == 0 {
		t.Errorf("permissions = %o, expected at least owner rw", info.Mode().Perm())
	}
}

func TestWriteMissingDirectory(t *testing.T) {
	root := t.TempDir()
	err := Write(filepath.Join(root, "no-such-dir", "config.toml"), []byte("x"), 0o644)
	if err == nil {
		t.Fatal("expected error writing into a missing directory")
	}
	assertNoTemps(t, root)
}

// ///////////////////////////////////////////////
// Create
// ///////////////////////////////////////////////

func TestCreateNewFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	created, err := Create(path, []byte("fresh"), 0o644)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !created {
		t.Error("created = false for a new file")
	}
	if got := readFile(t, path); got != "fresh" {
		t.Errorf("content = %q, want fresh", got)
	}
	assertNoTemps(t, dir)
}

func TestCreateKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("user edits"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	created, err := Create(path, []byte("defaults"), 0o644)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created {
		t.Error("created = true over an existing file")
	}
	if got := readFile(t, path); got != "user edits" {
		t.Errorf("existing file clobbered: %q", got)
	}
	assertNoTemps(t, dir)
}
