package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tools.zach/dev/fav/internal/paths"
)

// ///////////////////////////////////////////////
// Helpers
// ///////////////////////////////////////////////

// invoke runs one fav command against dataDir and returns its output.
func invoke(t *testing.T, dataDir string, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errb bytes.Buffer
	full := append([]string{"--data-dir", dataDir}, args...)
	code = run(context.Background(), full, &out, &errb)
	return out.String(), errb.String(), code
}

// mustInvoke is invoke that fails the test on a non-zero exit code.
func mustInvoke(t *testing.T, dataDir string, args ...string) string {
	t.Helper()
	stdout, stderr, code := invoke(t, dataDir, args...)
	if code != 0 {
		t.Fatalf("fav %v: exit %d, stderr %q", args, code, stderr)
	}
	return stdout
}

func lines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// ///////////////////////////////////////////////
// resolveVersion Tests
// ///////////////////////////////////////////////

func TestResolveVersionWithLdflags(t *testing.T) {
	original := version
	defer func() { version = original }()

	version = "1.2.3"
	if got := resolveVersion(); got != "1.2.3" {
		t.Errorf("resolveVersion() = %q, want %q", got, "1.2.3")
	}
}

func TestResolveVersionDev(t *testing.T) {
	original := version
	defer func() { version = original }()

	version = "dev"
	if got := resolveVersion(); !strings.HasPrefix(got, "dev") {
		t.Errorf("resolveVersion() = %q, expected to start with 'dev'", got)
	}
}

func TestVersionSkipsSetup(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "never-created")
	out := mustInvoke(t, dataDir, "version")
	if !strings.HasPrefix(out, paths.BinaryName+" ") {
		t.Errorf("version output = %q", out)
	}
	if _, err := os.Stat(dataDir); !os.IsNotExist(err) {
		t.Errorf("version created the data directory (stat err %v)", err)
	}
}

// ///////////////////////////////////////////////
// Favorites and Aliases
// ///////////////////////////////////////////////

func TestAddGetResolve(t *testing.T) {
	dataDir := t.TempDir()
	docs := filepath.Join(t.TempDir(), "docs")

	mustInvoke(t, dataDir, "add", "-a", "d", "--alias", "documents", docs)

	if got := lines(mustInvoke(t, dataDir, "get", "-t", "path", "d")); len(got) != 1 || got[0] != docs {
		t.Errorf("get -t path d = %q, want [%s]", got, docs)
	}
	if got := lines(mustInvoke(t, dataDir, "g", docs+string(filepath.Separator))); strings.Join(got, " ") != "d documents" {
		t.Errorf("get alias names = %q, want [d documents]", got)
	}
	if got := lines(mustInvoke(t, dataDir, "resolve", "documents", "d")); len(got) != 2 || got[0] != docs || got[1] != docs {
		t.Errorf("resolve = %q", got)
	}
}

func TestAddRelativePath(t *testing.T) {
	dataDir := t.TempDir()
	cwd := t.TempDir()
	t.Chdir(cwd)

	mustInvoke(t, dataDir, "a", "-a", "here", "./proj/../proj")
	got := strings.TrimSpace(mustInvoke(t, dataDir, "get", "-t", "path", "here"))
	if want := filepath.Join(cwd, "proj"); got != want {
		t.Errorf("stored path = %q, want %q", got, want)
	}
}

func TestAddDuplicatePathFails(t *testing.T) {
	dataDir := t.TempDir()
	p := filepath.Join(t.TempDir(), "a")

	mustInvoke(t, dataDir, "add", p)
	_, stderr, code := invoke(t, dataDir, "add", p)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.HasPrefix(stderr, "error: ") || !strings.Contains(stderr, "path already exists") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestSetAliases(t *testing.T) {
	dataDir := t.TempDir()
	p := filepath.Join(t.TempDir(), "a")

	mustInvoke(t, dataDir, "add", p)
	mustInvoke(t, dataDir, "s", "-a", "x", "-a", "y", p)
	if got := lines(mustInvoke(t, dataDir, "get", p)); strings.Join(got, " ") != "x y" {
		t.Errorf("aliases = %q, want [x y]", got)
	}

	_, stderr, code := invoke(t, dataDir, "set", "-a", "x", p)
	if code != 1 || !strings.Contains(stderr, `alias "x" already exists`) {
		t.Errorf("duplicate alias: code %d, stderr %q", code, stderr)
	}

	_, stderr, code = invoke(t, dataDir, "set", "-a", "z", filepath.Join(t.TempDir(), "missing"))
	if code != 1 || !strings.Contains(stderr, "favorite not found") {
		t.Errorf("unknown path: code %d, stderr %q", code, stderr)
	}
}

func TestResolveReportsMisses(t *testing.T) {
	dataDir := t.TempDir()
	p := filepath.Join(t.TempDir(), "a")
	mustInvoke(t, dataDir, "add", "-a", "a", p)

	stdout, stderr, code := invoke(t, dataDir, "resolve", "nope", "a")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if strings.TrimSpace(stdout) != p {
		t.Errorf("stdout = %q, want %q", stdout, p)
	}
	if stderr != "nope was not found\n" {
		t.Errorf("stderr = %q", stderr)
	}

	_, stderr, code = invoke(t, dataDir, "--strict", "resolve", "nope", "a")
	if code != 1 {
		t.Errorf("--strict exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "nope was not found") || !strings.Contains(stderr, "error: ") {
		t.Errorf("--strict stderr = %q", stderr)
	}
}

func TestRemove(t *testing.T) {
	dataDir := t.TempDir()
	p := filepath.Join(t.TempDir(), "a")
	mustInvoke(t, dataDir, "add", "-a", "one", "-a", "two", p)

	_, stderr, code := invoke(t, dataDir, "rm", "one", "ghost")
	if code != 0 || stderr != "ghost was not found\n" {
		t.Errorf("rm aliases: code %d, stderr %q", code, stderr)
	}
	if got := lines(mustInvoke(t, dataDir, "list", "--aliases")); strings.Join(got, " ") != "two" {
		t.Errorf("aliases after rm = %q, want [two]", got)
	}

	mustInvoke(t, dataDir, "remove", "-t", "path", p)
	if got := mustInvoke(t, dataDir, "list"); got != "" {
		t.Errorf("list after remove = %q, want empty", got)
	}
	_, stderr, _ = invoke(t, dataDir, "resolve", "two")
	if stderr != "two was not found\n" {
		t.Errorf("alias survived its favorite: stderr %q", stderr)
	}
}

func TestTypeFlagValidation(t *testing.T) {
	_, stderr, code := invoke(t, t.TempDir(), "get", "-t", "bogus", "x")
	if code != 1 || !strings.Contains(stderr, `must be "alias" or "path"`) {
		t.Errorf("code %d, stderr %q", code, stderr)
	}
}

// ///////////////////////////////////////////////
// list
// ///////////////////////////////////////////////

func TestList(t *testing.T) {
	dataDir := t.TempDir()
	root := t.TempDir()
	app := filepath.Join(root, "src", "app")
	lib := filepath.Join(root, "src", "lib")
	tmp := filepath.Join(root, "tmp")
	mustInvoke(t, dataDir, "add", "-a", "app", app)
	mustInvoke(t, dataDir, "add", lib)
	mustInvoke(t, dataDir, "add", "-a", "t", tmp)

	if got := lines(mustInvoke(t, dataDir, "ls")); strings.Join(got, "|") != strings.Join([]string{app, lib, tmp}, "|") {
		t.Errorf("list = %q", got)
	}

	pattern := filepath.Join(root, "src", "*")
	if got := lines(mustInvoke(t, dataDir, "list", "--match", pattern)); strings.Join(got, "|") != app+"|"+lib {
		t.Errorf("list --match = %q", got)
	}

	if got := lines(mustInvoke(t, dataDir, "list", "--aliases")); strings.Join(got, " ") != "app t" {
		t.Errorf("list --aliases = %q", got)
	}

	verbose := mustInvoke(t, dataDir, "list", "-v")
	for _, want := range []string{"PATH", "ALIASES", app, lib, "app", "-"} {
		if !strings.Contains(verbose, want) {
			t.Errorf("list -v missing %q:\n%s", want, verbose)
		}
	}
}

func TestListFlagConflicts(t *testing.T) {
	_, _, code := invoke(t, t.TempDir(), "list", "--aliases", "--match", "/x/*")
	if code != 1 {
		t.Errorf("--aliases with --match: exit %d, want 1", code)
	}
	_, stderr, code := invoke(t, t.TempDir(), "list", "--match", "/src/[a")
	if code != 1 || !strings.Contains(stderr, "invalid pattern") {
		t.Errorf("bad pattern: code %d, stderr %q", code, stderr)
	}
}

func TestListVerboseFromConfig(t *testing.T) {
	dataDir := t.TempDir()
	cfg := "[list]\nverbose = true\ntime_format = \"2006\"\n"
	if err := os.WriteFile(filepath.Join(dataDir, paths.ConfigFile), []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	p := filepath.Join(t.TempDir(), "a")
	mustInvoke(t, dataDir, "add", p)

	if out := mustInvoke(t, dataDir, "list"); !strings.Contains(out, "ADDED") {
		t.Errorf("config verbose not applied: %q", out)
	}
	if out := mustInvoke(t, dataDir, "list", "-v=false"); strings.TrimSpace(out) != p {
		t.Errorf("-v=false should override config: %q", out)
	}
}

// ///////////////////////////////////////////////
// Data Directory
// ///////////////////////////////////////////////

func TestInit(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "fresh")
	dir := paths.DataDir{Root: dataDir}

	out := mustInvoke(t, dataDir, "init")
	if !strings.Contains(out, "wrote "+dir.Config()) {
		t.Errorf("init output = %q", out)
	}
	for _, p := range []string{dir.Config(), dir.Database("")} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("init did not create %s: %v", p, err)
		}
	}

	if err := os.WriteFile(dir.Config(), []byte("[log]\nlevel = \"debug\"\n"), 0o644); err != nil {
		t.Fatalf("edit config: %v", err)
	}
	out = mustInvoke(t, dataDir, "init")
	if strings.Contains(out, "wrote") {
		t.Errorf("second init rewrote the config: %q", out)
	}
	data, _ := os.ReadFile(dir.Config())
	if !strings.Contains(string(data), "debug") {
		t.Errorf("user config clobbered: %q", data)
	}
}

func TestDataDirFromEnv(t *testing.T) {
	home := filepath.Join(t.TempDir(), "envhome")
	t.Setenv(paths.HomeEnv, home)

	var out, errb bytes.Buffer
	if code := run(context.Background(), []string{"config", "path"}, &out, &errb); code != 0 {
		t.Fatalf("exit %d: %s", code, errb.String())
	}
	if want := filepath.Join(home, paths.ConfigFile); strings.TrimSpace(out.String()) != want {
		t.Errorf("config path = %q, want %q", out.String(), want)
	}
}

func TestConfigShow(t *testing.T) {
	out := mustInvoke(t, t.TempDir(), "config", "show")
	for _, want := range []string{"[database]", "[list]", "[log]", `file = "fav.db"`} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestBadConfigFails(t *testing.T) {
	dataDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dataDir, paths.ConfigFile), []byte("[log]\nmax_size_mb = 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, stderr, code := invoke(t, dataDir, "list")
	if code != 1 || !strings.Contains(stderr, "load config") {
		t.Errorf("code %d, stderr %q", code, stderr)
	}
}

func TestUnknownConfigKeyReported(t *testing.T) {
	dataDir := t.TempDir()
	dir := paths.DataDir{Root: dataDir}
	if err := os.WriteFile(dir.Config(), []byte("[database]\nflavor = \"mint\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, stderr, code := invoke(t, dataDir, "list")
	if code != 0 || !strings.Contains(stderr, `unknown config key "database.flavor"`) {
		t.Errorf("code %d, stderr %q", code, stderr)
	}
	data, err := os.ReadFile(dir.Log())
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "[WARN] unknown config key") || !strings.Contains(string(data), "database.flavor") {
		t.Errorf("warning not logged:\n%s", data)
	}
}

func TestLogTail(t *testing.T) {
	dataDir := t.TempDir()

	_, stderr, code := invoke(t, dataDir, "log")
	if code != 1 || !strings.Contains(stderr, "no log file") {
		t.Errorf("log before any writes: code %d, stderr %q", code, stderr)
	}

	mustInvoke(t, dataDir, "add", filepath.Join(t.TempDir(), "a"))
	out := mustInvoke(t, dataDir, "log", "-n", "5")
	if !strings.Contains(out, "[INFO] favorite added") {
		t.Errorf("log tail = %q", out)
	}
}
