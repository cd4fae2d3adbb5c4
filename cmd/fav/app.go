package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"tools.zach/dev/fav/internal/config"
	"tools.zach/dev/fav/internal/favs"
	"tools.zach/dev/fav/internal/logger"
	"tools.zach/dev/fav/internal/paths"
	"tools.zach/dev/fav/internal/repo"
	"tools.zach/dev/fav/internal/store"
)

// errMissed is returned under --strict when any batch item was not found.
var errMissed = errors.New("one or more items were not found")

// ///////////////////////////////////////////////
// Application State
// ///////////////////////////////////////////////

// app carries the per-invocation state shared by all subcommands. Setup is
// split in two: [app.setup] loads config and logging for every command but
// `version`, and [app.service] additionally locks the data directory and
// opens the database for commands that need it.
type app struct {
	// Flags.
	dataDirFlag string
	strict      bool

	dir       paths.DataDir
	cfg       *config.Config
	logCloser io.Closer
	lock      *os.File
	store     *store.Store
	svc       *favs.Service
}

// dataDir resolves the data directory: --data-dir, else $FAV_HOME, else the
// home default.
func (a *app) dataDir() paths.DataDir {
	if a.dataDirFlag != "" {
		return paths.DataDir{Root: a.dataDirFlag}
	}
	return paths.Default()
}

// setup creates the data directory, loads the config and installs the file
// logger as the slog default. Unknown config keys are reported to stderr and
// the log once the logger is in place.
func (a *app) setup(stderr io.Writer) error {
	a.dir = a.dataDir()
	if err := os.MkdirAll(a.dir.Root, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	cfg, err := config.Load(a.dir.Root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	log, closer, err := logger.NewLogger(a.dir.Log(), logger.ParseLevel(cfg.Log.Level), cfg.Log.MaxSizeMB)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.logCloser = closer
	slog.SetDefault(log)

	for _, key := range cfg.Unknown {
		slog.Warn("unknown config key", "key", key, "file", a.dir.Config())
		fmt.Fprintf(stderr, "warning: unknown config key %q in %s\n", key, a.dir.Config())
	}
	return nil
}

// service locks the data directory and opens the database on first use.
// The lock is held until [app.close].
func (a *app) service(ctx context.Context) (*favs.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}

	f, err := os.OpenFile(a.dir.Lock(), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, err
	}
	a.lock = f

	st, err := store.Open(ctx, a.cfg.DatabasePath(a.dir), store.Options{
		BusyTimeout: a.cfg.BusyTimeout(),
		WAL:         a.cfg.Database.WAL,
	})
	if err != nil {
		return nil, err
	}
	a.store = st
	a.svc = favs.New(st, nil)
	return a.svc, nil
}

// close releases everything setup and service acquired, in reverse order.
func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Warn("close database", "error", err)
		}
	}
	if a.lock != nil {
		if err := unlockFile(a.lock); err != nil {
			slog.Warn("unlock data dir", "error", err)
		}
		a.lock.Close()
	}
	if a.logCloser != nil {
		// Records logged after this point are dropped instead of reopening
		// the log file.
		slog.SetDefault(slog.New(slog.DiscardHandler))
		a.logCloser.Close()
	}
	a.store, a.lock, a.logCloser, a.svc = nil, nil, nil, nil
}

// ///////////////////////////////////////////////
// Output
// ///////////////////////////////////////////////

// report writes misses to stderr and, when printValues is set, successful
// item values to stdout. Under --strict any miss turns into [errMissed].
func (a *app) report(stdout, stderr io.Writer, results []favs.ItemResult, printValues bool) error {
	for _, r := range results {
		switch {
		case r.OK():
			if printValues {
				fmt.Fprintln(stdout, r.Value)
			}
		case errors.Is(r.Err, repo.ErrNotFound):
			fmt.Fprintf(stderr, "%s was not found\n", r.Input)
		default:
			fmt.Fprintf(stderr, "%s: %v\n", r.Input, r.Err)
		}
	}
	if a.strict && favs.Misses(results) > 0 {
		return errMissed
	}
	return nil
}
