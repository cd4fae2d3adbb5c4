// Package main implements fav, a command-line bookmark manager for
// filesystem paths. Favorites are stored in a SQLite database in the data
// directory and can be given short alias names that resolve back to them.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"tools.zach/dev/fav/internal/logger"
	"tools.zach/dev/fav/internal/paths"
)

// ///////////////////////////////////////////////
// Version
// ///////////////////////////////////////////////

// version is set at build time via ldflags:
//
//	-X main.version=0.1.0
//
// When ldflags are not set, resolveVersion reads the VCS info Go embeds.
var version = "dev"

// resolveVersion returns the build version string. If [version] was set via
// ldflags it is returned as-is; otherwise the embedded VCS revision and dirty
// state are used to construct a "dev+<hash>" tag.
func resolveVersion() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return version
	}
	hash := revision[:min(7, len(revision))]
	if dirty {
		return "dev+" + hash + ".dirty"
	}
	return "dev+" + hash
}

// ///////////////////////////////////////////////
// Root Command
// ///////////////////////////////////////////////

// skipSetup marks commands that run without config, logging or database.
const skipSetup = "skip-setup"

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           paths.BinaryName,
		Short:         "Bookmark filesystem paths under short alias names",
		Version:       resolveVersion(),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipSetup] == "true" {
				return nil
			}
			if err := a.setup(cmd.ErrOrStderr()); err != nil {
				return err
			}
			logger.Trace(cmd.Context(), slog.Default(), "command start", "cmd", cmd.CommandPath(), "args", args)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.dataDirFlag, "data-dir", "",
		"data directory for config, database and logs (default $"+paths.HomeEnv+" or ~/"+paths.DataDirRel+")")
	root.PersistentFlags().BoolVar(&a.strict, "strict", false, "exit with status 1 when any item is not found")

	root.AddCommand(
		newAddCommand(a),
		newGetCommand(a),
		newSetCommand(a),
		newRemoveCommand(a),
		newResolveCommand(a),
		newListCommand(a),
		newInitCommand(a),
		newConfigCommand(a),
		newLogCommand(a),
		newVersionCommand(),
	)
	return root
}

// ///////////////////////////////////////////////
// Main
// ///////////////////////////////////////////////

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{}
	defer a.close()

	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		if a.logCloser != nil {
			logger.Fail(ctx, slog.Default(), "command failed", "args", args, "error", err)
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
