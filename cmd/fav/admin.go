package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	fav "tools.zach/dev/fav"
	"tools.zach/dev/fav/internal/atomicfile"
	"tools.zach/dev/fav/internal/logger"
	"tools.zach/dev/fav/internal/paths"
)

// ///////////////////////////////////////////////
// init
// ///////////////////////////////////////////////

func newInitCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the data directory, a commented config file and the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := atomicfile.Create(a.dir.Config(), fav.DefaultConfigTOML, 0o644)
			if err != nil {
				return fmt.Errorf("write default config: %w", err)
			}
			if _, err := a.service(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if created {
				fmt.Fprintf(out, "wrote %s\n", a.dir.Config())
			}
			fmt.Fprintf(out, "database ready at %s\n", a.cfg.DatabasePath(a.dir))
			return nil
		},
	}
}

// ///////////////////////////////////////////////
// config
// ///////////////////////////////////////////////

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), a.dir.Config())
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration as TOML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return toml.NewEncoder(cmd.OutOrStdout()).Encode(a.cfg)
			},
		},
	)
	return cmd
}

// ///////////////////////////////////////////////
// log
// ///////////////////////////////////////////////

func newLogCommand(a *app) *cobra.Command {
	var lines int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Print the end of the log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tail, err := logger.ReadTail(a.dir.Log(), lines)
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("no log file at %s", a.dir.Log())
			}
			if err != nil {
				return err
			}
			for _, l := range tail {
				fmt.Fprintln(cmd.OutOrStdout(), l)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "number of lines to print")
	return cmd
}

// ///////////////////////////////////////////////
// version
// ///////////////////////////////////////////////

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", paths.BinaryName, resolveVersion())
			return nil
		},
	}
}
