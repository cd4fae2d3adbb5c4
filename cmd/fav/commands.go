package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"tools.zach/dev/fav/internal/config"
	"tools.zach/dev/fav/internal/repo"
)

// ///////////////////////////////////////////////
// Target Type Flag
// ///////////////////////////////////////////////

// targetType is the value of the -t/--type flag of get and remove.
type targetType string

const (
	targetAlias targetType = "alias"
	targetPath  targetType = "path"
)

func (t *targetType) String() string { return string(*t) }

func (t *targetType) Set(s string) error {
	switch v := targetType(strings.ToLower(s)); v {
	case targetAlias, targetPath:
		*t = v
		return nil
	}
	return fmt.Errorf("must be %q or %q", targetAlias, targetPath)
}

func (t *targetType) Type() string { return "type" }

// addTypeFlag registers -t/--type on cmd, defaulting to alias.
func addTypeFlag(cmd *cobra.Command, t *targetType, usage string) {
	*t = targetAlias
	cmd.Flags().VarP(t, "type", "t", usage)
	_ = cmd.RegisterFlagCompletionFunc("type",
		cobra.FixedCompletions([]string{string(targetAlias), string(targetPath)}, cobra.ShellCompDirectiveNoFileComp))
}

// ///////////////////////////////////////////////
// add / set
// ///////////////////////////////////////////////

func newAddCommand(a *app) *cobra.Command {
	var aliases []string
	cmd := &cobra.Command{
		Use:     "add [-a NAME]... PATH",
		Aliases: []string{"a"},
		Short:   "Add a favorite path, optionally with aliases",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			_, err = svc.AddFavorite(cmd.Context(), args[0], aliases)
			return err
		},
	}
	cmd.Flags().StringArrayVarP(&aliases, "alias", "a", nil, "alias name for the path (repeatable)")
	return cmd
}

func newSetCommand(a *app) *cobra.Command {
	var aliases []string
	cmd := &cobra.Command{
		Use:     "set -a NAME... PATH",
		Aliases: []string{"s"},
		Short:   "Attach aliases to an existing favorite",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			return svc.SetAliases(cmd.Context(), args[0], aliases)
		},
	}
	cmd.Flags().StringArrayVarP(&aliases, "alias", "a", nil, "alias name to attach (repeatable)")
	return cmd
}

// ///////////////////////////////////////////////
// get / resolve
// ///////////////////////////////////////////////

func newGetCommand(a *app) *cobra.Command {
	var target targetType
	cmd := &cobra.Command{
		Use:     "get [-t alias|path] VALUE",
		Aliases: []string{"g"},
		Short:   "Print the aliases of a path, or the path of an alias",
		Long: `With -t alias (the default) VALUE is a path and its alias names are
printed one per line. With -t path VALUE is an alias name and the path it
points to is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			if target == targetPath {
				results, err := svc.Resolve(cmd.Context(), args)
				if err != nil {
					return err
				}
				return a.report(cmd.OutOrStdout(), cmd.ErrOrStderr(), results, true)
			}
			names, err := svc.AliasNames(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
	addTypeFlag(cmd, &target, `what to print: "alias" names of a path or the "path" of an alias`)
	return cmd
}

func newResolveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve NAME...",
		Short: "Print the path of each alias",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			results, err := svc.Resolve(cmd.Context(), args)
			if err != nil {
				return err
			}
			return a.report(cmd.OutOrStdout(), cmd.ErrOrStderr(), results, true)
		},
	}
}

// ///////////////////////////////////////////////
// remove
// ///////////////////////////////////////////////

func newRemoveCommand(a *app) *cobra.Command {
	var target targetType
	cmd := &cobra.Command{
		Use:     "remove [-t alias|path] VALUE...",
		Aliases: []string{"rm"},
		Short:   "Remove aliases, or favorites together with their aliases",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			remove := svc.RemoveAliases
			if target == targetPath {
				remove = svc.RemovePaths
			}
			results, err := remove(cmd.Context(), args)
			if err != nil {
				return err
			}
			return a.report(cmd.OutOrStdout(), cmd.ErrOrStderr(), results, false)
		},
	}
	addTypeFlag(cmd, &target, `what to remove: "alias" names or "path" favorites`)
	return cmd
}

// ///////////////////////////////////////////////
// list
// ///////////////////////////////////////////////

func newListCommand(a *app) *cobra.Command {
	var (
		showAliases bool
		verbose     bool
		match       string
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List favorite paths, or all alias names",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if showAliases {
				for name, err := range svc.ListAliases(cmd.Context()) {
					if err != nil {
						return err
					}
					fmt.Fprintln(out, name)
				}
				return nil
			}

			if !cmd.Flags().Changed("verbose") {
				verbose = a.cfg.List.Verbose
			}
			if verbose {
				details, err := svc.ListDetails(cmd.Context(), match)
				if err != nil {
					return err
				}
				renderDetails(out, a.cfg, details)
				return nil
			}

			seq, err := svc.ListPaths(cmd.Context(), match)
			if err != nil {
				return err
			}
			for p, err := range seq {
				if err != nil {
					return err
				}
				fmt.Fprintln(out, p)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showAliases, "aliases", false, "list alias names instead of paths")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show aliases and creation time of each path")
	cmd.Flags().StringVar(&match, "match", "", `only list paths matching a glob, e.g. "/src/**"`)
	cmd.MarkFlagsMutuallyExclusive("aliases", "match")
	cmd.MarkFlagsMutuallyExclusive("aliases", "verbose")
	return cmd
}

// renderDetails writes the verbose listing as an aligned table. Styling is
// only applied when w is a terminal.
func renderDetails(w io.Writer, cfg *config.Config, details []repo.FavoriteDetail) {
	if len(details) == 0 {
		return
	}
	r := lipgloss.NewRenderer(w)
	header := r.NewStyle().Bold(true)
	cell := r.NewStyle()

	rows := make([][]string, 0, len(details))
	for _, d := range details {
		names := strings.Join(d.Aliases, ",")
		if names == "" {
			names = "-"
		}
		rows = append(rows, []string{d.Path, names, cfg.FormatTime(d.CreatedAt)})
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers("PATH", "ALIASES", "ADDED").
		Rows(rows...)
	fmt.Fprintln(w, t.String())
}
