package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pyproject/pkg/backend"
	"github.com/matzehuels/pyproject/pkg/deps"
	"github.com/matzehuels/pyproject/pkg/deps/store"
	"github.com/matzehuels/pyproject/pkg/errors"
	"github.com/matzehuels/pyproject/pkg/pep508"
)

// depsOpts holds the flags shared by all deps subcommands.
type depsOpts struct {
	depsfile string // store file (default: $PYPROJECT_DEPS_FILE or <srcdir>/pyproject_deps.json)
	srcdir   string // project root source paths resolve against
}

// depsCommand creates the deps command and its subcommands.
func (c *CLI) depsCommand() *cobra.Command {
	opts := &depsOpts{srcdir: "."}

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Manage groups of dependencies collected from project sources",
		Long: `Manage named groups of Python requirements.

Each group lists sources (build system tables, requirement files, tool
configurations) from which its requirements are collected by "sync".
"verify" reports drift between the stored requirements and their sources,
and "eval" prints the requirements that apply to the current environment.`,
	}

	cmd.PersistentFlags().StringVar(&opts.depsfile, "depsfile", "", "deps store `FILE` (default $"+envDepsFile+" or <srcdir>/"+store.DefaultFileName+")")
	cmd.PersistentFlags().StringVar(&opts.srcdir, "srcdir", opts.srcdir, "project root that source paths are relative to")

	cmd.AddCommand(c.depsAddCommand(opts))
	cmd.AddCommand(c.depsDeleteCommand(opts))
	cmd.AddCommand(c.depsSyncCommand(opts))
	cmd.AddCommand(c.depsVerifyCommand(opts))
	cmd.AddCommand(c.depsShowCommand(opts))
	cmd.AddCommand(c.depsEvalCommand(opts))
	cmd.AddCommand(c.depsFilterCommand(opts))

	return cmd
}

// engine creates a deps engine for the configured store and project.
func (c *CLI) engine(opts *depsOpts) (*deps.Engine, error) {
	python, err := c.pythonCommand()
	if err != nil {
		return nil, err
	}
	return deps.NewEngine(depsFilePath(opts.depsfile, opts.srcdir), c.Registry, deps.Options{
		ProjectRoot: opts.srcdir,
		Python:      python,
		Logger:      c.Logger.Debugf,
		Warn:        c.Logger.Warnf,
		HookOutput:  c.hookOutput(),
	}), nil
}

// hookOutput is where build backend chatter goes: shown with --verbose,
// discarded otherwise.
func (c *CLI) hookOutput() io.Writer {
	if c.Logger.GetLevel() <= log.DebugLevel {
		return uiOut
	}
	return io.Discard
}

// =============================================================================
// add / delete
// =============================================================================

func (c *CLI) depsAddCommand(opts *depsOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add GROUP SRCNAME SRCTYPE [ARGS...]",
		Short: "Add a source to a group, replacing any source of the same name",
		Long:  "Add a source to a group, creating the store file and the group as needed.\n\n" + c.sourceTypesHelp(),
		Args:  usageArgs(cobra.MinimumNArgs(3)),

		ValidArgsFunction: c.completeAdd(opts),

		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.engine(opts)
			if err != nil {
				return err
			}
			group, name, srctype := args[0], args[1], args[2]
			replaced, err := e.Add(cmd.Context(), group, name, srctype, args[3:])
			if err != nil {
				return err
			}
			if replaced {
				printSuccess("Replaced source %s in group %s", StyleHighlight.Render(name), StyleHighlight.Render(group))
			} else {
				printSuccess("Added source %s to group %s", StyleHighlight.Render(name), StyleHighlight.Render(group))
			}
			return nil
		},
	}
	// Source arguments may look like flags, e.g. pip options.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// sourceTypesHelp lists the registered source types for help output.
func (c *CLI) sourceTypesHelp() string {
	var b strings.Builder
	b.WriteString("Source types:\n")
	for _, t := range c.Registry.Types() {
		fmt.Fprintf(&b, "  %-12s %s\n", t.Name, t.Description)
		if t.Usage != "" {
			fmt.Fprintf(&b, "  %-12s args: %s\n", "", t.Usage)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (c *CLI) depsDeleteCommand(opts *depsOpts) *cobra.Command {
	var srcname string

	cmd := &cobra.Command{
		Use:     "delete [--srcname NAME] GROUP...",
		Aliases: []string{"del"},
		Short:   "Delete groups, or a single source from groups",
		Args:    usageArgs(cobra.MinimumNArgs(1)),

		ValidArgsFunction: c.completeGroups(opts),

		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.engine(opts)
			if err != nil {
				return err
			}
			if srcname == "" {
				if err := e.DeleteGroups(cmd.Context(), args); err != nil {
					return err
				}
				printSuccess("Deleted %s", plural(len(args), "group"))
				return nil
			}
			if err := e.DeleteSource(cmd.Context(), srcname, args); err != nil {
				return err
			}
			printSuccess("Deleted source %s from %s", StyleHighlight.Render(srcname), plural(len(args), "group"))
			return nil
		},
	}

	cmd.Flags().StringVar(&srcname, "srcname", "", "delete only the source `NAME` instead of whole groups")
	return cmd
}

// =============================================================================
// sync / verify
// =============================================================================

func (c *CLI) depsSyncCommand(opts *depsOpts) *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "sync [GROUP...]",
		Short: "Resolve sources and store the resulting dependencies",
		Long: `Resolve the sources of the given groups (all groups by default) and store
their requirements. The store is only written when every group resolved.`,

		ValidArgsFunction: c.completeGroups(opts),

		RunE: func(cmd *cobra.Command, args []string) error {
			if verify {
				return c.runVerify(cmd.Context(), opts, args)
			}
			return c.runSync(cmd.Context(), opts, args)
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "only report drift, like \"deps verify\"")
	return cmd
}

func (c *CLI) runSync(ctx context.Context, opts *depsOpts, groups []string) error {
	e, err := c.engine(opts)
	if err != nil {
		return err
	}
	prog := newProgress(c.Logger)
	results, err := e.Sync(ctx, groups)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		printInfo("No groups to sync")
		return nil
	}
	printSuccess("Synced %s", plural(len(results), "group"))
	for _, r := range results {
		printGroupStatus(r.Group, len(r.Deps), r.Changed)
	}
	c.reportWarnings()
	prog.done("sync finished")
	return nil
}

// reportWarnings summarizes the resolver warnings logged so far.
func (c *CLI) reportWarnings() {
	if n := c.hooks.warnings.Load(); n > 0 {
		printWarning("%s from resolvers, see log above", plural(int(n), "warning"))
	}
}

func (c *CLI) depsVerifyCommand(opts *depsOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [GROUP...]",
		Short: "Report drift between stored dependencies and their sources",
		Long: `Resolve the sources of the given groups (all groups by default) and compare
the result with the stored requirements, ignoring order. The store is never
written. On drift, a JSON report is printed to stdout and the exit code is 4.`,

		ValidArgsFunction: c.completeGroups(opts),

		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runVerify(cmd.Context(), opts, args)
		},
	}
	// Accepted for symmetry with "sync --verify".
	cmd.Flags().Bool("verify", true, "no-op")
	_ = cmd.Flags().MarkHidden("verify")
	return cmd
}

func (c *CLI) runVerify(ctx context.Context, opts *depsOpts, groups []string) error {
	e, err := c.engine(opts)
	if err != nil {
		return err
	}
	diff, err := e.Verify(ctx, groups)
	if err != nil {
		return err
	}
	c.reportWarnings()
	if len(diff) == 0 {
		printSuccess("Dependencies are in sync")
		return nil
	}

	out, err := json.MarshalIndent(diff, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode drift report")
	}
	fmt.Fprintln(c.Stdout, string(out))

	for _, gd := range diff {
		printWarning("Group %s drifted", gd.Group)
		for _, req := range gd.Added {
			printDriftLine(true, req)
		}
		for _, req := range gd.Removed {
			printDriftLine(false, req)
		}
	}
	return &DriftError{Diff: diff}
}

// =============================================================================
// show / eval
// =============================================================================

func (c *CLI) depsShowCommand(opts *depsOpts) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show [GROUP...]",
		Short: "Print the stored configuration of groups",

		ValidArgsFunction: c.completeGroups(opts),

		RunE: func(cmd *cobra.Command, args []string) error {
			f := store.Format(format)
			if f != store.FormatJSON && f != store.FormatYAML {
				return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want json or yaml)", format)
			}
			e, err := c.engine(opts)
			if err != nil {
				return err
			}
			return e.Show(cmd.Context(), c.Stdout, args, f)
		},
	}

	cmd.Flags().StringVar(&format, "format", string(store.FormatJSON), "output format: json or yaml")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{string(store.FormatJSON), string(store.FormatYAML)}, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

func (c *CLI) depsEvalCommand(opts *depsOpts) *cobra.Command {
	var evalOpts deps.EvalOptions

	cmd := &cobra.Command{
		Use:   "eval [GROUP...]",
		Short: "Print the stored dependencies that apply to this environment",
		Long: `Print the stored requirements of the given groups (all groups by default)
whose markers hold in the environment of the configured Python interpreter.

--depformat renders each requirement from a template instead of printing it
as is. Placeholders:
  $name    project name as written
  $nname   normalized project name
  $fextra  the requirement's extras, each rendered with --depformatextra

--depformatextra is the template for a single extra; $extra is its name.`,

		ValidArgsFunction: c.completeGroups(opts),

		RunE: func(cmd *cobra.Command, args []string) error {
			if evalOpts.ExtraFormat != "" && evalOpts.Format == "" {
				return errors.New(errors.ErrCodeInvalidInput, "--depformatextra requires --depformat")
			}
			e, err := c.engine(opts)
			if err != nil {
				return err
			}
			e.Options.Env = c.markerEnvironment(cmd.Context(), e.Options.Python)

			lines, err := e.Eval(cmd.Context(), args, evalOpts)
			if err != nil {
				return err
			}
			for _, line := range lines {
				fmt.Fprintln(c.Stdout, line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&evalOpts.Format, "depformat", "", "render each requirement with this `TEMPLATE`")
	cmd.Flags().StringVar(&evalOpts.ExtraFormat, "depformatextra", "", "render each extra with this `TEMPLATE` (requires --depformat)")
	cmd.Flags().StringVar(&evalOpts.Extra, "extra", "", "evaluate markers with extra set to `NAME`")
	cmd.Flags().StringArrayVar(&evalOpts.Excludes, "exclude", nil, "drop requirements whose normalized name matches `PATTERN` (repeatable)")
	return cmd
}

// markerEnvironment asks the interpreter for its marker environment,
// falling back to the environment of this process.
func (c *CLI) markerEnvironment(ctx context.Context, python []string) pep508.Environment {
	env, err := backend.QueryEnvironment(ctx, python)
	if err != nil {
		c.Logger.Warnf("Using default marker environment: %s", errors.UserMessage(err))
		return pep508.DefaultEnvironment()
	}
	return env
}

// =============================================================================
// filter
// =============================================================================

func (c *CLI) depsFilterCommand(opts *depsOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Manage the include and exclude patterns of a group",
		Long: `Manage the patterns applied by "sync" to the normalized names of resolved
requirements. Patterns are regular expressions anchored at the start of the
name. Excludes are applied first; when include patterns exist, only matching
names are kept.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add GROUP include|exclude PATTERN",
		Short: "Add a pattern to a group",
		Args:  usageArgs(cobra.ExactArgs(3)),

		ValidArgsFunction: c.completeFilter(opts),

		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.engine(opts)
			if err != nil {
				return err
			}
			if err := e.AddFilter(cmd.Context(), args[0], args[1], args[2]); err != nil {
				return err
			}
			printSuccess("Added %s pattern %s to group %s", args[1], StyleHighlight.Render(args[2]), StyleHighlight.Render(args[0]))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete GROUP include|exclude [PATTERN]",
		Short: "Delete a pattern, or all patterns of a kind",
		Args:  usageArgs(cobra.RangeArgs(2, 3)),

		ValidArgsFunction: c.completeFilter(opts),

		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.engine(opts)
			if err != nil {
				return err
			}
			var pattern string
			if len(args) == 3 {
				pattern = args[2]
			}
			if err := e.DeleteFilter(cmd.Context(), args[0], args[1], pattern); err != nil {
				return err
			}
			if pattern == "" {
				printSuccess("Cleared %s patterns of group %s", args[1], StyleHighlight.Render(args[0]))
			} else {
				printSuccess("Deleted %s pattern %s from group %s", args[1], StyleHighlight.Render(pattern), StyleHighlight.Render(args[0]))
			}
			return nil
		},
	})

	return cmd
}

// plural formats a count with a noun, e.g. "1 group" or "3 groups".
func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
