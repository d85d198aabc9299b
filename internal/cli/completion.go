package cli

import (
	"context"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pyproject/pkg/deps/store"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for pyproject.

Besides commands and flags, the scripts complete group names read from the
deps store (for "deps sync", "verify", "eval", "show", "delete" and
"filter"), source types and their arguments for "deps add", filter kinds,
and the formats of "deps show --format".

To load completions:

Bash:
  $ source <(pyproject completion bash)

  # To load completions for each session, execute once:
  $ pyproject completion bash > /etc/bash_completion.d/pyproject

Zsh:
  # Completion must be enabled once with "autoload -U compinit; compinit".
  $ pyproject completion zsh > "${fpath[1]}/_pyproject"

Fish:
  $ pyproject completion fish > ~/.config/fish/completions/pyproject.fish

PowerShell:
  PS> pyproject completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  usageArgs(cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs)),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(c.Stdout, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(c.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(c.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(c.Stdout)
			}
			return nil
		},
	}

	return cmd
}

// completionFunc is the signature of cobra's ValidArgsFunction.
type completionFunc = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective)

// storeGroups returns the group names of the configured store, or nil when
// it cannot be read.
func (c *CLI) storeGroups(cmd *cobra.Command, opts *depsOpts) []string {
	e, err := c.engine(opts)
	if err != nil {
		return nil
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := e.Load(ctx)
	if err != nil {
		return nil
	}
	return s.GroupNames()
}

// completeGroups completes any number of distinct group names.
func (c *CLI) completeGroups(opts *depsOpts) completionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var out []string
		for _, g := range c.storeGroups(cmd, opts) {
			if !slices.Contains(args, g) {
				out = append(out, g)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeAdd completes "deps add GROUP SRCNAME SRCTYPE [ARGS...]". Source
// arguments are usually paths, so they fall back to file completion.
func (c *CLI) completeAdd(opts *depsOpts) completionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		switch len(args) {
		case 0:
			return c.storeGroups(cmd, opts), cobra.ShellCompDirectiveNoFileComp
		case 1:
			return nil, cobra.ShellCompDirectiveNoFileComp
		case 2:
			var out []string
			for _, t := range c.Registry.Types() {
				out = append(out, t.Name+"\t"+t.Description)
			}
			return out, cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveDefault
	}
}

// completeFilter completes "deps filter add|delete GROUP KIND ...".
func (c *CLI) completeFilter(opts *depsOpts) completionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		switch len(args) {
		case 0:
			return c.storeGroups(cmd, opts), cobra.ShellCompDirectiveNoFileComp
		case 1:
			return []string{store.FilterInclude, store.FilterExclude}, cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}
