package cli

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pyproject/pkg/buildinfo"
)

// versionCommand creates the version command.
func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  usageArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, args []string) {
			printKeyValue("version", buildinfo.Resolved())
			printKeyValue("commit", buildinfo.Commit)
			printKeyValue("built", buildinfo.Date)
			printKeyValue("go", runtime.Version())
		},
	}
}
