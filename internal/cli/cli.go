// Package cli implements the pyproject command-line interface.
package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pyproject/pkg/buildinfo"
	"github.com/matzehuels/pyproject/pkg/deps"
	"github.com/matzehuels/pyproject/pkg/deps/sources"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for the binary and display.
	appName = "pyproject"

	// Environment variables consulted for flag defaults.
	envDepsFile = "PYPROJECT_DEPS_FILE"
	envPython   = "PYPROJECT_PYTHON"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogWarn  = log.WarnLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger   *log.Logger
	Registry *deps.Registry // Source types accepted by "deps add"
	Stdout   io.Writer      // Machine-readable output (eval, show, verify)

	hooks   *logHooks
	python  string // --python
	envFile string // --env-file
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	logger := newLogger(w, level)
	return &CLI{
		Logger:   logger,
		Registry: sources.Default(),
		Stdout:   os.Stdout,
		hooks:    newLogHooks(logger),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Manage the Python dependencies of a pyproject-based project",
		Long: `pyproject keeps named groups of Python requirements in sync with the
files and build backends that declare them, and renders them for other tools.`,
		Version:       buildinfo.Resolved(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})

	root.PersistentFlags().StringVar(&c.envFile, "env-file", "", "load environment variables from `FILE` before reading defaults")
	root.PersistentFlags().StringVar(&c.python, "python", "", "python interpreter command for build backend hooks (default $"+envPython+" or python3)")

	// Register all subcommands
	root.AddCommand(c.depsCommand())
	root.AddCommand(c.buildCommand())
	root.AddCommand(c.metadataCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup runs before every command, once flags are parsed.
func (c *CLI) setup() error {
	if err := loadEnvFile(c.envFile); err != nil {
		return err
	}
	c.hooks.register()
	return nil
}
