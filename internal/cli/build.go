package cli

import (
	"encoding/json"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pyproject/pkg/backend"
	"github.com/matzehuels/pyproject/pkg/errors"
)

// buildOpts holds the command-line flags for the build command.
type buildOpts struct {
	outdir         string // output directory (default: <srcdir>/dist)
	sdist          bool   // build an sdist instead of a wheel
	configSettings string // JSON object passed to the backend as config_settings
}

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	var opts buildOpts

	cmd := &cobra.Command{
		Use:   "build [SRCDIR]",
		Short: "Build a wheel or sdist with the project's build backend",
		Long: `Build the project in SRCDIR (default: current directory) with the build
backend declared in pyproject.toml, in the configured Python environment.
Build dependencies are not installed; they must already be available.

Building a wheel also writes a .wheeltracker file holding the wheel's name
into the output directory.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			srcdir := srcdirArg(args)
			config, err := parseConfigSettings(opts.configSettings)
			if err != nil {
				return err
			}
			caller, err := c.hookCaller(srcdir)
			if err != nil {
				return err
			}
			outdir := outdirOrDefault(opts.outdir, srcdir)

			prog := newProgress(c.Logger)
			var name string
			if opts.sdist {
				name, err = backend.BuildSdist(cmd.Context(), caller, outdir, config)
			} else {
				name, err = backend.BuildWheel(cmd.Context(), caller, outdir, config)
			}
			if err != nil {
				return err
			}
			printSuccess("Built %s", StyleHighlight.Render(name))
			printFile(filepath.Join(outdir, name))
			prog.done("build finished")
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.outdir, "outdir", "o", "", "output `DIR` (default <srcdir>/dist)")
	cmd.Flags().BoolVar(&opts.sdist, "sdist", false, "build a source distribution instead of a wheel")
	cmd.Flags().StringVar(&opts.configSettings, "backend-config-settings", "", "backend config_settings as a JSON object")
	return cmd
}

// metadataCommand creates the metadata command.
func (c *CLI) metadataCommand() *cobra.Command {
	var outdir string

	cmd := &cobra.Command{
		Use:   "metadata [SRCDIR]",
		Short: "Write the project's core metadata (METADATA) file",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			srcdir := srcdirArg(args)
			caller, err := c.hookCaller(srcdir)
			if err != nil {
				return err
			}
			path, err := backend.BuildMetadata(cmd.Context(), caller, outdirOrDefault(outdir, srcdir), nil)
			if err != nil {
				return err
			}
			printSuccess("Wrote metadata")
			printFile(path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outdir, "outdir", "o", "", "output `DIR` (default <srcdir>/dist)")
	return cmd
}

// hookCaller returns a subprocess hook caller for the backend of srcdir.
func (c *CLI) hookCaller(srcdir string) (*backend.Subprocess, error) {
	python, err := c.pythonCommand()
	if err != nil {
		return nil, err
	}
	bs, err := backend.LoadBuildSystem(srcdir)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("using build backend", "backend", bs.BuildBackend, "python", python)
	return &backend.Subprocess{
		Python:      python,
		SrcDir:      srcdir,
		BuildSystem: bs,
		Stdout:      c.hookOutput(),
	}, nil
}

func srcdirArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

// outdirOrDefault returns outdir, or the dist directory of srcdir.
func outdirOrDefault(outdir, srcdir string) string {
	if outdir == "" {
		return filepath.Join(srcdir, "dist")
	}
	return outdir
}

// parseConfigSettings decodes --backend-config-settings.
func parseConfigSettings(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var config map[string]any
	if err := json.Unmarshal([]byte(raw), &config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "--backend-config-settings must be a JSON object")
	}
	return config, nil
}
