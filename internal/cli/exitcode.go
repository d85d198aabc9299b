package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pyproject/pkg/deps"
	"github.com/matzehuels/pyproject/pkg/errors"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitInternal    = 3
	ExitDrift       = 4
	ExitInterrupted = 130 // Standard shell convention for SIGINT
)

// DriftError is returned by verify when the stored deps no longer match
// their sources.
type DriftError struct {
	Diff deps.Diff
}

func (e *DriftError) Error() string {
	groups := make([]string, len(e.Diff))
	for i, gd := range e.Diff {
		groups[i] = gd.Group
	}
	return fmt.Sprintf("dependencies drifted in %s", strings.Join(groups, ", "))
}

// ExitCode maps an error returned by the root command to a process exit code.
func ExitCode(err error) int {
	var drift *DriftError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &drift):
		return ExitDrift
	case stderrors.Is(err, context.Canceled):
		return ExitInterrupted
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput:
		return ExitUsage
	case errors.ErrCodeInternal:
		return ExitInternal
	}
	return ExitFailure
}

// PrintError reports err on stderr the way the CLI shows failures.
func PrintError(err error) {
	var drift *DriftError
	if errors.As(err, &drift) {
		printWarning("%s", drift.Error())
		return
	}
	printError("%s", errors.UserMessage(err))
}

// usageError marks err as a command-line usage problem.
func usageError(err error) error {
	if errors.GetCode(err) != "" {
		return err
	}
	return errors.New(errors.ErrCodeInvalidInput, "%v", err)
}

// usageArgs wraps a positional argument validator so that its failures
// exit with [ExitUsage].
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}
