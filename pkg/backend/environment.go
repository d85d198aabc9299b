package backend

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"os/exec"

	"github.com/matzehuels/pyproject/pkg/errors"
	"github.com/matzehuels/pyproject/pkg/pep508"
)

//go:embed helper/marker_env.py
var markerEnvScript string

// QueryEnvironment runs python to obtain its marker environment. The result
// is layered over [pep508.DefaultEnvironment], so every marker variable is
// present; "extra" is always empty.
func QueryEnvironment(ctx context.Context, python []string) (pep508.Environment, error) {
	if len(python) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no python interpreter configured")
	}
	args := append(append([]string{}, python[1:]...), "-c", markerEnvScript)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, python[0], args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeHook, err, "query environment of %s: %s", python[0], tail(stderr.Bytes()))
	}

	var values map[string]string
	if err := json.Unmarshal(stdout.Bytes(), &values); err != nil {
		return nil, errors.Wrap(errors.ErrCodeHook, err, "malformed environment from %s", python[0])
	}
	delete(values, "extra")
	return pep508.DefaultEnvironment().Merge(values), nil
}
