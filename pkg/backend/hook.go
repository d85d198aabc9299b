package backend

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/matzehuels/pyproject/pkg/errors"
	"github.com/matzehuels/pyproject/pkg/observability"
)

//go:embed helper/hook_caller.py
var hookCallerScript string

// Hook names understood by the helper script.
const (
	HookBuildWheel              = "build_wheel"
	HookBuildSdist              = "build_sdist"
	HookBuildEditable           = "build_editable"
	HookPrepareMetadataForWheel = "prepare_metadata_for_build_wheel"
)

// HookCaller invokes a build backend hook and returns its JSON result.
type HookCaller interface {
	CallHook(ctx context.Context, hook string, args []any, kwargs map[string]any) (json.RawMessage, error)
}

// Subprocess calls hooks by running the helper script in a Python interpreter.
// The zero value is not usable; Python and SrcDir must be set.
type Subprocess struct {
	Python      []string    // Interpreter command, e.g. {"python3"} or {"python3", "-I"}
	SrcDir      string      // Project root; the working directory of the hook
	BuildSystem BuildSystem // Backend to load
	Stdout      io.Writer   // Receives backend stdout; discarded if nil
	Env         []string    // Extra environment for the subprocess
}

// CallHook implements [HookCaller]. The hook runs with SrcDir as its working
// directory. A non-zero exit or a result that is not {"result": ...} JSON is
// a HOOK_FAILED error carrying the backend's stderr.
func (s *Subprocess) CallHook(ctx context.Context, hook string, args []any, kwargs map[string]any) (result json.RawMessage, err error) {
	if len(s.Python) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no python interpreter configured")
	}
	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	payload, err := json.Marshal([]any{args, kwargs})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode arguments for %s", hook)
	}

	backend := s.BuildSystem.BuildBackend
	if backend == "" {
		backend = DefaultBuildBackend
	}

	start := time.Now()
	observability.Backend().OnHookStart(ctx, backend, hook)
	defer func() {
		observability.Backend().OnHookComplete(ctx, backend, hook, time.Since(start), err)
	}()

	r, w, err := os.Pipe()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create result pipe")
	}
	defer r.Close()

	// ExtraFiles[0] is fd 3 in the child.
	cmdArgs := append(append([]string{}, s.Python[1:]...), "-c", hookCallerScript, backend)
	for _, p := range s.BuildSystem.BackendPath {
		cmdArgs = append(cmdArgs, "--backend-path", p)
	}
	cmdArgs = append(cmdArgs, "--result-fd", strconv.Itoa(3), hook, "--hook-args", string(payload))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.Python[0], cmdArgs...)
	cmd.Dir = s.SrcDir
	cmd.ExtraFiles = []*os.File{w}
	cmd.Stdout = s.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = io.Discard
	}
	cmd.Stderr = &stderr
	if len(s.Env) > 0 {
		cmd.Env = append(os.Environ(), s.Env...)
	}

	if err := cmd.Start(); err != nil {
		w.Close()
		return nil, errors.Wrap(errors.ErrCodeHook, err, "start %s for hook %s", s.Python[0], hook)
	}
	w.Close()

	// Drain the pipe before Wait so a large result cannot block the child.
	out, readErr := io.ReadAll(r)
	if err := cmd.Wait(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeHook, err, "hook %s of backend %s failed: %s", hook, backend, tail(stderr.Bytes()))
	}
	if readErr != nil {
		return nil, errors.Wrap(errors.ErrCodeHook, readErr, "read result of hook %s", hook)
	}
	return decodeResult(hook, out)
}

func decodeResult(hook string, out []byte) (json.RawMessage, error) {
	var envelope struct {
		Result *json.RawMessage `json:"result"`
	}
	dec := json.NewDecoder(bytes.NewReader(out))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&envelope); err != nil {
		return nil, errors.Wrap(errors.ErrCodeHook, err, "hook %s returned malformed result %q", hook, tail(out))
	}
	if envelope.Result == nil {
		return nil, errors.New(errors.ErrCodeHook, "hook %s returned no result", hook)
	}
	return *envelope.Result, nil
}

// tail returns the last few hundred bytes of b for error messages.
func tail(b []byte) string {
	const limit = 512
	b = bytes.TrimSpace(b)
	if len(b) > limit {
		b = b[len(b)-limit:]
	}
	return string(b)
}
