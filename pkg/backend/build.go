package backend

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/matzehuels/pyproject/pkg/errors"
	"github.com/matzehuels/pyproject/pkg/metadata"
)

// WheelTracker is written next to a built wheel and holds its file name.
const WheelTracker = ".wheeltracker"

// Build targets accepted by [GetRequires].
var Targets = []string{"wheel", "sdist", "editable"}

// GetRequires calls get_requires_for_build_<target> and returns the
// requirement strings it reports.
func GetRequires(ctx context.Context, caller HookCaller, target string) ([]string, error) {
	hook := "get_requires_for_build_" + target
	raw, err := caller.CallHook(ctx, hook, nil, nil)
	if err != nil {
		return nil, err
	}
	var reqs []string
	if err := json.Unmarshal(raw, &reqs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeHook, err, "hook %s must return a list of strings, got %s", hook, tail(raw))
	}
	return reqs, nil
}

// BuildWheel builds a wheel into outdir and records its name in the
// [WheelTracker] file. It returns the wheel file name.
func BuildWheel(ctx context.Context, caller HookCaller, outdir string, config map[string]any) (string, error) {
	name, err := build(ctx, caller, HookBuildWheel, outdir, config)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(outdir, WheelTracker), []byte(name+"\n"), 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write %s", WheelTracker)
	}
	return name, nil
}

// BuildSdist builds a source distribution into outdir and returns its file name.
func BuildSdist(ctx context.Context, caller HookCaller, outdir string, config map[string]any) (string, error) {
	return build(ctx, caller, HookBuildSdist, outdir, config)
}

// BuildMetadata writes the project's core metadata to outdir/METADATA and
// returns its path. It prefers prepare_metadata_for_build_wheel and falls
// back to building a wheel when the backend does not provide that hook.
func BuildMetadata(ctx context.Context, caller HookCaller, outdir string, config map[string]any) (string, error) {
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "create %s", outdir)
	}
	dest := filepath.Join(outdir, metadata.FileName)

	data, err := PrepareMetadata(ctx, caller, config)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write %s", dest)
	}
	return dest, nil
}

// PrepareMetadata returns the raw METADATA contents of the project, built in
// a temporary directory that is removed afterwards.
func PrepareMetadata(ctx context.Context, caller HookCaller, config map[string]any) ([]byte, error) {
	tmp, err := os.MkdirTemp("", "pyproject-metadata-")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create temporary directory")
	}
	defer os.RemoveAll(tmp)

	distInfo, err := build(ctx, caller, HookPrepareMetadataForWheel, tmp, config)
	if err != nil {
		return nil, err
	}
	if distInfo != "" {
		data, err := os.ReadFile(filepath.Join(tmp, distInfo, metadata.FileName))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeHook, err, "read metadata prepared by backend")
		}
		return data, nil
	}

	wheel, err := build(ctx, caller, HookBuildWheel, tmp, config)
	if err != nil {
		return nil, err
	}
	return metadata.ReadWheelMetadata(filepath.Join(tmp, wheel))
}

func build(ctx context.Context, caller HookCaller, hook, outdir string, config map[string]any) (string, error) {
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "create %s", outdir)
	}
	abs, err := filepath.Abs(outdir)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "resolve %s", outdir)
	}

	kwargs := map[string]any{"config_settings": nil}
	if len(config) > 0 {
		kwargs["config_settings"] = config
	}
	raw, err := caller.CallHook(ctx, hook, []any{abs}, kwargs)
	if err != nil {
		return "", err
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return "", errors.Wrap(errors.ErrCodeHook, err, "hook %s must return a file name, got %s", hook, tail(raw))
	}
	return name, nil
}
