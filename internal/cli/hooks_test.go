package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/pyproject/pkg/observability"
)

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	h := newLogHooks(newLogger(&buf, LogDebug))
	h.register()
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	observability.Resolve().OnResolveComplete(ctx, "build", "reqs", "deplist", 2, 5*time.Millisecond, nil)
	observability.Resolve().OnWarning(ctx, "build", "reqs", "dropped")
	observability.Resolve().OnWarning(ctx, "build", "reqs", "dropped again")
	observability.Store().OnSave(ctx, "pyproject_deps.json", 1, nil)

	if got := h.warnings.Load(); got != 2 {
		t.Errorf("warnings = %d, want 2", got)
	}
	for _, want := range []string{"resolved", "reqs", "saved deps file"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestLogHooksQuietAtInfo(t *testing.T) {
	var buf bytes.Buffer
	h := newLogHooks(newLogger(&buf, LogInfo))

	ctx := context.Background()
	h.OnHookStart(ctx, "setuptools.build_meta", "build_wheel")
	h.OnHookComplete(ctx, "setuptools.build_meta", "build_wheel", time.Second, nil)
	h.OnLoad(ctx, "pyproject_deps.json", 3, nil)

	if buf.Len() != 0 {
		t.Errorf("hooks logged at info level:\n%s", buf.String())
	}
}
