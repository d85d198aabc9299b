package cli

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pyproject/pkg/observability"
)

// logHooks reports engine events through the CLI logger. Resolver warnings
// are logged by the engine's Warn callback; the hooks only count them.
type logHooks struct {
	logger   *log.Logger
	warnings atomic.Int64
}

var (
	_ observability.ResolveHooks = (*logHooks)(nil)
	_ observability.BackendHooks = (*logHooks)(nil)
	_ observability.StoreHooks   = (*logHooks)(nil)
)

func newLogHooks(l *log.Logger) *logHooks {
	return &logHooks{logger: l}
}

// register installs h as the process-wide observability hooks.
func (h *logHooks) register() {
	observability.SetResolveHooks(h)
	observability.SetBackendHooks(h)
	observability.SetStoreHooks(h)
}

func (h *logHooks) OnResolveStart(context.Context, string, string, string) {}

func (h *logHooks) OnResolveComplete(_ context.Context, group, source, _ string, count int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("resolve failed", "group", group, "source", source, "err", err)
		return
	}
	h.logger.Debug("resolved", "group", group, "source", source, "deps", count, "took", d.Round(time.Millisecond))
}

func (h *logHooks) OnWarning(context.Context, string, string, string) {
	h.warnings.Add(1)
}

func (h *logHooks) OnHookStart(_ context.Context, backend, hook string) {
	h.logger.Debug("calling backend hook", "backend", backend, "hook", hook)
}

func (h *logHooks) OnHookComplete(_ context.Context, backend, hook string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("backend hook failed", "backend", backend, "hook", hook, "err", err)
		return
	}
	h.logger.Debug("backend hook done", "hook", hook, "took", d.Round(time.Millisecond))
}

func (h *logHooks) OnLoad(_ context.Context, path string, groups int, err error) {
	if err == nil {
		h.logger.Debug("loaded deps file", "path", path, "groups", groups)
	}
}

func (h *logHooks) OnSave(_ context.Context, path string, groups int, err error) {
	if err == nil {
		h.logger.Debug("saved deps file", "path", path, "groups", groups)
	}
}
