// Package observability provides hooks for logging, metrics and tracing.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about source resolution, build backend hook calls and
// store operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the library packages
// never import a logging or metrics framework.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetResolveHooks(&myResolveHooks{})
//	    observability.SetBackendHooks(&myBackendHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Resolve().OnResolveStart(ctx, group, source, srctype)
//	// ... resolve ...
//	observability.Resolve().OnResolveComplete(ctx, group, source, srctype, count, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Resolve Hooks
// =============================================================================

// ResolveHooks receives events from the sync/verify engine.
type ResolveHooks interface {
	// OnResolveStart is called before a source is resolved.
	OnResolveStart(ctx context.Context, group, source, srctype string)

	// OnResolveComplete is called after a source is resolved, with the
	// number of requirements it produced.
	OnResolveComplete(ctx context.Context, group, source, srctype string, count int, duration time.Duration, err error)

	// OnWarning records a non-fatal problem, such as a dropped entry.
	OnWarning(ctx context.Context, group, source, message string)
}

// =============================================================================
// Backend Hooks
// =============================================================================

// BackendHooks receives events from build backend hook calls.
type BackendHooks interface {
	// OnHookStart records a hook subprocess being spawned.
	OnHookStart(ctx context.Context, backend, hook string)

	// OnHookComplete records a finished hook subprocess.
	OnHookComplete(ctx context.Context, backend, hook string, duration time.Duration, err error)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from the dependency store.
type StoreHooks interface {
	// OnLoad records a store being read.
	OnLoad(ctx context.Context, path string, groups int, err error)

	// OnSave records a store being written.
	OnSave(ctx context.Context, path string, groups int, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopResolveHooks is a no-op implementation of ResolveHooks.
type NoopResolveHooks struct{}

func (NoopResolveHooks) OnResolveStart(context.Context, string, string, string) {}
func (NoopResolveHooks) OnResolveComplete(context.Context, string, string, string, int, time.Duration, error) {
}
func (NoopResolveHooks) OnWarning(context.Context, string, string, string) {}

// NoopBackendHooks is a no-op implementation of BackendHooks.
type NoopBackendHooks struct{}

func (NoopBackendHooks) OnHookStart(context.Context, string, string)                       {}
func (NoopBackendHooks) OnHookComplete(context.Context, string, string, time.Duration, error) {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnLoad(context.Context, string, int, error) {}
func (NoopStoreHooks) OnSave(context.Context, string, int, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	resolveHooks ResolveHooks = NoopResolveHooks{}
	backendHooks BackendHooks = NoopBackendHooks{}
	storeHooks   StoreHooks   = NoopStoreHooks{}
	hooksMu      sync.RWMutex
)

// SetResolveHooks registers custom resolve hooks.
// This should be called once at application startup before any sync or verify.
func SetResolveHooks(h ResolveHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resolveHooks = h
	}
}

// SetBackendHooks registers custom backend hooks.
func SetBackendHooks(h BackendHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		backendHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Resolve returns the registered resolve hooks.
func Resolve() ResolveHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resolveHooks
}

// Backend returns the registered backend hooks.
func Backend() BackendHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return backendHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	resolveHooks = NoopResolveHooks{}
	backendHooks = NoopBackendHooks{}
	storeHooks = NoopStoreHooks{}
}
