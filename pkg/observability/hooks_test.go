package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Resolve hooks
	r := NoopResolveHooks{}
	r.OnResolveStart(ctx, "build", "pep518", "pep518")
	r.OnResolveComplete(ctx, "build", "pep518", "pep518", 2, time.Second, nil)
	r.OnWarning(ctx, "test", "reqs", "dropped -e .")

	// Backend hooks
	b := NoopBackendHooks{}
	b.OnHookStart(ctx, "setuptools.build_meta", "get_requires_for_build_wheel")
	b.OnHookComplete(ctx, "setuptools.build_meta", "get_requires_for_build_wheel", time.Second, errors.New("boom"))

	// Store hooks
	s := NoopStoreHooks{}
	s.OnLoad(ctx, "pyproject_deps.json", 3, nil)
	s.OnSave(ctx, "pyproject_deps.json", 3, nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Resolve().(NoopResolveHooks); !ok {
		t.Error("Resolve() should return NoopResolveHooks by default")
	}
	if _, ok := Backend().(NoopBackendHooks); !ok {
		t.Error("Backend() should return NoopBackendHooks by default")
	}
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Store() should return NoopStoreHooks by default")
	}

	customResolve := &testResolveHooks{}
	SetResolveHooks(customResolve)
	if Resolve() != customResolve {
		t.Error("SetResolveHooks should set custom hooks")
	}

	customBackend := &testBackendHooks{}
	SetBackendHooks(customBackend)
	if Backend() != customBackend {
		t.Error("SetBackendHooks should set custom hooks")
	}

	customStore := &testStoreHooks{}
	SetStoreHooks(customStore)
	if Store() != customStore {
		t.Error("SetStoreHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Resolve().(NoopResolveHooks); !ok {
		t.Error("Reset() should restore NoopResolveHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testResolveHooks{}
	SetResolveHooks(custom)

	// Setting nil should be ignored
	SetResolveHooks(nil)

	if Resolve() != custom {
		t.Error("SetResolveHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testResolveHooks struct{ NoopResolveHooks }
type testBackendHooks struct{ NoopBackendHooks }
type testStoreHooks struct{ NoopStoreHooks }
