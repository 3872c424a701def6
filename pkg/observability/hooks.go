// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about audit runs and name resolution.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the audit packages stay
// free of any particular backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetAuditHooks(&progressHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Audit().OnPackageStart(ctx, name, dir)
//	// ... walk the package ...
//	observability.Audit().OnPackageComplete(ctx, name, dir, summary, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Audit Hooks
// =============================================================================

// PackageSummary describes a finished package audit.
type PackageSummary struct {
	Diagnostics int           // problems found in the package's tree
	Visited     int           // distinct manifests loaded
	CacheHits   int           // resolution cache hits
	CacheMisses int           // resolution cache misses
	Duration    time.Duration // wall time of the walk
}

// AuditHooks receives events from the workspace orchestrator.
type AuditHooks interface {
	// Run events
	OnRunStart(ctx context.Context, root string, packages int)
	OnRunComplete(ctx context.Context, root string, total int, duration time.Duration, err error)

	// Package events
	OnPackageStart(ctx context.Context, name, dir string)
	OnPackageComplete(ctx context.Context, name, dir string, summary PackageSummary, err error)
}

// =============================================================================
// Resolve Hooks
// =============================================================================

// ResolveHooks receives events from dependency name resolution.
type ResolveHooks interface {
	// OnResolve records a lookup. cached is true when the answer came from
	// the resolution cache; found reports whether an installation exists.
	OnResolve(ctx context.Context, name string, cached, found bool)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopAuditHooks is a no-op implementation of AuditHooks.
type NoopAuditHooks struct{}

func (NoopAuditHooks) OnRunStart(context.Context, string, int)                         {}
func (NoopAuditHooks) OnRunComplete(context.Context, string, int, time.Duration, error) {}
func (NoopAuditHooks) OnPackageStart(context.Context, string, string)                  {}
func (NoopAuditHooks) OnPackageComplete(context.Context, string, string, PackageSummary, error) {
}

// NoopResolveHooks is a no-op implementation of ResolveHooks.
type NoopResolveHooks struct{}

func (NoopResolveHooks) OnResolve(context.Context, string, bool, bool) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	auditHooks   AuditHooks   = NoopAuditHooks{}
	resolveHooks ResolveHooks = NoopResolveHooks{}
	hooksMu      sync.RWMutex
)

// SetAuditHooks registers custom audit hooks.
// This should be called once at application startup before any audit runs.
func SetAuditHooks(h AuditHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		auditHooks = h
	}
}

// SetResolveHooks registers custom resolve hooks.
func SetResolveHooks(h ResolveHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resolveHooks = h
	}
}

// Audit returns the registered audit hooks.
func Audit() AuditHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return auditHooks
}

// Resolve returns the registered resolve hooks.
func Resolve() ResolveHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resolveHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	auditHooks = NoopAuditHooks{}
	resolveHooks = NoopResolveHooks{}
}
