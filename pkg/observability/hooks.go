// Package observability provides hooks for metrics and tracing.
//
// Libraries emit events through the hooks returned by [Pipeline], [Cache],
// [Pick] and [Server]. The defaults do nothing; a binary registers real
// implementations once at startup:
//
//	hooks := observability.NewPrometheusHooks()
//	hooks.Register()
//	mux.Handle("/metrics", hooks.Handler())
//
// Libraries call hooks without knowing the backend:
//
//	observability.Pipeline().OnStageStart(ctx, observability.StageDecode)
//	// ... decode ...
//	observability.Pipeline().OnStageComplete(ctx, observability.StageDecode, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// Pipeline stage names.
const (
	StageDecode      = "decode"
	StageBuild       = "build"
	StageInstantiate = "instantiate"
	StageIndex       = "index"
	StageRender      = "render"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the load pipeline.
type PipelineHooks interface {
	OnStageStart(ctx context.Context, stage string)
	OnStageComplete(ctx context.Context, stage string, duration time.Duration, err error)

	// OnLoadComplete fires once per load with the size of the flattened layout.
	OnLoadComplete(ctx context.Context, shapes, triangles int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache lookups. keyType is "library" or
// "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Pick Hooks
// =============================================================================

// PickHooks receives one event per pick query.
type PickHooks interface {
	OnPick(ctx context.Context, hit bool, duration time.Duration)
}

// =============================================================================
// Server Hooks
// =============================================================================

// ServerHooks receives one event per served HTTP request. route is the
// route pattern, not the raw path.
type ServerHooks interface {
	OnRequest(ctx context.Context, method, route string, status int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnStageStart(context.Context, string)                           {}
func (NoopPipelineHooks) OnStageComplete(context.Context, string, time.Duration, error)  {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, int, int, time.Duration, error) {}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

type NoopPickHooks struct{}

func (NoopPickHooks) OnPick(context.Context, bool, time.Duration) {}

type NoopServerHooks struct{}

func (NoopServerHooks) OnRequest(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	hooksMu       sync.RWMutex
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	pickHooks     PickHooks     = NoopPickHooks{}
	serverHooks   ServerHooks   = NoopServerHooks{}
)

// SetPipelineHooks registers pipeline hooks. Nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetPickHooks registers pick hooks. Nil is ignored.
func SetPickHooks(h PickHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pickHooks = h
	}
}

// SetServerHooks registers server hooks. Nil is ignored.
func SetServerHooks(h ServerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		serverHooks = h
	}
}

func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

func Pick() PickHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pickHooks
}

func Server() ServerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return serverHooks
}

// Reset restores the no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	pickHooks = NoopPickHooks{}
	serverHooks = NoopServerHooks{}
}
