// Package observability lets a binary watch the imposition pipeline without
// the engine packages importing a metrics backend.
//
// Libraries report events through the registered hooks:
//
//	observability.Pipeline().OnMeasureStart(ctx, len(paths))
//
// and main installs real implementations once at startup, before any work
// starts (see the prom subpackage). Until then every hook is a no-op.
package observability

import (
	"context"
	"sync"
	"time"
)

// ===== Hook interfaces =====

// PipelineHooks receives one event per pipeline stage.
type PipelineHooks interface {
	OnMeasureStart(ctx context.Context, images int)
	OnMeasureComplete(ctx context.Context, images int, duration time.Duration, err error)
	OnLayoutComplete(ctx context.Context, columns, rows int, duration time.Duration, err error)
	OnPlanComplete(ctx context.Context, pages, sheets int, duration time.Duration, err error)
	OnRenderStart(ctx context.Context, sides int)
	OnRenderComplete(ctx context.Context, sides, failures int, duration time.Duration)
}

// CacheHooks receives cache traffic. keyType names the kind of entry
// ("measure").
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// CompositorHooks receives one event per rendered sheet side.
type CompositorHooks interface {
	OnCompose(ctx context.Context, sheet int, side string, duration time.Duration, err error)
}

// ===== No-op defaults =====
//
// Embed these to implement only some events.

type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnMeasureStart(context.Context, int)                              {}
func (NoopPipelineHooks) OnMeasureComplete(context.Context, int, time.Duration, error)     {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, int, int, time.Duration, error) {}
func (NoopPipelineHooks) OnPlanComplete(context.Context, int, int, time.Duration, error)   {}
func (NoopPipelineHooks) OnRenderStart(context.Context, int)                               {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, int, int, time.Duration)        {}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

type NoopCompositorHooks struct{}

func (NoopCompositorHooks) OnCompose(context.Context, int, string, time.Duration, error) {}

// ===== Registry =====

// slot holds the installed implementation of one hook interface.
type slot[H any] struct {
	mu   sync.RWMutex
	cur  H
	noop H
}

func newSlot[H any](noop H) *slot[H] { return &slot[H]{cur: noop, noop: noop} }

func (s *slot[H]) get() H {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// set installs h; a nil h leaves the current hooks in place.
func (s *slot[H]) set(h H) {
	if any(h) == nil {
		return
	}
	s.mu.Lock()
	s.cur = h
	s.mu.Unlock()
}

func (s *slot[H]) reset() {
	s.mu.Lock()
	s.cur = s.noop
	s.mu.Unlock()
}

var (
	pipelineSlot   = newSlot[PipelineHooks](NoopPipelineHooks{})
	cacheSlot      = newSlot[CacheHooks](NoopCacheHooks{})
	compositorSlot = newSlot[CompositorHooks](NoopCompositorHooks{})
)

func SetPipelineHooks(h PipelineHooks)     { pipelineSlot.set(h) }
func SetCacheHooks(h CacheHooks)           { cacheSlot.set(h) }
func SetCompositorHooks(h CompositorHooks) { compositorSlot.set(h) }

// Pipeline returns the installed pipeline hooks.
func Pipeline() PipelineHooks { return pipelineSlot.get() }

// Cache returns the installed cache hooks.
func Cache() CacheHooks { return cacheSlot.get() }

// Compositor returns the installed compositor hooks.
func Compositor() CompositorHooks { return compositorSlot.get() }

// Reset reinstalls the no-op hooks. Tests that install hooks defer it.
func Reset() {
	pipelineSlot.reset()
	cacheSlot.reset()
	compositorSlot.reset()
}
