package observability

import (
	"context"
	"sync"
	"testing"
	"time"
)

type countingHooks struct {
	NoopPipelineHooks
	NoopCacheHooks
	mu     sync.Mutex
	starts int
	hits   int
}

func (h *countingHooks) OnMeasureStart(context.Context, int) {
	h.mu.Lock()
	h.starts++
	h.mu.Unlock()
}

func (h *countingHooks) OnCacheHit(context.Context, string) {
	h.mu.Lock()
	h.hits++
	h.mu.Unlock()
}

func TestDefaultsAreNoop(t *testing.T) {
	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Errorf("Pipeline() = %T, want NoopPipelineHooks", Pipeline())
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("Cache() = %T, want NoopCacheHooks", Cache())
	}
	if _, ok := Compositor().(NoopCompositorHooks); !ok {
		t.Errorf("Compositor() = %T, want NoopCompositorHooks", Compositor())
	}

	ctx := context.Background()
	Pipeline().OnRenderComplete(ctx, 4, 1, time.Second)
	Cache().OnCacheSet(ctx, "measure", 64)
	Compositor().OnCompose(ctx, 1, "front", time.Second, nil)
}

func TestInstallAndReset(t *testing.T) {
	defer Reset()
	h := &countingHooks{}
	SetPipelineHooks(h)
	SetCacheHooks(h)

	ctx := context.Background()
	Pipeline().OnMeasureStart(ctx, 3)
	Cache().OnCacheHit(ctx, "measure")
	Cache().OnCacheMiss(ctx, "measure")
	if h.starts != 1 || h.hits != 1 {
		t.Errorf("starts=%d hits=%d, want 1 and 1", h.starts, h.hits)
	}

	Reset()
	Pipeline().OnMeasureStart(ctx, 3)
	if h.starts != 1 {
		t.Error("hooks still called after Reset")
	}
}

func TestSetNilKeepsCurrent(t *testing.T) {
	defer Reset()
	h := &countingHooks{}
	SetPipelineHooks(h)
	SetPipelineHooks(nil)
	SetCompositorHooks(nil)

	if Pipeline() != PipelineHooks(h) {
		t.Error("SetPipelineHooks(nil) replaced the installed hooks")
	}
	if _, ok := Compositor().(NoopCompositorHooks); !ok {
		t.Error("SetCompositorHooks(nil) replaced the defaults")
	}
}

func TestConcurrentAccess(t *testing.T) {
	defer Reset()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				SetCacheHooks(&countingHooks{})
			}
			Cache().OnCacheMiss(context.Background(), "measure")
		}()
	}
	wg.Wait()
}
