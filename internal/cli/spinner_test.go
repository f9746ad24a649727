package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer lets the test read what the spinner goroutine wrote.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDrawsAndClears(t *testing.T) {
	var out syncBuffer
	s := newSpinner(context.Background(), &out, "Measuring...")
	s.Start()
	time.Sleep(3 * spinnerInterval)
	s.Stop()

	got := out.String()
	if !strings.Contains(got, "Measuring...") {
		t.Errorf("output = %q, want the status message", got)
	}
	if !strings.HasSuffix(got, "\r") {
		t.Errorf("output = %q, want the line cleared on Stop", got)
	}
}

func TestSpinnerSetMessage(t *testing.T) {
	var out syncBuffer
	s := newSpinner(context.Background(), &out, "Measuring...")
	s.Start()
	time.Sleep(2 * spinnerInterval)
	s.SetMessage("Rendered 2 sheet sides...")
	time.Sleep(2 * spinnerInterval)
	s.Stop()

	got := out.String()
	if !strings.Contains(got, "Measuring...") || !strings.Contains(got, "Rendered 2 sheet sides...") {
		t.Errorf("output = %q, want both messages", got)
	}
}

func TestSpinnerContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinner(ctx, &syncBuffer{}, "Imposing...")
	s.Start()
	cancel()

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("spinner kept running after its context was cancelled")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner(context.Background(), &syncBuffer{}, "Imposing...")
	s.Start()
	s.Stop()
	s.Stop()
	s.Fail("Planning failed")
}

func TestSpinnerStopBeforeFirstFrame(t *testing.T) {
	var out syncBuffer
	s := newSpinner(context.Background(), &out, "Imposing...")
	s.Start()
	s.Stop()

	if got := out.String(); got != "" {
		t.Errorf("output = %q, want nothing drawn", got)
	}
}
