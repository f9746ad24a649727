package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	key := k.MeasureKey("scans/01.png", 1024, mtime)
	if !strings.HasPrefix(key, "measure:") || len(key) != len("measure:")+64 {
		t.Errorf("MeasureKey unexpected: %s", key)
	}

	// Same identity, same key (timezone does not matter)
	if again := k.MeasureKey("scans/01.png", 1024, mtime.In(time.FixedZone("X", 3600))); again != key {
		t.Error("MeasureKey should be stable across time zones")
	}

	// Any identity change changes the key
	for _, other := range []string{
		k.MeasureKey("scans/02.png", 1024, mtime),
		k.MeasureKey("scans/01.png", 1025, mtime),
		k.MeasureKey("scans/01.png", 1024, mtime.Add(time.Second)),
	} {
		if other == key {
			t.Error("Different file identities should produce different keys")
		}
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "zinefold:")
	mtime := time.Unix(1700000000, 0)

	got := scoped.MeasureKey("a.png", 1, mtime)
	want := "zinefold:" + inner.MeasureKey("a.png", 1, mtime)
	if got != want {
		t.Errorf("ScopedKeyer MeasureKey = %s, want %s", got, want)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.MeasureKey("a.png", 1, time.Unix(0, 0))
	if !strings.HasPrefix(key, "prefix:measure:") {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

var errPermanent = errors.New("permanent")

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrNetwork)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for a marked error")
	}
	if !errors.Is(err, ErrNetwork) {
		t.Error("marked error should still match ErrNetwork")
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(errPermanent) {
		t.Error("IsRetryable should return false for an unmarked error")
	}
}

func TestBackoffRetry(t *testing.T) {
	ctx := context.Background()
	b := Backoff{Attempts: 3, Initial: time.Millisecond}

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{"success", 0, nil, 1, nil},
		{"permanent stops at once", 5, errPermanent, 1, errPermanent},
		{"retry then succeed", 2, Retryable(ErrNetwork), 3, nil},
		{"attempts exhausted", 5, Retryable(ErrNetwork), 3, ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := b.Retry(ctx, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Retry() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBackoffRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := DefaultBackoff.Retry(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
