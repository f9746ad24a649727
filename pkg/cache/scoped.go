package cache

import "time"

// ScopedKeyer wraps a Keyer with a prefix so that several tools, or several
// versions of this one, can share one Redis database without colliding.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "zinefold:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// MeasureKey generates a prefixed measurement key.
func (k *ScopedKeyer) MeasureKey(path string, size int64, modTime time.Time) string {
	return k.prefix + k.inner.MeasureKey(path, size, modTime)
}

// Prefix returns the key prefix.
func (k *ScopedKeyer) Prefix() string { return k.prefix }
