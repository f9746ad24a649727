package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Keyer builds cache keys.
type Keyer interface {
	// MeasureKey identifies the measurement of one image file version.
	MeasureKey(path string, size int64, modTime time.Time) string
}

// DefaultKeyer hashes key components into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// MeasureKey returns "measure:<sha256>" over path, size and mtime.
func (DefaultKeyer) MeasureKey(path string, size int64, modTime time.Time) string {
	return hashKey("measure", path, size, modTime.UTC().UnixNano())
}

// hashKey returns "<kind>:<hex sha256>" over the JSON encoding of parts.
func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return kind + ":" + hex.EncodeToString(sum[:])
}
