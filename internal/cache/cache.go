// Package cache holds the two caches used by periodize: a typed memo of
// parsed dating strings and a byte cache (memory + disk) for downloaded
// datasets.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for byte caches
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// DownloadKey generates a cache key for a dataset URL
func DownloadKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "periodize:v1:" + hex.EncodeToString(hash[:])
}
