// Package cache stores lookup responses so repeated literal values and
// re-runs over the same snapshot do not hit the lookup services again.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds the cache key for one query against one backend. The backend
// name keeps identical strings sent to different services apart.
func Key(backend, query string) string {
	hash := sha256.Sum256([]byte(backend + "\x00" + query))
	return "powlink:v1:" + hex.EncodeToString(hash[:])
}
