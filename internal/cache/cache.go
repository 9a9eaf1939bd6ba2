package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching model replies
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey hashes a scoped prompt into a fixed-length key
func CacheKey(scopedPrompt string) string {
	hash := sha256.Sum256([]byte(scopedPrompt))
	return "llmmapper:v1:" + hex.EncodeToString(hash[:])
}
