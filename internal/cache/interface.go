package cache

import "time"

// Cache is the backend-agnostic interface used for aggregated event sets.
// Population is idempotent, so concurrent misses may race; the worst case is
// a bounded amount of redundant recomputation, never corruption.
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	SetWithTTL(key string, value interface{}, ttl time.Duration)
	Delete(key string)
	Clear()
}
