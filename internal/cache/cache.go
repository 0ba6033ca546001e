package cache

import "time"

// Cache defines a minimal key-value cache API with per-entry expiry.
// Implementations may or may not be goroutine-safe depending on configuration.
type Cache[K comparable, V any] interface {
	// Get returns the value and whether it was present and not expired.
	Get(key K) (V, bool)

	// SetUntil stores the value until the given instant. A zero time means no expiry.
	SetUntil(key K, value V, expiresAt time.Time)

	// Len returns the number of non-expired items currently stored.
	Len() int

	// PurgeExpired scans and removes expired entries.
	PurgeExpired()
}
