package cache

import "time"

// Store is the physical storage underneath the policy layer. It knows nothing
// about TTL defaults or job semantics: the policy layer computes expiry and
// decides what a hit is. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the entry for (category, key), or found=false when absent.
	// Expiry is not evaluated here.
	Get(category, key string) (*Entry, bool, error)

	// Put inserts or replaces the entry for (entry.Category, entry.Key).
	Put(entry *Entry) error

	// Delete removes the entry. Deleting a missing entry is not an error.
	Delete(category, key string) error

	// Touch increments the entry's access count and sets its last access
	// time. Touching a missing entry is a no-op.
	Touch(category, key string, at time.Time) error

	// Entries returns a snapshot of all stored entries.
	Entries() ([]*Entry, error)

	// PurgeExpired removes every entry whose expiry precedes now and
	// returns how many were deleted.
	PurgeExpired(now time.Time) (int, error)

	Close() error
}
