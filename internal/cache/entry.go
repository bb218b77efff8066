package cache

import "time"

// Entry is a single cached value identified by (Category, Key).
// Payload is an opaque JSON document; the policy layer owns encoding.
type Entry struct {
	Category       string
	Key            string
	Payload        []byte
	CreatedAt      time.Time
	ExpiresAt      time.Time
	AccessCount    int64
	LastAccessedAt time.Time
}

// Expired reports whether the entry is stale at the given moment.
func (e *Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

func (e *Entry) clone() *Entry {
	c := *e
	c.Payload = append([]byte(nil), e.Payload...)
	return &c
}
