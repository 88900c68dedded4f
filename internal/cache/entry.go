package cache

import (
	"encoding/json"
	"time"
)

// Entry is a cached value with expiry metadata.
type Entry struct {
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// NewEntry returns an entry created now that expires after ttl.
func NewEntry(key string, data json.RawMessage, ttl time.Duration) *Entry {
	now := time.Now()
	return &Entry{
		Key:       key,
		Data:      data,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the entry is past its expiry.
func (e *Entry) Expired() bool {
	return !time.Now().Before(e.ExpiresAt)
}

// Age is the time since the entry was created.
func (e *Entry) Age() time.Duration {
	return time.Since(e.CreatedAt)
}

// Remaining is the time until expiry, or zero once expired.
func (e *Entry) Remaining() time.Duration {
	return max(time.Until(e.ExpiresAt), 0)
}
