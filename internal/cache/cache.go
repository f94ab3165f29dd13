// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache provides a process-wide TTL cache for external lookups.
//
// Entries expire a fixed duration after insertion, independent of access;
// expiry-on-read is the only eviction mechanism. There is deliberately no
// capacity bound — entry count is bounded in practice by the distinct
// queries a deployment sees within one TTL window.
package cache

import (
	"strings"
	"sync"
	"time"
)

// sep joins key parts. A control character so parameter values cannot
// collide with the composed key structure.
const sep = "\x1f"

// Key composes a deterministic cache key from an operation name and its
// ordered parameters, so semantically identical calls always collide.
func Key(op string, parts ...string) string {
	if len(parts) == 0 {
		return op
	}
	return op + sep + strings.Join(parts, sep)
}

type entry struct {
	value    any
	inserted time.Time
}

// Cache is a TTL-keyed map safe for concurrent use. The zero value is not
// usable; construct with New or NewWithClock.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

// New returns a cache whose entries expire ttl after insertion.
func New(ttl time.Duration) *Cache {
	return NewWithClock(ttl, time.Now)
}

// NewWithClock returns a cache with an injected clock for testing.
func NewWithClock(ttl time.Duration, now func() time.Time) *Cache {
	return &Cache{ttl: ttl, now: now, entries: make(map[string]entry)}
}

// Get returns the stored value for key. A stale entry is evicted and
// reported as absent.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.inserted) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key, resetting its insertion time. Empty and
// negative results are stored like any other value so a failed lookup is
// not re-attempted until the entry expires.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, inserted: c.now()}
}

// Len returns the number of entries currently held, including any that
// have expired but not yet been read.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
