// Package cache holds the abbreviation lookup table in memory between
// expansions so bulk parsing does not query the store for every line.
package cache

import (
	"context"
	"sync"
	"time"

	"autoparts_quotes_backend/platform/tenancy"
)

// Loader fetches the current abbreviations of a scope.
type Loader func(ctx context.Context, scope tenancy.Scope) ([]Entry, error)

type snapshot struct {
	expander *Expander
	loadedAt time.Time
}

// Cache stores one Expander per scope for at most ttl.
type Cache struct {
	ttl  time.Duration
	now  func() time.Time
	load Loader

	mu         sync.Mutex
	entries    map[string]snapshot
	generation uint64
}

// New creates a cache. A non-positive ttl disables caching.
func New(ttl time.Duration, load Loader) *Cache {
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		load:    load,
		entries: make(map[string]snapshot),
	}
}

// Expander returns the cached expander for scope, reloading when stale.
func (c *Cache) Expander(ctx context.Context, scope tenancy.Scope) (*Expander, error) {
	key := scopeKey(scope)

	c.mu.Lock()
	snap, ok := c.entries[key]
	gen := c.generation
	c.mu.Unlock()
	if ok && c.ttl > 0 && c.now().Sub(snap.loadedAt) < c.ttl {
		return snap.expander, nil
	}

	entries, err := c.load(ctx, scope)
	if err != nil {
		return nil, err
	}
	exp := NewExpander(entries)

	// A load that raced with Invalidate is served once but not cached.
	c.mu.Lock()
	if c.generation == gen {
		c.entries[key] = snapshot{expander: exp, loadedAt: c.now()}
	}
	c.mu.Unlock()
	return exp, nil
}

// Invalidate drops every cached table.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]snapshot)
	c.generation++
	c.mu.Unlock()
}

func scopeKey(scope tenancy.Scope) string {
	if scope.CompanyID == nil {
		return scope.UserID.String()
	}
	return scope.UserID.String() + "/" + scope.CompanyID.String()
}
