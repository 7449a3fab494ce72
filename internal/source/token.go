package source

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// TokenCache holds a bearer token for the lifetime of the process.
//
// Lifecycle: empty at start, populated lazily by the first caller that
// needs it, cleared by Invalidate when the upstream rejects it. A failed
// exchange never populates the cache, so the next caller retries.
//
// Concurrent first use is serialized with a single-flight guard: one
// exchange runs, everyone waiting shares its result.
type TokenCache struct {
	mu    sync.RWMutex
	token string
	group singleflight.Group
}

// NewTokenCache creates an empty TokenCache.
func NewTokenCache() *TokenCache {
	return &TokenCache{}
}

// Get returns the cached token, or runs exchange to obtain one. Only one
// exchange is in flight at a time regardless of caller count.
func (c *TokenCache) Get(ctx context.Context, exchange func(ctx context.Context) (string, error)) (string, error) {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		return token, nil
	}

	v, err, _ := c.group.Do("token", func() (any, error) {
		// A concurrent caller may have populated the cache while this
		// caller was waiting on the flight.
		c.mu.RLock()
		token := c.token
		c.mu.RUnlock()
		if token != "" {
			return token, nil
		}

		token, err := exchange(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.token = token
		c.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate clears the cached token so the next Get re-exchanges.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}
