package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tuanyuan2008/amazon-shopping-assistant/internal/domain"
)

// sessionEntry pairs a stored session context with its expiration
type sessionEntry struct {
	context    *domain.SessionContext
	expiration time.Time
}

// SessionCache is a thread-safe in-memory session store with TTL support.
// It holds session contexts between a search and its follow-up queries;
// contexts are stored as-is, so callers get back the pointer they put in.
type SessionCache struct {
	sessions map[string]sessionEntry
	mutex    sync.RWMutex
}

// NewSessionCache creates a new in-memory session cache
func NewSessionCache() *SessionCache {
	cache := &SessionCache{
		sessions: make(map[string]sessionEntry),
	}

	// Cleanup goroutine removes expired entries every 10 minutes
	go cache.cleanupExpired()

	return cache
}

// Get retrieves a session context from the cache
func (c *SessionCache) Get(ctx context.Context, key string) (*domain.SessionContext, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.sessions[key]
	if !exists {
		return nil, domain.ErrCacheMiss
	}

	if time.Now().After(entry.expiration) {
		return nil, domain.ErrCacheMiss
	}

	return entry.context, nil
}

// Set stores a session context in the cache with TTL
func (c *SessionCache) Set(ctx context.Context, key string, value *domain.SessionContext, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.sessions[key] = sessionEntry{
		context:    value,
		expiration: time.Now().Add(ttl),
	}

	return nil
}

// Delete removes a session context from the cache
func (c *SessionCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.sessions, key)
	return nil
}

// Exists checks if a key exists in the cache and is not expired
func (c *SessionCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.sessions[key]
	if !exists {
		return false, nil
	}

	if time.Now().After(entry.expiration) {
		return false, nil
	}

	return true, nil
}

// cleanupExpired removes expired entries from the cache periodically
func (c *SessionCache) cleanupExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mutex.Lock()
		now := time.Now()
		for key, entry := range c.sessions {
			if now.After(entry.expiration) {
				delete(c.sessions, key)
			}
		}
		c.mutex.Unlock()
	}
}

// Size returns the current number of sessions in the cache (for debugging/monitoring)
func (c *SessionCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.sessions)
}

// Clear removes all sessions from the cache
func (c *SessionCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.sessions = make(map[string]sessionEntry)
}
