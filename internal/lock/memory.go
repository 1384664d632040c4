package lock

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	token     Token
	expiresAt time.Time
}

// MemoryCoordinator is an in-process Coordinator for single-instance deployments and tests.
type MemoryCoordinator struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	owner   string
	now     func() time.Time
}

// NewMemoryCoordinator creates an empty coordinator.
func NewMemoryCoordinator(owner string) *MemoryCoordinator {
	return &MemoryCoordinator{
		entries: make(map[string]memoryEntry),
		owner:   owner,
		now:     time.Now,
	}
}

// Acquire claims key unless an unexpired entry exists.
func (c *MemoryCoordinator) Acquire(_ context.Context, key string, ttl time.Duration) (Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.entries[key]; ok && now.Before(e.expiresAt) {
		return "", ErrBusy
	}
	token := newToken(c.owner)
	c.entries[key] = memoryEntry{token: token, expiresAt: now.Add(effectiveTTL(ttl))}
	return token, nil
}

// Release removes key if token still owns an unexpired entry.
func (c *MemoryCoordinator) Release(_ context.Context, key string, token Token) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.token != token || !c.now().Before(e.expiresAt) {
		return ErrNotHeld
	}
	delete(c.entries, key)
	return nil
}
