package tokens

import (
	"context"
	"sync"
	"time"
)

// MemoryRevocations is an in-process RevocationStore. Safe for concurrent
// revoke and membership checks. Entries are pruned once their token would
// have expired anyway, so the set stays bounded by the validity window.
type MemoryRevocations struct {
	mu      sync.RWMutex
	entries map[string]time.Time // token -> entry expiry
}

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{entries: make(map[string]time.Time)}
}

func (m *MemoryRevocations) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[token] = now.Add(ttl)
	// opportunistic pruning of entries whose tokens have expired
	for t, exp := range m.entries {
		if now.After(exp) {
			delete(m.entries, t)
		}
	}
	return nil
}

func (m *MemoryRevocations) IsRevoked(ctx context.Context, token string) (bool, error) {
	m.mu.RLock()
	exp, ok := m.entries[token]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(exp) {
		// expired entry: the expiry check rejects the token anyway
		return false, nil
	}
	return true, nil
}
