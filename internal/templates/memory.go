package templates

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository used for unit tests and for
// running without MongoDB.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*Template
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*Template)}
}

func (m *MemoryRepository) Create(ctx context.Context, t *Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	cp := *t
	m.store[cp.ID] = &cp
	return nil
}

func (m *MemoryRepository) Get(ctx context.Context, id string) (*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.store[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) ListAll(ctx context.Context) ([]*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Template, 0, len(m.store))
	for _, t := range m.store {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryRepository) ListVisibleTo(ctx context.Context, ownerID string) ([]*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*Template{}
	for _, t := range m.store {
		if t.OwnerID == ownerID || t.Public {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryRepository) Update(ctx context.Context, t *Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[t.ID]; !ok {
		return ErrNotFound
	}
	t.UpdatedAt = time.Now().UTC()
	cp := *t
	m.store[cp.ID] = &cp
	return nil
}

func (m *MemoryRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}
