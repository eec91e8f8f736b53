package users

import (
	"context"
	"sync"

	"github.com/stencild/stencild/internal/models"
)

// MemoryRepository is an in-memory Repository used for unit tests and for
// running without MongoDB.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string // email -> id
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

func (m *MemoryRepository) Create(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.byID[cp.ID] = &cp
	m.byEmail[cp.Email] = cp.ID
	return nil
}

func (m *MemoryRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.byEmail[email]; ok {
		cp := *m.byID[id]
		return &cp, nil
	}
	return nil, nil
}
