package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brookstone/whatsapp-bot/internal/models"
)

// MemoryStore holds leads in memory (development and tests)
type MemoryStore struct {
	mu      sync.RWMutex
	leads   []*models.Lead
	counter uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) SaveLead(ctx context.Context, lead *models.Lead) error {
	if lead.Phone == "" {
		return ErrInvalidLead
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.counter++
	now := time.Now()
	lead.ID = m.counter
	lead.CreatedAt = now
	lead.UpdatedAt = now
	if lead.Reference == "" {
		lead.Reference = uuid.NewString()
	}

	stored := *lead
	m.leads = append(m.leads, &stored)
	return nil
}

func (m *MemoryStore) ListLeads(ctx context.Context, limit int) ([]*models.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.leads)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*models.Lead, 0, n)
	for i := len(m.leads) - 1; i >= 0 && len(out) < n; i-- {
		lead := *m.leads[i]
		out = append(out, &lead)
	}
	return out, nil
}

func (m *MemoryStore) CountLeads(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.leads)), nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) Name() string { return "In-Memory" }
