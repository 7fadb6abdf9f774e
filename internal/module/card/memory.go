package card

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository is the in-memory card store.
type MemoryRepository struct {
	mu    sync.RWMutex
	cards map[uuid.UUID]*Card
}

// NewMemoryRepository creates an empty in-memory card repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{cards: make(map[uuid.UUID]*Card)}
}

func (r *MemoryRepository) Create(ctx context.Context, c *Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *c
	r.cards[c.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cards[id]
	if !ok {
		return nil, ErrCardNotFound
	}
	cp := *c
	return &cp, nil
}
