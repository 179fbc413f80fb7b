package recipients

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu     sync.RWMutex
	byUser map[string][]Recipient
}

// NewMemoryRepository returns an in-memory recipient store.
func NewMemoryRepository() Repository {
	return &memoryRepository{byUser: make(map[string][]Recipient)}
}

func (r *memoryRepository) Create(_ context.Context, rec Recipient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[rec.UserID] = append(r.byUser[rec.UserID], rec)
	return nil
}

func (r *memoryRepository) ListByUser(_ context.Context, userID string) ([]Recipient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.byUser[userID]
	out := make([]Recipient, len(src))
	copy(out, src)
	return out, nil
}
