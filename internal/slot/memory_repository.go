package slot

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository is a thread-safe Repository for tests and local runs.
type MemoryRepository struct {
	mu   sync.RWMutex
	sets map[uuid.UUID]map[string][]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sets: make(map[uuid.UUID]map[string][]string)}
}

func (r *MemoryRepository) Get(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.sets[doctorID][date]...), nil
}

func (r *MemoryRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) (map[string][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]string, len(r.sets[doctorID]))
	for date, labels := range r.sets[doctorID] {
		out[date] = append([]string{}, labels...)
	}
	return out, nil
}

func (r *MemoryRepository) Replace(ctx context.Context, doctorID uuid.UUID, date string, labels []string) error {
	if len(labels) == 0 {
		return r.Delete(ctx, doctorID, date)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	days, ok := r.sets[doctorID]
	if !ok {
		days = make(map[string][]string)
		r.sets[doctorID] = days
	}
	days[date] = append([]string{}, labels...)
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, doctorID uuid.UUID, date string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sets[doctorID], date)
	return nil
}
