package prescription

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryRepository struct {
	mu            sync.RWMutex
	byAppointment map[uuid.UUID]Prescription
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byAppointment: make(map[uuid.UUID]Prescription)}
}

func (r *MemoryRepository) Create(ctx context.Context, p Prescription) (*Prescription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byAppointment[p.AppointmentID]; exists {
		return nil, ErrPrescriptionExists
	}
	p.CreatedAt = time.Now().UTC()
	r.byAppointment[p.AppointmentID] = p
	return &p, nil
}

func (r *MemoryRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byAppointment[appointmentID]
	if !ok {
		return nil, ErrPrescriptionNotFound
	}
	return &p, nil
}
