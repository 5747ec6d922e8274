package slot

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists one offered slot set per (doctor, date).
// Labels handed to Replace are already canonical and sorted.
type Repository interface {
	Get(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) (map[string][]string, error)

	// Replace overwrites the whole set; an empty set removes the row.
	Replace(ctx context.Context, doctorID uuid.UUID, date string, labels []string) error
	Delete(ctx context.Context, doctorID uuid.UUID, date string) error
}
