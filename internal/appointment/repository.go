package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/telehealth-scheduling/internal/apperr"
)

var (
	ErrAppointmentNotFound = apperr.NotFound("appointment")
	ErrSlotTaken           = fmt.Errorf("%w: slot already has an active appointment", apperr.ErrSlotConflict)
	ErrIdempotencyKeyUsed  = errors.New("idempotency key already used")
)

// Repository contains all DB interactions needed by the ledger.
//
// The conditional setters only touch rows still in a state that allows the
// change and return ErrAppointmentNotFound when nothing matched.
type Repository interface {
	// Create returns ErrSlotTaken when an active appointment holds the slot
	// and ErrIdempotencyKeyUsed when the patient already used the key.
	Create(ctx context.Context, in NewAppointment) (*Appointment, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetByIdempotencyKey(ctx context.Context, patientID uuid.UUID, key string) (*Appointment, error)

	SetCancelled(ctx context.Context, id uuid.UUID) (*Appointment, error)
	SetCompleted(ctx context.Context, id uuid.UUID) (*Appointment, error)
	SetPaid(ctx context.Context, id uuid.UUID) (*Appointment, error)
	SetVideoLink(ctx context.Context, id uuid.UUID, url string) (*Appointment, error)

	// List pages in (created_at DESC, id DESC) order.
	List(ctx context.Context, f ListFilter) ([]Appointment, error)
	BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error)

	// CompleteElapsed flags live appointments scheduled before cutoff.
	CompleteElapsed(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
