package prescription

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hackgods/telehealth-scheduling/internal/apperr"
)

var (
	ErrPrescriptionNotFound = apperr.NotFound("prescription")
	ErrPrescriptionExists   = fmt.Errorf("%w: appointment already has a prescription", apperr.ErrValidation)
)

type Repository interface {
	// Create returns ErrPrescriptionExists when the appointment already has one.
	Create(ctx context.Context, p Prescription) (*Prescription, error)
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error)
}
