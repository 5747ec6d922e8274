package directory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hackgods/telehealth-scheduling/internal/apperr"
)

var (
	ErrDoctorNotFound  = apperr.NotFound("doctor")
	ErrPatientNotFound = apperr.NotFound("patient")
	ErrEmailTaken      = fmt.Errorf("%w: email is already registered", apperr.ErrValidation)
)

type Repository interface {
	CreateDoctor(ctx context.Context, d Doctor) (*Doctor, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)
	// ListDoctors returns doctors ordered by name.
	ListDoctors(ctx context.Context, onlyAvailable bool) ([]Doctor, error)
	SetDoctorAvailability(ctx context.Context, id uuid.UUID, available bool) (*Doctor, error)

	CreatePatient(ctx context.Context, p Patient) (*Patient, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
}
