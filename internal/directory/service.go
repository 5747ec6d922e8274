// Package directory keeps the doctors and patients the scheduling core
// refers to.
package directory

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/telehealth-scheduling/internal/apperr"
)

type Service struct {
	repo    Repository
	timeout time.Duration
}

func NewService(repo Repository, timeout time.Duration) *Service {
	return &Service{repo: repo, timeout: timeout}
}

func (s *Service) CreateDoctor(ctx context.Context, in NewDoctor) (*Doctor, error) {
	name, email, err := identity(in.Name, in.Email)
	if err != nil {
		return nil, err
	}
	if in.Fee < 0 {
		return nil, apperr.Validation("fee must not be negative, got %d", in.Fee)
	}
	available := true
	if in.Available != nil {
		available = *in.Available
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	d, err := s.repo.CreateDoctor(ctx, Doctor{
		ID:         uuid.New(),
		Name:       name,
		Email:      email,
		Speciality: strings.TrimSpace(in.Speciality),
		Fee:        in.Fee,
		Available:  available,
	})
	if err != nil {
		return nil, apperr.Storage("create doctor", err)
	}
	return d, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	d, err := s.repo.GetDoctor(ctx, id)
	if err != nil {
		return nil, apperr.Storage("load doctor", err)
	}
	return d, nil
}

func (s *Service) ListDoctors(ctx context.Context, onlyAvailable bool) ([]Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	doctors, err := s.repo.ListDoctors(ctx, onlyAvailable)
	if err != nil {
		return nil, apperr.Storage("list doctors", err)
	}
	if doctors == nil {
		doctors = []Doctor{}
	}
	return doctors, nil
}

// SetAvailability toggles whether a doctor accepts new bookings. Existing
// appointments are left alone.
func (s *Service) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (*Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	d, err := s.repo.SetDoctorAvailability(ctx, id, available)
	if err != nil {
		return nil, apperr.Storage("set doctor availability", err)
	}
	return d, nil
}

func (s *Service) CreatePatient(ctx context.Context, in NewPatient) (*Patient, error) {
	name, email, err := identity(in.Name, in.Email)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	p, err := s.repo.CreatePatient(ctx, Patient{ID: uuid.New(), Name: name, Email: email})
	if err != nil {
		return nil, apperr.Storage("create patient", err)
	}
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	p, err := s.repo.GetPatient(ctx, id)
	if err != nil {
		return nil, apperr.Storage("load patient", err)
	}
	return p, nil
}

func identity(name, email string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", apperr.Validation("name is required")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return "", "", apperr.Validation("email %q is not a valid address", email)
	}
	return name, strings.ToLower(addr.Address), nil
}
