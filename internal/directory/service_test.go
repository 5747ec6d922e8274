package directory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/telehealth-scheduling/internal/apperr"
)

func newService() *Service {
	return NewService(NewMemoryRepository(), time.Second)
}

func TestCreateDoctorDefaults(t *testing.T) {
	s := newService()

	d, err := s.CreateDoctor(context.Background(), NewDoctor{
		Name:       " Dr. Asha Rao ",
		Email:      "Asha.Rao@Clinic.example",
		Speciality: "Dermatology",
		Fee:        800,
	})
	require.NoError(t, err)
	assert.Equal(t, "Dr. Asha Rao", d.Name)
	assert.Equal(t, "asha.rao@clinic.example", d.Email)
	assert.True(t, d.Available)

	got, err := s.GetDoctor(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
}

func TestCreateDoctorValidation(t *testing.T) {
	s := newService()
	ctx := context.Background()

	_, err := s.CreateDoctor(ctx, NewDoctor{Name: "", Email: "a@b.example"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = s.CreateDoctor(ctx, NewDoctor{Name: "A", Email: "not-an-email"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = s.CreateDoctor(ctx, NewDoctor{Name: "A", Email: "a@b.example", Fee: -5})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = s.CreateDoctor(ctx, NewDoctor{Name: "A", Email: "a@b.example"})
	require.NoError(t, err)
	_, err = s.CreateDoctor(ctx, NewDoctor{Name: "B", Email: "A@B.example"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestListDoctorsAndAvailability(t *testing.T) {
	s := newService()
	ctx := context.Background()
	off := false

	b, err := s.CreateDoctor(ctx, NewDoctor{Name: "Bose", Email: "bose@clinic.example"})
	require.NoError(t, err)
	_, err = s.CreateDoctor(ctx, NewDoctor{Name: "Anand", Email: "anand@clinic.example", Available: &off})
	require.NoError(t, err)

	all, err := s.ListDoctors(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Anand", all[0].Name)

	open, err := s.ListDoctors(ctx, true)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, b.ID, open[0].ID)

	updated, err := s.SetAvailability(ctx, b.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Available)

	open, err = s.ListDoctors(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, open)

	_, err = s.SetAvailability(ctx, uuid.New(), true)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPatients(t *testing.T) {
	s := newService()
	ctx := context.Background()

	p, err := s.CreatePatient(ctx, NewPatient{Name: "Meera", Email: "meera@mail.example"})
	require.NoError(t, err)

	got, err := s.GetPatient(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Meera", got.Name)

	_, err = s.GetPatient(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrPatientNotFound)
}
