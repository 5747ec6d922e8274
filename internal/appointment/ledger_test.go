package appointment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/telehealth-scheduling/internal/apperr"
)

// clinicNow is 07:00 on 5_3_2025, two hours before the first test slot.
var clinicNow = time.Date(2025, time.March, 5, 7, 0, 0, 0, time.UTC)

type fixture struct {
	ledger *Ledger
	repo   *MemoryRepository
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{repo: NewMemoryRepository(), now: clinicNow}
	f.ledger = NewLedger(f.repo, LedgerConfig{
		Timeout:  time.Second,
		Location: time.UTC,
		Now:      func() time.Time { return f.now },
		PageSize: 2,
	}, zerolog.Nop(), nil)
	return f
}

func (f *fixture) book(t *testing.T, doctor uuid.UUID, label string, mode Mode) *Appointment {
	t.Helper()
	appt, err := f.ledger.Create(context.Background(), CreateRequest{
		DoctorID:  doctor,
		PatientID: uuid.New(),
		Date:      "5_3_2025",
		Time:      label,
		Amount:    500,
		Mode:      mode,
	})
	require.NoError(t, err)
	return appt
}

func TestCreateNormalizesAndSchedules(t *testing.T) {
	f := newFixture(t)
	doctor := uuid.New()

	appt, err := f.ledger.Create(context.Background(), CreateRequest{
		DoctorID:  doctor,
		PatientID: uuid.New(),
		Date:      "05_03_2025",
		Time:      "9:00 am",
	})
	require.NoError(t, err)

	assert.Equal(t, "5_3_2025", appt.Date)
	assert.Equal(t, "09:00 AM", appt.Time)
	assert.Equal(t, ModeOnline, appt.Mode)
	assert.Equal(t, time.Date(2025, time.March, 5, 9, 0, 0, 0, time.UTC), appt.ScheduledAt)
	assert.Equal(t, StatusUpcoming, f.ledger.Status(*appt))

	events := f.repo.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventAppointmentBooked, events[0].EventType)
}

func TestCreateRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	base := CreateRequest{DoctorID: uuid.New(), PatientID: uuid.New(), Date: "5_3_2025", Time: "09:00 AM"}

	tests := []struct {
		name   string
		mutate func(*CreateRequest)
	}{
		{"bad date", func(r *CreateRequest) { r.Date = "2025-03-05" }},
		{"bad time", func(r *CreateRequest) { r.Time = "25:00" }},
		{"bad mode", func(r *CreateRequest) { r.Mode = "telepathy" }},
		{"negative amount", func(r *CreateRequest) { r.Amount = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := f.ledger.Create(context.Background(), req)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestCreateSlotConflictUntilCancelled(t *testing.T) {
	f := newFixture(t)
	doctor := uuid.New()
	first := f.book(t, doctor, "09:00 AM", ModeOnline)

	_, err := f.ledger.Create(context.Background(), CreateRequest{
		DoctorID: doctor, PatientID: uuid.New(), Date: "5_3_2025", Time: "9:00 AM",
	})
	require.ErrorIs(t, err, apperr.ErrSlotConflict)

	_, err = f.ledger.Cancel(context.Background(), first.ID)
	require.NoError(t, err)

	again := f.book(t, doctor, "09:00 AM", ModeOnline)
	assert.NotEqual(t, first.ID, again.ID)
}

func TestCreateReplaysIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	req := CreateRequest{
		DoctorID:       uuid.New(),
		PatientID:      uuid.New(),
		Date:           "5_3_2025",
		Time:           "09:00 AM",
		IdempotencyKey: "retry-1",
	}

	first, err := f.ledger.Create(context.Background(), req)
	require.NoError(t, err)

	second, err := f.ledger.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	req.Time = "09:30 AM"
	_, err = f.ledger.Create(context.Background(), req)
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "different booking")

	booked, err := f.ledger.BookedTimes(context.Background(), req.DoctorID, "5_3_2025")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00 AM"}, booked, "the mismatched retry books nothing")

	found, ok, err := f.ledger.FindByIdempotencyKey(context.Background(), req.PatientID, "retry-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.ID, found.ID)

	_, ok, err = f.ledger.FindByIdempotencyKey(context.Background(), req.PatientID, "other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCancelTwice(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, uuid.New(), "09:00 AM", ModeOnline)

	cancelled, err := f.ledger.Cancel(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.True(t, cancelled.Cancelled)

	_, err = f.ledger.Cancel(context.Background(), appt.ID)
	assert.ErrorIs(t, err, apperr.ErrAlreadyCancelled)

	_, err = f.ledger.Cancel(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCompleteRules(t *testing.T) {
	f := newFixture(t)
	doctor := uuid.New()

	appt := f.book(t, doctor, "09:00 AM", ModeOffline)
	done, err := f.ledger.Complete(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)
	assert.Equal(t, StatusCompleted, f.ledger.Status(*done))

	_, err = f.ledger.Complete(context.Background(), appt.ID)
	assert.NoError(t, err)

	other := f.book(t, doctor, "09:30 AM", ModeOffline)
	_, err = f.ledger.Cancel(context.Background(), other.ID)
	require.NoError(t, err)
	_, err = f.ledger.Complete(context.Background(), other.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	_, err = f.ledger.Complete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMarkPaid(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, uuid.New(), "09:00 AM", ModeOnline)

	paid, err := f.ledger.MarkPaid(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.True(t, paid.Payment)

	_, err = f.ledger.Cancel(context.Background(), appt.ID)
	require.NoError(t, err)
	_, err = f.ledger.MarkPaid(context.Background(), appt.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestAttachVideoLinkGating(t *testing.T) {
	f := newFixture(t)
	doctor := uuid.New()
	ctx := context.Background()

	offline := f.book(t, doctor, "09:00 AM", ModeOffline)
	_, err := f.ledger.AttachVideoLink(ctx, offline.ID, "https://meet.example.com/abc")
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	online := f.book(t, doctor, "09:30 AM", ModeOnline)
	_, err = f.ledger.AttachVideoLink(ctx, online.ID, "meet.example.com/abc")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	updated, err := f.ledger.AttachVideoLink(ctx, online.ID, "https://meet.example.com/abc")
	require.NoError(t, err)
	require.NotNil(t, updated.VideoCallLink)

	stored, err := f.ledger.Get(ctx, online.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.VideoCallLink)
	assert.Equal(t, "https://meet.example.com/abc", *stored.VideoCallLink)

	_, err = f.ledger.Complete(ctx, online.ID)
	require.NoError(t, err)
	_, err = f.ledger.AttachVideoLink(ctx, online.ID, "https://meet.example.com/xyz")
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	cancelled := f.book(t, doctor, "10:00 AM", ModeOnline)
	_, err = f.ledger.Cancel(ctx, cancelled.ID)
	require.NoError(t, err)
	_, err = f.ledger.AttachVideoLink(ctx, cancelled.ID, "https://meet.example.com/abc")
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestAttachVideoLinkRejectsElapsedAppointment(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, uuid.New(), "09:00 AM", ModeOnline)

	f.now = time.Date(2025, time.March, 5, 10, 1, 0, 0, time.UTC)
	_, err := f.ledger.AttachVideoLink(context.Background(), appt.ID, "https://meet.example.com/abc")
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestListsNewestFirstAcrossPages(t *testing.T) {
	f := newFixture(t)
	doctor := uuid.New()
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		appt := f.book(t, doctor, fmt.Sprintf("%02d:00 AM", i+1), ModeOnline)
		ids = append(ids, appt.ID)
	}
	f.book(t, uuid.New(), "09:00 AM", ModeOnline)

	seq := f.ledger.ListForDoctor(ctx, doctor)
	got, err := Collect(seq)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i, a := range got {
		assert.Equal(t, ids[len(ids)-1-i], a.ID)
	}

	again, err := Collect(seq)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	var firstTwo []uuid.UUID
	for a, err := range seq {
		require.NoError(t, err)
		firstTwo = append(firstTwo, a.ID)
		if len(firstTwo) == 2 {
			break
		}
	}
	assert.Equal(t, []uuid.UUID{ids[4], ids[3]}, firstTwo)

	all, err := Collect(f.ledger.ListAll(ctx))
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestListForPatient(t *testing.T) {
	f := newFixture(t)
	patient := uuid.New()

	_, err := f.ledger.Create(context.Background(), CreateRequest{
		DoctorID: uuid.New(), PatientID: patient, Date: "5_3_2025", Time: "09:00 AM",
	})
	require.NoError(t, err)
	f.book(t, uuid.New(), "09:00 AM", ModeOnline)

	mine, err := Collect(f.ledger.ListForPatient(context.Background(), patient))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, patient, mine[0].PatientID)
}

func TestListSurfacesTimeout(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := Collect(f.ledger.ListAll(ctx))
	assert.ErrorIs(t, err, apperr.ErrTimeout)
}

func TestBookedTimesSortedAndActiveOnly(t *testing.T) {
	f := newFixture(t)
	doctor := uuid.New()

	f.book(t, doctor, "11:00 AM", ModeOnline)
	f.book(t, doctor, "09:00 AM", ModeOnline)
	dropped := f.book(t, doctor, "10:00 AM", ModeOnline)
	_, err := f.ledger.Cancel(context.Background(), dropped.ID)
	require.NoError(t, err)

	times, err := f.ledger.BookedTimes(context.Background(), doctor, "05_03_2025")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00 AM", "11:00 AM"}, times)
}

func TestSweepElapsed(t *testing.T) {
	f := newFixture(t)
	doctor := uuid.New()
	ctx := context.Background()

	early := f.book(t, doctor, "08:00 AM", ModeOnline)
	late := f.book(t, doctor, "09:30 AM", ModeOnline)
	cancelled := f.book(t, doctor, "07:30 AM", ModeOnline)
	_, err := f.ledger.Cancel(ctx, cancelled.ID)
	require.NoError(t, err)

	// 09:10 puts 08:00 past its grace period and 09:30 still ahead.
	n, err := f.ledger.SweepElapsed(ctx, time.Date(2025, time.March, 5, 9, 10, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.ledger.Get(ctx, early.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)

	got, err = f.ledger.Get(ctx, late.ID)
	require.NoError(t, err)
	assert.False(t, got.IsCompleted)

	got, err = f.ledger.Get(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.False(t, got.IsCompleted)
	assert.Equal(t, StatusCancelled, DeriveStatus(*got, clinicNow))

	n, err = f.ledger.SweepElapsed(ctx, time.Date(2025, time.March, 5, 9, 10, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, n)
}
