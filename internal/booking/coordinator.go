// Package booking reserves doctor slots for patients. The coordinator checks
// the slot is offered, takes an advisory per-slot lock and lets the ledger's
// uniqueness guard decide the race.
package booking

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/telehealth-scheduling/internal/apperr"
	"github.com/hackgods/telehealth-scheduling/internal/appointment"
	"github.com/hackgods/telehealth-scheduling/internal/directory"
	"github.com/hackgods/telehealth-scheduling/internal/metrics"
	"github.com/hackgods/telehealth-scheduling/internal/notify"
	redisclient "github.com/hackgods/telehealth-scheduling/internal/redis"
	"github.com/hackgods/telehealth-scheduling/internal/slot"
)

var ErrSlotBeingBooked = fmt.Errorf("%w: slot is currently being booked, please retry", apperr.ErrSlotConflict)

type Request struct {
	DoctorID       uuid.UUID
	PatientID      uuid.UUID
	Date           string
	Time           string
	Amount         int64
	Mode           appointment.Mode
	IdempotencyKey string
}

type Coordinator struct {
	slots     *slot.Service
	directory *directory.Service
	ledger    *appointment.Ledger
	locker    redisclient.Locker
	notifier  notify.Notifier
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

type Deps struct {
	Slots     *slot.Service
	Directory *directory.Service
	Ledger    *appointment.Ledger
	Locker    redisclient.Locker
	Notifier  notify.Notifier
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
}

func NewCoordinator(d Deps) *Coordinator {
	c := &Coordinator{
		slots:     d.Slots,
		directory: d.Directory,
		ledger:    d.Ledger,
		locker:    d.Locker,
		notifier:  d.Notifier,
		metrics:   d.Metrics,
		log:       d.Logger.With().Str("component", "booking").Logger(),
	}
	if c.locker == nil {
		c.locker = redisclient.NewLocalLocker()
	}
	if c.notifier == nil {
		c.notifier = notify.NewLogNotifier(d.Logger)
	}
	return c
}

// Book reserves req's slot and returns the new appointment. Retrying with
// the same idempotency key returns the first appointment unchanged.
func (c *Coordinator) Book(ctx context.Context, req Request) (*appointment.Appointment, error) {
	appt, replayed, err := c.book(ctx, req)
	switch {
	case err == nil && replayed:
		c.metrics.Booking(metrics.OutcomeReplayed)
	case err == nil:
		c.metrics.Booking(metrics.OutcomeBooked)
	case errors.Is(err, apperr.ErrSlotConflict):
		c.metrics.Booking(metrics.OutcomeConflict)
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrInvalidState):
		c.metrics.Booking(metrics.OutcomeRejected)
	default:
		c.metrics.Booking(metrics.OutcomeError)
	}
	return appt, err
}

func (c *Coordinator) book(ctx context.Context, req Request) (*appointment.Appointment, bool, error) {
	date, err := slot.NormalizeDate(req.Date)
	if err != nil {
		return nil, false, err
	}
	label, err := slot.NormalizeTime(req.Time)
	if err != nil {
		return nil, false, err
	}

	if req.IdempotencyKey != "" {
		prior, found, err := c.replay(ctx, req.PatientID, req.IdempotencyKey, req.DoctorID, date, label)
		if err != nil || found {
			return prior, found, err
		}
	}

	at, err := slot.At(date, label, c.ledger.Location())
	if err != nil {
		return nil, false, err
	}
	if !at.After(c.ledger.Now()) {
		return nil, false, apperr.Validation("slot %s on %s has already passed", label, date)
	}

	patient, err := c.directory.GetPatient(ctx, req.PatientID)
	if err != nil {
		return nil, false, err
	}
	doctor, err := c.directory.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, false, err
	}
	if !doctor.Available {
		return nil, false, apperr.InvalidState("doctor %s is not accepting bookings", doctor.Name)
	}

	offered, err := c.slots.Offers(ctx, doctor.ID, date, label)
	if err != nil {
		return nil, false, err
	}
	if !offered {
		return nil, false, apperr.Validation("%s on %s is not an offered slot", label, date)
	}

	amount := req.Amount
	if amount == 0 {
		amount = doctor.Fee
	}
	create := appointment.CreateRequest{
		DoctorID:       doctor.ID,
		PatientID:      patient.ID,
		Date:           date,
		Time:           label,
		Amount:         amount,
		Mode:           req.Mode,
		IdempotencyKey: req.IdempotencyKey,
	}

	appt, replayed, err := c.reserve(ctx, create)
	if err != nil || replayed {
		return appt, replayed, err
	}

	c.send(ctx, notify.BookingConfirmed(notifyView(appt, doctor, patient)))
	return appt, false, nil
}

// replay returns the appointment the patient already booked under key. The
// key must have been used for the same slot.
func (c *Coordinator) replay(ctx context.Context, patientID uuid.UUID, key string, doctorID uuid.UUID, date, label string) (*appointment.Appointment, bool, error) {
	prior, found, err := c.ledger.FindByIdempotencyKey(ctx, patientID, key)
	if err != nil || !found {
		return nil, false, err
	}
	if prior.DoctorID != doctorID || prior.Date != date || prior.Time != label {
		return nil, false, apperr.Validation("idempotency key %q was already used for a different booking", key)
	}
	return prior, true, nil
}

// reserve creates the appointment under the slot lock. When Redis itself is
// unreachable the create goes ahead unlocked. A retry that finds the lock
// held by its own first attempt replays that attempt once it has landed.
func (c *Coordinator) reserve(ctx context.Context, req appointment.CreateRequest) (*appointment.Appointment, bool, error) {
	var created *appointment.Appointment
	ran := false

	err := c.locker.WithLock(ctx, redisclient.SlotKey(req.DoctorID, req.Date, req.Time), func(lockCtx context.Context) error {
		ran = true

		booked, err := c.ledger.BookedTimes(lockCtx, req.DoctorID, req.Date)
		if err != nil {
			return err
		}
		if slices.Contains(booked, req.Time) && req.IdempotencyKey == "" {
			return appointment.ErrSlotTaken
		}

		created, err = c.ledger.Create(lockCtx, req)
		return err
	})

	switch {
	case err == nil:
		return created, false, nil
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		if req.IdempotencyKey != "" {
			prior, found, err := c.replay(ctx, req.PatientID, req.IdempotencyKey, req.DoctorID, req.Date, req.Time)
			if err != nil || found {
				return prior, found, err
			}
		}
		return nil, false, ErrSlotBeingBooked
	case !ran:
		c.log.Warn().Err(err).Msg("slot lock unavailable, booking without it")
		created, err = c.ledger.Create(ctx, req)
		return created, false, err
	}
	return nil, false, err
}

// Cancel cancels an appointment and tells the patient.
func (c *Coordinator) Cancel(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	appt, err := c.ledger.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}

	doctor, derr := c.directory.GetDoctor(ctx, appt.DoctorID)
	patient, perr := c.directory.GetPatient(ctx, appt.PatientID)
	if derr != nil || perr != nil {
		c.log.Warn().Err(errors.Join(derr, perr)).Str("appointment_id", id.String()).Msg("skip cancellation email")
		return appt, nil
	}
	c.send(ctx, notify.AppointmentCancelled(notifyView(appt, doctor, patient)))
	return appt, nil
}

func (c *Coordinator) send(ctx context.Context, msg notify.Message) {
	if err := c.notifier.Notify(ctx, msg); err != nil {
		c.log.Warn().Err(err).Str("subject", msg.Subject).Msg("notification failed")
	}
}

func notifyView(a *appointment.Appointment, d *directory.Doctor, p *directory.Patient) notify.Appointment {
	return notify.Appointment{
		PatientName: p.Name,
		PatientMail: p.Email,
		DoctorName:  d.Name,
		Date:        a.Date,
		Time:        a.Time,
		Mode:        string(a.Mode),
	}
}
