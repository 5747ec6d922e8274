// Package appointment owns the appointment ledger: creation under the
// double-booking guard, the lifecycle mutations and the derived status.
package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/telehealth-scheduling/internal/apperr"
	"github.com/hackgods/telehealth-scheduling/internal/metrics"
	"github.com/hackgods/telehealth-scheduling/internal/slot"
)

const (
	EventAppointmentBooked    = "APPOINTMENT_BOOKED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
	EventAppointmentPaid      = "APPOINTMENT_PAID"
	EventVideoLinkSet         = "VIDEO_LINK_SET"

	defaultPageSize = 50
)

// LedgerConfig tunes a Ledger. Zero values fall back to UTC, time.Now and a
// page size of 50.
type LedgerConfig struct {
	Timeout  time.Duration
	Location *time.Location
	Now      func() time.Time
	PageSize int
}

type Ledger struct {
	repo     Repository
	log      zerolog.Logger
	metrics  *metrics.Metrics
	timeout  time.Duration
	loc      *time.Location
	now      func() time.Time
	pageSize int
}

func NewLedger(repo Repository, cfg LedgerConfig, logger zerolog.Logger, m *metrics.Metrics) *Ledger {
	l := &Ledger{
		repo:     repo,
		log:      logger.With().Str("component", "ledger").Logger(),
		metrics:  m,
		timeout:  cfg.Timeout,
		loc:      cfg.Location,
		now:      cfg.Now,
		pageSize: cfg.PageSize,
	}
	if l.timeout <= 0 {
		l.timeout = 3 * time.Second
	}
	if l.loc == nil {
		l.loc = time.UTC
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.pageSize <= 0 {
		l.pageSize = defaultPageSize
	}
	return l
}

// Now is the ledger clock in the clinic time zone.
func (l *Ledger) Now() time.Time {
	return l.now().In(l.loc)
}

// Location is the clinic time zone labels are read in.
func (l *Ledger) Location() *time.Location {
	return l.loc
}

// Status derives a's status against the ledger clock.
func (l *Ledger) Status(a Appointment) Status {
	return DeriveStatus(a, l.Now())
}

type CreateRequest struct {
	DoctorID       uuid.UUID
	PatientID      uuid.UUID
	Date           string
	Time           string
	Amount         int64
	Mode           Mode
	IdempotencyKey string
}

// ParseMode accepts an empty mode as online.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeOnline:
		return ModeOnline, nil
	case ModeOffline:
		return ModeOffline, nil
	}
	return "", apperr.Validation("consultation mode %q must be online or offline", raw)
}

// Create writes a new appointment. A slot already held by an active
// appointment fails with ErrSlotTaken. When the patient already used the
// idempotency key for the same slot the stored appointment is returned
// instead; a key reused for another slot is a validation error.
func (l *Ledger) Create(ctx context.Context, req CreateRequest) (*Appointment, error) {
	date, err := slot.NormalizeDate(req.Date)
	if err != nil {
		return nil, err
	}
	label, err := slot.NormalizeTime(req.Time)
	if err != nil {
		return nil, err
	}
	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return nil, err
	}
	if req.Amount < 0 {
		return nil, apperr.Validation("amount must not be negative, got %d", req.Amount)
	}
	at, err := slot.At(date, label, l.loc)
	if err != nil {
		return nil, err
	}

	in := NewAppointment{
		DoctorID:    req.DoctorID,
		PatientID:   req.PatientID,
		Date:        date,
		Time:        label,
		ScheduledAt: at,
		Amount:      req.Amount,
		Mode:        mode,
	}
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		in.IdempotencyKey = &key
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	appt, err := l.repo.Create(ctx, in)
	// A retry of the same booking can trip the slot guard before the key guard.
	if in.IdempotencyKey != nil && (errors.Is(err, ErrIdempotencyKeyUsed) || errors.Is(err, ErrSlotTaken)) {
		existing, getErr := l.repo.GetByIdempotencyKey(ctx, in.PatientID, *in.IdempotencyKey)
		if getErr == nil {
			if existing.DoctorID != in.DoctorID || existing.Date != in.Date || existing.Time != in.Time {
				return nil, apperr.Validation("idempotency key %q was already used for a different booking", *in.IdempotencyKey)
			}
			return existing, nil
		}
		if !errors.Is(getErr, ErrAppointmentNotFound) {
			return nil, apperr.Storage("load appointment by idempotency key", getErr)
		}
	}
	if err != nil {
		return nil, apperr.Storage("create appointment", err)
	}

	l.logEvent(ctx, appt.ID, EventAppointmentBooked, map[string]any{
		"doctor_id":  appt.DoctorID.String(),
		"patient_id": appt.PatientID.String(),
		"date":       appt.Date,
		"time":       appt.Time,
		"mode":       appt.Mode,
	})
	return appt, nil
}

func (l *Ledger) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	appt, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Storage("load appointment", err)
	}
	return appt, nil
}

// FindByIdempotencyKey looks up an earlier booking of the patient.
func (l *Ledger) FindByIdempotencyKey(ctx context.Context, patientID uuid.UUID, key string) (*Appointment, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	appt, err := l.repo.GetByIdempotencyKey(ctx, patientID, key)
	if errors.Is(err, ErrAppointmentNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperr.Storage("load appointment by idempotency key", err)
	}
	return appt, true, nil
}

// Cancel marks the appointment cancelled and frees its slot. A second cancel
// reports ErrAlreadyCancelled and leaves the row untouched.
func (l *Ledger) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	updated, err := l.repo.SetCancelled(ctx, id)
	if errors.Is(err, ErrAppointmentNotFound) {
		current, getErr := l.repo.GetByID(ctx, id)
		if getErr != nil {
			return nil, apperr.Storage("load appointment", getErr)
		}
		if current.Cancelled {
			return nil, apperr.ErrAlreadyCancelled
		}
		return nil, apperr.InvalidState("appointment %s could not be cancelled", id)
	}
	if err != nil {
		return nil, apperr.Storage("cancel appointment", err)
	}

	l.metrics.Transition("cancel")
	l.logEvent(ctx, updated.ID, EventAppointmentCancelled, map[string]any{})
	return updated, nil
}

// Complete sets the completion flag. Completing twice is allowed; completing
// a cancelled appointment is not.
func (l *Ledger) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	updated, err := l.repo.SetCompleted(ctx, id)
	if errors.Is(err, ErrAppointmentNotFound) {
		return nil, l.explainGuard(ctx, id, "complete")
	}
	if err != nil {
		return nil, apperr.Storage("complete appointment", err)
	}

	l.metrics.Transition("complete")
	l.logEvent(ctx, updated.ID, EventAppointmentCompleted, map[string]any{"reason": "manual"})
	return updated, nil
}

// MarkPaid records an offline payment.
func (l *Ledger) MarkPaid(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	updated, err := l.repo.SetPaid(ctx, id)
	if errors.Is(err, ErrAppointmentNotFound) {
		return nil, l.explainGuard(ctx, id, "mark paid")
	}
	if err != nil {
		return nil, apperr.Storage("mark appointment paid", err)
	}

	l.metrics.Transition("pay")
	l.logEvent(ctx, updated.ID, EventAppointmentPaid, map[string]any{"amount": updated.Amount})
	return updated, nil
}

// AttachVideoLink stores the join URL of an online appointment that is
// neither cancelled nor completed, stored or derived.
func (l *Ledger) AttachVideoLink(ctx context.Context, id uuid.UUID, rawURL string) (*Appointment, error) {
	link, err := validateLink(rawURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	current, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Storage("load appointment", err)
	}
	if err := videoLinkAllowed(*current, l.Now()); err != nil {
		return nil, err
	}

	updated, err := l.repo.SetVideoLink(ctx, id, link)
	if errors.Is(err, ErrAppointmentNotFound) {
		// Lost a race with a cancel or completion.
		return nil, l.explainGuard(ctx, id, "attach a video link to")
	}
	if err != nil {
		return nil, apperr.Storage("set video link", err)
	}

	l.metrics.Transition("video_link")
	l.logEvent(ctx, updated.ID, EventVideoLinkSet, map[string]any{"url": link})
	return updated, nil
}

func videoLinkAllowed(a Appointment, now time.Time) error {
	if a.Mode != ModeOnline {
		return apperr.InvalidState("video links are only available for online consultations")
	}
	switch DeriveStatus(a, now) {
	case StatusCancelled:
		return apperr.InvalidState("appointment is cancelled")
	case StatusCompleted:
		return apperr.InvalidState("appointment is already completed")
	}
	return nil
}

func validateLink(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", apperr.Validation("video call link %q must be an absolute http(s) URL", raw)
	}
	return u.String(), nil
}

// explainGuard turns a guarded update that matched nothing into the error
// the caller should see.
func (l *Ledger) explainGuard(ctx context.Context, id uuid.UUID, action string) error {
	current, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return apperr.Storage("load appointment", err)
	}
	if current.Cancelled {
		return apperr.InvalidState("cannot %s a cancelled appointment", action)
	}
	if current.IsCompleted {
		return apperr.InvalidState("cannot %s a completed appointment", action)
	}
	return apperr.InvalidState("cannot %s appointment %s in its current state", action, id)
}

// ListForDoctor yields the doctor's appointments, newest first.
func (l *Ledger) ListForDoctor(ctx context.Context, doctorID uuid.UUID) iter.Seq2[Appointment, error] {
	return l.list(ctx, ListFilter{DoctorID: &doctorID})
}

// ListForPatient yields the patient's appointments, newest first.
func (l *Ledger) ListForPatient(ctx context.Context, patientID uuid.UUID) iter.Seq2[Appointment, error] {
	return l.list(ctx, ListFilter{PatientID: &patientID})
}

// ListAll yields every appointment, newest first.
func (l *Ledger) ListAll(ctx context.Context) iter.Seq2[Appointment, error] {
	return l.list(ctx, ListFilter{})
}

// list pages lazily through storage. Every range over the returned sequence
// starts again from the newest row.
func (l *Ledger) list(ctx context.Context, base ListFilter) iter.Seq2[Appointment, error] {
	return func(yield func(Appointment, error) bool) {
		f := base
		f.Limit = l.pageSize
		f.After = nil

		for {
			pageCtx, cancel := context.WithTimeout(ctx, l.timeout)
			page, err := l.repo.List(pageCtx, f)
			cancel()
			if err != nil {
				yield(Appointment{}, apperr.Storage("list appointments", err))
				return
			}

			for _, a := range page {
				if !yield(a, nil) {
					return
				}
			}
			if len(page) < f.Limit {
				return
			}
			last := page[len(page)-1]
			f.After = &Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
		}
	}
}

// Collect drains seq, stopping at the first error.
func Collect(seq iter.Seq2[Appointment, error]) ([]Appointment, error) {
	var out []Appointment
	for a, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// BookedTimes returns the labels held by active appointments on a day, in
// wall-clock order.
func (l *Ledger) BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	day, err := slot.NormalizeDate(date)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	times, err := l.repo.BookedTimes(ctx, doctorID, day)
	if err != nil {
		return nil, apperr.Storage("load booked times", err)
	}
	return slot.Normalize(times)
}

// SweepElapsed persists the completion flag on live appointments whose
// grace period ended before now. It returns how many rows changed.
func (l *Ledger) SweepElapsed(ctx context.Context, now time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	ids, err := l.repo.CompleteElapsed(ctx, now.Add(-GracePeriod))
	if err != nil {
		return 0, apperr.Storage("complete elapsed appointments", err)
	}

	for _, id := range ids {
		l.logEvent(ctx, id, EventAppointmentCompleted, map[string]any{"reason": "sweep"})
	}
	l.metrics.Swept(len(ids))
	return len(ids), nil
}

// Record appends an event for appointmentID to the event log. Failures are
// logged, not returned.
func (l *Ledger) Record(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	l.logEvent(ctx, appointmentID, eventType, payload)
}

func (l *Ledger) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		l.log.Warn().Err(err).Str("event", eventType).Msg("marshal event payload")
		data = nil
	}

	apptID := appointmentID
	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     l.now(),
	}

	if err := l.repo.InsertEvent(ctx, ev); err != nil {
		l.log.Warn().Err(err).
			Str("event", eventType).
			Str("appointment_id", appointmentID.String()).
			Msg("insert event log")
	}
}
