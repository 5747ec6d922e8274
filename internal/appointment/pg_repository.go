package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/telehealth-scheduling/internal/db"
)

const (
	activeSlotIndex  = "appointments_active_slot_key"
	idempotencyIndex = "appointments_idempotency_key"

	appointmentColumns = `id, doctor_id, patient_id, slot_date, slot_time, scheduled_at, amount,
		payment, cancelled, is_completed, video_call_link, consultation_mode, idempotency_key,
		created_at, updated_at`
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var mode string

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.PatientID,
		&a.Date,
		&a.Time,
		&a.ScheduledAt,
		&a.Amount,
		&a.Payment,
		&a.Cancelled,
		&a.IsCompleted,
		&a.VideoCallLink,
		&mode,
		&a.IdempotencyKey,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, db.MapError(err)
	}

	a.Mode = Mode(mode)
	return &a, nil
}

// Interface methods

func (r *PgRepository) Create(ctx context.Context, in NewAppointment) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, doctor_id, patient_id, slot_date, slot_time, scheduled_at,
			amount, consultation_mode, idempotency_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, clock_timestamp(), now())
		RETURNING `+appointmentColumns,
		id, in.DoctorID, in.PatientID, in.Date, in.Time, in.ScheduledAt, in.Amount, string(in.Mode), in.IdempotencyKey)

	a, err := scanAppointment(row)
	if err != nil {
		switch {
		case db.IsUniqueViolation(err, activeSlotIndex):
			return nil, ErrSlotTaken
		case db.IsUniqueViolation(err, idempotencyIndex):
			return nil, ErrIdempotencyKeyUsed
		}
		return nil, err
	}
	return a, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetByIdempotencyKey(ctx context.Context, patientID uuid.UUID, key string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1 AND idempotency_key = $2
	`, patientID, key)
	return scanAppointment(row)
}

func (r *PgRepository) SetCancelled(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET cancelled = TRUE,
		    updated_at = now()
		WHERE id = $1
		  AND NOT cancelled
		RETURNING `+appointmentColumns, id)
	return scanAppointment(row)
}

func (r *PgRepository) SetCompleted(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET is_completed = TRUE,
		    updated_at = now()
		WHERE id = $1
		  AND NOT cancelled
		RETURNING `+appointmentColumns, id)
	return scanAppointment(row)
}

func (r *PgRepository) SetPaid(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET payment = TRUE,
		    updated_at = now()
		WHERE id = $1
		  AND NOT cancelled
		RETURNING `+appointmentColumns, id)
	return scanAppointment(row)
}

func (r *PgRepository) SetVideoLink(ctx context.Context, id uuid.UUID, url string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET video_call_link = $2,
		    updated_at = now()
		WHERE id = $1
		  AND NOT cancelled
		  AND NOT is_completed
		  AND consultation_mode = 'online'
		RETURNING `+appointmentColumns, id, url)
	return scanAppointment(row)
}

func (r *PgRepository) List(ctx context.Context, f ListFilter) ([]Appointment, error) {
	var where []string
	var args []any

	if f.DoctorID != nil {
		args = append(args, *f.DoctorID)
		where = append(where, fmt.Sprintf("doctor_id = $%d", len(args)))
	}
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		where = append(where, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	if f.After != nil {
		args = append(args, f.After.CreatedAt, f.After.ID)
		where = append(where, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, db.MapError(err)
	}

	return result, nil
}

func (r *PgRepository) BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT slot_time
		FROM appointments
		WHERE doctor_id = $1
		  AND slot_date = $2
		  AND NOT cancelled
	`, doctorID, date)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, db.MapError(err)
		}
		times = append(times, t)
	}
	return times, db.MapError(rows.Err())
}

// CompleteElapsed never touches cancelled rows, so a cancel racing the sweep
// keeps its precedence.
func (r *PgRepository) CompleteElapsed(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE appointments
		SET is_completed = TRUE,
		    updated_at = now()
		WHERE NOT cancelled
		  AND NOT is_completed
		  AND scheduled_at < $1
		RETURNING id
	`, cutoff)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, db.MapError(err)
		}
		ids = append(ids, id)
	}
	return ids, db.MapError(rows.Err())
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", db.MapError(err))
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
