package prescription

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/telehealth-scheduling/internal/db"
)

const prescriptionColumns = `id, appointment_id, doctor_id, patient_id, report, file_id, file_name,
	content_type, file_size, file_hash, created_at`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(
		&p.ID,
		&p.AppointmentID,
		&p.DoctorID,
		&p.PatientID,
		&p.Report,
		&p.File.BlobID,
		&p.File.Name,
		&p.File.ContentType,
		&p.File.Size,
		&p.File.Hash,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPrescriptionNotFound
		}
		return nil, db.MapError(err)
	}
	return &p, nil
}

func (r *PgRepository) Create(ctx context.Context, p Prescription) (*Prescription, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO prescriptions (id, appointment_id, doctor_id, patient_id, report, file_id,
			file_name, content_type, file_size, file_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+prescriptionColumns,
		p.ID, p.AppointmentID, p.DoctorID, p.PatientID, p.Report, p.File.BlobID,
		p.File.Name, p.File.ContentType, p.File.Size, p.File.Hash)

	created, err := scanPrescription(row)
	if db.IsUniqueViolation(err, "prescriptions_appointment_id_key") {
		return nil, ErrPrescriptionExists
	}
	return created, err
}

func (r *PgRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+prescriptionColumns+`
		FROM prescriptions
		WHERE appointment_id = $1
	`, appointmentID)
	return scanPrescription(row)
}
