package slot

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/telehealth-scheduling/internal/db"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Get(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	var labels []string
	err := r.pool.QueryRow(ctx, `
		SELECT times
		FROM doctor_slots
		WHERE doctor_id = $1 AND slot_date = $2
	`, doctorID, date).Scan(&labels)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []string{}, nil
		}
		return nil, db.MapError(err)
	}
	return labels, nil
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) (map[string][]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT slot_date, times
		FROM doctor_slots
		WHERE doctor_id = $1
	`, doctorID)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var date string
		var labels []string
		if err := rows.Scan(&date, &labels); err != nil {
			return nil, db.MapError(err)
		}
		result[date] = labels
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(err)
	}

	return result, nil
}

// Replace is a single upsert so concurrent saves for one day resolve as
// last writer wins.
func (r *PgRepository) Replace(ctx context.Context, doctorID uuid.UUID, date string, labels []string) error {
	if len(labels) == 0 {
		return r.Delete(ctx, doctorID, date)
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctor_slots (doctor_id, slot_date, times, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (doctor_id, slot_date)
		DO UPDATE SET times = EXCLUDED.times, updated_at = now()
	`, doctorID, date, labels)
	return db.MapError(err)
}

func (r *PgRepository) Delete(ctx context.Context, doctorID uuid.UUID, date string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM doctor_slots
		WHERE doctor_id = $1 AND slot_date = $2
	`, doctorID, date)
	return db.MapError(err)
}
