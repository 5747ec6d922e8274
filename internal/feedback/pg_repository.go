package feedback

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

func scanFeedback(row pgx.Row) (*Feedback, error) {
	var f Feedback
	if err := row.Scan(&f.ID, &f.Name, &f.Email, &f.Message, &f.IsRead, &f.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFeedbackNotFound
		}
		return nil, db.MapError(err)
	}
	return &f, nil
}

func (r *PgRepository) Create(ctx context.Context, f Feedback) (*Feedback, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO feedback (id, name, email, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, message, is_read, created_at
	`, f.ID, f.Name, f.Email, f.Message)
	return scanFeedback(row)
}

func (r *PgRepository) List(ctx context.Context) ([]Feedback, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, message, is_read, created_at
		FROM feedback
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var items []Feedback
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *f)
	}
	return items, db.MapError(rows.Err())
}

func (r *PgRepository) MarkRead(ctx context.Context, id uuid.UUID) (*Feedback, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE feedback
		SET is_read = TRUE
		WHERE id = $1
		RETURNING id, name, email, message, is_read, created_at
	`, id)
	return scanFeedback(row)
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM feedback WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFeedbackNotFound
	}
	return nil
}
