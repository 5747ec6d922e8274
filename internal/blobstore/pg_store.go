package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/telehealth-scheduling/internal/db"
)

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) Put(ctx context.Context, meta Metadata, content io.Reader) (*Metadata, error) {
	meta, data, err := prepare(meta, content)
	if err != nil {
		return nil, err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO blobs (id, file_name, content_type, size, hash, content, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, meta.ID, meta.FileName, meta.ContentType, meta.Size, meta.Hash, data, meta.CreatedBy, meta.CreatedAt)
	if err != nil {
		return nil, db.MapError(err)
	}
	return &meta, nil
}

func (s *PgStore) Open(ctx context.Context, id uuid.UUID) (io.ReadCloser, *Metadata, error) {
	var meta Metadata
	var data []byte

	err := s.pool.QueryRow(ctx, `
		SELECT id, file_name, content_type, size, hash, created_by, created_at, content
		FROM blobs
		WHERE id = $1
	`, id).Scan(&meta.ID, &meta.FileName, &meta.ContentType, &meta.Size, &meta.Hash, &meta.CreatedBy, &meta.CreatedAt, &data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrBlobNotFound
		}
		return nil, nil, db.MapError(err)
	}
	return io.NopCloser(bytes.NewReader(data)), &meta, nil
}

func (s *PgStore) Stat(ctx context.Context, id uuid.UUID) (*Metadata, error) {
	var meta Metadata
	err := s.pool.QueryRow(ctx, `
		SELECT id, file_name, content_type, size, hash, created_by, created_at
		FROM blobs
		WHERE id = $1
	`, id).Scan(&meta.ID, &meta.FileName, &meta.ContentType, &meta.Size, &meta.Hash, &meta.CreatedBy, &meta.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBlobNotFound
		}
		return nil, db.MapError(err)
	}
	return &meta, nil
}

func (s *PgStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM blobs WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBlobNotFound
	}
	return nil
}
