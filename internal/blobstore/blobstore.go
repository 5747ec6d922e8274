// Package blobstore keeps uploaded prescription files. It defines the Store
// interface with an in-memory implementation for dev and tests and a
// Postgres implementation that keeps the bytes in a BYTEA column.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/telehealth-scheduling/internal/apperr"
)

var (
	ErrBlobNotFound       = apperr.NotFound("file")
	ErrFileTooLarge       = fmt.Errorf("%w: file exceeds the %d byte limit", apperr.ErrValidation, MaxFileSize)
	ErrEmptyFile          = fmt.Errorf("%w: file is empty", apperr.ErrValidation)
	ErrMissingFileName    = fmt.Errorf("%w: file name is required", apperr.ErrValidation)
	ErrInvalidContentType = fmt.Errorf("%w: content type is not allowed", apperr.ErrValidation)
)

// MaxFileSize is the largest accepted upload (10 MiB).
const MaxFileSize = 10 << 20

// AllowedContentTypes lists the file types a prescription may carry.
var AllowedContentTypes = map[string]bool{
	"image/png":       true,
	"image/jpeg":      true,
	"image/webp":      true,
	"application/pdf": true,
}

type Metadata struct {
	ID          uuid.UUID
	FileName    string
	ContentType string
	Size        int64
	Hash        string // hex sha256
	CreatedBy   string
	CreatedAt   time.Time
}

type Store interface {
	Put(ctx context.Context, meta Metadata, content io.Reader) (*Metadata, error)
	Open(ctx context.Context, id uuid.UUID) (io.ReadCloser, *Metadata, error)
	Stat(ctx context.Context, id uuid.UUID) (*Metadata, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// prepare reads content, checks it against the upload rules and fills in
// the derived metadata.
func prepare(meta Metadata, content io.Reader) (Metadata, []byte, error) {
	meta.FileName = strings.TrimSpace(meta.FileName)
	if meta.FileName == "" {
		return meta, nil, ErrMissingFileName
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return meta, nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return meta, nil, ErrEmptyFile
	}
	if len(data) > MaxFileSize {
		return meta, nil, ErrFileTooLarge
	}

	meta.ContentType = normalizeContentType(meta.ContentType, data)
	if !AllowedContentTypes[meta.ContentType] {
		return meta, nil, fmt.Errorf("%w: %s", ErrInvalidContentType, meta.ContentType)
	}

	sum := sha256.Sum256(data)
	meta.ID = uuid.New()
	meta.Size = int64(len(data))
	meta.Hash = hex.EncodeToString(sum[:])
	meta.CreatedAt = time.Now().UTC()
	return meta, data, nil
}

// normalizeContentType strips parameters and falls back to sniffing when the
// client sent nothing useful.
func normalizeContentType(declared string, data []byte) string {
	ct := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
		if i := strings.IndexByte(ct, ';'); i >= 0 {
			ct = ct[:i]
		}
	}
	return ct
}

type storedBlob struct {
	meta    Metadata
	content []byte
}

// MemoryStore is a thread-safe in-memory Store.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[uuid.UUID]*storedBlob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[uuid.UUID]*storedBlob)}
}

func (s *MemoryStore) Put(ctx context.Context, meta Metadata, content io.Reader) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	meta, data, err := prepare(meta, content)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.blobs[meta.ID] = &storedBlob{meta: meta, content: data}
	s.mu.Unlock()

	out := meta
	return &out, nil
}

func (s *MemoryStore) Open(ctx context.Context, id uuid.UUID) (io.ReadCloser, *Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	s.mu.RLock()
	blob, ok := s.blobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrBlobNotFound
	}

	meta := blob.meta
	return io.NopCloser(bytes.NewReader(blob.content)), &meta, nil
}

func (s *MemoryStore) Stat(ctx context.Context, id uuid.UUID) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[id]
	if !ok {
		return nil, ErrBlobNotFound
	}
	meta := blob.meta
	return &meta, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[id]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, id)
	return nil
}
