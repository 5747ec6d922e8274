// Package feedback stores messages patients send to the clinic and the
// admin triage state on them.
package feedback

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/telehealth-scheduling/internal/apperr"
)

// MaxMessageLength bounds a single feedback message in bytes.
const MaxMessageLength = 5000

var ErrFeedbackNotFound = apperr.NotFound("feedback")

type Feedback struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Message   string
	IsRead    bool
	CreatedAt time.Time
}

type Repository interface {
	Create(ctx context.Context, f Feedback) (*Feedback, error)
	// List returns feedback newest first.
	List(ctx context.Context) ([]Feedback, error)
	MarkRead(ctx context.Context, id uuid.UUID) (*Feedback, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo    Repository
	timeout time.Duration
}

func NewService(repo Repository, timeout time.Duration) *Service {
	return &Service{repo: repo, timeout: timeout}
}

func (s *Service) Submit(ctx context.Context, name, email, message string) (*Feedback, error) {
	name = strings.TrimSpace(name)
	message = strings.TrimSpace(message)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if message == "" {
		return nil, apperr.Validation("message is required")
	}
	if len(message) > MaxMessageLength {
		return nil, apperr.Validation("message must be at most %d characters, got %d", MaxMessageLength, len(message))
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, apperr.Validation("email %q is not a valid address", email)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	f, err := s.repo.Create(ctx, Feedback{
		ID:      uuid.New(),
		Name:    name,
		Email:   strings.ToLower(addr.Address),
		Message: message,
	})
	if err != nil {
		return nil, apperr.Storage("save feedback", err)
	}
	return f, nil
}

func (s *Service) List(ctx context.Context) ([]Feedback, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Storage("list feedback", err)
	}
	if items == nil {
		items = []Feedback{}
	}
	return items, nil
}

// MarkRead is idempotent.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) (*Feedback, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	f, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return nil, apperr.Storage("mark feedback read", err)
	}
	return f, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.Storage("delete feedback", err)
	}
	return nil
}
