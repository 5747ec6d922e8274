package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationKeepsMessage(t *testing.T) {
	err := Validation("report must contain at least %d words, got %d", 30, 29)

	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "got 29")
}

func TestStorageClassifiesDeadline(t *testing.T) {
	err := Storage("insert appointment", fmt.Errorf("query: %w", context.DeadlineExceeded))

	assert.ErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestStoragePassesKindsThrough(t *testing.T) {
	orig := NotFound("appointment")
	assert.Same(t, orig, Storage("load", orig))
}

func TestStorageWrapsUnknown(t *testing.T) {
	base := errors.New("connection reset")
	err := Storage("load appointment", base)

	assert.ErrorIs(t, err, base)
	assert.Nil(t, Kind(err))
	assert.Nil(t, Storage("noop", nil))
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want error
	}{
		{fmt.Errorf("%w: taken", ErrSlotConflict), ErrSlotConflict},
		{InvalidState("cancelled"), ErrInvalidState},
		{ErrAlreadyCancelled, ErrAlreadyCancelled},
		{errors.New("boom"), nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Kind(tt.err))
	}
}

func TestMessageDropsKindPrefix(t *testing.T) {
	assert.Equal(t, "report must contain at least 30 words, got 29",
		Message(Validation("report must contain at least 30 words, got 29")))
	assert.Equal(t, "appointment already cancelled", Message(ErrAlreadyCancelled))
	assert.Equal(t, "boom", Message(errors.New("boom")))
}
