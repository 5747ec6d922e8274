package feedback

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/telehealth-scheduling/internal/apperr"
)

func TestSubmitListTriage(t *testing.T) {
	s := NewService(NewMemoryRepository(), time.Second)
	ctx := context.Background()

	first, err := s.Submit(ctx, "Meera", "Meera@Mail.example", "The video call dropped twice.")
	require.NoError(t, err)
	second, err := s.Submit(ctx, "Arjun", "arjun@mail.example", "Loved the reminder emails.")
	require.NoError(t, err)
	assert.Equal(t, "meera@mail.example", first.Email)
	assert.False(t, first.IsRead)

	items, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)

	read, err := s.MarkRead(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	_, err = s.MarkRead(ctx, first.ID)
	assert.NoError(t, err)

	require.NoError(t, s.Delete(ctx, second.ID))
	items, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].IsRead)

	assert.ErrorIs(t, s.Delete(ctx, second.ID), apperr.ErrNotFound)
	_, err = s.MarkRead(ctx, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSubmitValidation(t *testing.T) {
	s := NewService(NewMemoryRepository(), time.Second)
	ctx := context.Background()

	tests := []struct {
		name, who, email, msg string
	}{
		{"no name", " ", "a@b.example", "hi"},
		{"no message", "A", "a@b.example", "  "},
		{"bad email", "A", "nobody", "hi"},
		{"too long", "A", "a@b.example", strings.Repeat("x", MaxMessageLength+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Submit(ctx, tt.who, tt.email, tt.msg)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	items, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}
