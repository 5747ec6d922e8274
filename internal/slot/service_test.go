package slot

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/telehealth-scheduling/internal/apperr"
)

func newTestService() *Service {
	return NewService(NewMemoryRepository(), time.Second)
}

func TestListEmptyDay(t *testing.T) {
	svc := newTestService()

	labels, err := svc.List(context.Background(), uuid.New(), "5_3_2025")
	require.NoError(t, err)
	assert.Empty(t, labels)
	assert.NotNil(t, labels)
}

func TestSetSortsChronologically(t *testing.T) {
	svc := newTestService()
	doc := uuid.New()

	stored, err := svc.Set(context.Background(), doc, "5_3_2025", []string{"02:30 PM", "9:00 am", "12:00 PM", "12:30 AM", "09:30 AM"})
	require.NoError(t, err)

	want := []string{"12:30 AM", "09:00 AM", "09:30 AM", "12:00 PM", "02:30 PM"}
	assert.Equal(t, want, stored)

	listed, err := svc.List(context.Background(), doc, "05_03_2025")
	require.NoError(t, err)
	assert.Equal(t, want, listed)
}

func TestSetIsIdempotent(t *testing.T) {
	svc := newTestService()
	doc := uuid.New()
	in := []string{"09:30 AM", "09:00 AM"}

	first, err := svc.Set(context.Background(), doc, "5_3_2025", in)
	require.NoError(t, err)
	second, err := svc.Set(context.Background(), doc, "5_3_2025", in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	listed, err := svc.List(context.Background(), doc, "5_3_2025")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00 AM", "09:30 AM"}, listed)
}

func TestSetReplacesWholeDay(t *testing.T) {
	svc := newTestService()
	doc := uuid.New()
	ctx := context.Background()

	_, err := svc.Set(ctx, doc, "5_3_2025", []string{"09:00 AM", "09:30 AM"})
	require.NoError(t, err)
	_, err = svc.Set(ctx, doc, "5_3_2025", []string{"04:00 PM"})
	require.NoError(t, err)

	listed, err := svc.List(ctx, doc, "5_3_2025")
	require.NoError(t, err)
	assert.Equal(t, []string{"04:00 PM"}, listed)
}

func TestSetRejectsBadInput(t *testing.T) {
	svc := newTestService()
	doc := uuid.New()

	tests := []struct {
		name   string
		date   string
		labels []string
	}{
		{"malformed time", "5_3_2025", []string{"09:00"}},
		{"hour out of range", "5_3_2025", []string{"13:00 PM"}},
		{"duplicates after normalizing", "5_3_2025", []string{"9:00 AM", "09:00 AM"}},
		{"malformed date", "2025-03-05", []string{"09:00 AM"}},
		{"impossible date", "30_2_2025", []string{"09:00 AM"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Set(context.Background(), doc, tt.date, tt.labels)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc := newTestService()
	doc := uuid.New()
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, doc, "5_3_2025"))

	_, err := svc.Set(ctx, doc, "5_3_2025", []string{"09:00 AM"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, doc, "5_3_2025"))
	require.NoError(t, svc.Delete(ctx, doc, "5_3_2025"))

	labels, err := svc.List(ctx, doc, "5_3_2025")
	require.NoError(t, err)
	assert.Empty(t, labels)
}

func TestListAllAndOffers(t *testing.T) {
	svc := newTestService()
	doc := uuid.New()
	ctx := context.Background()

	_, err := svc.Set(ctx, doc, "5_3_2025", []string{"09:30 AM", "09:00 AM"})
	require.NoError(t, err)
	_, err = svc.Set(ctx, doc, "6_3_2025", []string{"10:00 AM"})
	require.NoError(t, err)

	all, err := svc.ListAll(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"5_3_2025": {"09:00 AM", "09:30 AM"},
		"6_3_2025": {"10:00 AM"},
	}, all)

	ok, err := svc.Offers(ctx, doc, "5_3_2025", "9:30 am")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Offers(ctx, doc, "5_3_2025", "10:00 AM")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAt(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)

	at, err := At("5_3_2025", "02:15 PM", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 5, 14, 15, 0, 0, loc), at)

	_, err = At("5_3_2025", "nope", loc)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
