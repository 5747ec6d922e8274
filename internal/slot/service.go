// Package slot owns the per-doctor, per-date sets of offered time labels.
//
// A slot being offered says nothing about whether it is booked; booking state
// lives in the appointment ledger.
package slot

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/telehealth-scheduling/internal/apperr"
)

type Service struct {
	repo    Repository
	timeout time.Duration
}

func NewService(repo Repository, timeout time.Duration) *Service {
	return &Service{repo: repo, timeout: timeout}
}

// List returns the offered labels for one day in wall-clock order. A day with
// no slots yields an empty slice.
func (s *Service) List(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	day, err := NormalizeDate(date)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	labels, err := s.repo.Get(ctx, doctorID, day)
	if err != nil {
		return nil, apperr.Storage("load slots", err)
	}
	sortLabels(labels)
	return labels, nil
}

// ListAll returns every offered day for a doctor, keyed by date label.
func (s *Service) ListAll(ctx context.Context, doctorID uuid.UUID) (map[string][]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	days, err := s.repo.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, apperr.Storage("list slots", err)
	}
	for _, labels := range days {
		sortLabels(labels)
	}
	return days, nil
}

// Set replaces the whole offered set for a day and returns the stored,
// sorted labels.
func (s *Service) Set(ctx context.Context, doctorID uuid.UUID, date string, labels []string) ([]string, error) {
	day, err := NormalizeDate(date)
	if err != nil {
		return nil, err
	}
	normalized, err := Normalize(labels)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Replace(ctx, doctorID, day, normalized); err != nil {
		return nil, apperr.Storage("save slots", err)
	}
	return normalized, nil
}

// Delete clears a day. Clearing an empty day succeeds.
func (s *Service) Delete(ctx context.Context, doctorID uuid.UUID, date string) error {
	day, err := NormalizeDate(date)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Delete(ctx, doctorID, day); err != nil {
		return apperr.Storage("delete slots", err)
	}
	return nil
}

// Offers reports whether label is part of the doctor's set for date.
func (s *Service) Offers(ctx context.Context, doctorID uuid.UUID, date, label string) (bool, error) {
	want, err := NormalizeTime(label)
	if err != nil {
		return false, err
	}
	labels, err := s.List(ctx, doctorID, date)
	if err != nil {
		return false, err
	}
	for _, l := range labels {
		if l == want {
			return true, nil
		}
	}
	return false, nil
}

// Normalize canonicalizes and sorts labels, rejecting malformed entries and
// labels that collide once normalized.
func Normalize(labels []string) ([]string, error) {
	out := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, raw := range labels {
		label, err := NormalizeTime(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[label]; dup {
			return nil, apperr.Validation("duplicate time slot %s", label)
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	sortLabels(out)
	return out, nil
}

func sortLabels(labels []string) {
	sort.SliceStable(labels, func(i, j int) bool {
		return minuteOfDay(labels[i]) < minuteOfDay(labels[j])
	})
}
