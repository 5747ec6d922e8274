package api

import (
	"net/http"
	"slices"

	"github.com/google/uuid"

	"github.com/hackgods/telehealth-scheduling/internal/auth"
	"github.com/hackgods/telehealth-scheduling/internal/slot"
)

// slotsFor answers with one day when date is set, otherwise every offered day.
func (h *handlers) slotsFor(w http.ResponseWriter, r *http.Request, doctorID uuid.UUID) {
	date := r.URL.Query().Get("date")
	if date == "" {
		days, err := h.slots.ListAll(r.Context(), doctorID)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		if days == nil {
			days = map[string][]string{}
		}
		writeJSON(w, http.StatusOK, SlotsResponse{Slots: days})
		return
	}

	day, err := slot.NormalizeDate(date)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	labels, err := h.slots.List(r.Context(), doctorID, day)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SlotsResponse{Slots: map[string][]string{day: nonNil(labels)}})
}

func (h *handlers) publicSlots(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := pathID(w, r, "doctorID")
	if !ok {
		return
	}
	h.slotsFor(w, r, doctorID)
}

func (h *handlers) ownSlots(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFrom(r.Context())
	h.slotsFor(w, r, p.ID)
}

// freeSlots lists the offered labels for a day that no active appointment holds.
func (h *handlers) freeSlots(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := pathID(w, r, "doctorID")
	if !ok {
		return
	}
	day, err := slot.NormalizeDate(r.URL.Query().Get("date"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	offered, err := h.slots.List(r.Context(), doctorID, day)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	booked, err := h.ledger.BookedTimes(r.Context(), doctorID, day)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	free := make([]string, 0, len(offered))
	for _, label := range offered {
		if !slices.Contains(booked, label) {
			free = append(free, label)
		}
	}
	writeJSON(w, http.StatusOK, AvailabilityResponse{Date: day, Free: free})
}

func (h *handlers) setSlots(w http.ResponseWriter, r *http.Request) {
	var req SetSlotsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, _ := auth.PrincipalFrom(r.Context())

	labels, err := h.slots.Set(r.Context(), p.ID, req.Date, req.Slots)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	day, _ := slot.NormalizeDate(req.Date)
	writeJSON(w, http.StatusOK, SlotsResponse{Slots: map[string][]string{day: labels}})
}

func (h *handlers) deleteSlotsJSON(w http.ResponseWriter, r *http.Request) {
	var req DeleteSlotsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.clearDay(w, r, req.Date)
}

func (h *handlers) deleteSlots(w http.ResponseWriter, r *http.Request) {
	h.clearDay(w, r, r.URL.Query().Get("date"))
}

func (h *handlers) clearDay(w http.ResponseWriter, r *http.Request, date string) {
	p, _ := auth.PrincipalFrom(r.Context())
	if err := h.slots.Delete(r.Context(), p.ID, date); err != nil {
		writeAppError(w, r, err)
		return
	}
	// Answer with the days still offered.
	days, err := h.slots.ListAll(r.Context(), p.ID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if days == nil {
		days = map[string][]string{}
	}
	writeJSON(w, http.StatusOK, SlotsResponse{Slots: days})
}

func nonNil(labels []string) []string {
	if labels == nil {
		return []string{}
	}
	return labels
}
