package api

import (
	"fmt"
	"iter"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/hackgods/telehealth-scheduling/internal/apperr"
	"github.com/hackgods/telehealth-scheduling/internal/appointment"
	"github.com/hackgods/telehealth-scheduling/internal/auth"
	"github.com/hackgods/telehealth-scheduling/internal/booking"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

func (h *handlers) bookAppointment(w http.ResponseWriter, r *http.Request) {
	var req BookAppointmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
		return
	}
	mode, err := appointment.ParseMode(req.Mode)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	p, _ := auth.PrincipalFrom(r.Context())

	appt, err := h.booking.Book(r.Context(), booking.Request{
		DoctorID:       doctorID,
		PatientID:      p.ID,
		Date:           req.Date,
		Time:           req.Time,
		Amount:         req.Amount,
		Mode:           mode,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.view(appt))
}

// listAppointments scopes the listing to the caller: doctors and patients see
// their own appointments, admins see all of them.
func (h *handlers) listAppointments(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	p, _ := auth.PrincipalFrom(r.Context())
	var seq iter.Seq2[appointment.Appointment, error]
	switch p.Role {
	case auth.RoleDoctor:
		seq = h.ledger.ListForDoctor(r.Context(), p.ID)
	case auth.RolePatient:
		seq = h.ledger.ListForPatient(r.Context(), p.ID)
	default:
		seq = h.ledger.ListAll(r.Context())
	}

	out := make([]AppointmentResponse, 0)
	for a, err := range seq {
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		out = append(out, toAppointmentResponse(a, h.ledger.Status(a)))
		if len(out) == limit {
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": out})
}

func (h *handlers) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	appt, ok := h.owned(w, r)
	if !ok {
		return
	}
	updated, err := h.booking.Cancel(r.Context(), appt.ID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(updated))
}

func (h *handlers) completeAppointment(w http.ResponseWriter, r *http.Request) {
	appt, ok := h.owned(w, r)
	if !ok {
		return
	}
	updated, err := h.ledger.Complete(r.Context(), appt.ID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(updated))
}

func (h *handlers) markPaid(w http.ResponseWriter, r *http.Request) {
	appt, ok := h.owned(w, r)
	if !ok {
		return
	}
	updated, err := h.ledger.MarkPaid(r.Context(), appt.ID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(updated))
}

func (h *handlers) attachVideoLink(w http.ResponseWriter, r *http.Request) {
	appt, ok := h.owned(w, r)
	if !ok {
		return
	}
	var req VideoLinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	updated, err := h.ledger.AttachVideoLink(r.Context(), appt.ID, req.URL)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(updated))
}

// owned loads the {id} appointment and checks the caller may act on it.
// Admins may act on any appointment.
func (h *handlers) owned(w http.ResponseWriter, r *http.Request) (*appointment.Appointment, bool) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return nil, false
	}
	appt, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return nil, false
	}

	p, _ := auth.PrincipalFrom(r.Context())
	switch {
	case p.Role == auth.RolePatient && appt.PatientID != p.ID,
		p.Role == auth.RoleDoctor && appt.DoctorID != p.ID:
		writeAppError(w, r, fmt.Errorf("%w: appointment belongs to someone else", apperr.ErrForbidden))
		return nil, false
	}
	return appt, true
}

func (h *handlers) view(a *appointment.Appointment) AppointmentResponse {
	return toAppointmentResponse(*a, h.ledger.Status(*a))
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxListLimit {
		return 0, apperr.Validation("limit must be between 1 and %d", maxListLimit)
	}
	return n, nil
}
