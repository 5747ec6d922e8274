package api

import (
	"net/http"
	"strconv"

	"github.com/hackgods/telehealth-scheduling/internal/apperr"
	"github.com/hackgods/telehealth-scheduling/internal/auth"
	"github.com/hackgods/telehealth-scheduling/internal/directory"
)

func (h *handlers) listDoctors(w http.ResponseWriter, r *http.Request) {
	onlyAvailable := false
	if raw := r.URL.Query().Get("available"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeAppError(w, r, apperr.Validation("available must be a boolean"))
			return
		}
		onlyAvailable = v
	}

	doctors, err := h.directory.ListDoctors(r.Context(), onlyAvailable)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out := make([]DoctorResponse, 0, len(doctors))
	for _, d := range doctors {
		out = append(out, toDoctorResponse(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"doctors": out})
}

func (h *handlers) createDoctor(w http.ResponseWriter, r *http.Request) {
	var req CreateDoctorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := h.directory.CreateDoctor(r.Context(), directory.NewDoctor{
		Name:       req.Name,
		Email:      req.Email,
		Speciality: req.Speciality,
		Fee:        req.Fee,
		Available:  req.Available,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDoctorResponse(*d))
}

func (h *handlers) setDoctorAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := pathID(w, r, "doctorID")
	if !ok {
		return
	}
	var req AvailabilityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := h.directory.SetAvailability(r.Context(), doctorID, req.Available)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDoctorResponse(*d))
}

func (h *handlers) setOwnAvailability(w http.ResponseWriter, r *http.Request) {
	var req AvailabilityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, _ := auth.PrincipalFrom(r.Context())
	d, err := h.directory.SetAvailability(r.Context(), p.ID, req.Available)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDoctorResponse(*d))
}

func (h *handlers) createPatient(w http.ResponseWriter, r *http.Request) {
	var req CreatePatientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.directory.CreatePatient(r.Context(), directory.NewPatient{Name: req.Name, Email: req.Email})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, PatientResponse{ID: p.ID, Name: p.Name, Email: p.Email})
}
