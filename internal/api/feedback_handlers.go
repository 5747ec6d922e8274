package api

import (
	"net/http"
)

func (h *handlers) submitFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.feedback.Submit(r.Context(), req.Name, req.Email, req.Message)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFeedbackResponse(*f))
}

func (h *handlers) listFeedback(w http.ResponseWriter, r *http.Request) {
	items, err := h.feedback.List(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out := make([]FeedbackResponse, 0, len(items))
	for _, f := range items {
		out = append(out, toFeedbackResponse(f))
	}
	writeJSON(w, http.StatusOK, map[string]any{"feedback": out})
}

func (h *handlers) markFeedbackRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	f, err := h.feedback.MarkRead(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFeedbackResponse(*f))
}

func (h *handlers) deleteFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.feedback.Delete(r.Context(), id); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "feedback deleted"})
}
