package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/hackgods/telehealth-scheduling/internal/auth"
	"github.com/hackgods/telehealth-scheduling/internal/blobstore"
	"github.com/hackgods/telehealth-scheduling/internal/prescription"
)

// Multipart overhead allowed on top of the file itself.
const multipartSlack = 1 << 20

func (h *handlers) attachPrescription(w http.ResponseWriter, r *http.Request) {
	appt, ok := h.owned(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, blobstore.MaxFileSize+multipartSlack)
	if err := r.ParseMultipartForm(blobstore.MaxFileSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeAppError(w, r, blobstore.ErrFileTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	upload := prescription.Upload{}
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		upload = prescription.Upload{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     file,
		}
	case !errors.Is(err, http.ErrMissingFile):
		writeError(w, http.StatusBadRequest, "invalid_file", "could not read uploaded file")
		return
	}

	p, _ := auth.PrincipalFrom(r.Context())
	created, err := h.prescriptions.Attach(r.Context(), prescription.AttachRequest{
		AppointmentID: appt.ID,
		DoctorID:      p.ID,
		Report:        r.FormValue("report"),
		File:          upload,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, FetchPrescriptionResponse{Prescription: toPrescriptionResponse(created)})
}

func (h *handlers) fetchPrescription(w http.ResponseWriter, r *http.Request) {
	appt, ok := h.owned(w, r)
	if !ok {
		return
	}
	p, _, err := h.prescriptions.Fetch(r.Context(), appt.ID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FetchPrescriptionResponse{Prescription: toPrescriptionResponse(p)})
}

func (h *handlers) prescriptionFile(w http.ResponseWriter, r *http.Request) {
	appt, ok := h.owned(w, r)
	if !ok {
		return
	}
	rc, meta, err := h.prescriptions.OpenFile(r.Context(), appt.ID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	defer rc.Close()

	fileHeaders(w, meta)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}

// prescriptionFileInfo answers HEAD with the file's headers only.
func (h *handlers) prescriptionFileInfo(w http.ResponseWriter, r *http.Request) {
	appt, ok := h.owned(w, r)
	if !ok {
		return
	}
	meta, err := h.prescriptions.FileInfo(r.Context(), appt.ID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	fileHeaders(w, meta)
	w.WriteHeader(http.StatusOK)
}

func fileHeaders(w http.ResponseWriter, meta *blobstore.Metadata) {
	w.Header().Set("Content-Type", meta.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": meta.FileName}))
}

func (h *handlers) prescriptionPDF(w http.ResponseWriter, r *http.Request) {
	appt, ok := h.owned(w, r)
	if !ok {
		return
	}
	pdf, err := h.prescriptions.RenderPDF(r.Context(), appt.ID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="prescription.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
