package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/telehealth-scheduling/internal/appointment"
	"github.com/hackgods/telehealth-scheduling/internal/directory"
	"github.com/hackgods/telehealth-scheduling/internal/feedback"
	"github.com/hackgods/telehealth-scheduling/internal/prescription"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type SetSlotsRequest struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

type DeleteSlotsRequest struct {
	Date string `json:"date"`
}

// SlotsResponse maps date labels to ordered time labels.
type SlotsResponse struct {
	Slots map[string][]string `json:"slots"`
}

type AvailabilityResponse struct {
	Date string   `json:"date"`
	Free []string `json:"free"`
}

type BookAppointmentRequest struct {
	DoctorID string `json:"doctor_id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Mode     string `json:"mode"`
	Amount   int64  `json:"amount"`
}

type VideoLinkRequest struct {
	URL string `json:"url"`
}

type AppointmentResponse struct {
	ID               uuid.UUID `json:"id"`
	DoctorID         uuid.UUID `json:"doctor_id"`
	PatientID        uuid.UUID `json:"patient_id"`
	Date             string    `json:"slot_date"`
	Time             string    `json:"slot_time"`
	ScheduledAt      time.Time `json:"scheduled_at"`
	Amount           int64     `json:"amount"`
	Payment          bool      `json:"payment"`
	Cancelled        bool      `json:"cancelled"`
	IsCompleted      bool      `json:"is_completed"`
	VideoCallLink    *string   `json:"video_call_link"`
	ConsultationMode string    `json:"consultation_mode"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

func toAppointmentResponse(a appointment.Appointment, status appointment.Status) AppointmentResponse {
	return AppointmentResponse{
		ID:               a.ID,
		DoctorID:         a.DoctorID,
		PatientID:        a.PatientID,
		Date:             a.Date,
		Time:             a.Time,
		ScheduledAt:      a.ScheduledAt,
		Amount:           a.Amount,
		Payment:          a.Payment,
		Cancelled:        a.Cancelled,
		IsCompleted:      a.IsCompleted,
		VideoCallLink:    a.VideoCallLink,
		ConsultationMode: string(a.Mode),
		Status:           string(status),
		CreatedAt:        a.CreatedAt,
	}
}

type PrescriptionResponse struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	Report        string    `json:"report"`
	FileName      string    `json:"file_name"`
	ContentType   string    `json:"content_type"`
	FileSize      int64     `json:"file_size"`
	FileHash      string    `json:"file_hash"`
	CreatedAt     time.Time `json:"created_at"`
}

// FetchPrescriptionResponse carries a null prescription when none exists.
type FetchPrescriptionResponse struct {
	Prescription *PrescriptionResponse `json:"prescription"`
}

func toPrescriptionResponse(p *prescription.Prescription) *PrescriptionResponse {
	if p == nil {
		return nil
	}
	return &PrescriptionResponse{
		ID:            p.ID,
		AppointmentID: p.AppointmentID,
		Report:        p.Report,
		FileName:      p.File.Name,
		ContentType:   p.File.ContentType,
		FileSize:      p.File.Size,
		FileHash:      p.File.Hash,
		CreatedAt:     p.CreatedAt,
	}
}

type CreateDoctorRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Speciality string `json:"speciality"`
	Fee        int64  `json:"fee"`
	Available  *bool  `json:"available"`
}

type CreatePatientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AvailabilityRequest struct {
	Available bool `json:"available"`
}

type DoctorResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Speciality string    `json:"speciality"`
	Fee        int64     `json:"fee"`
	Available  bool      `json:"available"`
}

func toDoctorResponse(d directory.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:         d.ID,
		Name:       d.Name,
		Email:      d.Email,
		Speciality: d.Speciality,
		Fee:        d.Fee,
		Available:  d.Available,
	}
}

type PatientResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type FeedbackRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type FeedbackResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func toFeedbackResponse(f feedback.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:        f.ID,
		Name:      f.Name,
		Email:     f.Email,
		Message:   f.Message,
		IsRead:    f.IsRead,
		CreatedAt: f.CreatedAt,
	}
}
