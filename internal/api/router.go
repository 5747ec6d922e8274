package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/hackgods/telehealth-scheduling/internal/appointment"
	"github.com/hackgods/telehealth-scheduling/internal/auth"
	"github.com/hackgods/telehealth-scheduling/internal/booking"
	"github.com/hackgods/telehealth-scheduling/internal/directory"
	"github.com/hackgods/telehealth-scheduling/internal/feedback"
	"github.com/hackgods/telehealth-scheduling/internal/metrics"
	"github.com/hackgods/telehealth-scheduling/internal/prescription"
	"github.com/hackgods/telehealth-scheduling/internal/slot"
)

type RouterConfig struct {
	Slots         *slot.Service
	Directory     *directory.Service
	Ledger        *appointment.Ledger
	Booking       *booking.Coordinator
	Prescriptions *prescription.Service
	Feedback      *feedback.Service
	Issuer        *auth.Issuer
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	Logger        zerolog.Logger
	Health        []Dependency
	Env           string
	Version       string
}

type handlers struct {
	slots         *slot.Service
	directory     *directory.Service
	ledger        *appointment.Ledger
	booking       *booking.Coordinator
	prescriptions *prescription.Service
	feedback      *feedback.Service
}

func NewRouter(cfg RouterConfig) http.Handler {
	h := &handlers{
		slots:         cfg.Slots,
		directory:     cfg.Directory,
		ledger:        cfg.Ledger,
		booking:       cfg.Booking,
		prescriptions: cfg.Prescriptions,
		feedback:      cfg.Feedback,
	}

	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	// Health endpoints
	health := NewHealthHandler(cfg.Health, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(cfg.Gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/doctors", h.listDoctors)
		r.Get("/doctors/{doctorID}/slots", h.publicSlots)
		r.Get("/doctors/{doctorID}/availability", h.freeSlots)
		r.Post("/feedback", h.submitFeedback)

		r.Route("/doctor", func(r chi.Router) {
			r.Use(cfg.Issuer.Require(writeAppError, auth.RoleDoctor))

			r.Get("/slots", h.ownSlots)
			r.Post("/slots", h.setSlots)
			r.Post("/slots/delete", h.deleteSlotsJSON)
			r.Delete("/slots", h.deleteSlots)
			r.Post("/availability", h.setOwnAvailability)

			r.Get("/appointments", h.listAppointments)
			r.Post("/appointments/{id}/cancel", h.cancelAppointment)
			r.Post("/appointments/{id}/complete", h.completeAppointment)
			r.Post("/appointments/{id}/video-link", h.attachVideoLink)
			r.Post("/appointments/{id}/prescription", h.attachPrescription)
			r.Get("/appointments/{id}/prescription", h.fetchPrescription)
			r.Get("/appointments/{id}/prescription/file", h.prescriptionFile)
			r.Head("/appointments/{id}/prescription/file", h.prescriptionFileInfo)
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(cfg.Issuer.Require(writeAppError, auth.RolePatient))

			r.Post("/appointments", h.bookAppointment)
			r.Get("/appointments", h.listAppointments)
			r.Post("/appointments/{id}/cancel", h.cancelAppointment)
			r.Get("/appointments/{id}/prescription", h.fetchPrescription)
			r.Get("/appointments/{id}/prescription/file", h.prescriptionFile)
			r.Head("/appointments/{id}/prescription/file", h.prescriptionFileInfo)
			r.Get("/appointments/{id}/prescription/pdf", h.prescriptionPDF)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(cfg.Issuer.Require(writeAppError, auth.RoleAdmin))

			r.Get("/appointments", h.listAppointments)
			r.Post("/appointments/{id}/cancel", h.cancelAppointment)
			r.Post("/appointments/{id}/pay", h.markPaid)
			r.Get("/appointments/{id}/prescription", h.fetchPrescription)
			r.Get("/appointments/{id}/prescription/file", h.prescriptionFile)
			r.Head("/appointments/{id}/prescription/file", h.prescriptionFileInfo)

			r.Post("/doctors", h.createDoctor)
			r.Post("/doctors/{doctorID}/availability", h.setDoctorAvailability)
			r.Post("/patients", h.createPatient)

			r.Get("/feedback", h.listFeedback)
			r.Post("/feedback/{id}/read", h.markFeedbackRead)
			r.Delete("/feedback/{id}", h.deleteFeedback)
		})
	})

	return r
}
