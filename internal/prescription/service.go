// Package prescription attaches a doctor's report and file to a completed
// appointment. Each appointment gets at most one prescription.
package prescription

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/telehealth-scheduling/internal/apperr"
	"github.com/hackgods/telehealth-scheduling/internal/appointment"
	"github.com/hackgods/telehealth-scheduling/internal/blobstore"
	"github.com/hackgods/telehealth-scheduling/internal/directory"
	"github.com/hackgods/telehealth-scheduling/internal/metrics"
	"github.com/hackgods/telehealth-scheduling/internal/notify"
)

const EventPrescriptionAttached = "PRESCRIPTION_ATTACHED"

type Service struct {
	repo      Repository
	blobs     blobstore.Store
	ledger    *appointment.Ledger
	directory *directory.Service
	notifier  notify.Notifier
	metrics   *metrics.Metrics
	log       zerolog.Logger
	timeout   time.Duration
}

type Deps struct {
	Repo      Repository
	Blobs     blobstore.Store
	Ledger    *appointment.Ledger
	Directory *directory.Service
	Notifier  notify.Notifier
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
	Timeout   time.Duration
}

func NewService(d Deps) *Service {
	s := &Service{
		repo:      d.Repo,
		blobs:     d.Blobs,
		ledger:    d.Ledger,
		directory: d.Directory,
		notifier:  d.Notifier,
		metrics:   d.Metrics,
		log:       d.Logger.With().Str("component", "prescription").Logger(),
		timeout:   d.Timeout,
	}
	if s.timeout <= 0 {
		s.timeout = 3 * time.Second
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier(d.Logger)
	}
	return s
}

// Attach stores the report and file for a completed appointment owned by
// req.DoctorID.
func (s *Service) Attach(ctx context.Context, req AttachRequest) (*Prescription, error) {
	p, err := s.attach(ctx, req)
	switch {
	case err == nil:
		s.metrics.Prescription("attached")
	case errors.Is(err, ErrPrescriptionExists):
		s.metrics.Prescription("duplicate")
	case apperr.Kind(err) != nil && !errors.Is(err, apperr.ErrTimeout):
		s.metrics.Prescription("rejected")
	default:
		s.metrics.Prescription("error")
	}
	return p, err
}

func (s *Service) attach(ctx context.Context, req AttachRequest) (*Prescription, error) {
	appt, err := s.ledger.Get(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if appt.DoctorID != req.DoctorID {
		return nil, fmt.Errorf("%w: appointment belongs to another doctor", apperr.ErrForbidden)
	}
	if appt.Cancelled {
		return nil, apperr.InvalidState("appointment is cancelled")
	}
	if !appt.IsCompleted {
		return nil, apperr.InvalidState("prescriptions can only be attached to completed appointments")
	}

	report := strings.TrimSpace(req.Report)
	if n := len(strings.Fields(report)); n < MinReportWords {
		return nil, apperr.Validation("report must contain at least %d words, got %d", MinReportWords, n)
	}
	if req.File.Content == nil {
		return nil, blobstore.ErrEmptyFile
	}

	_, found, err := s.Fetch(ctx, appt.ID)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, ErrPrescriptionExists
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	meta, err := s.blobs.Put(ctx, blobstore.Metadata{
		FileName:    req.File.Name,
		ContentType: req.File.ContentType,
		CreatedBy:   req.DoctorID.String(),
	}, req.File.Content)
	if err != nil {
		return nil, apperr.Storage("store prescription file", err)
	}

	created, err := s.repo.Create(ctx, Prescription{
		ID:            uuid.New(),
		AppointmentID: appt.ID,
		DoctorID:      appt.DoctorID,
		PatientID:     appt.PatientID,
		Report:        report,
		File: File{
			BlobID:      meta.ID,
			Name:        meta.FileName,
			ContentType: meta.ContentType,
			Size:        meta.Size,
			Hash:        meta.Hash,
		},
	})
	if err != nil {
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), meta.ID); delErr != nil {
			s.log.Warn().Err(delErr).Str("blob_id", meta.ID.String()).Msg("remove orphaned prescription file")
		}
		return nil, apperr.Storage("save prescription", err)
	}

	s.ledger.Record(ctx, appt.ID, EventPrescriptionAttached, map[string]any{
		"prescription_id": created.ID.String(),
		"file_hash":       created.File.Hash,
	})
	s.notifyPatient(ctx, appt, created)
	return created, nil
}

// Fetch returns the appointment's prescription. A missing prescription is
// reported through ok, not as an error.
func (s *Service) Fetch(ctx context.Context, appointmentID uuid.UUID) (p *Prescription, ok bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	p, err = s.repo.GetByAppointment(ctx, appointmentID)
	if errors.Is(err, ErrPrescriptionNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperr.Storage("load prescription", err)
	}
	return p, true, nil
}

// OpenFile streams the stored prescription file. The caller closes it.
func (s *Service) OpenFile(ctx context.Context, appointmentID uuid.UUID) (io.ReadCloser, *blobstore.Metadata, error) {
	p, found, err := s.Fetch(ctx, appointmentID)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, ErrPrescriptionNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rc, meta, err := s.blobs.Open(ctx, p.File.BlobID)
	if err != nil {
		return nil, nil, apperr.Storage("open prescription file", err)
	}
	return rc, meta, nil
}

// FileInfo describes the stored prescription file without reading it.
func (s *Service) FileInfo(ctx context.Context, appointmentID uuid.UUID) (*blobstore.Metadata, error) {
	p, found, err := s.Fetch(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrPrescriptionNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	meta, err := s.blobs.Stat(ctx, p.File.BlobID)
	if err != nil {
		return nil, apperr.Storage("stat prescription file", err)
	}
	return meta, nil
}

// RenderPDF prints the prescription with the appointment details.
func (s *Service) RenderPDF(ctx context.Context, appointmentID uuid.UUID) ([]byte, error) {
	p, found, err := s.Fetch(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrPrescriptionNotFound
	}
	appt, err := s.ledger.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	doctor, err := s.directory.GetDoctor(ctx, appt.DoctorID)
	if err != nil {
		return nil, err
	}
	patient, err := s.directory.GetPatient(ctx, appt.PatientID)
	if err != nil {
		return nil, err
	}
	return renderPDF(p, appt, doctor, patient)
}

func (s *Service) notifyPatient(ctx context.Context, appt *appointment.Appointment, p *Prescription) {
	doctor, derr := s.directory.GetDoctor(ctx, appt.DoctorID)
	patient, perr := s.directory.GetPatient(ctx, appt.PatientID)
	if derr != nil || perr != nil {
		s.log.Warn().Err(errors.Join(derr, perr)).Msg("skip prescription email")
		return
	}

	pdf, err := renderPDF(p, appt, doctor, patient)
	if err != nil {
		s.log.Warn().Err(err).Msg("render prescription pdf")
	}
	msg := notify.PrescriptionReady(notify.Appointment{
		PatientName: patient.Name,
		PatientMail: patient.Email,
		DoctorName:  doctor.Name,
		Date:        appt.Date,
		Time:        appt.Time,
		Mode:        string(appt.Mode),
	}, pdf)
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.log.Warn().Err(err).Msg("send prescription email")
	}
}
