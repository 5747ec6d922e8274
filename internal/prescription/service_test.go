package prescription

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/telehealth-scheduling/internal/apperr"
	"github.com/hackgods/telehealth-scheduling/internal/appointment"
	"github.com/hackgods/telehealth-scheduling/internal/blobstore"
	"github.com/hackgods/telehealth-scheduling/internal/directory"
	"github.com/hackgods/telehealth-scheduling/internal/notify"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

type captureNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (c *captureNotifier) Notify(_ context.Context, msg notify.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

type harness struct {
	svc      *Service
	ledger   *appointment.Ledger
	dir      *directory.Service
	blobs    *blobstore.MemoryStore
	notifier *captureNotifier
	doctor   *directory.Doctor
	patient  *directory.Patient
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	h := &harness{
		dir:      directory.NewService(directory.NewMemoryRepository(), time.Second),
		blobs:    blobstore.NewMemoryStore(),
		notifier: &captureNotifier{},
	}
	h.ledger = appointment.NewLedger(appointment.NewMemoryRepository(), appointment.LedgerConfig{
		Timeout: time.Second,
		Now:     func() time.Time { return time.Date(2025, time.March, 5, 7, 0, 0, 0, time.UTC) },
	}, zerolog.Nop(), nil)
	h.svc = NewService(Deps{
		Repo:      NewMemoryRepository(),
		Blobs:     h.blobs,
		Ledger:    h.ledger,
		Directory: h.dir,
		Notifier:  h.notifier,
		Logger:    zerolog.Nop(),
		Timeout:   time.Second,
	})

	var err error
	h.doctor, err = h.dir.CreateDoctor(ctx, directory.NewDoctor{Name: "Dr. Rao", Email: "rao@clinic.example", Speciality: "General"})
	require.NoError(t, err)
	h.patient, err = h.dir.CreatePatient(ctx, directory.NewPatient{Name: "Meera", Email: "meera@mail.example"})
	require.NoError(t, err)
	return h
}

func (h *harness) appointment(t *testing.T, label string, complete bool) *appointment.Appointment {
	t.Helper()
	appt, err := h.ledger.Create(context.Background(), appointment.CreateRequest{
		DoctorID:  h.doctor.ID,
		PatientID: h.patient.ID,
		Date:      "5_3_2025",
		Time:      label,
	})
	require.NoError(t, err)
	if complete {
		appt, err = h.ledger.Complete(context.Background(), appt.ID)
		require.NoError(t, err)
	}
	return appt
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("rest ", n))
}

func (h *harness) request(appt *appointment.Appointment, report string) AttachRequest {
	return AttachRequest{
		AppointmentID: appt.ID,
		DoctorID:      h.doctor.ID,
		Report:        report,
		File:          Upload{Name: "rx.png", ContentType: "image/png", Content: bytes.NewReader(pngBytes)},
	}
}

func TestAttachWordCountGate(t *testing.T) {
	h := newHarness(t)
	appt := h.appointment(t, "09:00 AM", true)

	_, err := h.svc.Attach(context.Background(), h.request(appt, words(29)))
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "29")

	p, err := h.svc.Attach(context.Background(), h.request(appt, words(30)))
	require.NoError(t, err)
	assert.Equal(t, appt.ID, p.AppointmentID)
}

func TestAttachCreateOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	appt := h.appointment(t, "09:00 AM", true)

	_, found, err := h.svc.Fetch(ctx, appt.ID)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = h.svc.Attach(ctx, h.request(appt, words(40)))
	require.NoError(t, err)

	_, err = h.svc.Attach(ctx, h.request(appt, words(45)))
	assert.ErrorIs(t, err, ErrPrescriptionExists)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	p, found, err := h.svc.Fetch(ctx, appt.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, words(40), p.Report)
}

func TestAttachPreconditions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	pending := h.appointment(t, "09:00 AM", false)
	_, err := h.svc.Attach(ctx, h.request(pending, words(30)))
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	done := h.appointment(t, "09:30 AM", true)
	req := h.request(done, words(30))
	req.DoctorID = uuid.New()
	_, err = h.svc.Attach(ctx, req)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	req = h.request(done, words(30))
	req.AppointmentID = uuid.New()
	_, err = h.svc.Attach(ctx, req)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	req = h.request(done, words(30))
	req.File = Upload{Name: "notes.txt", ContentType: "text/plain", Content: strings.NewReader("hello")}
	_, err = h.svc.Attach(ctx, req)
	assert.ErrorIs(t, err, blobstore.ErrInvalidContentType)

	_, found, err := h.svc.Fetch(ctx, done.ID)
	require.NoError(t, err)
	assert.False(t, found, "rejected uploads leave no prescription")
}

func TestScenarioAttachAndRead(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	appt := h.appointment(t, "09:00 AM", true)

	attached, err := h.svc.Attach(ctx, h.request(appt, words(40)))
	require.NoError(t, err)
	assert.Equal(t, "image/png", attached.File.ContentType)
	assert.Equal(t, int64(len(pngBytes)), attached.File.Size)
	assert.Len(t, attached.File.Hash, 64)

	got, found, err := h.svc.Fetch(ctx, appt.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, attached.File, got.File)

	rc, meta, err := h.svc.OpenFile(ctx, appt.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
	assert.Equal(t, "rx.png", meta.FileName)

	info, err := h.svc.FileInfo(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, meta.ID, info.ID)
	assert.Equal(t, int64(len(pngBytes)), info.Size)
	assert.Equal(t, "image/png", info.ContentType)

	pdf, err := h.svc.RenderPDF(ctx, appt.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, "meera@mail.example", h.notifier.sent[0].To)
	require.Len(t, h.notifier.sent[0].Attachments, 1)
}

func TestOpenFileWithoutPrescription(t *testing.T) {
	h := newHarness(t)
	appt := h.appointment(t, "09:00 AM", true)

	_, _, err := h.svc.OpenFile(context.Background(), appt.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = h.svc.FileInfo(context.Background(), appt.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = h.svc.RenderPDF(context.Background(), appt.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
