package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-gomail/gomail"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func TestSMTPNotifierBuildsMessage(t *testing.T) {
	sender := &fakeSender{}
	n := NewSMTPNotifierWithSender(sender, "clinic@telehealth.example")

	msg := PrescriptionReady(Appointment{
		PatientName: "Meera",
		PatientMail: "meera@mail.example",
		DoctorName:  "Dr. Rao",
		Date:        "5_3_2025",
	}, []byte("%PDF-1.3"))
	require.NoError(t, n.Notify(context.Background(), msg))

	require.Len(t, sender.sent, 1)
	m := sender.sent[0]
	assert.Equal(t, []string{"clinic@telehealth.example"}, m.GetHeader("From"))
	assert.Equal(t, []string{"meera@mail.example"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Prescription e-mail"}, m.GetHeader("Subject"))

	var raw bytes.Buffer
	_, err := m.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "5/3/2025")
	assert.Contains(t, raw.String(), "prescription.pdf")
}

func TestSMTPNotifierErrors(t *testing.T) {
	n := NewSMTPNotifierWithSender(&fakeSender{err: errors.New("connection refused")}, "x@y.example")

	err := n.Notify(context.Background(), Message{To: "a@b.example", Subject: "hi"})
	assert.ErrorContains(t, err, "connection refused")

	err = n.Notify(context.Background(), Message{Subject: "hi"})
	assert.ErrorContains(t, err, "empty recipient")
}

// stallingSender blocks like an SMTP server that accepted the connection
// and then stopped answering.
type stallingSender struct {
	release chan struct{}
}

func (s stallingSender) DialAndSend(...*gomail.Message) error {
	<-s.release
	return nil
}

func TestSMTPNotifierStalledServer(t *testing.T) {
	sender := stallingSender{release: make(chan struct{})}
	t.Cleanup(func() { close(sender.release) })
	msg := Message{To: "a@b.example", Subject: "Appointment booked"}

	n := NewSMTPNotifierWithSender(sender, "x@y.example").WithSendTimeout(50 * time.Millisecond)
	start := time.Now()
	err := n.Notify(context.Background(), msg)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)

	// The caller's deadline wins when it is shorter.
	n = NewSMTPNotifierWithSender(sender, "x@y.example")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start = time.Now()
	err = n.Notify(ctx, msg)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestTemplates(t *testing.T) {
	a := Appointment{
		PatientName: "Meera",
		PatientMail: "meera@mail.example",
		DoctorName:  "Dr. Rao",
		Date:        "5_3_2025",
		Time:        "09:00 AM",
		Mode:        "online",
	}

	booked := BookingConfirmed(a)
	assert.Equal(t, "meera@mail.example", booked.To)
	assert.Contains(t, booked.Body, "online appointment with Dr. Rao is booked for 5/3/2025 at 09:00 AM")

	cancelled := AppointmentCancelled(a)
	assert.Contains(t, cancelled.Body, "has been cancelled")

	assert.Empty(t, PrescriptionReady(a, nil).Attachments)
}

func TestLogNotifierNeverFails(t *testing.T) {
	assert.NoError(t, NewLogNotifier(zerolog.Nop()).Notify(context.Background(), Message{To: "a@b.example"}))
}
