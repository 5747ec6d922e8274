package notify

import (
	"fmt"
	"strings"
)

// Appointment carries what the message templates print.
type Appointment struct {
	PatientName string
	PatientMail string
	DoctorName  string
	Date        string
	Time        string
	Mode        string
}

func BookingConfirmed(a Appointment) Message {
	return Message{
		To:      a.PatientMail,
		Subject: "Appointment confirmed",
		Body: fmt.Sprintf("Hi %s,\n\nYour %s appointment with %s is booked for %s at %s.\n",
			a.PatientName, a.Mode, a.DoctorName, humanDate(a.Date), a.Time),
	}
}

func AppointmentCancelled(a Appointment) Message {
	return Message{
		To:      a.PatientMail,
		Subject: "Appointment cancelled",
		Body: fmt.Sprintf("Hi %s,\n\nYour appointment with %s on %s at %s has been cancelled.\n",
			a.PatientName, a.DoctorName, humanDate(a.Date), a.Time),
	}
}

func PrescriptionReady(a Appointment, pdf []byte) Message {
	msg := Message{
		To:      a.PatientMail,
		Subject: "Prescription e-mail",
		Body: fmt.Sprintf("Hi %s,\n\n%s has added a prescription for your appointment on %s.\n",
			a.PatientName, a.DoctorName, humanDate(a.Date)),
	}
	if len(pdf) > 0 {
		msg.Attachments = []Attachment{{Name: "prescription.pdf", Data: pdf}}
	}
	return msg
}

// humanDate turns 5_3_2025 into 5/3/2025.
func humanDate(label string) string {
	return strings.ReplaceAll(label, "_", "/")
}
