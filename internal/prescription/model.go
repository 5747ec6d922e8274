package prescription

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// MinReportWords is the shortest report a doctor may submit.
const MinReportWords = 30

type File struct {
	BlobID      uuid.UUID
	Name        string
	ContentType string
	Size        int64
	Hash        string
}

type Prescription struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	DoctorID      uuid.UUID
	PatientID     uuid.UUID
	Report        string
	File          File
	CreatedAt     time.Time
}

type Upload struct {
	Name        string
	ContentType string
	Content     io.Reader
}

type AttachRequest struct {
	AppointmentID uuid.UUID
	DoctorID      uuid.UUID
	Report        string
	File          Upload
}
