package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

type Status string

const (
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusActive    Status = "active"
	StatusUpcoming  Status = "upcoming"
)

type Appointment struct {
	ID             uuid.UUID
	DoctorID       uuid.UUID
	PatientID      uuid.UUID
	Date           string // day_month_year label
	Time           string // 12-hour label
	ScheduledAt    time.Time
	Amount         int64
	Payment        bool
	Cancelled      bool
	IsCompleted    bool
	VideoCallLink  *string
	Mode           Mode
	IdempotencyKey *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewAppointment is what the ledger hands the repository on create. Labels
// are canonical and ScheduledAt is already resolved.
type NewAppointment struct {
	DoctorID       uuid.UUID
	PatientID      uuid.UUID
	Date           string
	Time           string
	ScheduledAt    time.Time
	Amount         int64
	Mode           Mode
	IdempotencyKey *string
}

// Cursor is a keyset position in (created_at DESC, id DESC) order.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

type ListFilter struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	After     *Cursor
	Limit     int
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
