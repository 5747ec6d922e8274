package appointment

import (
	"time"

	"github.com/hackgods/telehealth-scheduling/internal/slot"
)

const (
	// JoinLead is how early before the start an appointment becomes joinable.
	JoinLead = 15 * time.Minute
	// GracePeriod is how long after the start an appointment stays joinable.
	GracePeriod = 60 * time.Minute
)

// DeriveStatus computes the effective status of a at now. It never mutates a.
// The stored date and time labels are read as wall-clock time in now's
// location, so callers pass now in the clinic time zone.
//
// Cancellation wins over everything, then the stored completion flag. Past
// the grace period an appointment reads as completed even if the sweep has
// not yet persisted it.
func DeriveStatus(a Appointment, now time.Time) Status {
	if a.Cancelled {
		return StatusCancelled
	}
	if a.IsCompleted {
		return StatusCompleted
	}

	at, err := slot.At(a.Date, a.Time, now.Location())
	if err != nil {
		return StatusUpcoming
	}

	delta := at.Sub(now)
	switch {
	case delta < -GracePeriod:
		return StatusCompleted
	case delta <= JoinLead:
		return StatusActive
	default:
		return StatusUpcoming
	}
}
