package directory

import (
	"time"

	"github.com/google/uuid"
)

type Doctor struct {
	ID         uuid.UUID
	Name       string
	Email      string
	Speciality string
	Fee        int64
	Available  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type NewDoctor struct {
	Name       string
	Email      string
	Speciality string
	Fee        int64
	// Available defaults to true when nil.
	Available *bool
}

type NewPatient struct {
	Name  string
	Email string
}
