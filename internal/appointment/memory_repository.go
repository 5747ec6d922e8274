package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type slotKey struct {
	doctorID uuid.UUID
	date     string
	time     string
}

type idemKey struct {
	patientID uuid.UUID
	key       string
}

// MemoryRepository keeps appointments in process. It backs dev mode and the
// tests; the active-slot guard runs inside one critical section.
type MemoryRepository struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*Appointment
	active  map[slotKey]uuid.UUID
	idem    map[idemKey]uuid.UUID
	events  []EventLog
	lastAt  time.Time
	clockFn func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[uuid.UUID]*Appointment),
		active:  make(map[slotKey]uuid.UUID),
		idem:    make(map[idemKey]uuid.UUID),
		clockFn: time.Now,
	}
}

// now hands out strictly increasing timestamps so keyset paging stays stable.
func (r *MemoryRepository) now() time.Time {
	t := r.clockFn()
	if !t.After(r.lastAt) {
		t = r.lastAt.Add(time.Nanosecond)
	}
	r.lastAt = t
	return t
}

func (r *MemoryRepository) Create(ctx context.Context, in NewAppointment) (*Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	sk := slotKey{in.DoctorID, in.Date, in.Time}
	if _, taken := r.active[sk]; taken {
		return nil, ErrSlotTaken
	}
	if in.IdempotencyKey != nil {
		if _, used := r.idem[idemKey{in.PatientID, *in.IdempotencyKey}]; used {
			return nil, ErrIdempotencyKeyUsed
		}
	}

	now := r.now()
	a := &Appointment{
		ID:          uuid.New(),
		DoctorID:    in.DoctorID,
		PatientID:   in.PatientID,
		Date:        in.Date,
		Time:        in.Time,
		ScheduledAt: in.ScheduledAt,
		Amount:      in.Amount,
		Mode:        in.Mode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.IdempotencyKey != nil {
		key := *in.IdempotencyKey
		a.IdempotencyKey = &key
		r.idem[idemKey{in.PatientID, key}] = a.ID
	}

	r.byID[a.ID] = a
	r.active[sk] = a.ID
	return clone(a), nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return clone(a), nil
}

func (r *MemoryRepository) GetByIdempotencyKey(ctx context.Context, patientID uuid.UUID, key string) (*Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.idem[idemKey{patientID, key}]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return clone(r.byID[id]), nil
}

// update applies fn to a row that passes allow, mirroring the guarded UPDATE
// statements of the Postgres repository.
func (r *MemoryRepository) update(ctx context.Context, id uuid.UUID, allow func(*Appointment) bool, fn func(*Appointment)) (*Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok || !allow(a) {
		return nil, ErrAppointmentNotFound
	}
	fn(a)
	a.UpdatedAt = r.clockFn()
	return clone(a), nil
}

func (r *MemoryRepository) SetCancelled(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return r.update(ctx, id,
		func(a *Appointment) bool { return !a.Cancelled },
		func(a *Appointment) {
			a.Cancelled = true
			delete(r.active, slotKey{a.DoctorID, a.Date, a.Time})
		})
}

func (r *MemoryRepository) SetCompleted(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return r.update(ctx, id,
		func(a *Appointment) bool { return !a.Cancelled },
		func(a *Appointment) { a.IsCompleted = true })
}

func (r *MemoryRepository) SetPaid(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return r.update(ctx, id,
		func(a *Appointment) bool { return !a.Cancelled },
		func(a *Appointment) { a.Payment = true })
}

func (r *MemoryRepository) SetVideoLink(ctx context.Context, id uuid.UUID, url string) (*Appointment, error) {
	return r.update(ctx, id,
		func(a *Appointment) bool { return !a.Cancelled && !a.IsCompleted && a.Mode == ModeOnline },
		func(a *Appointment) { a.VideoCallLink = &url })
}

func (r *MemoryRepository) List(ctx context.Context, f ListFilter) ([]Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Appointment
	for _, a := range r.byID {
		if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
			continue
		}
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.After != nil && !follows(a, *f.After) {
			continue
		}
		out = append(out, *clone(a))
	}

	sort.Slice(out, func(i, j int) bool {
		return follows(&out[j], Cursor{CreatedAt: out[i].CreatedAt, ID: out[i].ID})
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *MemoryRepository) BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var times []string
	for k := range r.active {
		if k.doctorID == doctorID && k.date == date {
			times = append(times, k.time)
		}
	}
	return times, nil
}

func (r *MemoryRepository) CompleteElapsed(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []uuid.UUID
	for _, a := range r.byID {
		if a.Cancelled || a.IsCompleted || !a.ScheduledAt.Before(cutoff) {
			continue
		}
		a.IsCompleted = true
		a.UpdatedAt = r.clockFn()
		ids = append(ids, a.ID)
	}
	return ids, nil
}

func (r *MemoryRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ev.ID = int64(len(r.events) + 1)
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded event log.
func (r *MemoryRepository) Events() []EventLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]EventLog(nil), r.events...)
}

// follows reports whether a sorts after the cursor in (created_at DESC, id DESC) order.
func follows(a *Appointment, c Cursor) bool {
	if a.CreatedAt.Equal(c.CreatedAt) {
		return a.ID.String() < c.ID.String()
	}
	return a.CreatedAt.Before(c.CreatedAt)
}

func clone(a *Appointment) *Appointment {
	c := *a
	if a.VideoCallLink != nil {
		v := *a.VideoCallLink
		c.VideoCallLink = &v
	}
	if a.IdempotencyKey != nil {
		k := *a.IdempotencyKey
		c.IdempotencyKey = &k
	}
	return &c
}
