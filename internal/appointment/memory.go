package appointment

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is the canonical in-process Store. All mutations hold the
// write lock for their full read-modify-write span, so two concurrent
// creates for the same doctor/date can never both pass the conflict
// check. Reads take the read lock only long enough to copy a snapshot.
type MemoryStore struct {
	mu    sync.RWMutex
	appts []Appointment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) List(ctx context.Context, f Filter) ([]Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Appointment, 0, len(s.appts))
	for _, a := range s.appts {
		if f.matches(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *MemoryStore) Create(ctx context.Context, p CreateParams) (*Appointment, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	a := Appointment{
		ID:          newID(),
		PatientName: p.PatientName,
		DoctorName:  p.DoctorName,
		Date:        p.Date,
		Time:        p.Time,
		Duration:    p.Duration,
		Status:      p.statusOrDefault(),
		Mode:        p.Mode,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The conflict invariant binds pairs where neither side is
	// cancelled, so a record arriving already cancelled checks nothing.
	if a.Status != StatusCancelled {
		newStart, newEnd := a.StartMinutes(), a.EndMinutes()
		for _, existing := range s.appts {
			if existing.DoctorName != a.DoctorName || existing.Date != a.Date {
				continue
			}
			if existing.Status == StatusCancelled {
				continue
			}
			if Overlaps(newStart, newEnd, existing.StartMinutes(), existing.EndMinutes()) {
				return nil, conflictWith(a.DoctorName, a.Date, existing)
			}
		}
	}

	s.appts = append(s.appts, a)

	out := a
	return &out, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error) {
	if !status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: "must be one of Scheduled, Confirmed, Upcoming, Cancelled"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.appts {
		if s.appts[i].ID == id {
			s.appts[i].Status = status
			out := s.appts[i]
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.appts {
		if s.appts[i].ID == id {
			s.appts = append(s.appts[:i], s.appts[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// newID returns an identifier unique for the lifetime of any store. The
// apt- prefix keeps ids recognizable in logs; the UUID makes collisions
// negligible without a lookup.
func newID() string {
	return "apt-" + uuid.NewString()
}
