package appointment

import (
	"context"
	"time"
)

// Filter narrows a List call. Zero-value fields are ignored; set fields
// match by exact equality.
type Filter struct {
	Date       string
	Status     Status
	DoctorName string
}

func (f Filter) matches(a Appointment) bool {
	if f.Date != "" && a.Date != f.Date {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.DoctorName != "" && a.DoctorName != f.DoctorName {
		return false
	}
	return true
}

// CreateParams is everything the caller supplies for a new appointment.
// The store assigns the id. Status is optional and defaults to Scheduled.
type CreateParams struct {
	PatientName string
	DoctorName  string
	Date        string
	Time        string
	Duration    int
	Status      Status
	Mode        Mode
}

// Store is the single authority over appointment records. All validation
// and conflict checking lives behind this interface; outer layers must
// not re-implement any of it.
type Store interface {
	// List returns copies of matching records in insertion order.
	List(ctx context.Context, f Filter) ([]Appointment, error)

	// Create validates the payload, rejects doctor/date interval
	// conflicts, assigns an id and returns a copy of the stored record.
	Create(ctx context.Context, p CreateParams) (*Appointment, error)

	// UpdateStatus sets the status unconditionally and returns a copy of
	// the updated record. Safe to retry with the same arguments.
	UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error)

	// Delete removes a record. A missing id reports (false, nil).
	Delete(ctx context.Context, id string) (bool, error)
}

func (p CreateParams) validate() error {
	if p.PatientName == "" {
		return &ValidationError{Field: "patientName", Reason: "required"}
	}
	if p.DoctorName == "" {
		return &ValidationError{Field: "doctorName", Reason: "required"}
	}
	if p.Date == "" {
		return &ValidationError{Field: "date", Reason: "required"}
	}
	if p.Time == "" {
		return &ValidationError{Field: "time", Reason: "required"}
	}
	if p.Mode == "" {
		return &ValidationError{Field: "mode", Reason: "required"}
	}
	if _, err := time.Parse(DateLayout, p.Date); err != nil {
		return &ValidationError{Field: "date", Reason: "expected YYYY-MM-DD"}
	}
	// time.Parse accepts a single-digit hour, so the length check keeps
	// the lexical form strict.
	if len(p.Time) != len(TimeLayout) {
		return &ValidationError{Field: "time", Reason: "expected HH:MM"}
	}
	if _, err := time.Parse(TimeLayout, p.Time); err != nil {
		return &ValidationError{Field: "time", Reason: "expected HH:MM"}
	}
	if p.Duration <= 0 {
		return &ValidationError{Field: "duration", Reason: "must be a positive number of minutes"}
	}
	if !p.Mode.Valid() {
		return &ValidationError{Field: "mode", Reason: "must be one of In-Person, Virtual, Phone"}
	}
	if p.Status != "" && !p.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "must be one of Scheduled, Confirmed, Upcoming, Cancelled"}
	}
	return nil
}

// statusOrDefault resolves the effective status for a new record.
func (p CreateParams) statusOrDefault() Status {
	if p.Status == "" {
		return StatusScheduled
	}
	return p.Status
}

// conflictWith builds the error reported when a new visit collides with
// an existing one.
func conflictWith(doctor, date string, existing Appointment) *ConflictError {
	return &ConflictError{
		DoctorName:    doctor,
		Date:          date,
		ExistingStart: existing.Time,
		ExistingEnd:   ClockString(existing.EndMinutes()),
	}
}
