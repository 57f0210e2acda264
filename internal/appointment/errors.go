package appointment

import (
	"errors"
	"fmt"
)

// ErrNotFound signals that an operation referenced an id the store does
// not hold. It indicates caller state drift, not malformed input.
var ErrNotFound = errors.New("appointment not found")

// ValidationError reports a rejected payload. The store is left unchanged
// whenever one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError reports that a new visit would overlap an existing
// non-cancelled visit for the same doctor on the same date. ExistingStart
// and ExistingEnd are HH:MM clock strings for the colliding interval.
type ConflictError struct {
	DoctorName    string
	Date          string
	ExistingStart string
	ExistingEnd   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"time conflict detected: %s already has an appointment from %s to %s on %s",
		e.DoctorName, e.ExistingStart, e.ExistingEnd, e.Date,
	)
}
