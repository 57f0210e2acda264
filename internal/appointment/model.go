package appointment

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusConfirmed Status = "Confirmed"
	StatusUpcoming  Status = "Upcoming"
	StatusCancelled Status = "Cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusUpcoming, StatusCancelled:
		return true
	}
	return false
}

type Mode string

const (
	ModeInPerson Mode = "In-Person"
	ModeVirtual  Mode = "Virtual"
	ModePhone    Mode = "Phone"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeInPerson, ModeVirtual, ModePhone:
		return true
	}
	return false
}

// Lexical forms for the Date and Time fields. Both are local wall-clock
// values with no zone attached, so they stay strings end to end.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Appointment is a single scheduled visit. Instances handed out by a Store
// are always independent copies; mutating one never affects stored state.
type Appointment struct {
	ID          string
	PatientName string
	DoctorName  string
	Date        string // YYYY-MM-DD
	Time        string // HH:MM, start of the visit
	Duration    int    // minutes
	Status      Status
	Mode        Mode
}

// StartMinutes returns the start of the visit as minutes from midnight.
// Time is validated on every insertion path, so a stored record cannot
// fail to parse here.
func (a Appointment) StartMinutes() int {
	t, err := time.Parse(TimeLayout, a.Time)
	if err != nil {
		return 0
	}
	return t.Hour()*60 + t.Minute()
}

// EndMinutes returns the exclusive end of the visit in minutes from
// midnight: start + duration.
func (a Appointment) EndMinutes() int {
	return a.StartMinutes() + a.Duration
}

// Overlaps reports whether the half-open minute intervals [aStart, aEnd)
// and [bStart, bEnd) intersect. Touching at a boundary is not an overlap,
// so back-to-back visits are always allowed.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// ClockString renders minutes from midnight as HH:MM.
func ClockString(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
