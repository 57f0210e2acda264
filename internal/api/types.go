package api

import (
	"github.com/clinicboard/appointment-registry/internal/appointment"
	"github.com/clinicboard/appointment-registry/internal/layout"
)

type CreateAppointmentRequest struct {
	PatientName string `json:"patientName"`
	DoctorName  string `json:"doctorName"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Duration    int    `json:"duration"`
	Status      string `json:"status,omitempty"`
	Mode        string `json:"mode"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	ID          string `json:"id"`
	PatientName string `json:"patientName"`
	DoctorName  string `json:"doctorName"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Duration    int    `json:"duration"`
	Status      string `json:"status"`
	Mode        string `json:"mode"`
}

func toAppointmentResponse(a appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		PatientName: a.PatientName,
		DoctorName:  a.DoctorName,
		Date:        a.Date,
		Time:        a.Time,
		Duration:    a.Duration,
		Status:      string(a.Status),
		Mode:        string(a.Mode),
	}
}

type ListAppointmentsResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
}

type DeleteAppointmentResponse struct {
	Deleted bool `json:"deleted"`
}

// PositionResponse is the layout engine's output for one appointment.
type PositionResponse struct {
	Top          int     `json:"top"`
	Height       int     `json:"height"`
	LeftPercent  float64 `json:"leftOffsetPercent"`
	WidthPercent float64 `json:"widthPercent"`
	Column       int     `json:"column"`
	Columns      int     `json:"columns"`
}

func toPositionResponse(p layout.Position) PositionResponse {
	return PositionResponse{
		Top:          p.Top,
		Height:       p.Height,
		LeftPercent:  p.LeftPercent,
		WidthPercent: p.WidthPercent,
		Column:       p.Column,
		Columns:      p.Columns,
	}
}

// DayLayoutEntry pairs an appointment with its computed placement.
type DayLayoutEntry struct {
	Appointment AppointmentResponse `json:"appointment"`
	Position    PositionResponse    `json:"position"`
}

type DayLayoutResponse struct {
	Date    string           `json:"date"`
	Entries []DayLayoutEntry `json:"entries"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
