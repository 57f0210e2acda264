package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clinicboard/appointment-registry/internal/appointment"
	"github.com/clinicboard/appointment-registry/internal/layout"
	redisclient "github.com/clinicboard/appointment-registry/internal/redis"
)

func listAppointmentsHandler(store appointment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := appointment.Filter{
			Date:       q.Get("date"),
			Status:     appointment.Status(q.Get("status")),
			DoctorName: q.Get("doctorName"),
		}

		appts, err := store.List(r.Context(), f)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := ListAppointmentsResponse{
			Appointments: make([]AppointmentResponse, 0, len(appts)),
		}
		for _, a := range appts {
			resp.Appointments = append(resp.Appointments, toAppointmentResponse(a))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func createAppointmentHandler(store appointment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := store.Create(r.Context(), appointment.CreateParams{
			PatientName: req.PatientName,
			DoctorName:  req.DoctorName,
			Date:        req.Date,
			Time:        req.Time,
			Duration:    req.Duration,
			Status:      appointment.Status(req.Status),
			Mode:        appointment.Mode(req.Mode),
		})
		if err != nil {
			handleStoreError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(*appt))
	}
}

func updateStatusHandler(store appointment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := store.UpdateStatus(r.Context(), id, appointment.Status(req.Status))
		if err != nil {
			handleStoreError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt))
	}
}

func deleteAppointmentHandler(store appointment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		deleted, err := store.Delete(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		if !deleted {
			writeError(w, http.StatusNotFound, "appointment_not_found", "no appointment with id "+id)
			return
		}

		writeJSON(w, http.StatusOK, DeleteAppointmentResponse{Deleted: true})
	}
}

// dayLayoutHandler renders one calendar day: the matching appointments
// plus the column placement computed for each of them.
func dayLayoutHandler(store appointment.Store, cfg layout.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		date := q.Get("date")
		if date == "" {
			writeError(w, http.StatusBadRequest, "missing_date", "date query parameter is required")
			return
		}
		if _, err := time.Parse(appointment.DateLayout, date); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		appts, err := store.List(r.Context(), appointment.Filter{
			Date:       date,
			DoctorName: q.Get("doctorName"),
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		positions := layout.Compute(appts, cfg)

		resp := DayLayoutResponse{
			Date:    date,
			Entries: make([]DayLayoutEntry, 0, len(appts)),
		}
		for i, a := range appts {
			resp.Entries = append(resp.Entries, DayLayoutEntry{
				Appointment: toAppointmentResponse(a),
				Position:    toPositionResponse(positions[i]),
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func handleStoreError(w http.ResponseWriter, err error) {
	var vErr *appointment.ValidationError
	var cErr *appointment.ConflictError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, "validation_failed", vErr.Error())
	case errors.As(err, &cErr):
		writeError(w, http.StatusConflict, "schedule_conflict", cErr.Error())
	case errors.Is(err, appointment.ErrNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "schedule_busy", "schedule is currently being updated, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
