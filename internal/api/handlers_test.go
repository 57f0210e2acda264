package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clinicboard/appointment-registry/internal/api"
	"github.com/clinicboard/appointment-registry/internal/appointment"
	"github.com/clinicboard/appointment-registry/internal/layout"
	redisclient "github.com/clinicboard/appointment-registry/internal/redis"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	router := api.NewRouter(api.RouterConfig{
		Store: appointment.NewMemoryStore(),
		Layout: layout.Config{
			ScopeStartMinutes: 8 * 60,
			SlotMinutes:       30,
			SlotHeight:        40,
			GapPercent:        1.5,
			MinWidthPercent:   12,
		},
		Env:     "test",
		Version: "test",
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func validBody() map[string]any {
	return map[string]any{
		"patientName": "Test Patient",
		"doctorName":  "Dr. A",
		"date":        "2024-12-25",
		"time":        "09:00",
		"duration":    30,
		"mode":        "In-Person",
	}
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func createOne(t *testing.T, srv *httptest.Server, body map[string]any) api.AppointmentResponse {
	t.Helper()
	resp := postJSON(t, srv.URL+"/appointments", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	return decode[api.AppointmentResponse](t, resp)
}

func TestCreateAppointment(t *testing.T) {
	srv := newTestServer(t)

	created := createOne(t, srv, validBody())

	if created.ID == "" {
		t.Fatal("expected assigned id")
	}
	if created.Status != "Scheduled" {
		t.Fatalf("expected defaulted status Scheduled, got %s", created.Status)
	}
}

func TestCreateRejectsBadPayload(t *testing.T) {
	srv := newTestServer(t)

	body := validBody()
	body["duration"] = -5

	resp := postJSON(t, srv.URL+"/appointments", body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	errResp := decode[api.ErrorResponse](t, resp)
	if errResp.Error != "validation_failed" {
		t.Fatalf("expected validation_failed, got %s", errResp.Error)
	}
}

func TestCreateRejectsMalformedJSON(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/appointments", "application/json", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateConflictMapsTo409(t *testing.T) {
	srv := newTestServer(t)
	createOne(t, srv, validBody())

	body := validBody()
	body["time"] = "09:15"

	resp := postJSON(t, srv.URL+"/appointments", body)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	errResp := decode[api.ErrorResponse](t, resp)
	if errResp.Error != "schedule_conflict" {
		t.Fatalf("expected schedule_conflict, got %s", errResp.Error)
	}
}

// failingStore returns a fixed error from Create; the other operations
// are never reached in the tests that use it.
type failingStore struct {
	appointment.Store
	createErr error
}

func (s failingStore) Create(ctx context.Context, p appointment.CreateParams) (*appointment.Appointment, error) {
	return nil, s.createErr
}

func TestCreateLockContentionMapsTo409(t *testing.T) {
	router := api.NewRouter(api.RouterConfig{
		Store:   failingStore{createErr: redisclient.ErrLockNotAcquired},
		Env:     "test",
		Version: "test",
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	resp := postJSON(t, srv.URL+"/appointments", validBody())
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	errResp := decode[api.ErrorResponse](t, resp)
	if errResp.Error != "schedule_busy" {
		t.Fatalf("expected schedule_busy, got %s", errResp.Error)
	}
}

func TestBackToBackAccepted(t *testing.T) {
	srv := newTestServer(t)
	createOne(t, srv, validBody())

	body := validBody()
	body["time"] = "09:30"
	createOne(t, srv, body)
}

func TestListWithFilters(t *testing.T) {
	srv := newTestServer(t)
	createOne(t, srv, validBody())

	other := validBody()
	other["doctorName"] = "Dr. B"
	other["status"] = "Confirmed"
	createOne(t, srv, other)

	resp, err := http.Get(srv.URL + "/appointments?doctorName=Dr.+B&status=Confirmed")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	list := decode[api.ListAppointmentsResponse](t, resp)
	if len(list.Appointments) != 1 || list.Appointments[0].DoctorName != "Dr. B" {
		t.Fatalf("unexpected filter result: %+v", list.Appointments)
	}

	resp, err = http.Get(srv.URL + "/appointments")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	all := decode[api.ListAppointmentsResponse](t, resp)
	if len(all.Appointments) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(all.Appointments))
	}
}

func TestUpdateStatus(t *testing.T) {
	srv := newTestServer(t)
	created := createOne(t, srv, validBody())

	url := fmt.Sprintf("%s/appointments/%s/status", srv.URL, created.ID)
	resp := postJSON(t, url, api.UpdateStatusRequest{Status: "Confirmed"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	updated := decode[api.AppointmentResponse](t, resp)
	if updated.Status != "Confirmed" {
		t.Fatalf("expected Confirmed, got %s", updated.Status)
	}
}

func TestUpdateStatusUnknownID(t *testing.T) {
	srv := newTestServer(t)

	url := srv.URL + "/appointments/does-not-exist/status"
	resp := postJSON(t, url, api.UpdateStatusRequest{Status: "Confirmed"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestUpdateStatusInvalidValue(t *testing.T) {
	srv := newTestServer(t)
	created := createOne(t, srv, validBody())

	url := fmt.Sprintf("%s/appointments/%s/status", srv.URL, created.ID)
	resp := postJSON(t, url, api.UpdateStatusRequest{Status: "Eaten"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDeleteAppointment(t *testing.T) {
	srv := newTestServer(t)
	created := createOne(t, srv, validBody())

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/appointments/"+created.ID, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	out := decode[api.DeleteAppointmentResponse](t, resp)
	if !out.Deleted {
		t.Fatal("expected deleted=true")
	}

	// Second delete of the same id: not found, not a crash.
	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/appointments/"+created.ID, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete again: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDayLayout(t *testing.T) {
	srv := newTestServer(t)

	createOne(t, srv, validBody()) // Dr. A 09:00-09:30

	overlapping := validBody()
	overlapping["doctorName"] = "Dr. B"
	overlapping["time"] = "09:15"
	createOne(t, srv, overlapping)

	resp, err := http.Get(srv.URL + "/calendar/day?date=2024-12-25")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	day := decode[api.DayLayoutResponse](t, resp)

	if len(day.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(day.Entries))
	}
	first, second := day.Entries[0].Position, day.Entries[1].Position
	if first.Column == second.Column {
		t.Fatalf("overlapping appointments share column %d", first.Column)
	}
	if first.Columns != 2 || second.Columns != 2 {
		t.Fatalf("expected two columns each, got %d and %d", first.Columns, second.Columns)
	}
	if day.Entries[0].Appointment.Time != "09:00" {
		t.Fatalf("entries out of insertion order: %+v", day.Entries[0].Appointment)
	}
}

func TestDayLayoutRequiresDate(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/calendar/day")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/calendar/day?date=yesterday")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHealthLiveWithoutBackends(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health/live")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/health/ready")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
