package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/civil"
)

func TestCreateAppointment_SendsTokenAndBody(t *testing.T) {
	var gotAuth string
	var gotReq appointment.CreateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/appointments" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(appointment.Appointment{
			ID:                uuid.New(),
			PatientID:         gotReq.PatientID,
			Date:              gotReq.Date,
			Time:              *gotReq.Time,
			OperationalStatus: appointment.OperationalScheduled,
		})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", WithToken("abc"))
	start := civil.MustTime("09:30")
	req := appointment.CreateRequest{
		PatientID: uuid.New(),
		DoctorID:  uuid.New(),
		Date:      civil.Date{Year: 2026, Month: time.March, Day: 9},
		Time:      &start,
		Reason:    "retorno",
	}

	a, err := c.CreateAppointment(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateAppointment() error = %v", err)
	}
	if gotAuth != "Bearer abc" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.PatientID != req.PatientID || a.Time != start {
		t.Errorf("round trip mismatch: req %+v, appt %+v", gotReq, a)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind apperr.Kind
		wantCode string
		wantMsg  string
	}{
		{
			name:     "conflict keeps server code",
			status:   http.StatusConflict,
			body:     `{"error":"slot_conflict","details":"time slot is already booked"}`,
			wantKind: apperr.Request,
			wantCode: "slot_conflict",
			wantMsg:  "time slot is already booked",
		},
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     `{"error":"unauthorized"}`,
			wantKind: apperr.Auth,
			wantCode: "unauthorized",
		},
		{
			name:     "non json body",
			status:   http.StatusBadGateway,
			body:     "upstream unavailable",
			wantKind: apperr.Request,
			wantCode: "request_failed",
			wantMsg:  "upstream unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).GetAppointment(context.Background(), uuid.New())
			if err == nil {
				t.Fatal("expected error")
			}
			if apperr.KindOf(err) != tt.wantKind {
				t.Errorf("kind = %v, want %v", apperr.KindOf(err), tt.wantKind)
			}
			if apperr.CodeOf(err) != tt.wantCode {
				t.Errorf("code = %q, want %q", apperr.CodeOf(err), tt.wantCode)
			}
			if tt.wantMsg != "" && apperr.MessageOf(err) != tt.wantMsg {
				t.Errorf("message = %q, want %q", apperr.MessageOf(err), tt.wantMsg)
			}
		})
	}
}

func TestConflictMatchesServerSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"slot_conflict","details":"taken"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).ConfirmAppointment(context.Background(), uuid.New())
	if !errors.Is(err, availability.ErrSlotConflict) {
		t.Errorf("expected errors.Is slot conflict, got %v", err)
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url).CountByStatus(context.Background())
	if apperr.KindOf(err) != apperr.Request {
		t.Fatalf("kind = %v, want request (err %v)", apperr.KindOf(err), err)
	}
	if !errors.Is(err, apperr.ErrRequestFailed) {
		t.Errorf("expected ErrRequestFailed, got %v", err)
	}
}

func TestAvailableSlots_Query(t *testing.T) {
	doctorID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/appointments/available-slots" || q.Get("doctorId") != doctorID.String() || q.Get("date") != "2026-03-09" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{"doctorId":"` + doctorID.String() + `","date":"2026-03-09","slots":["08:00","08:30"]}`))
	}))
	defer srv.Close()

	slots, err := New(srv.URL).AvailableSlots(context.Background(), doctorID, civil.Date{Year: 2026, Month: time.March, Day: 9})
	if err != nil {
		t.Fatalf("AvailableSlots() error = %v", err)
	}
	if len(slots) != 2 || slots[1] != civil.MustTime("08:30") {
		t.Errorf("slots = %v", slots)
	}
}

func TestListAppointments_Query(t *testing.T) {
	doctorID := uuid.New()
	start := civil.Date{Year: 2026, Month: time.March, Day: 1}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("doctorId") != doctorID.String() || q.Get("startDate") != "2026-03-01" || q.Get("status") != "pago" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if q.Has("patientId") {
			t.Error("patientId should be omitted")
		}
		_, _ = w.Write([]byte(`{"data":[],"total":0,"page":2,"limit":20,"hasMore":false}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL).ListAppointments(context.Background(), appointment.ListFilter{
		Page:      2,
		Status:    "pago",
		DoctorID:  &doctorID,
		StartDate: &start,
	})
	if err != nil {
		t.Fatalf("ListAppointments() error = %v", err)
	}
	if res.Page != 2 || res.HasMore {
		t.Errorf("result = %+v", res)
	}
}

func TestIsAuth(t *testing.T) {
	if !IsAuth(ErrAuth) || !IsAuth(apperr.ErrUnauthorized) {
		t.Error("auth errors not detected")
	}
	if IsAuth(apperr.ErrRequestFailed) {
		t.Error("request error reported as auth")
	}
}
