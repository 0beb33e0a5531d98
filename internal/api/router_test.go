package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/auth"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/civil"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/therapy"
)

type fakeAppointments struct {
	appts      map[uuid.UUID]*appointment.Appointment
	lastFilter appointment.ListFilter
	listCalls  int
	pageSize   int
	createErr  error
	slots      []civil.TimeOfDay
}

func newFakeAppointments() *fakeAppointments {
	return &fakeAppointments{appts: make(map[uuid.UUID]*appointment.Appointment)}
}

func (f *fakeAppointments) add(a appointment.Appointment) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.appts[a.ID] = &a
}

func (f *fakeAppointments) Create(_ context.Context, req appointment.CreateRequest) (*appointment.Appointment, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, err := req.Validate(); err != nil {
		return nil, err
	}
	a := &appointment.Appointment{
		ID:                uuid.New(),
		PatientID:         req.PatientID,
		DoctorID:          req.DoctorID,
		Date:              req.Date,
		Time:              *req.Time,
		Duration:          60,
		OperationalStatus: appointment.OperationalScheduled,
		ClinicalStatus:    appointment.ClinicalPending,
	}
	f.appts[a.ID] = a
	return a, nil
}

func (f *fakeAppointments) Get(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	a, ok := f.appts[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return a, nil
}

func (f *fakeAppointments) List(_ context.Context, filter appointment.ListFilter) (*appointment.ListResult, error) {
	f.lastFilter = filter
	f.listCalls++

	var all []appointment.Appointment
	for _, a := range f.appts {
		all = append(all, *a)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Time != all[j].Time {
			return all[i].Time < all[j].Time
		}
		return all[i].ID.String() < all[j].ID.String()
	})

	size := filter.Limit
	if f.pageSize > 0 {
		size = f.pageSize
	}
	if size <= 0 {
		size = len(all)
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start > len(all) {
		start = len(all)
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}

	return &appointment.ListResult{
		Data:    all[start:end],
		Total:   len(all),
		Page:    page,
		Limit:   size,
		HasMore: end < len(all),
	}, nil
}

func (f *fakeAppointments) CountByStatus(context.Context) (appointment.StatusCounts, error) {
	return appointment.StatusCounts{
		Operational: map[appointment.OperationalStatus]int{appointment.OperationalScheduled: len(f.appts)},
		Clinical:    map[appointment.ClinicalStatus]int{appointment.ClinicalPending: len(f.appts)},
		Total:       len(f.appts),
	}, nil
}

func (f *fakeAppointments) AvailableSlots(context.Context, uuid.UUID, civil.Date) ([]civil.TimeOfDay, error) {
	return f.slots, nil
}

func (f *fakeAppointments) Update(ctx context.Context, id uuid.UUID, req appointment.UpdateRequest) (*appointment.Appointment, error) {
	a, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Notes != nil {
		a.Notes = *req.Notes
	}
	return a, nil
}

func (f *fakeAppointments) setOperational(ctx context.Context, id uuid.UUID, s appointment.OperationalStatus) (*appointment.Appointment, error) {
	a, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	a.OperationalStatus = s
	return a, nil
}

func (f *fakeAppointments) Confirm(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	return f.setOperational(ctx, id, appointment.OperationalConfirmed)
}

func (f *fakeAppointments) Cancel(ctx context.Context, id uuid.UUID, req appointment.CancelRequest) (*appointment.Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return f.setOperational(ctx, id, appointment.OperationalCanceled)
}

func (f *fakeAppointments) Complete(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	a, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.IsCanceled() {
		return nil, appointment.ErrInvalidStatusTransition
	}
	a.OperationalStatus = appointment.OperationalPaid
	a.ClinicalStatus = appointment.ClinicalCompleted
	return a, nil
}

func (f *fakeAppointments) MarkNoShow(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	return f.setOperational(ctx, id, appointment.OperationalNoShow)
}

func (f *fakeAppointments) Reschedule(ctx context.Context, id uuid.UUID, req appointment.RescheduleRequest) (*appointment.Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	a, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Date = req.NewDate
	a.Time = *req.NewStartTime
	return a, nil
}

type fakeClinic struct {
	patients   []clinic.Patient
	lastFilter clinic.PatientFilter
}

func (f *fakeClinic) CreateDoctor(_ context.Context, req clinic.DoctorRequest) (*clinic.Doctor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &clinic.Doctor{ID: uuid.New(), FullName: req.FullName, Specialty: req.Specialty, Active: true}, nil
}

func (f *fakeClinic) GetDoctor(context.Context, uuid.UUID) (*clinic.Doctor, error) {
	return nil, clinic.ErrDoctorNotFound
}

func (f *fakeClinic) ListDoctors(context.Context, bool) ([]clinic.Doctor, error) {
	return []clinic.Doctor{}, nil
}

func (f *fakeClinic) UpdateDoctor(context.Context, uuid.UUID, clinic.DoctorRequest) (*clinic.Doctor, error) {
	return nil, clinic.ErrDoctorNotFound
}

func (f *fakeClinic) CreatePatient(_ context.Context, req clinic.PatientRequest) (*clinic.Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p := clinic.Patient{ID: uuid.New(), FullName: req.FullName}
	f.patients = append(f.patients, p)
	return &p, nil
}

func (f *fakeClinic) GetPatient(context.Context, uuid.UUID) (*clinic.Patient, error) {
	return nil, clinic.ErrPatientNotFound
}

func (f *fakeClinic) ListPatients(_ context.Context, filter clinic.PatientFilter) ([]clinic.Patient, int, error) {
	f.lastFilter = filter
	return f.patients, len(f.patients), nil
}

func (f *fakeClinic) UpdatePatient(context.Context, uuid.UUID, clinic.PatientRequest) (*clinic.Patient, error) {
	return nil, clinic.ErrPatientNotFound
}

type fakePackages struct {
	listErr error
}

func (f *fakePackages) CreatePackage(_ context.Context, req therapy.CreatePackageRequest) (*therapy.Package, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &therapy.Package{ID: uuid.New(), PatientID: req.PatientID, TotalSessions: req.TotalSessions}, nil
}

func (f *fakePackages) GetPackage(context.Context, uuid.UUID) (*therapy.Package, error) {
	return nil, therapy.ErrPackageNotFound
}

func (f *fakePackages) ListByPatient(context.Context, uuid.UUID) ([]therapy.Package, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []therapy.Package{}, nil
}

func (f *fakePackages) AddPayment(context.Context, therapy.AddPaymentRequest) (*therapy.Package, error) {
	return nil, therapy.ErrPackageNotFound
}

func (f *fakePackages) ListPayments(context.Context, uuid.UUID) ([]therapy.Payment, error) {
	return []therapy.Payment{}, nil
}

type testServer struct {
	handler  http.Handler
	appts    *fakeAppointments
	clinic   *fakeClinic
	packages *fakePackages
}

func newTestServer(t *testing.T, secret string, checks ...Check) *testServer {
	t.Helper()
	ts := &testServer{
		appts:    newFakeAppointments(),
		clinic:   &fakeClinic{},
		packages: &fakePackages{},
	}
	ts.handler = NewRouter(RouterConfig{
		Appointments: ts.appts,
		Clinic:       ts.clinic,
		Packages:     ts.packages,
		Logger:       zerolog.Nop(),
		JWTSecret:    secret,
		Location:     time.UTC,
		Checks:       checks,
		Env:          "test",
		Version:      "test",
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v (body %q)", err, rec.Body.String())
	}
	return resp
}

func TestCreateAppointment_Created(t *testing.T) {
	ts := newTestServer(t, "")

	body := `{"patientId":"` + uuid.NewString() + `","doctorId":"` + uuid.NewString() +
		`","date":"2026-03-09","time":"09:00","reason":"avaliação inicial","serviceType":"evaluation"}`
	rec := ts.do(t, http.MethodPost, "/appointments", body)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var appt appointment.Appointment
	if err := json.NewDecoder(rec.Body).Decode(&appt); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if appt.Time.String() != "09:00" || appt.OperationalStatus != appointment.OperationalScheduled {
		t.Errorf("appointment = %+v", appt)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestCreateAppointment_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		createErr  error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed json",
			body:       `{"patientId":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request_body",
		},
		{
			name:       "missing field",
			body:       `{"doctorId":"` + uuid.NewString() + `"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "missing_field",
		},
		{
			name:       "slot taken",
			body:       `{}`,
			createErr:  fmt.Errorf("create: %w", availability.ErrSlotConflict),
			wantStatus: http.StatusConflict,
			wantCode:   availability.ErrSlotConflict.Code,
		},
		{
			name:       "internal error is hidden",
			body:       `{}`,
			createErr:  errors.New("connection reset by peer"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, "")
			ts.appts.createErr = tt.createErr

			rec := ts.do(t, http.MethodPost, "/appointments", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			resp := decodeError(t, rec)
			if resp.Error != tt.wantCode {
				t.Errorf("error code = %q, want %q", resp.Error, tt.wantCode)
			}
			if strings.Contains(resp.Details, "connection reset") {
				t.Errorf("internal details leaked: %q", resp.Details)
			}
		})
	}
}

func TestGetAppointment(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.do(t, http.MethodGet, "/appointments/not-a-uuid", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/appointments/"+uuid.NewString(), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d", rec.Code)
	}
}

func TestListAppointments_ParsesFilter(t *testing.T) {
	ts := newTestServer(t, "")
	doctorID := uuid.New()

	rec := ts.do(t, http.MethodGet,
		"/appointments?page=2&limit=5&status=agendado&doctorId="+doctorID.String()+"&startDate=2026-03-01&endDate=2026-03-31&sessionType=psicologia", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	f := ts.appts.lastFilter
	if f.Page != 2 || f.Limit != 5 || f.Status != "agendado" {
		t.Errorf("filter = %+v", f)
	}
	if f.DoctorID == nil || *f.DoctorID != doctorID {
		t.Errorf("doctorId = %v", f.DoctorID)
	}
	if f.StartDate == nil || f.StartDate.String() != "2026-03-01" || f.EndDate == nil {
		t.Errorf("dates = %v / %v", f.StartDate, f.EndDate)
	}
	if f.SessionType != appointment.SessionPsychology {
		t.Errorf("sessionType = %q", f.SessionType)
	}

	for _, q := range []string{"page=x", "doctorId=abc", "startDate=2026-13-45"} {
		rec := ts.do(t, http.MethodGet, "/appointments?"+q, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestAvailableSlots(t *testing.T) {
	ts := newTestServer(t, "")
	ts.appts.slots = []civil.TimeOfDay{civil.MustTime("08:00"), civil.MustTime("08:30")}

	rec := ts.do(t, http.MethodGet, "/appointments/available-slots?doctorId="+uuid.NewString()+"&date=2026-03-09", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp SlotsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Slots) != 2 || resp.Slots[0] != "08:00" || resp.Slots[1] != "08:30" {
		t.Errorf("slots = %v", resp.Slots)
	}

	ts.appts.slots = nil
	rec = ts.do(t, http.MethodGet, "/appointments/available-slots?doctorId="+uuid.NewString()+"&date=2026-03-09", "")
	if !strings.Contains(rec.Body.String(), `"slots":[]`) {
		t.Errorf("empty slots should encode as [], got %s", rec.Body.String())
	}

	rec = ts.do(t, http.MethodGet, "/appointments/available-slots?date=2026-03-09", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing doctorId status = %d", rec.Code)
	}
}

func TestTransitions(t *testing.T) {
	ts := newTestServer(t, "")
	a := appointment.Appointment{
		ID:                uuid.New(),
		OperationalStatus: appointment.OperationalScheduled,
		ClinicalStatus:    appointment.ClinicalPending,
	}
	ts.appts.add(a)
	base := "/appointments/" + a.ID.String()

	rec := ts.do(t, http.MethodPatch, base+"/confirm", "")
	if rec.Code != http.StatusOK || ts.appts.appts[a.ID].OperationalStatus != appointment.OperationalConfirmed {
		t.Fatalf("confirm: status = %d, appt = %+v", rec.Code, ts.appts.appts[a.ID])
	}

	rec = ts.do(t, http.MethodPatch, base+"/cancel", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("cancel without reason: status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPatch, base+"/cancel", `{"reason":"paciente viajou","notifyPatient":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodPatch, base+"/complete", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("complete canceled: status = %d, want 409", rec.Code)
	}

	rec = ts.do(t, http.MethodPatch, base+"/reschedule", `{"newDate":"2026-03-16","newStartTime":"10:00"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("reschedule: status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ts.appts.appts[a.ID].Date.String() != "2026-03-16" {
		t.Errorf("date = %v", ts.appts.appts[a.ID].Date)
	}

	rec = ts.do(t, http.MethodPatch, base+"/no-show", "")
	if rec.Code != http.StatusOK {
		t.Errorf("no-show: status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPut, base, `{"notes":"trazer exames"}`)
	if rec.Code != http.StatusOK || ts.appts.appts[a.ID].Notes != "trazer exames" {
		t.Errorf("update: status = %d, notes = %q", rec.Code, ts.appts.appts[a.ID].Notes)
	}
}

func TestCalendarEvents_PagesThroughList(t *testing.T) {
	ts := newTestServer(t, "")
	ts.appts.pageSize = 2
	date := civil.Date{Year: 2026, Month: time.March, Day: 9}
	for i := 0; i < 5; i++ {
		ts.appts.add(appointment.Appointment{
			Date:              date,
			Time:              civil.MustTime("08:00").Add(i * 60),
			Duration:          60,
			SessionType:       appointment.SessionPsychology,
			OperationalStatus: appointment.OperationalScheduled,
		})
	}

	rec := ts.do(t, http.MethodGet, "/calendar/events?startDate=2026-03-01&endDate=2026-03-31", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var events []calendar.Event
	if err := json.NewDecoder(rec.Body).Decode(&events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 5 {
		t.Errorf("events = %d, want 5", len(events))
	}
	if ts.appts.listCalls != 3 {
		t.Errorf("list calls = %d, want 3", ts.appts.listCalls)
	}
}

func TestPatientsAndDoctors(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.do(t, http.MethodPost, "/patients/add", `{"fullName":"Carla Souza","email":"carla@example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create patient: status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodGet, "/patients?search=carla&limit=10&offset=0", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list patients: status = %d", rec.Code)
	}
	var list PatientListResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Total != 1 || ts.clinic.lastFilter.Search != "carla" || ts.clinic.lastFilter.Limit != 10 {
		t.Errorf("list = %+v, filter = %+v", list, ts.clinic.lastFilter)
	}

	rec = ts.do(t, http.MethodGet, "/patients/"+uuid.NewString(), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get patient: status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/doctors", `{"fullName":"Dra. Ana","specialty":"psicologia"}`)
	if rec.Code != http.StatusCreated {
		t.Errorf("create doctor: status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodGet, "/doctors?active=true", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("list doctors: status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestPackagesAndPayments(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.do(t, http.MethodGet, "/packages", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("list without patientId: status = %d", rec.Code)
	}

	body := `{"patientId":"` + uuid.NewString() + `","professionalId":"` + uuid.NewString() +
		`","sessionType":"fonoaudiologia","totalSessions":10,"totalValue":1500}`
	rec = ts.do(t, http.MethodPost, "/packages", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create package: status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodPost, "/packages", `{"totalSessions":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid package: status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/packages/"+uuid.NewString(), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get package: status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/payments?packageId="+uuid.NewString(), "")
	if rec.Code != http.StatusOK {
		t.Errorf("list payments: status = %d", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	secret := "s3cret"
	ts := newTestServer(t, secret)

	rec := ts.do(t, http.MethodGet, "/appointments", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Error != "unauthorized" {
		t.Errorf("error = %q", resp.Error)
	}

	token, err := auth.IssueToken([]byte(secret), "reception", "staff", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("with token: status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/health/live", "")
	if rec.Code != http.StatusOK {
		t.Errorf("health should not require auth, status = %d", rec.Code)
	}
}

func TestReadiness(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: refused") }

	tests := []struct {
		name       string
		checks     []Check
		wantStatus int
		wantBody   string
	}{
		{"all up", []Check{{"postgres", up, true}, {"redis", up, false}}, http.StatusOK, "ok"},
		{"redis down", []Check{{"postgres", up, true}, {"redis", down, false}}, http.StatusOK, "degraded"},
		{"postgres down", []Check{{"postgres", down, true}, {"redis", up, false}}, http.StatusServiceUnavailable, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, "", tt.checks...)
			rec := ts.do(t, http.MethodGet, "/health/ready", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp ReadinessResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantBody {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantBody)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	if got := statusFor(apperr.KindOf(apperr.ErrUnauthorized)); got != http.StatusUnauthorized {
		t.Errorf("auth -> %d", got)
	}
	if got := statusFor(apperr.Request); got != http.StatusBadGateway {
		t.Errorf("request -> %d", got)
	}
}
