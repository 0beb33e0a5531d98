// Package apiclient talks to the scheduling REST API on behalf of front-end
// style callers such as the agenda state and the load simulator.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/civil"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/therapy"
)

var ErrAuth = apperr.New(apperr.Auth, "unauthorized", "session expired or invalid credentials")

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.ErrRequestFailed.WithMessage("%s %s: %v", method, path, err).Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrAuth
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.ErrRequestFailed.WithMessage("decode %s %s response: %v", method, path, err).Wrap(err)
	}
	return nil
}

// decodeError reports a non-2xx response as a request error that keeps the
// server's code, so errors.Is still matches the server-side sentinel.
func decodeError(resp *http.Response) error {
	var eb errorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &eb); err != nil || eb.Error == "" {
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = resp.Status
		}
		return apperr.ErrRequestFailed.WithMessage("%s", msg)
	}

	msg := eb.Details
	if msg == "" {
		msg = eb.Error
	}
	return apperr.New(apperr.Request, eb.Error, msg)
}

// Appointments

func (c *Client) CreateAppointment(ctx context.Context, req appointment.CreateRequest) (*appointment.Appointment, error) {
	var a appointment.Appointment
	if err := c.do(ctx, http.MethodPost, "/appointments", nil, req, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) GetAppointment(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	if err := c.do(ctx, http.MethodGet, "/appointments/"+id.String(), nil, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func listQuery(f appointment.ListFilter) url.Values {
	q := url.Values{}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.DoctorID != nil {
		q.Set("doctorId", f.DoctorID.String())
	}
	if f.PatientID != nil {
		q.Set("patientId", f.PatientID.String())
	}
	if f.SessionType != "" {
		q.Set("sessionType", string(f.SessionType))
	}
	if f.StartDate != nil {
		q.Set("startDate", f.StartDate.String())
	}
	if f.EndDate != nil {
		q.Set("endDate", f.EndDate.String())
	}
	return q
}

func (c *Client) ListAppointments(ctx context.Context, f appointment.ListFilter) (*appointment.ListResult, error) {
	var res appointment.ListResult
	if err := c.do(ctx, http.MethodGet, "/appointments", listQuery(f), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) UpdateAppointment(ctx context.Context, id uuid.UUID, req appointment.UpdateRequest) (*appointment.Appointment, error) {
	var a appointment.Appointment
	if err := c.do(ctx, http.MethodPut, "/appointments/"+id.String(), nil, req, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) patch(ctx context.Context, id uuid.UUID, action string, in any) (*appointment.Appointment, error) {
	var a appointment.Appointment
	if err := c.do(ctx, http.MethodPatch, "/appointments/"+id.String()+"/"+action, nil, in, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) ConfirmAppointment(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	return c.patch(ctx, id, "confirm", nil)
}

func (c *Client) CompleteAppointment(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	return c.patch(ctx, id, "complete", nil)
}

func (c *Client) MarkNoShow(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	return c.patch(ctx, id, "no-show", nil)
}

func (c *Client) CancelAppointment(ctx context.Context, id uuid.UUID, req appointment.CancelRequest) (*appointment.Appointment, error) {
	return c.patch(ctx, id, "cancel", req)
}

func (c *Client) RescheduleAppointment(ctx context.Context, id uuid.UUID, req appointment.RescheduleRequest) (*appointment.Appointment, error) {
	return c.patch(ctx, id, "reschedule", req)
}

type slotsResponse struct {
	Slots []civil.TimeOfDay `json:"slots"`
}

func (c *Client) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date civil.Date) ([]civil.TimeOfDay, error) {
	q := url.Values{}
	q.Set("doctorId", doctorID.String())
	q.Set("date", date.String())

	var res slotsResponse
	if err := c.do(ctx, http.MethodGet, "/appointments/available-slots", q, nil, &res); err != nil {
		return nil, err
	}
	if res.Slots == nil {
		res.Slots = []civil.TimeOfDay{}
	}
	return res.Slots, nil
}

func (c *Client) CountByStatus(ctx context.Context) (*appointment.StatusCounts, error) {
	var counts appointment.StatusCounts
	if err := c.do(ctx, http.MethodGet, "/appointments/count-by-status", nil, nil, &counts); err != nil {
		return nil, err
	}
	return &counts, nil
}

func (c *Client) CalendarEvents(ctx context.Context, doctorID *uuid.UUID, start, end civil.Date) ([]calendar.Event, error) {
	q := url.Values{}
	if doctorID != nil {
		q.Set("doctorId", doctorID.String())
	}
	q.Set("startDate", start.String())
	q.Set("endDate", end.String())

	var events []calendar.Event
	if err := c.do(ctx, http.MethodGet, "/calendar/events", q, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Clinic

func (c *Client) ListDoctors(ctx context.Context, activeOnly bool) ([]clinic.Doctor, error) {
	q := url.Values{}
	if activeOnly {
		q.Set("active", "true")
	}
	var ds []clinic.Doctor
	if err := c.do(ctx, http.MethodGet, "/doctors", q, nil, &ds); err != nil {
		return nil, err
	}
	return ds, nil
}

type patientList struct {
	Data  []clinic.Patient `json:"data"`
	Total int              `json:"total"`
}

func (c *Client) ListPatients(ctx context.Context, search string, limit, offset int) ([]clinic.Patient, int, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	var res patientList
	if err := c.do(ctx, http.MethodGet, "/patients", q, nil, &res); err != nil {
		return nil, 0, err
	}
	return res.Data, res.Total, nil
}

// Packages

func (c *Client) CreatePackage(ctx context.Context, req therapy.CreatePackageRequest) (*therapy.Package, error) {
	var p therapy.Package
	if err := c.do(ctx, http.MethodPost, "/packages", nil, req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetPackage(ctx context.Context, id uuid.UUID) (*therapy.Package, error) {
	var p therapy.Package
	if err := c.do(ctx, http.MethodGet, "/packages/"+id.String(), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListPackages(ctx context.Context, patientID uuid.UUID) ([]therapy.Package, error) {
	q := url.Values{}
	q.Set("patientId", patientID.String())
	var ps []therapy.Package
	if err := c.do(ctx, http.MethodGet, "/packages", q, nil, &ps); err != nil {
		return nil, err
	}
	return ps, nil
}

func (c *Client) AddPayment(ctx context.Context, req therapy.AddPaymentRequest) (*therapy.Package, error) {
	var p therapy.Package
	if err := c.do(ctx, http.MethodPost, "/payments", nil, req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// IsAuth reports whether err means the caller must sign in again.
func IsAuth(err error) bool {
	return errors.Is(err, ErrAuth) || apperr.KindOf(err) == apperr.Auth
}
