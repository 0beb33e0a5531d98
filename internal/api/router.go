package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/auth"
	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/civil"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/therapy"
)

type AppointmentService interface {
	Create(ctx context.Context, req appointment.CreateRequest) (*appointment.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	List(ctx context.Context, f appointment.ListFilter) (*appointment.ListResult, error)
	CountByStatus(ctx context.Context) (appointment.StatusCounts, error)
	AvailableSlots(ctx context.Context, doctorID uuid.UUID, date civil.Date) ([]civil.TimeOfDay, error)
	Update(ctx context.Context, id uuid.UUID, req appointment.UpdateRequest) (*appointment.Appointment, error)
	Confirm(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID, req appointment.CancelRequest) (*appointment.Appointment, error)
	Complete(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	MarkNoShow(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	Reschedule(ctx context.Context, id uuid.UUID, req appointment.RescheduleRequest) (*appointment.Appointment, error)
}

type ClinicService interface {
	CreateDoctor(ctx context.Context, req clinic.DoctorRequest) (*clinic.Doctor, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*clinic.Doctor, error)
	ListDoctors(ctx context.Context, activeOnly bool) ([]clinic.Doctor, error)
	UpdateDoctor(ctx context.Context, id uuid.UUID, req clinic.DoctorRequest) (*clinic.Doctor, error)
	CreatePatient(ctx context.Context, req clinic.PatientRequest) (*clinic.Patient, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*clinic.Patient, error)
	ListPatients(ctx context.Context, f clinic.PatientFilter) ([]clinic.Patient, int, error)
	UpdatePatient(ctx context.Context, id uuid.UUID, req clinic.PatientRequest) (*clinic.Patient, error)
}

type PackageService interface {
	CreatePackage(ctx context.Context, req therapy.CreatePackageRequest) (*therapy.Package, error)
	GetPackage(ctx context.Context, id uuid.UUID) (*therapy.Package, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]therapy.Package, error)
	AddPayment(ctx context.Context, req therapy.AddPaymentRequest) (*therapy.Package, error)
	ListPayments(ctx context.Context, packageID uuid.UUID) ([]therapy.Payment, error)
}

type RouterConfig struct {
	Appointments AppointmentService
	Clinic       ClinicService
	Packages     PackageService
	Logger       zerolog.Logger
	JWTSecret    string
	Location     *time.Location
	StatusConfig calendar.StatusConfig
	Checks       []Check
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.StatusConfig == nil {
		cfg.StatusConfig = calendar.DefaultStatusConfig()
	}
	log := cfg.Logger

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(log))
	r.Use(RecoveryMiddleware(log))

	health := NewHealthHandler(cfg.Env, cfg.Version, cfg.Checks...)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware([]byte(cfg.JWTSecret)))

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", createAppointmentHandler(cfg.Appointments, log))
			r.Get("/", listAppointmentsHandler(cfg.Appointments, log))
			r.Get("/available-slots", availableSlotsHandler(cfg.Appointments, log))
			r.Get("/count-by-status", countByStatusHandler(cfg.Appointments, log))
			r.Get("/{id}", getAppointmentHandler(cfg.Appointments, log))
			r.Put("/{id}", updateAppointmentHandler(cfg.Appointments, log))
			r.Patch("/{id}/confirm", confirmAppointmentHandler(cfg.Appointments, log))
			r.Patch("/{id}/complete", completeAppointmentHandler(cfg.Appointments, log))
			r.Patch("/{id}/no-show", noShowAppointmentHandler(cfg.Appointments, log))
			r.Patch("/{id}/cancel", cancelAppointmentHandler(cfg.Appointments, log))
			r.Patch("/{id}/reschedule", rescheduleAppointmentHandler(cfg.Appointments, log))
		})

		r.Get("/calendar/events", calendarEventsHandler(cfg.Appointments, cfg.StatusConfig, cfg.Location, log))

		r.Route("/patients", func(r chi.Router) {
			r.Get("/", listPatientsHandler(cfg.Clinic, log))
			r.Post("/add", createPatientHandler(cfg.Clinic, log))
			r.Get("/{id}", getPatientHandler(cfg.Clinic, log))
			r.Put("/{id}", updatePatientHandler(cfg.Clinic, log))
		})

		r.Route("/doctors", func(r chi.Router) {
			r.Get("/", listDoctorsHandler(cfg.Clinic, log))
			r.Post("/", createDoctorHandler(cfg.Clinic, log))
			r.Get("/{id}", getDoctorHandler(cfg.Clinic, log))
			r.Put("/{id}", updateDoctorHandler(cfg.Clinic, log))
		})

		r.Route("/packages", func(r chi.Router) {
			r.Post("/", createPackageHandler(cfg.Packages, log))
			r.Get("/", listPackagesHandler(cfg.Packages, log))
			r.Get("/{id}", getPackageHandler(cfg.Packages, log))
		})

		r.Post("/payments", addPaymentHandler(cfg.Packages, log))
		r.Get("/payments", listPaymentsHandler(cfg.Packages, log))
	})

	return r
}
