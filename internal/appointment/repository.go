package appointment

import (
	"context"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/civil"
)

var (
	ErrAppointmentNotFound = apperr.New(apperr.NotFound, "appointment_not_found", "appointment not found")
	ErrUnknownReference    = apperr.New(apperr.Validation, "unknown_reference", "patient, doctor or package does not exist")
	ErrConcurrentUpdate    = apperr.New(apperr.Conflict, "concurrent_update", "appointment was changed by another request, reload and retry")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// Update writes every mutable column of a, provided the stored status
	// still equals expected. Otherwise it fails with ErrConcurrentUpdate.
	Update(ctx context.Context, a *Appointment, expected StatusPair) (*Appointment, error)

	List(ctx context.Context, f ListFilter) ([]Appointment, int, error)
	ListByDoctorOnDate(ctx context.Context, doctorID uuid.UUID, date civil.Date) ([]Appointment, error)
	CountByStatus(ctx context.Context) (StatusCounts, error)

	// Event log (outbox)
	InsertEvent(ctx context.Context, ev EventLog) error
	PublishPending(ctx context.Context, limit int, publish func(ev EventLog) error) (int, error)
}
