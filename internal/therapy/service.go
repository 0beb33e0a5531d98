package therapy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/civil"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "therapy").Logger(),
		now:    time.Now,
	}
}

func (s *Service) CreatePackage(ctx context.Context, req CreatePackageRequest) (*Package, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := &Package{
		PatientID:      req.PatientID,
		ProfessionalID: req.ProfessionalID,
		SessionType:    req.SessionType,
		TotalSessions:  req.TotalSessions,
		TotalValue:     req.TotalValue,
		Sessions:       []Session{},
		Payments:       []Payment{},
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create package: %w", err)
	}

	s.logger.Info().
		Str("package_id", p.ID.String()).
		Str("patient_id", p.PatientID.String()).
		Int("total_sessions", p.TotalSessions).
		Msg("therapy package created")
	return p, nil
}

func (s *Service) GetPackage(ctx context.Context, id uuid.UUID) (*Package, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapRepoErr("get package", err)
	}
	return p, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Package, error) {
	if patientID == uuid.Nil {
		return nil, apperr.MissingField("patientId")
	}
	pkgs, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	if pkgs == nil {
		pkgs = []Package{}
	}
	return pkgs, nil
}

// EnsureBookable is the booking guard for new package-session appointments.
func (s *Service) EnsureBookable(ctx context.Context, packageID uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, packageID)
	if err != nil {
		return wrapRepoErr("load package", err)
	}
	return p.EnsureBookable()
}

// ApplyConsumption adjusts the package counters after a package-session
// appointment was completed or canceled. The bool reports whether the
// counters moved, so callers only revert what was actually applied.
func (s *Service) ApplyConsumption(ctx context.Context, packageID, appointmentID uuid.UUID, date civil.Date, outcome Outcome) (*Package, bool, error) {
	now := s.now()
	var changed bool

	updated, err := s.repo.Mutate(ctx, packageID, func(p *Package) error {
		switch outcome {
		case OutcomeCompleted:
			ok, err := p.Consume(appointmentID, date, now)
			changed = ok
			return err
		case OutcomeCanceled:
			changed = p.Restore(appointmentID, now)
			return nil
		default:
			return apperr.InvalidValue("outcome", outcome)
		}
	})
	if err != nil {
		return nil, false, wrapRepoErr("apply package consumption", err)
	}

	s.logger.Info().
		Str("package_id", packageID.String()).
		Str("appointment_id", appointmentID.String()).
		Str("outcome", string(outcome)).
		Bool("changed", changed).
		Int("sessions_done", updated.SessionsDone).
		Int("total_sessions", updated.TotalSessions).
		Msg("package reconciled")
	return updated, changed, nil
}

func (s *Service) AddPayment(ctx context.Context, req AddPaymentRequest) (*Package, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pay := Payment{
		ID:     uuid.New(),
		Amount: req.Amount,
		Method: req.Method,
		PaidAt: s.now(),
		Notes:  req.Notes,
	}
	updated, err := s.repo.Mutate(ctx, req.PackageID, func(p *Package) error {
		p.AddPayment(pay)
		return nil
	})
	if err != nil {
		return nil, wrapRepoErr("add payment", err)
	}

	s.logger.Info().
		Str("package_id", req.PackageID.String()).
		Float64("amount", req.Amount).
		Str("method", string(req.Method)).
		Float64("balance", updated.Balance()).
		Msg("package payment recorded")
	return updated, nil
}

func (s *Service) ListPayments(ctx context.Context, packageID uuid.UUID) ([]Payment, error) {
	p, err := s.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if p.Payments == nil {
		return []Payment{}, nil
	}
	return p.Payments, nil
}

// wrapRepoErr keeps classified errors intact so callers can still match them.
func wrapRepoErr(op string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
