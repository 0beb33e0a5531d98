package clinic

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/availability"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "clinic").Logger(),
	}
}

// WeeklyAvailability implements availability.ScheduleSource. An inactive
// doctor has no bookable hours.
func (s *Service) WeeklyAvailability(ctx context.Context, doctorID uuid.UUID) (availability.WeeklyAvailability, error) {
	d, err := s.repo.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !d.Active {
		return availability.WeeklyAvailability{}, nil
	}
	return d.WeeklyAvailability, nil
}

func (s *Service) CreateDoctor(ctx context.Context, req DoctorRequest) (*Doctor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	d := &Doctor{
		FullName:           req.FullName,
		Specialty:          req.Specialty,
		Email:              req.Email,
		WeeklyAvailability: req.WeeklyAvailability,
		Active:             true,
	}
	if req.Active != nil {
		d.Active = *req.Active
	}
	if err := s.repo.CreateDoctor(ctx, d); err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}

	s.logger.Info().Str("doctor_id", d.ID.String()).Str("specialty", d.Specialty).Msg("doctor created")
	return d, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := s.repo.GetDoctor(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return d, nil
}

func (s *Service) ListDoctors(ctx context.Context, activeOnly bool) ([]Doctor, error) {
	ds, err := s.repo.ListDoctors(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	if ds == nil {
		ds = []Doctor{}
	}
	return ds, nil
}

// UpdateDoctor replaces the doctor's profile. Active is left unchanged when omitted.
func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, req DoctorRequest) (*Doctor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	d, err := s.repo.GetDoctor(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	d.FullName = req.FullName
	d.Specialty = req.Specialty
	d.Email = req.Email
	d.WeeklyAvailability = req.WeeklyAvailability
	if req.Active != nil {
		d.Active = *req.Active
	}
	if err := s.repo.UpdateDoctor(ctx, d); err != nil {
		return nil, fmt.Errorf("update doctor: %w", err)
	}
	return d, nil
}

func (s *Service) CreatePatient(ctx context.Context, req PatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := &Patient{
		FullName:    req.FullName,
		Email:       req.Email,
		Phone:       req.Phone,
		BirthDate:   req.BirthDate,
		Specialties: req.Specialties,
	}
	if err := s.repo.CreatePatient(ctx, p); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}

	s.logger.Info().Str("patient_id", p.ID.String()).Msg("patient created")
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetPatient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

func (s *Service) ListPatients(ctx context.Context, f PatientFilter) ([]Patient, int, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	ps, total, err := s.repo.ListPatients(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	if ps == nil {
		ps = []Patient{}
	}
	return ps, total, nil
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, req PatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.GetPatient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}

	p.FullName = req.FullName
	p.Email = req.Email
	p.Phone = req.Phone
	p.BirthDate = req.BirthDate
	if req.Specialties != nil {
		p.Specialties = req.Specialties
	}
	if err := s.repo.UpdatePatient(ctx, p); err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return p, nil
}
