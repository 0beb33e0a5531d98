package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/civil"
	"github.com/hackgods/clinic-scheduling/internal/config"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
	"github.com/hackgods/clinic-scheduling/internal/therapy"
)

var (
	ErrSlotBeingBooked         = apperr.New(apperr.Conflict, "slot_being_booked", "this doctor's schedule is being changed by another request, please retry")
	ErrInvalidStatusTransition = apperr.New(apperr.Conflict, "invalid_status_transition", "invalid status transition")
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// SlotChecker answers availability questions for a doctor's day.
type SlotChecker interface {
	AvailableSlots(ctx context.Context, doctorID uuid.UUID, date civil.Date) ([]civil.TimeOfDay, error)
	CheckConflict(ctx context.Context, doctorID uuid.UUID, date civil.Date, start civil.TimeOfDay, duration int, exclude uuid.UUID) error
}

// PackageLedger keeps therapy package counters in step with package sessions.
type PackageLedger interface {
	EnsureBookable(ctx context.Context, packageID uuid.UUID) error
	ApplyConsumption(ctx context.Context, packageID, appointmentID uuid.UUID, date civil.Date, outcome therapy.Outcome) (*therapy.Package, bool, error)
}

type Service struct {
	repo     Repository
	slots    SlotChecker
	packages PackageLedger
	locker   redisclient.Locker
	cfg      config.Config
	logger   zerolog.Logger
	now      func() time.Time

	mu        sync.RWMutex
	listeners map[int]Listener
	nextID    int
}

func NewService(repo Repository, slots SlotChecker, packages PackageLedger, locker redisclient.Locker, cfg config.Config, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		slots:     slots,
		packages:  packages,
		locker:    locker,
		cfg:       cfg,
		logger:    logger.With().Str("component", "appointment").Logger(),
		now:       time.Now,
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers l for every successful mutation. The returned func removes it.
func (s *Service) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Service) notify(ctx context.Context, ev Event) {
	s.mu.RLock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.mu.RUnlock()

	for _, l := range ls {
		l.AppointmentChanged(ctx, ev)
	}
}

func lockKey(doctorID uuid.UUID, date civil.Date) string {
	return fmt.Sprintf("doctor:%s:%s", doctorID, date)
}

func (s *Service) withDayLock(ctx context.Context, doctorID uuid.UUID, date civil.Date, fn func(ctx context.Context) error) error {
	err := s.locker.WithLock(ctx, lockKey(doctorID, date), fn)
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return ErrSlotBeingBooked
	}
	return err
}

// Create books a new appointment in the default status pair.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Appointment, error) {
	intent, err := req.Validate()
	if err != nil {
		return nil, err
	}
	if err := CheckNotPast(req.Date, *req.Time, s.cfg.Loc(), s.now()); err != nil {
		return nil, err
	}

	duration := req.Duration
	if duration == 0 {
		duration = s.cfg.DefaultDurationMinutes()
	}
	if err := CheckFitsDay(*req.Time, duration); err != nil {
		return nil, err
	}

	pkg, isPackage := intent.(PackageSession)
	if isPackage {
		if err := s.packages.EnsureBookable(ctx, pkg.PackageID); err != nil {
			return nil, err
		}
	}

	status, err := ResolveStatus(ActionCreate, StatusPair{})
	if err != nil {
		return nil, err
	}

	appt := &Appointment{
		PatientID:     req.PatientID,
		DoctorID:      req.DoctorID,
		SessionType:   req.SessionType,
		ServiceType:   intent.ServiceType(),
		PaymentAmount: req.PaymentAmount,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		Reason:        req.Reason,
	}
	if isPackage {
		id := pkg.PackageID
		appt.PackageID = &id
	}
	appt.setStatus(status)
	appt.setTiming(req.Date, *req.Time, duration)

	err = s.withDayLock(ctx, req.DoctorID, req.Date, func(lockCtx context.Context) error {
		if err := s.slots.CheckConflict(lockCtx, appt.DoctorID, appt.Date, appt.Time, appt.Duration, uuid.Nil); err != nil {
			return err
		}
		if err := s.repo.Create(lockCtx, appt); err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		s.logEvent(lockCtx, EventAppointmentCreated, appt, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", appt.ID.String()).
		Str("doctor_id", appt.DoctorID.String()).
		Str("date", appt.Date.String()).
		Str("time", appt.Time.String()).
		Str("service_type", string(appt.ServiceType)).
		Msg("appointment created")

	s.notify(ctx, Event{
		Type:         EventAppointmentCreated,
		Appointment:  *appt,
		SlotsChanged: changedSlots(nil, appt),
	})
	return appt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// List returns one page of appointments. Page defaults to 1 and limit to 20 (max 100).
func (s *Service) List(ctx context.Context, f ListFilter) (*ListResult, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
	if f.Status != "" && !OperationalStatus(f.Status).Valid() && !ClinicalStatus(f.Status).Valid() {
		return nil, apperr.InvalidValue("status", f.Status)
	}
	if f.SessionType != "" && !f.SessionType.Valid() {
		return nil, apperr.InvalidValue("sessionType", f.SessionType)
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return nil, apperr.InvalidValue("endDate", "before startDate")
	}

	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	if items == nil {
		items = []Appointment{}
	}

	return &ListResult{
		Data:    items,
		Total:   total,
		Page:    f.Page,
		Limit:   f.Limit,
		HasMore: f.Offset()+len(items) < total,
	}, nil
}

func (s *Service) CountByStatus(ctx context.Context) (StatusCounts, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return StatusCounts{}, fmt.Errorf("count appointments by status: %w", err)
	}
	if counts.Operational == nil {
		counts.Operational = make(map[OperationalStatus]int)
	}
	if counts.Clinical == nil {
		counts.Clinical = make(map[ClinicalStatus]int)
	}
	for _, st := range OperationalStatuses {
		if _, ok := counts.Operational[st]; !ok {
			counts.Operational[st] = 0
		}
	}
	return counts, nil
}

func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date civil.Date) ([]civil.TimeOfDay, error) {
	if doctorID == uuid.Nil {
		return nil, apperr.MissingField("doctorId")
	}
	if date.IsZero() {
		return nil, apperr.MissingField("date")
	}
	return s.slots.AvailableSlots(ctx, doctorID, date)
}

// Update applies the non-nil fields of req. Status axes change only when the
// request names them.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	next := *current
	if req.SessionType != nil {
		next.SessionType = *req.SessionType
	}
	if req.PaymentAmount != nil {
		next.PaymentAmount = *req.PaymentAmount
	}
	if req.PaymentMethod != nil {
		next.PaymentMethod = *req.PaymentMethod
	}
	if req.Notes != nil {
		next.Notes = *req.Notes
	}
	if req.Reason != nil {
		next.Reason = *req.Reason
	}

	if req.changesStatus() {
		pair := current.Status()
		if req.OperationalStatus != nil {
			pair.Operational = *req.OperationalStatus
		}
		if req.ClinicalStatus != nil {
			pair.Clinical = *req.ClinicalStatus
		}
		resolved, err := ResolveStatus(ActionUpdate, pair)
		if err != nil {
			return nil, err
		}
		next.setStatus(resolved)

		switch {
		case next.IsCanceled() && !current.IsCanceled():
			now := s.now()
			next.CanceledAt = &now
		case !next.IsCanceled():
			next.CanceledAt = nil
			next.CanceledReason = ""
		}
	}

	if req.changesTiming() {
		if req.DoctorID != nil {
			next.DoctorID = *req.DoctorID
		}
		date, start, duration := next.Date, next.Time, next.Duration
		if req.Date != nil {
			date = *req.Date
		}
		if st := req.start(); st != nil {
			start = *st
		}
		if req.Duration != nil {
			duration = *req.Duration
		}
		if err := CheckFitsDay(start, duration); err != nil {
			return nil, err
		}
		if req.Date != nil || req.start() != nil {
			if err := CheckNotPast(date, start, s.cfg.Loc(), s.now()); err != nil {
				return nil, err
			}
		}
		next.setTiming(date, start, duration)
	}

	// Moving the appointment or bringing it back from a non-blocking status
	// must not land on a slot someone else holds.
	checkSlot := next.BlocksSlot() && (req.changesTiming() || !current.BlocksSlot())

	persist := func(ctx context.Context) error {
		if checkSlot {
			if err := s.slots.CheckConflict(ctx, next.DoctorID, next.Date, next.Time, next.Duration, next.ID); err != nil {
				return err
			}
		}
		updated, err := s.repo.Update(ctx, &next, current.Status())
		if err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}
		next = *updated
		s.logEvent(ctx, EventAppointmentUpdated, &next, map[string]any{"previousStatus": current.Status()})
		return nil
	}

	if checkSlot {
		err = s.withDayLock(ctx, next.DoctorID, next.Date, persist)
	} else {
		err = persist(ctx)
	}
	if err != nil {
		return nil, err
	}

	ev := Event{Type: EventAppointmentUpdated, Appointment: next, Previous: current}
	if req.changesTiming() || current.BlocksSlot() != next.BlocksSlot() {
		ev.SlotsChanged = changedSlots(current, &next)
	}
	s.notify(ctx, ev)
	return &next, nil
}

// Confirm moves an agendado appointment to confirmado. Confirming twice is a no-op.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	switch current.OperationalStatus {
	case OperationalConfirmed:
		return current, nil
	case OperationalScheduled:
	default:
		return nil, ErrInvalidStatusTransition.WithMessage("cannot confirm an appointment that is %s", current.OperationalStatus)
	}

	next := *current
	next.OperationalStatus = OperationalConfirmed

	updated, err := s.repo.Update(ctx, &next, current.Status())
	if err != nil {
		return nil, fmt.Errorf("confirm appointment: %w", err)
	}
	s.logEvent(ctx, EventAppointmentConfirmed, updated, nil)

	s.notify(ctx, Event{Type: EventAppointmentConfirmed, Appointment: *updated, Previous: current})
	return updated, nil
}

// Cancel frees the slot and, for a package session that was already
// completed, returns the session to the package. Canceling twice is a no-op.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, req CancelRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if current.IsCanceled() {
		return current, nil
	}

	status, err := ResolveStatus(ActionCancel, current.Status())
	if err != nil {
		return nil, err
	}

	now := s.now()
	next := *current
	next.setStatus(status)
	next.CanceledReason = req.Reason
	next.CanceledAt = &now

	restore := false
	if current.IsPackageSession() {
		_, restore, err = s.packages.ApplyConsumption(ctx, *current.PackageID, current.ID, current.Date, therapy.OutcomeCanceled)
		if err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Update(ctx, &next, current.Status())
	if err != nil {
		if restore {
			s.compensate(ctx, current, therapy.OutcomeCompleted)
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}
	s.logEvent(ctx, EventAppointmentCanceled, updated, map[string]any{
		"reason":          req.Reason,
		"notifyPatient":   req.NotifyPatient,
		"packageRestored": restore,
	})

	s.logger.Info().
		Str("appointment_id", updated.ID.String()).
		Bool("package_restored", restore).
		Msg("appointment canceled")

	s.notify(ctx, Event{
		Type:          EventAppointmentCanceled,
		Appointment:   *updated,
		Previous:      current,
		SlotsChanged:  changedSlots(nil, updated),
		NotifyPatient: req.NotifyPatient,
		Reason:        req.Reason,
	})
	return updated, nil
}

// Complete marks the appointment as attended and paid and consumes one
// package session when it belongs to a package.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	status, err := ResolveStatus(ActionComplete, current.Status())
	if err != nil {
		return nil, err
	}
	if current.Status() == status {
		return current, nil
	}
	if current.IsCanceled() {
		return nil, ErrInvalidStatusTransition.WithMessage("cannot complete a canceled appointment")
	}

	consume := false
	if current.IsPackageSession() {
		_, consume, err = s.packages.ApplyConsumption(ctx, *current.PackageID, current.ID, current.Date, therapy.OutcomeCompleted)
		if err != nil {
			return nil, err
		}
	}

	next := *current
	next.setStatus(status)

	updated, err := s.repo.Update(ctx, &next, current.Status())
	if err != nil {
		if consume {
			s.compensate(ctx, current, therapy.OutcomeCanceled)
		}
		return nil, fmt.Errorf("complete appointment: %w", err)
	}
	s.logEvent(ctx, EventAppointmentCompleted, updated, map[string]any{"packageConsumed": consume})

	s.notify(ctx, Event{Type: EventAppointmentCompleted, Appointment: *updated, Previous: current})
	return updated, nil
}

// MarkNoShow records that the patient did not attend.
func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	status, err := ResolveStatus(ActionNoShow, current.Status())
	if err != nil {
		return nil, err
	}
	if current.Status() == status {
		return current, nil
	}
	if current.IsCanceled() || current.ClinicalStatus == ClinicalCompleted {
		return nil, ErrInvalidStatusTransition.WithMessage("cannot mark a %s/%s appointment as no-show", current.OperationalStatus, current.ClinicalStatus)
	}

	next := *current
	next.setStatus(status)

	updated, err := s.repo.Update(ctx, &next, current.Status())
	if err != nil {
		return nil, fmt.Errorf("mark no-show: %w", err)
	}
	s.logEvent(ctx, EventAppointmentNoShow, updated, nil)

	s.notify(ctx, Event{Type: EventAppointmentNoShow, Appointment: *updated, Previous: current})
	return updated, nil
}

// Reschedule moves the appointment to a new date and time after checking the
// doctor is free then. Status axes are left as they are.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, req RescheduleRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := CheckNotPast(req.NewDate, *req.NewStartTime, s.cfg.Loc(), s.now()); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if current.IsCanceled() {
		return nil, ErrInvalidStatusTransition.WithMessage("cannot reschedule a canceled appointment")
	}

	duration := req.Duration
	if duration == 0 {
		duration = current.Duration
	}
	if duration <= 0 {
		duration = s.cfg.DefaultDurationMinutes()
	}
	if err := CheckFitsDay(*req.NewStartTime, duration); err != nil {
		return nil, err
	}

	next := *current
	next.setTiming(req.NewDate, *req.NewStartTime, duration)

	err = s.withDayLock(ctx, next.DoctorID, next.Date, func(lockCtx context.Context) error {
		if err := s.slots.CheckConflict(lockCtx, next.DoctorID, next.Date, next.Time, next.Duration, next.ID); err != nil {
			return err
		}
		updated, err := s.repo.Update(lockCtx, &next, current.Status())
		if err != nil {
			return fmt.Errorf("reschedule appointment: %w", err)
		}
		next = *updated
		s.logEvent(lockCtx, EventAppointmentRescheduled, &next, map[string]any{
			"previousDate":  current.Date,
			"previousTime":  current.Time,
			"reason":        req.Reason,
			"notifyPatient": req.NotifyPatient,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", next.ID.String()).
		Str("from", current.Date.String()+" "+current.Time.String()).
		Str("to", next.Date.String()+" "+next.Time.String()).
		Msg("appointment rescheduled")

	s.notify(ctx, Event{
		Type:          EventAppointmentRescheduled,
		Appointment:   next,
		Previous:      current,
		SlotsChanged:  changedSlots(current, &next),
		NotifyPatient: req.NotifyPatient,
		Reason:        req.Reason,
	})
	return &next, nil
}

// RelayEvents publishes up to batch unpublished event log rows in order.
func (s *Service) RelayEvents(ctx context.Context, pub Publisher, batch int) (int, error) {
	n, err := s.repo.PublishPending(ctx, batch, func(ev EventLog) error {
		msg, err := json.Marshal(envelopeOf(ev))
		if err != nil {
			return err
		}
		return pub.Publish(ctx, msg)
	})
	if err != nil {
		return n, fmt.Errorf("relay events: %w", err)
	}
	return n, nil
}

// compensate reverts a package adjustment whose appointment write failed.
func (s *Service) compensate(ctx context.Context, a *Appointment, outcome therapy.Outcome) {
	if _, _, err := s.packages.ApplyConsumption(ctx, *a.PackageID, a.ID, a.Date, outcome); err != nil {
		s.logger.Error().
			Err(err).
			Str("appointment_id", a.ID.String()).
			Str("package_id", a.PackageID.String()).
			Str("outcome", string(outcome)).
			Msg("failed to revert package adjustment")
	}
}

func (s *Service) logEvent(ctx context.Context, eventType string, a *Appointment, extra map[string]any) {
	payload := map[string]any{
		"doctorId":          a.DoctorID.String(),
		"patientId":         a.PatientID.String(),
		"date":              a.Date,
		"time":              a.Time,
		"duration":          a.Duration,
		"operationalStatus": a.OperationalStatus,
		"clinicalStatus":    a.ClinicalStatus,
	}
	for k, v := range extra {
		payload[k] = v
	}

	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	apptID := a.ID
	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Error().
			Err(err).
			Str("event_type", eventType).
			Str("appointment_id", a.ID.String()).
			Msg("failed to insert event log")
	}
}
