// Package agenda keeps a session's view of the schedule: the appointments it
// has loaded and the free slots of the doctor/day being booked. State only
// changes after the server confirms a write.
package agenda

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/civil"
)

// API is the subset of the REST client the agenda drives.
type API interface {
	CreateAppointment(ctx context.Context, req appointment.CreateRequest) (*appointment.Appointment, error)
	UpdateAppointment(ctx context.Context, id uuid.UUID, req appointment.UpdateRequest) (*appointment.Appointment, error)
	ConfirmAppointment(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	CancelAppointment(ctx context.Context, id uuid.UUID, req appointment.CancelRequest) (*appointment.Appointment, error)
	CompleteAppointment(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	MarkNoShow(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	RescheduleAppointment(ctx context.Context, id uuid.UUID, req appointment.RescheduleRequest) (*appointment.Appointment, error)
	ListAppointments(ctx context.Context, f appointment.ListFilter) (*appointment.ListResult, error)
	AvailableSlots(ctx context.Context, doctorID uuid.UUID, date civil.Date) ([]civil.TimeOfDay, error)
}

type ChangeKind int

const (
	AppointmentsChanged ChangeKind = iota
	SlotsChanged
)

func (k ChangeKind) String() string {
	if k == SlotsChanged {
		return "slots"
	}
	return "appointments"
}

// Change is delivered to observers after every state change. Err is set when
// a slot load failed and the slot list was cleared.
type Change struct {
	Kind        ChangeKind
	Appointment *appointment.Appointment
	Err         error
}

type Agenda struct {
	api    API
	loc    *time.Location
	now    func() time.Time
	logger zerolog.Logger

	mu        sync.RWMutex
	appts     []appointment.Appointment
	slots     []civil.TimeOfDay
	slotView  *appointment.SlotKey
	observers map[int]func(Change)
	nextID    int
}

func New(api API, loc *time.Location, logger zerolog.Logger) *Agenda {
	if loc == nil {
		loc = time.UTC
	}
	return &Agenda{
		api:       api,
		loc:       loc,
		now:       time.Now,
		logger:    logger.With().Str("component", "agenda").Logger(),
		observers: make(map[int]func(Change)),
	}
}

// Subscribe registers fn and returns a function that removes it.
func (a *Agenda) Subscribe(fn func(Change)) func() {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.observers[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.observers, id)
		a.mu.Unlock()
	}
}

func (a *Agenda) emit(c Change) {
	a.mu.RLock()
	fns := make([]func(Change), 0, len(a.observers))
	for _, fn := range a.observers {
		fns = append(fns, fn)
	}
	a.mu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}

// Appointments returns a copy of the loaded collection.
func (a *Agenda) Appointments() []appointment.Appointment {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]appointment.Appointment, len(a.appts))
	copy(out, a.appts)
	return out
}

func (a *Agenda) Slots() []civil.TimeOfDay {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]civil.TimeOfDay, len(a.slots))
	copy(out, a.slots)
	return out
}

// Events projects the loaded collection onto calendar events.
func (a *Agenda) Events(cfg calendar.StatusConfig) []calendar.Event {
	return calendar.Project(a.Appointments(), cfg, a.loc)
}

// Refresh replaces the collection with every appointment matching f.
func (a *Agenda) Refresh(ctx context.Context, f appointment.ListFilter) error {
	if f.Limit <= 0 {
		f.Limit = 100
	}
	f.Page = 1

	var all []appointment.Appointment
	for {
		res, err := a.api.ListAppointments(ctx, f)
		if err != nil {
			return fmt.Errorf("refresh appointments: %w", err)
		}
		all = append(all, res.Data...)
		if !res.HasMore || len(res.Data) == 0 {
			break
		}
		f.Page++
	}

	a.mu.Lock()
	a.appts = all
	a.mu.Unlock()

	a.emit(Change{Kind: AppointmentsChanged})
	return nil
}

// LoadSlots fetches the free slots of doctorID on date. On failure the slot
// list is cleared and observers are told why.
func (a *Agenda) LoadSlots(ctx context.Context, doctorID uuid.UUID, date civil.Date) error {
	slots, err := a.api.AvailableSlots(ctx, doctorID, date)

	a.mu.Lock()
	a.slotView = &appointment.SlotKey{DoctorID: doctorID, Date: date}
	if err != nil {
		a.slots = nil
	} else {
		a.slots = slots
	}
	a.mu.Unlock()

	if err != nil {
		a.logger.Warn().Err(err).
			Str("doctor_id", doctorID.String()).
			Str("date", date.String()).
			Msg("slot load failed")
		err = availability.ErrSlotFetch.WithMessage("could not load available slots: %v", err).Wrap(err)
		a.emit(Change{Kind: SlotsChanged, Err: err})
		return err
	}

	a.emit(Change{Kind: SlotsChanged})
	return nil
}

func (a *Agenda) Create(ctx context.Context, req appointment.CreateRequest) (*appointment.Appointment, error) {
	if _, err := req.Validate(); err != nil {
		return nil, err
	}
	if err := appointment.CheckNotPast(req.Date, *req.Time, a.loc, a.now()); err != nil {
		return nil, err
	}
	if err := a.precheckSlot(req.DoctorID, req.Date, *req.Time); err != nil {
		return nil, err
	}

	created, err := a.api.CreateAppointment(ctx, req)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.appts = append(a.appts, *created)
	a.mu.Unlock()

	a.emit(Change{Kind: AppointmentsChanged, Appointment: created})
	a.refreshSlots(ctx, keyOf(created))
	return created, nil
}

func (a *Agenda) Update(ctx context.Context, id uuid.UUID, req appointment.UpdateRequest) (*appointment.Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	prev, _ := a.find(id)

	updated, err := a.api.UpdateAppointment(ctx, id, req)
	if err != nil {
		return nil, err
	}
	a.replace(updated)
	a.refreshSlots(ctx, keyOf(updated), prevKey(prev))
	return updated, nil
}

func (a *Agenda) Confirm(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	updated, err := a.api.ConfirmAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	a.replace(updated)
	return updated, nil
}

func (a *Agenda) Cancel(ctx context.Context, id uuid.UUID, req appointment.CancelRequest) (*appointment.Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	canceled, err := a.api.CancelAppointment(ctx, id, req)
	if err != nil {
		return nil, err
	}
	a.replace(canceled)
	a.refreshSlots(ctx, keyOf(canceled))
	return canceled, nil
}

func (a *Agenda) Complete(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	completed, err := a.api.CompleteAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	a.replace(completed)
	return completed, nil
}

func (a *Agenda) MarkNoShow(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	updated, err := a.api.MarkNoShow(ctx, id)
	if err != nil {
		return nil, err
	}
	a.replace(updated)
	return updated, nil
}

func (a *Agenda) Reschedule(ctx context.Context, id uuid.UUID, req appointment.RescheduleRequest) (*appointment.Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := appointment.CheckNotPast(req.NewDate, *req.NewStartTime, a.loc, a.now()); err != nil {
		return nil, err
	}
	prev, ok := a.find(id)
	if ok {
		if err := a.precheckSlot(prev.DoctorID, req.NewDate, *req.NewStartTime); err != nil {
			return nil, err
		}
	}

	moved, err := a.api.RescheduleAppointment(ctx, id, req)
	if err != nil {
		return nil, err
	}
	a.replace(moved)
	a.refreshSlots(ctx, keyOf(moved), prevKey(prev))
	return moved, nil
}

// precheckSlot rejects a start time missing from the loaded slot list of the
// same doctor and day. The server still has the final word.
func (a *Agenda) precheckSlot(doctorID uuid.UUID, date civil.Date, start civil.TimeOfDay) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.slotView == nil || a.slotView.DoctorID != doctorID || a.slotView.Date != date || a.slots == nil {
		return nil
	}
	for _, s := range a.slots {
		if s == start {
			return nil
		}
	}
	return availability.ErrSlotConflict.WithMessage("%s is not available on %s", start, date)
}

func (a *Agenda) find(id uuid.UUID) (*appointment.Appointment, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for i := range a.appts {
		if a.appts[i].ID == id {
			cp := a.appts[i]
			return &cp, true
		}
	}
	return nil, false
}

// replace swaps the stored appointment with the same id. Appointments not in
// the collection are left out.
func (a *Agenda) replace(updated *appointment.Appointment) {
	a.mu.Lock()
	for i := range a.appts {
		if a.appts[i].ID == updated.ID {
			a.appts[i] = *updated
			break
		}
	}
	a.mu.Unlock()

	a.emit(Change{Kind: AppointmentsChanged, Appointment: updated})
}

// refreshSlots reloads the slot list when a write touched the doctor/day on screen.
func (a *Agenda) refreshSlots(ctx context.Context, keys ...*appointment.SlotKey) {
	a.mu.RLock()
	view := a.slotView
	a.mu.RUnlock()
	if view == nil {
		return
	}

	for _, k := range keys {
		if k != nil && *k == *view {
			_ = a.LoadSlots(ctx, view.DoctorID, view.Date)
			return
		}
	}
}

func keyOf(appt *appointment.Appointment) *appointment.SlotKey {
	return &appointment.SlotKey{DoctorID: appt.DoctorID, Date: appt.Date}
}

func prevKey(appt *appointment.Appointment) *appointment.SlotKey {
	if appt == nil {
		return nil
	}
	return keyOf(appt)
}
