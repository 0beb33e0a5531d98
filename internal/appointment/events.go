package appointment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/civil"
)

const (
	EventAppointmentCreated     = "APPOINTMENT_CREATED"
	EventAppointmentUpdated     = "APPOINTMENT_UPDATED"
	EventAppointmentConfirmed   = "APPOINTMENT_CONFIRMED"
	EventAppointmentCanceled    = "APPOINTMENT_CANCELED"
	EventAppointmentCompleted   = "APPOINTMENT_COMPLETED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
	EventAppointmentNoShow      = "APPOINTMENT_NO_SHOW"
)

// Event is handed to listeners after a mutation was persisted.
type Event struct {
	Type          string
	Appointment   Appointment
	Previous      *Appointment
	SlotsChanged  []SlotKey
	NotifyPatient bool
	Reason        string
}

type Listener interface {
	AppointmentChanged(ctx context.Context, ev Event)
}

type ListenerFunc func(ctx context.Context, ev Event)

func (f ListenerFunc) AppointmentChanged(ctx context.Context, ev Event) { f(ctx, ev) }

// Publisher ships relayed event log rows to other processes.
type Publisher interface {
	Publish(ctx context.Context, message []byte) error
}

// Envelope is the wire form of a relayed event.
type Envelope struct {
	ID            int64           `json:"id"`
	Type          string          `json:"type"`
	AppointmentID *uuid.UUID      `json:"appointmentId,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func envelopeOf(ev EventLog) Envelope {
	env := Envelope{
		ID:            ev.ID,
		Type:          ev.EventType,
		AppointmentID: ev.AppointmentID,
		CreatedAt:     ev.CreatedAt,
	}
	if len(ev.Payload) > 0 {
		env.Payload = json.RawMessage(ev.Payload)
	}
	return env
}

// changedSlots lists the doctor days touched by moving prev to next, without duplicates.
func changedSlots(prev, next *Appointment) []SlotKey {
	var keys []SlotKey
	seen := make(map[SlotKey]bool)
	for _, a := range []*Appointment{prev, next} {
		if a == nil {
			continue
		}
		k := a.slotKey()
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

// bookingSource adapts a Repository to availability.BookingSource.
type bookingSource struct {
	repo Repository
}

// NewBookingSource exposes the slot-blocking appointments stored in repo.
func NewBookingSource(repo Repository) availability.BookingSource {
	return bookingSource{repo: repo}
}

func (b bookingSource) ListBookings(ctx context.Context, doctorID uuid.UUID, date civil.Date) ([]availability.Booking, error) {
	appts, err := b.repo.ListByDoctorOnDate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	bookings := make([]availability.Booking, 0, len(appts))
	for i := range appts {
		if appts[i].BlocksSlot() {
			bookings = append(bookings, appts[i].booking())
		}
	}
	return bookings, nil
}
