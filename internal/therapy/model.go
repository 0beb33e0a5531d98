package therapy

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/civil"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "dinheiro"
	PaymentPix  PaymentMethod = "pix"
	PaymentCard PaymentMethod = "cartão"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentPix, PaymentCard:
		return true
	}
	return false
}

type SessionStatus string

const (
	SessionCompleted SessionStatus = "completed"
	SessionCanceled  SessionStatus = "canceled"
)

// Outcome is what happened to a package-session appointment.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCanceled  Outcome = "canceled"
)

var (
	ErrPackageNotFound     = apperr.New(apperr.NotFound, "package_not_found", "therapy package not found")
	ErrNoRemainingSessions = apperr.New(apperr.Conflict, "no_remaining_sessions", "therapy package has no remaining sessions")
	ErrPackageExhausted    = apperr.New(apperr.Conflict, "package_exhausted", "all sessions of the therapy package were already used")
)

// Session is one consumed (or returned) unit of a package.
type Session struct {
	AppointmentID uuid.UUID     `json:"appointmentId"`
	Date          civil.Date    `json:"date"`
	Status        SessionStatus `json:"status"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

type Payment struct {
	ID     uuid.UUID     `json:"id"`
	Amount float64       `json:"amount"`
	Method PaymentMethod `json:"method"`
	PaidAt time.Time     `json:"paidAt"`
	Notes  string        `json:"notes,omitempty"`
}

// Package is a prepaid bundle of therapy sessions. It owns its sessions and payments.
type Package struct {
	ID             uuid.UUID `json:"id"`
	PatientID      uuid.UUID `json:"patientId"`
	ProfessionalID uuid.UUID `json:"professionalId"`
	SessionType    string    `json:"sessionType"`
	TotalSessions  int       `json:"totalSessions"`
	SessionsDone   int       `json:"sessionsDone"`
	Sessions       []Session `json:"sessions"`
	Payments       []Payment `json:"payments"`
	TotalValue     float64   `json:"totalValue"`
	TotalPaid      float64   `json:"totalPaid"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (p *Package) Remaining() int {
	return p.TotalSessions - p.SessionsDone
}

func (p *Package) Balance() float64 {
	return p.TotalValue - p.TotalPaid
}

// Credit is the amount paid beyond the package value.
func (p *Package) Credit() float64 {
	if c := p.TotalPaid - p.TotalValue; c > 0 {
		return c
	}
	return 0
}

func (p Package) MarshalJSON() ([]byte, error) {
	type alias Package
	return json.Marshal(struct {
		alias
		Remaining int     `json:"remaining"`
		Balance   float64 `json:"balance"`
		Credit    float64 `json:"credit"`
	}{
		alias:     alias(p),
		Remaining: p.Remaining(),
		Balance:   p.Balance(),
		Credit:    p.Credit(),
	})
}

// EnsureBookable rejects new package-session bookings once no sessions remain.
func (p *Package) EnsureBookable() error {
	if p.Remaining() <= 0 {
		return ErrNoRemainingSessions.WithMessage("package %s has no remaining sessions (%d/%d used)", p.ID, p.SessionsDone, p.TotalSessions)
	}
	return nil
}

func (p *Package) session(appointmentID uuid.UUID) *Session {
	for i := range p.Sessions {
		if p.Sessions[i].AppointmentID == appointmentID {
			return &p.Sessions[i]
		}
	}
	return nil
}

// Consume records the completion of appointmentID against the package and
// reports whether the counters changed. Completing the same appointment twice
// counts once.
func (p *Package) Consume(appointmentID uuid.UUID, date civil.Date, now time.Time) (bool, error) {
	s := p.session(appointmentID)
	if s != nil && s.Status == SessionCompleted {
		return false, nil
	}
	if p.SessionsDone >= p.TotalSessions {
		return false, ErrPackageExhausted.WithMessage("package %s already used %d of %d sessions", p.ID, p.SessionsDone, p.TotalSessions)
	}

	p.SessionsDone++
	if s != nil {
		s.Status = SessionCompleted
		s.Date = date
		s.UpdatedAt = now
		return true, nil
	}
	p.Sessions = append(p.Sessions, Session{
		AppointmentID: appointmentID,
		Date:          date,
		Status:        SessionCompleted,
		UpdatedAt:     now,
	})
	return true, nil
}

// Restore gives back the session consumed by appointmentID and reports whether
// anything changed. Only a completed session is restored.
func (p *Package) Restore(appointmentID uuid.UUID, now time.Time) bool {
	s := p.session(appointmentID)
	if s == nil || s.Status != SessionCompleted {
		return false
	}

	if p.SessionsDone > 0 {
		p.SessionsDone--
	}
	s.Status = SessionCanceled
	s.UpdatedAt = now
	return true
}

func (p *Package) AddPayment(pay Payment) {
	p.Payments = append(p.Payments, pay)
	p.TotalPaid += pay.Amount
}

type CreatePackageRequest struct {
	PatientID      uuid.UUID `json:"patientId"`
	ProfessionalID uuid.UUID `json:"professionalId"`
	SessionType    string    `json:"sessionType"`
	TotalSessions  int       `json:"totalSessions"`
	TotalValue     float64   `json:"totalValue"`
}

func (r CreatePackageRequest) Validate() error {
	if r.PatientID == uuid.Nil {
		return apperr.MissingField("patientId")
	}
	if r.ProfessionalID == uuid.Nil {
		return apperr.MissingField("professionalId")
	}
	if r.SessionType == "" {
		return apperr.MissingField("sessionType")
	}
	if r.TotalSessions <= 0 {
		return apperr.InvalidValue("totalSessions", r.TotalSessions)
	}
	if r.TotalValue < 0 {
		return apperr.InvalidValue("totalValue", r.TotalValue)
	}
	return nil
}

type AddPaymentRequest struct {
	PackageID uuid.UUID     `json:"packageId"`
	Amount    float64       `json:"amount"`
	Method    PaymentMethod `json:"method"`
	Notes     string        `json:"notes,omitempty"`
}

func (r AddPaymentRequest) Validate() error {
	if r.PackageID == uuid.Nil {
		return apperr.MissingField("packageId")
	}
	if r.Amount <= 0 {
		return apperr.InvalidValue("amount", r.Amount)
	}
	if !r.Method.Valid() {
		return apperr.InvalidValue("method", r.Method)
	}
	return nil
}
