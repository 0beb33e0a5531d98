package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/civil"
	"github.com/hackgods/clinic-scheduling/internal/therapy"
)

// ClinicalStatus tracks the patient's attendance and treatment progress.
type ClinicalStatus string

const (
	ClinicalPending    ClinicalStatus = "pendente"
	ClinicalInProgress ClinicalStatus = "em_andamento"
	ClinicalCompleted  ClinicalStatus = "concluído"
	ClinicalNoShow     ClinicalStatus = "faltou"
	// ClinicalCanceled is only ever produced by the cancel action.
	ClinicalCanceled ClinicalStatus = "cancelado"
)

func (s ClinicalStatus) Valid() bool {
	switch s {
	case ClinicalPending, ClinicalInProgress, ClinicalCompleted, ClinicalNoShow, ClinicalCanceled:
		return true
	}
	return false
}

// OperationalStatus tracks the administrative workflow of the booking.
type OperationalStatus string

const (
	OperationalScheduled OperationalStatus = "agendado"
	OperationalConfirmed OperationalStatus = "confirmado"
	OperationalCanceled  OperationalStatus = "cancelado"
	OperationalPaid      OperationalStatus = "pago"
	OperationalNoShow    OperationalStatus = "faltou"
)

// OperationalStatuses lists every operational status in display order.
var OperationalStatuses = []OperationalStatus{
	OperationalScheduled,
	OperationalConfirmed,
	OperationalPaid,
	OperationalNoShow,
	OperationalCanceled,
}

func (s OperationalStatus) Valid() bool {
	switch s {
	case OperationalScheduled, OperationalConfirmed, OperationalCanceled, OperationalPaid, OperationalNoShow:
		return true
	}
	return false
}

type ServiceType string

const (
	ServiceEvaluation        ServiceType = "evaluation"
	ServiceSession           ServiceType = "session"
	ServicePackageSession    ServiceType = "package_session"
	ServiceIndividualSession ServiceType = "individual_session"
)

func (t ServiceType) Valid() bool {
	switch t {
	case ServiceEvaluation, ServiceSession, ServicePackageSession, ServiceIndividualSession:
		return true
	}
	return false
}

// SessionType is the therapy specialty of the appointment.
type SessionType string

const (
	SessionSpeechTherapy       SessionType = "fonoaudiologia"
	SessionPsychology          SessionType = "psicologia"
	SessionOccupationalTherapy SessionType = "terapia_ocupacional"
	SessionPhysiotherapy       SessionType = "fisioterapia"
	SessionPsychopedagogy      SessionType = "psicopedagogia"
	SessionNutrition           SessionType = "nutricao"
)

var SessionTypes = []SessionType{
	SessionSpeechTherapy,
	SessionPsychology,
	SessionOccupationalTherapy,
	SessionPhysiotherapy,
	SessionPsychopedagogy,
	SessionNutrition,
}

func (t SessionType) Valid() bool {
	for _, st := range SessionTypes {
		if t == st {
			return true
		}
	}
	return false
}

type PaymentMethod = therapy.PaymentMethod

// StatusPair holds both independent status axes of an appointment.
type StatusPair struct {
	Operational OperationalStatus `json:"operationalStatus"`
	Clinical    ClinicalStatus    `json:"clinicalStatus"`
}

type Appointment struct {
	ID                uuid.UUID         `json:"id"`
	PatientID         uuid.UUID         `json:"patientId"`
	DoctorID          uuid.UUID         `json:"doctorId"`
	Date              civil.Date        `json:"date"`
	Time              civil.TimeOfDay   `json:"time"`
	EndTime           civil.TimeOfDay   `json:"endTime"`
	Duration          int               `json:"duration"`
	ClinicalStatus    ClinicalStatus    `json:"clinicalStatus"`
	OperationalStatus OperationalStatus `json:"operationalStatus"`
	SessionType       SessionType       `json:"sessionType,omitempty"`
	ServiceType       ServiceType       `json:"serviceType"`
	PaymentAmount     float64           `json:"paymentAmount"`
	PaymentMethod     PaymentMethod     `json:"paymentMethod,omitempty"`
	PackageID         *uuid.UUID        `json:"packageId,omitempty"`
	Notes             string            `json:"notes,omitempty"`
	Reason            string            `json:"reason,omitempty"`
	CanceledReason    string            `json:"canceledReason,omitempty"`
	CanceledAt        *time.Time        `json:"canceledAt,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

func (a *Appointment) Status() StatusPair {
	return StatusPair{Operational: a.OperationalStatus, Clinical: a.ClinicalStatus}
}

func (a *Appointment) setStatus(p StatusPair) {
	a.OperationalStatus = p.Operational
	a.ClinicalStatus = p.Clinical
}

func (a *Appointment) IsCanceled() bool {
	return a.OperationalStatus == OperationalCanceled
}

// IsActive reports whether the appointment is still expected to happen.
func (a *Appointment) IsActive() bool {
	if a.IsCanceled() {
		return false
	}
	return a.ClinicalStatus != ClinicalNoShow && a.ClinicalStatus != ClinicalCompleted
}

// BlocksSlot reports whether the appointment occupies its time in the doctor's day.
func (a *Appointment) BlocksSlot() bool {
	return !a.IsCanceled()
}

func (a *Appointment) IsPackageSession() bool {
	return a.ServiceType == ServicePackageSession && a.PackageID != nil
}

func (a *Appointment) StartsAt(loc *time.Location) time.Time {
	return a.Date.At(a.Time, loc)
}

func (a *Appointment) setTiming(date civil.Date, start civil.TimeOfDay, duration int) {
	a.Date = date
	a.Time = start
	a.Duration = duration
	a.EndTime = start.Add(duration)
}

func (a *Appointment) slotKey() SlotKey {
	return SlotKey{DoctorID: a.DoctorID, Date: a.Date}
}

func (a *Appointment) booking() availability.Booking {
	return availability.Booking{AppointmentID: a.ID, Start: a.Time, Duration: a.Duration}
}

// SlotKey identifies a doctor's day whose slot list changed.
type SlotKey struct {
	DoctorID uuid.UUID  `json:"doctorId"`
	Date     civil.Date `json:"date"`
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

type ListFilter struct {
	Page        int
	Limit       int
	Status      string // matches either status axis
	DoctorID    *uuid.UUID
	PatientID   *uuid.UUID
	SessionType SessionType
	StartDate   *civil.Date
	EndDate     *civil.Date
}

func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type ListResult struct {
	Data    []Appointment `json:"data"`
	Total   int           `json:"total"`
	Page    int           `json:"page"`
	Limit   int           `json:"limit"`
	HasMore bool          `json:"hasMore"`
}

type StatusCounts struct {
	Operational map[OperationalStatus]int `json:"operational"`
	Clinical    map[ClinicalStatus]int    `json:"clinical"`
	Total       int                       `json:"total"`
}
