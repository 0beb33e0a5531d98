package appointment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/civil"
)

var ErrPastDate = apperr.New(apperr.Validation, "past_date", "cannot schedule an appointment in the past")

type CreateRequest struct {
	PatientID     uuid.UUID        `json:"patientId"`
	DoctorID      uuid.UUID        `json:"doctorId"`
	Date          civil.Date       `json:"date"`
	Time          *civil.TimeOfDay `json:"time"`
	Duration      int              `json:"duration,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	SessionType   SessionType      `json:"sessionType,omitempty"`
	ServiceType   ServiceType      `json:"serviceType,omitempty"`
	PackageID     *uuid.UUID       `json:"packageId,omitempty"`
	PaymentAmount float64          `json:"paymentAmount,omitempty"`
	PaymentMethod PaymentMethod    `json:"paymentMethod,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

// Validate checks required fields and enum values and returns the booking intent.
func (r CreateRequest) Validate() (BookingIntent, error) {
	if r.PatientID == uuid.Nil {
		return nil, apperr.MissingField("patientId")
	}
	if r.DoctorID == uuid.Nil {
		return nil, apperr.MissingField("doctorId")
	}
	if r.Date.IsZero() {
		return nil, apperr.MissingField("date")
	}
	if r.Time == nil {
		return nil, apperr.MissingField("time")
	}
	if r.Duration < 0 {
		return nil, apperr.InvalidValue("duration", r.Duration)
	}

	intent, err := NewBookingIntent(r.ServiceType, r.PackageID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(r.Reason) == "" {
		_, isPackage := intent.(PackageSession)
		if !isPackage || r.SessionType == "" {
			return nil, apperr.MissingField("reason")
		}
	}
	if r.SessionType != "" && !r.SessionType.Valid() {
		return nil, apperr.InvalidValue("sessionType", r.SessionType)
	}
	if r.PaymentMethod != "" && !r.PaymentMethod.Valid() {
		return nil, apperr.InvalidValue("paymentMethod", r.PaymentMethod)
	}
	if r.PaymentAmount < 0 {
		return nil, apperr.InvalidValue("paymentAmount", r.PaymentAmount)
	}
	return intent, nil
}

// CheckNotPast rejects a start instant earlier than now.
func CheckNotPast(date civil.Date, start civil.TimeOfDay, loc *time.Location, now time.Time) error {
	at := date.At(start, loc)
	if at.Before(now) {
		return ErrPastDate.WithMessage("cannot schedule an appointment in the past (%s %s)", date, start)
	}
	return nil
}

// CheckFitsDay rejects appointments that would run past midnight.
func CheckFitsDay(start civil.TimeOfDay, duration int) error {
	if start.Add(duration).Minutes() > 24*60 {
		return apperr.InvalidValue("duration", fmt.Sprintf("%d minutes from %s ends after midnight", duration, start))
	}
	return nil
}

// UpdateRequest carries the fields to change; nil means unchanged.
type UpdateRequest struct {
	DoctorID          *uuid.UUID         `json:"doctorId,omitempty"`
	Date              *civil.Date        `json:"date,omitempty"`
	Time              *civil.TimeOfDay   `json:"time,omitempty"`
	StartTime         *civil.TimeOfDay   `json:"startTime,omitempty"`
	Duration          *int               `json:"duration,omitempty"`
	SessionType       *SessionType       `json:"sessionType,omitempty"`
	PaymentAmount     *float64           `json:"paymentAmount,omitempty"`
	PaymentMethod     *PaymentMethod     `json:"paymentMethod,omitempty"`
	Notes             *string            `json:"notes,omitempty"`
	Reason            *string            `json:"reason,omitempty"`
	ClinicalStatus    *ClinicalStatus    `json:"clinicalStatus,omitempty"`
	OperationalStatus *OperationalStatus `json:"operationalStatus,omitempty"`
}

func (r UpdateRequest) start() *civil.TimeOfDay {
	if r.StartTime != nil {
		return r.StartTime
	}
	return r.Time
}

func (r UpdateRequest) changesTiming() bool {
	return r.DoctorID != nil || r.Date != nil || r.start() != nil || r.Duration != nil
}

func (r UpdateRequest) changesStatus() bool {
	return r.ClinicalStatus != nil || r.OperationalStatus != nil
}

func (r UpdateRequest) Validate() error {
	if r.DoctorID != nil && *r.DoctorID == uuid.Nil {
		return apperr.InvalidValue("doctorId", *r.DoctorID)
	}
	if r.Date != nil && r.Date.IsZero() {
		return apperr.InvalidValue("date", "empty")
	}
	if r.Duration != nil && *r.Duration <= 0 {
		return apperr.InvalidValue("duration", *r.Duration)
	}
	if r.SessionType != nil && *r.SessionType != "" && !r.SessionType.Valid() {
		return apperr.InvalidValue("sessionType", *r.SessionType)
	}
	if r.PaymentMethod != nil && *r.PaymentMethod != "" && !r.PaymentMethod.Valid() {
		return apperr.InvalidValue("paymentMethod", *r.PaymentMethod)
	}
	if r.PaymentAmount != nil && *r.PaymentAmount < 0 {
		return apperr.InvalidValue("paymentAmount", *r.PaymentAmount)
	}
	return nil
}

type CancelRequest struct {
	Reason        string `json:"reason"`
	NotifyPatient bool   `json:"notifyPatient"`
}

func (r CancelRequest) Validate() error {
	if strings.TrimSpace(r.Reason) == "" {
		return apperr.MissingField("reason")
	}
	return nil
}

type RescheduleRequest struct {
	NewDate       civil.Date       `json:"newDate"`
	NewStartTime  *civil.TimeOfDay `json:"newStartTime"`
	Duration      int              `json:"duration,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	NotifyPatient bool             `json:"notifyPatient"`
}

func (r RescheduleRequest) Validate() error {
	if r.NewDate.IsZero() {
		return apperr.MissingField("newDate")
	}
	if r.NewStartTime == nil {
		return apperr.MissingField("newStartTime")
	}
	if r.Duration < 0 {
		return apperr.InvalidValue("duration", r.Duration)
	}
	return nil
}
