package clinic

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/civil"
)

var (
	ErrDoctorNotFound  = apperr.New(apperr.NotFound, "doctor_not_found", "doctor not found")
	ErrPatientNotFound = apperr.New(apperr.NotFound, "patient_not_found", "patient not found")
)

type Doctor struct {
	ID                 uuid.UUID                       `json:"id"`
	FullName           string                          `json:"fullName"`
	Specialty          string                          `json:"specialty"`
	Email              string                          `json:"email,omitempty"`
	WeeklyAvailability availability.WeeklyAvailability `json:"weeklyAvailability"`
	Active             bool                            `json:"active"`
	CreatedAt          time.Time                       `json:"createdAt"`
	UpdatedAt          time.Time                       `json:"updatedAt"`
}

type Patient struct {
	ID          uuid.UUID   `json:"id"`
	FullName    string      `json:"fullName"`
	Email       string      `json:"email,omitempty"`
	Phone       string      `json:"phone,omitempty"`
	BirthDate   *civil.Date `json:"birthDate,omitempty"`
	Specialties []string    `json:"specialties"`
	PackageIDs  []uuid.UUID `json:"packages"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type DoctorRequest struct {
	FullName           string                          `json:"fullName"`
	Specialty          string                          `json:"specialty"`
	Email              string                          `json:"email,omitempty"`
	WeeklyAvailability availability.WeeklyAvailability `json:"weeklyAvailability"`
	Active             *bool                           `json:"active,omitempty"`
}

func (r DoctorRequest) Validate() error {
	if strings.TrimSpace(r.FullName) == "" {
		return apperr.MissingField("fullName")
	}
	if strings.TrimSpace(r.Specialty) == "" {
		return apperr.MissingField("specialty")
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if err := r.WeeklyAvailability.Validate(); err != nil {
		return apperr.InvalidValue("weeklyAvailability", err)
	}
	return nil
}

type PatientRequest struct {
	FullName    string      `json:"fullName"`
	Email       string      `json:"email,omitempty"`
	Phone       string      `json:"phone,omitempty"`
	BirthDate   *civil.Date `json:"birthDate,omitempty"`
	Specialties []string    `json:"specialties,omitempty"`
}

func (r PatientRequest) Validate() error {
	if strings.TrimSpace(r.FullName) == "" {
		return apperr.MissingField("fullName")
	}
	return validateEmail(r.Email)
}

func validateEmail(email string) error {
	if email == "" {
		return nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperr.InvalidValue("email", email)
	}
	return nil
}

type PatientFilter struct {
	Search string
	Limit  int
	Offset int
}
