package calendar

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

const defaultDuration = 60 // minutes

// Colors is the display palette of one status.
type Colors struct {
	Background string `json:"backgroundColor"`
	Border     string `json:"borderColor"`
	Text       string `json:"textColor"`
}

type StatusStyle struct {
	Label  string `json:"label"`
	Colors Colors `json:"colors"`
}

// StatusConfig maps each operational status to its display style.
type StatusConfig map[appointment.OperationalStatus]StatusStyle

// FallbackStyle is used for statuses the config does not know.
var FallbackStyle = StatusStyle{
	Label:  "Desconhecido",
	Colors: Colors{Background: "#9e9e9e", Border: "#757575", Text: "#ffffff"},
}

func DefaultStatusConfig() StatusConfig {
	return StatusConfig{
		appointment.OperationalScheduled: {Label: "Agendado", Colors: Colors{Background: "#1976d2", Border: "#115293", Text: "#ffffff"}},
		appointment.OperationalConfirmed: {Label: "Confirmado", Colors: Colors{Background: "#388e3c", Border: "#2e7031", Text: "#ffffff"}},
		appointment.OperationalPaid:      {Label: "Pago", Colors: Colors{Background: "#00897b", Border: "#00695c", Text: "#ffffff"}},
		appointment.OperationalNoShow:    {Label: "Faltou", Colors: Colors{Background: "#f57c00", Border: "#c66400", Text: "#ffffff"}},
		appointment.OperationalCanceled:  {Label: "Cancelado", Colors: Colors{Background: "#d32f2f", Border: "#a82525", Text: "#ffffff"}},
	}
}

// Style returns the style for status, FallbackStyle when absent.
func (c StatusConfig) Style(status appointment.OperationalStatus) StatusStyle {
	if s, ok := c[status]; ok {
		return s
	}
	return FallbackStyle
}

type ExtendedProps struct {
	PatientID         uuid.UUID                     `json:"patientId"`
	DoctorID          uuid.UUID                     `json:"doctorId"`
	OperationalStatus appointment.OperationalStatus `json:"operationalStatus"`
	ClinicalStatus    appointment.ClinicalStatus    `json:"clinicalStatus"`
	StatusLabel       string                        `json:"statusLabel"`
	ServiceType       appointment.ServiceType       `json:"serviceType"`
	SessionType       appointment.SessionType       `json:"sessionType,omitempty"`
	PackageID         *uuid.UUID                    `json:"packageId,omitempty"`
	Active            bool                          `json:"active"`
}

type Event struct {
	ID            uuid.UUID     `json:"id"`
	Title         string        `json:"title"`
	Start         time.Time     `json:"start"`
	End           time.Time     `json:"end"`
	Colors        Colors        `json:"colors"`
	ExtendedProps ExtendedProps `json:"extendedProps"`
}

// Project turns appointments into calendar events in the same order. Dates and
// times are read as wall clock in loc; a missing duration counts as one hour.
func Project(appts []appointment.Appointment, cfg StatusConfig, loc *time.Location) []Event {
	if loc == nil {
		loc = time.UTC
	}

	events := make([]Event, 0, len(appts))
	for i := range appts {
		a := &appts[i]

		duration := a.Duration
		if duration <= 0 {
			duration = defaultDuration
		}
		start := a.StartsAt(loc)
		style := cfg.Style(a.OperationalStatus)

		events = append(events, Event{
			ID:     a.ID,
			Title:  title(a),
			Start:  start,
			End:    start.Add(time.Duration(duration) * time.Minute),
			Colors: style.Colors,
			ExtendedProps: ExtendedProps{
				PatientID:         a.PatientID,
				DoctorID:          a.DoctorID,
				OperationalStatus: a.OperationalStatus,
				ClinicalStatus:    a.ClinicalStatus,
				StatusLabel:       style.Label,
				ServiceType:       a.ServiceType,
				SessionType:       a.SessionType,
				PackageID:         a.PackageID,
				Active:            a.IsActive(),
			},
		})
	}
	return events
}

func title(a *appointment.Appointment) string {
	switch {
	case a.SessionType != "":
		return string(a.SessionType)
	case a.Reason != "":
		return a.Reason
	default:
		return string(a.ServiceType)
	}
}
