package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/calendar"
)

const calendarPageSize = 100

func calendarEventsHandler(svc AppointmentService, styles calendar.StatusConfig, loc *time.Location, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseListFilter(r)
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		f.Page = 1
		f.Limit = calendarPageSize

		var appts []appointment.Appointment
		for {
			res, err := svc.List(r.Context(), f)
			if err != nil {
				respondError(w, r, log, err)
				return
			}
			appts = append(appts, res.Data...)
			if !res.HasMore || len(res.Data) == 0 {
				break
			}
			f.Page++
		}

		writeJSON(w, http.StatusOK, calendar.Project(appts, styles, loc))
	}
}
