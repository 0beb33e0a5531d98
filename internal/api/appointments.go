package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

func createAppointmentHandler(svc AppointmentService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req appointment.CreateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, log, err)
			return
		}

		appt, err := svc.Create(r.Context(), req)
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, appt)
	}
}

func getAppointmentHandler(svc AppointmentService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		appt, err := svc.Get(r.Context(), id)
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, appt)
	}
}

func parseListFilter(r *http.Request) (appointment.ListFilter, error) {
	var f appointment.ListFilter
	var err error

	if f.Page, err = queryInt(r, "page"); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		return f, err
	}
	if f.DoctorID, err = queryUUID(r, "doctorId"); err != nil {
		return f, err
	}
	if f.PatientID, err = queryUUID(r, "patientId"); err != nil {
		return f, err
	}
	if f.StartDate, err = queryDate(r, "startDate"); err != nil {
		return f, err
	}
	if f.EndDate, err = queryDate(r, "endDate"); err != nil {
		return f, err
	}

	q := r.URL.Query()
	f.Status = q.Get("status")
	f.SessionType = appointment.SessionType(q.Get("sessionType"))
	return f, nil
}

func listAppointmentsHandler(svc AppointmentService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseListFilter(r)
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		res, err := svc.List(r.Context(), f)
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}

func availableSlotsHandler(svc AppointmentService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := queryUUID(r, "doctorId")
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		if doctorID == nil {
			respondError(w, r, log, apperr.MissingField("doctorId"))
			return
		}
		date, err := queryDate(r, "date")
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		if date == nil {
			respondError(w, r, log, apperr.MissingField("date"))
			return
		}

		slots, err := svc.AvailableSlots(r.Context(), *doctorID, *date)
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		resp := SlotsResponse{
			DoctorID: *doctorID,
			Date:     date.String(),
			Slots:    make([]string, 0, len(slots)),
		}
		for _, s := range slots {
			resp.Slots = append(resp.Slots, s.String())
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func countByStatusHandler(svc AppointmentService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := svc.CountByStatus(r.Context())
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, counts)
	}
}

func updateAppointmentHandler(svc AppointmentService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		var req appointment.UpdateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, log, err)
			return
		}

		appt, err := svc.Update(r.Context(), id, req)
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, appt)
	}
}

// transitionHandler serves the body-less PATCH actions.
func transitionHandler(fn func(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error), log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		appt, err := fn(r.Context(), id)
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, appt)
	}
}

func confirmAppointmentHandler(svc AppointmentService, log zerolog.Logger) http.HandlerFunc {
	return transitionHandler(svc.Confirm, log)
}

func completeAppointmentHandler(svc AppointmentService, log zerolog.Logger) http.HandlerFunc {
	return transitionHandler(svc.Complete, log)
}

func noShowAppointmentHandler(svc AppointmentService, log zerolog.Logger) http.HandlerFunc {
	return transitionHandler(svc.MarkNoShow, log)
}

func cancelAppointmentHandler(svc AppointmentService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		var req appointment.CancelRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, log, err)
			return
		}

		appt, err := svc.Cancel(r.Context(), id, req)
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, appt)
	}
}

func rescheduleAppointmentHandler(svc AppointmentService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		var req appointment.RescheduleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, log, err)
			return
		}

		appt, err := svc.Reschedule(r.Context(), id, req)
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, appt)
	}
}
