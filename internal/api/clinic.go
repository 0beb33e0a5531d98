package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

func createDoctorHandler(svc ClinicService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req clinic.DoctorRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, log, err)
			return
		}

		d, err := svc.CreateDoctor(r.Context(), req)
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, d)
	}
}

func getDoctorHandler(svc ClinicService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		d, err := svc.GetDoctor(r.Context(), id)
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, d)
	}
}

func listDoctorsHandler(svc ClinicService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly := r.URL.Query().Get("active") == "true"

		ds, err := svc.ListDoctors(r.Context(), activeOnly)
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, ds)
	}
}

func updateDoctorHandler(svc ClinicService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		var req clinic.DoctorRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, log, err)
			return
		}

		d, err := svc.UpdateDoctor(r.Context(), id, req)
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, d)
	}
}

func createPatientHandler(svc ClinicService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req clinic.PatientRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, log, err)
			return
		}

		p, err := svc.CreatePatient(r.Context(), req)
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, p)
	}
}

func getPatientHandler(svc ClinicService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		p, err := svc.GetPatient(r.Context(), id)
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, p)
	}
}

func listPatientsHandler(svc ClinicService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryInt(r, "limit")
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		offset, err := queryInt(r, "offset")
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		ps, total, err := svc.ListPatients(r.Context(), clinic.PatientFilter{
			Search: r.URL.Query().Get("search"),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, PatientListResponse{Data: ps, Total: total})
	}
}

func updatePatientHandler(svc ClinicService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		var req clinic.PatientRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, log, err)
			return
		}

		p, err := svc.UpdatePatient(r.Context(), id, req)
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, p)
	}
}
