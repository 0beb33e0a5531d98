package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/therapy"
)

func createPackageHandler(svc PackageService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req therapy.CreatePackageRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, log, err)
			return
		}

		pkg, err := svc.CreatePackage(r.Context(), req)
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, pkg)
	}
}

func getPackageHandler(svc PackageService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		pkg, err := svc.GetPackage(r.Context(), id)
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, pkg)
	}
}

func listPackagesHandler(svc PackageService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, err := queryUUID(r, "patientId")
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		if patientID == nil {
			respondError(w, r, log, apperr.MissingField("patientId"))
			return
		}

		pkgs, err := svc.ListByPatient(r.Context(), *patientID)
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, pkgs)
	}
}

func addPaymentHandler(svc PackageService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req therapy.AddPaymentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, log, err)
			return
		}

		pkg, err := svc.AddPayment(r.Context(), req)
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, pkg)
	}
}

func listPaymentsHandler(svc PackageService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		packageID, err := queryUUID(r, "packageId")
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		if packageID == nil {
			respondError(w, r, log, apperr.MissingField("packageId"))
			return
		}

		payments, err := svc.ListPayments(r.Context(), *packageID)
		if err != nil {
			respondError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, payments)
	}
}
