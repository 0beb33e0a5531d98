package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.Validation:
		return http.StatusBadRequest
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Auth:
		return http.StatusUnauthorized
	case apperr.Request:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps err onto the error body. Unclassified errors are logged
// and reported without their internals.
func respondError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)

	if kind == apperr.Internal || kind == apperr.Request {
		logger.Error().
			Err(err).
			Str("request_id", GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	if kind == apperr.Internal {
		writeError(w, status, "internal_error", "internal server error")
		return
	}

	writeError(w, status, apperr.CodeOf(err), apperr.MessageOf(err))
}
