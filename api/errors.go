package api

import (
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/garnizeh/jobtrack/internal/apperror"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("err", err))
	}
}

// statusFor maps an error kind to its HTTP status. Forbidden is reported as
// 404 so that non-owners cannot probe for record existence.
func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.Validation:
		return http.StatusBadRequest
	case apperror.Auth:
		return http.StatusUnauthorized
	case apperror.Forbidden, apperror.NotFound:
		return http.StatusNotFound
	case apperror.Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err. Storage and untyped errors get a generic body; their
// detail is only logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperror.KindOf(err)
	status := statusFor(kind)

	msg := http.StatusText(status)
	switch kind {
	case apperror.Forbidden, apperror.NotFound:
		msg = "not found"
	case apperror.Validation, apperror.Auth, apperror.Conflict:
		msg = err.Error()
	default:
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("kind", kind.String()),
			slog.Any("err", err),
		)
		msg = "internal server error"
	}
	writeJSON(w, errorResponse{Error: msg}, status)
}
