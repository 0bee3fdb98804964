package demonlisthandlers

import (
	"encoding/json"
	"errors"
	"net/http"

	demonlistdomain "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/domain"
	"github.com/Black-And-White-Club/demonlist-tracker/app/observability/attr"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind string) int {
	switch kind {
	case demonlistdomain.KindValidation:
		return http.StatusBadRequest
	case demonlistdomain.KindNotFound, demonlistdomain.KindUnknownPlayer:
		return http.StatusNotFound
	case demonlistdomain.KindDuplicatePlayer, demonlistdomain.KindLastPlayer:
		return http.StatusConflict
	case demonlistdomain.KindStore:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *DemonListHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := demonlistdomain.KindOf(err)
	status := statusFor(kind)

	message := err.Error()
	var verr *demonlistdomain.ValidationError
	if errors.As(err, &verr) {
		message = verr.Error()
	}
	if status == http.StatusInternalServerError {
		message = "internal error"
	}

	logArgs := []any{
		attr.ExtractCorrelationID(r.Context()),
		attr.String("method", r.Method),
		attr.String("path", r.URL.Path),
		attr.String("kind", kind),
		attr.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Request failed", logArgs...)
	} else {
		h.logger.WarnContext(r.Context(), "Request rejected", logArgs...)
	}

	writeJSON(w, status, errorResponse{Error: kind, Message: message})
}

func badRequest(field, reason string) error {
	return demonlistdomain.NewValidationError(field, reason)
}
