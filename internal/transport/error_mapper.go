package transport

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/gigmarket/messaging/internal/domain"
	"github.com/gigmarket/messaging/internal/observability"
)

// DomainError writes err as a JSON error response. Validation messages are
// safe to echo; storage and unknown failures are logged and hidden.
func DomainError(ctx context.Context, w http.ResponseWriter, err error) {
	status, code, message := Classify(err)
	log := observability.GetLogger(ctx)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
	} else {
		log.Warn("request rejected", zap.String("code", code), zap.Error(err))
	}
	WriteError(w, status, code, message)
}

// Classify maps an error to its HTTP status, error code and client message.
func Classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "invalid_argument", err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout", "request timed out"
	case errors.Is(err, domain.ErrStorage):
		return http.StatusInternalServerError, "storage_error", "message store unavailable"
	default:
		return http.StatusInternalServerError, "internal_error", "an unexpected error occurred"
	}
}
