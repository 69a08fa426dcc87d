package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fmhr12/ORN-Prognosis/internal/domain"
	"github.com/fmhr12/ORN-Prognosis/internal/logger"
)

// ErrorCode is the machine-readable code in an error response.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeUnauthorized     ErrorCode = "unauthorized"
	CodeRateLimited      ErrorCode = "rate_limited"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeUnknownTimePoint ErrorCode = "unknown_time_point"
	CodeUnknownCause     ErrorCode = "unknown_cause"
	CodeCurveNotFound    ErrorCode = "curve_not_found"
	CodeNotFound         ErrorCode = "not_found"
	CodeMethodNotAllowed ErrorCode = "method_not_allowed"
	CodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		// Unknown tags are validation errors too; the narrower code wins.
		sentinelHandler(domain.ErrUnknownTimePoint, http.StatusBadRequest, CodeUnknownTimePoint),
		sentinelHandler(domain.ErrUnknownCause, http.StatusBadRequest, CodeUnknownCause),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrCurveNotFound, http.StatusNotFound, CodeCurveNotFound),
	}
}

// writeJSON encodes v before writing the status, so a value that cannot be
// encoded becomes a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Code: CodeInternalError, Message: "internal error"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// Domain error text names the field and constraint and is returned as is.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeJSON(w, status, ErrorResponse{
			Code:    code,
			Message: err.Error(),
			Field:   domain.FieldOf(err),
		})
		return true
	}
}

// handleDomainError maps err onto a response. Anything unmatched, including
// ErrModelContract and ErrSchemaMismatch, is a 500 with a generic message.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Info("request rejected", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
