package helpers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"eventticketing/internal/domain"
)

// Error codes for API error responses. Use these with WriteJSONError.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeUnauthorized   = "unauthorized"
	ErrCodePaymentFailed  = "payment_failed"
	ErrCodeForbidden      = "forbidden"
	ErrCodeNotFound       = "not_found"
	ErrCodeConflict       = "conflict"
	ErrCodeInvalidToken   = "invalid_token"
	ErrCodeRateLimited    = "rate_limited"
	ErrCodeInternalError  = "internal_error"
	ErrCodeAlreadyChecked = "already_checked_in"
)

// APIError is the error object in the standardized API response envelope.
// swagger:model APIError
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// CheckedInAt is set for already_checked_in so scanners can show when it happened.
	CheckedInAt string `json:"checked_in_at,omitempty"`
}

// APIResponse is the standardized envelope for all API responses.
// On success: Data is set, Error is nil. On error: Data is nil, Error is set.
// swagger:model APIResponse
type APIResponse struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

// WriteJSONSuccess sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with the given data and error set to nil.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{Data: data, Error: nil})
}

// WriteJSONError sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with data nil and the given error code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	writeAPIError(w, statusCode, &APIError{Code: code, Message: message})
}

func writeAPIError(w http.ResponseWriter, statusCode int, apiErr *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{Data: nil, Error: apiErr})
}

// WriteServiceError maps a service error to its status and code. Only
// unexpected failures are logged; their message is not exposed.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var already *domain.AlreadyCheckedInError
	switch {
	case errors.As(err, &already):
		writeAPIError(w, http.StatusConflict, &APIError{
			Code:        ErrCodeAlreadyChecked,
			Message:     err.Error(),
			CheckedInAt: already.CheckedInAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	case errors.Is(err, domain.ErrAlreadyCheckedIn):
		WriteJSONError(w, http.StatusConflict, ErrCodeAlreadyChecked, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		WriteJSONError(w, http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
	case errors.Is(err, domain.ErrPaymentVerificationFailed):
		WriteJSONError(w, http.StatusPaymentRequired, ErrCodePaymentFailed, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		WriteJSONError(w, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateRegistration),
		errors.Is(err, domain.ErrDuplicateEmail),
		errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrInsufficientCapacity):
		WriteJSONError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidOrUnregisteredToken):
		WriteJSONError(w, http.StatusUnprocessableEntity, ErrCodeInvalidToken, err.Error())
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error, try again")
	}
}
