package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lending-engine/internal/confirm"
	"github.com/lending-engine/internal/types"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error types.ServiceError `json:"error"`
	// Retryable marks failures the caller may safely retry, such as a
	// confirmation timeout.
	Retryable bool `json:"retryable,omitempty"`
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: types.ServiceError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	json.NewEncoder(w).Encode(response)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// parseJSONBody parses JSON request body.
func parseJSONBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// Common error codes
const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeConfirmTimeout     = "CONFIRMATION_TIMEOUT"
	ErrCodeConfirmFailed      = "CONFIRMATION_FAILED"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// respondServiceError maps a service-layer error to an HTTP response.
func respondServiceError(w http.ResponseWriter, err error) {
	var serviceErr *types.ServiceError
	if errors.As(err, &serviceErr) {
		switch serviceErr.Code {
		case "INVALID_WALLET_FORMAT", "INVALID_AMOUNT", "INVALID_DURATION",
			"MISSING_TOKEN", "MISSING_LOAN_ID", "MISSING_SIGNED_TRANSACTION":
			respondError(w, http.StatusBadRequest, serviceErr.Code, serviceErr.Message, serviceErr.Details)
		case "INSUFFICIENT_BALANCE":
			respondError(w, http.StatusUnprocessableEntity, serviceErr.Code, serviceErr.Message, serviceErr.Details)
		case "LOAN_NOT_FOUND", "USER_NOT_FOUND":
			respondError(w, http.StatusNotFound, ErrCodeNotFound, serviceErr.Message, serviceErr.Details)
		case "FORBIDDEN":
			respondError(w, http.StatusForbidden, ErrCodeForbidden, serviceErr.Message, nil)
		default:
			respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "An internal error occurred", nil)
		}
		return
	}

	// Confirmation protocol outcomes carry retryability information.
	if errors.Is(err, confirm.ErrTimeout) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusGatewayTimeout)
		json.NewEncoder(w).Encode(ErrorResponse{
			Error: types.ServiceError{
				Code:    ErrCodeConfirmTimeout,
				Message: "transaction was not confirmed in time; safe to retry",
			},
			Retryable: true,
		})
		return
	}
	if errors.Is(err, confirm.ErrTransactionFailed) || errors.Is(err, confirm.ErrMissingSignature) {
		respondError(w, http.StatusUnprocessableEntity, ErrCodeConfirmFailed, err.Error(), nil)
		return
	}

	respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "An internal error occurred", nil)
}
