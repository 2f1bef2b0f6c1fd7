package models

import "net/http"

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(code, message, details string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Common error codes
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeInternalError   = "INTERNAL_ERROR"
	ErrCodeValidationError = "VALIDATION_ERROR"

	// Withdrawal audit error categories. These are persisted in the audit
	// trail only; the caller-facing response never distinguishes them.
	ErrCodeInvalidSecret  = "INVALID_SECRET"
	ErrCodeMalformedInput = "MALFORMED_INPUT"
)

// HTTPStatusForErrorCode returns the appropriate HTTP status code for an error code
func HTTPStatusForErrorCode(code string) int {
	switch code {
	case ErrCodeBadRequest, ErrCodeValidationError:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ConsentStatus lists the consent lifecycle statuses. The only transition is
// ACTIVE to WITHDRAWN; a withdrawn record never re-activates.
type ConsentStatus string

const (
	ConsentStatusActive    ConsentStatus = "ACTIVE"
	ConsentStatusWithdrawn ConsentStatus = "WITHDRAWN"
)

// PrivacyLevel is the declared sensitivity tier for a consent record,
// governing which aggregate participant fields may be populated.
type PrivacyLevel string

const (
	PrivacyLevelAnonymous    PrivacyLevel = "anonymous"
	PrivacyLevelPseudonymous PrivacyLevel = "pseudonymous"
	PrivacyLevelIdentifiable PrivacyLevel = "identifiable"
)

// IsValidPrivacyLevel reports whether the value is one of the declared tiers.
func IsValidPrivacyLevel(level string) bool {
	switch PrivacyLevel(level) {
	case PrivacyLevelAnonymous, PrivacyLevelPseudonymous, PrivacyLevelIdentifiable:
		return true
	default:
		return false
	}
}
