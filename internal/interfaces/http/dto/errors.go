package dto

import (
	"net/http"

	"github.com/storepos/backend/internal/domain/shared"
)

// Error codes produced by the HTTP layer itself. Domain errors keep the code
// their DomainError carries.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeConflict is used when work on the resource is already in progress
	ErrCodeConflict = "CONFLICT"
	// ErrCodePushInProgress is used when an order push is already claimed
	ErrCodePushInProgress = "PUSH_IN_PROGRESS"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	// ErrCodeNotConfigured is used when an optional feature is switched off
	ErrCodeNotConfigured = "NOT_CONFIGURED"
	// ErrCodeRateLimited is used when a client exceeds its request budget
	ErrCodeRateLimited = "RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeValidation:            http.StatusBadRequest,
	ErrCodeBadRequest:            http.StatusBadRequest,
	shared.CodeInvalidInput:      http.StatusBadRequest,
	shared.CodeInvalidAdjustment: http.StatusBadRequest,
	shared.CodeInvalidOrder:      http.StatusBadRequest,
	ErrCodeRequestTooLarge:       http.StatusRequestEntityTooLarge,

	// Auth errors
	shared.CodeUnauthorized: http.StatusUnauthorized,
	shared.CodeForbidden:    http.StatusForbidden,

	// Resource errors
	shared.CodeNotFound:   http.StatusNotFound,
	ErrCodeConflict:       http.StatusConflict,
	ErrCodePushInProgress: http.StatusConflict,

	// Commerce platform errors
	shared.CodeUpstreamUnavailable: http.StatusServiceUnavailable,
	shared.CodeUpstreamRejected:    http.StatusBadGateway,
	shared.CodeNoDataAvailable:     http.StatusServiceUnavailable,
	ErrCodeNotConfigured:           http.StatusServiceUnavailable,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
