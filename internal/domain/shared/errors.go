package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, ErrNotFound) matches any NOT_FOUND error regardless of message.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error carrying an underlying cause
func WrapDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeInvalidAdjustment   = "INVALID_ADJUSTMENT"
	CodeInvalidOrder        = "INVALID_ORDER"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeUpstreamRejected    = "UPSTREAM_REJECTED"
	CodeNoDataAvailable     = "NO_DATA_AVAILABLE"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrInvalidAdjustment   = NewDomainError(CodeInvalidAdjustment, "Invalid stock adjustment")
	ErrInvalidOrder        = NewDomainError(CodeInvalidOrder, "Invalid order")
	ErrUpstreamUnavailable = NewDomainError(CodeUpstreamUnavailable, "Commerce platform is unavailable")
	ErrUpstreamRejected    = NewDomainError(CodeUpstreamRejected, "Commerce platform rejected the request")
	ErrNoDataAvailable     = NewDomainError(CodeNoDataAvailable, "No data available")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden           = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
)

// NewNotFound returns a NOT_FOUND error with a specific message
func NewNotFound(message string) *DomainError {
	return NewDomainError(CodeNotFound, message)
}

// NewInvalidInput returns an INVALID_INPUT error with a specific message
func NewInvalidInput(message string) *DomainError {
	return NewDomainError(CodeInvalidInput, message)
}

// NewInvalidAdjustment returns an INVALID_ADJUSTMENT error with a specific message
func NewInvalidAdjustment(message string) *DomainError {
	return NewDomainError(CodeInvalidAdjustment, message)
}

// NewInvalidOrder returns an INVALID_ORDER error with a specific message
func NewInvalidOrder(message string) *DomainError {
	return NewDomainError(CodeInvalidOrder, message)
}

// NewUpstreamUnavailable wraps a transport-level failure talking to the commerce platform
func NewUpstreamUnavailable(message string, err error) *DomainError {
	return WrapDomainError(CodeUpstreamUnavailable, message, err)
}

// NewUpstreamRejected reports a 4xx answer from the commerce platform
func NewUpstreamRejected(message string) *DomainError {
	return NewDomainError(CodeUpstreamRejected, message)
}

// IsNotFound reports whether err is a NOT_FOUND domain error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable reports whether err is transient and the operation may be retried later
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}
