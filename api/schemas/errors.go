package schemas

import "fmt"

// Provider-reported error type strings, as they appear on the wire. The
// transport layer decodes raw failures into these so that classification
// upstream matches on a closed set instead of probing unknown shapes.
const (
	APIErrorRateLimit      = "rate_limit_error"
	APIErrorOverloaded     = "overloaded_error"
	APIErrorGeneric        = "api_error"
	APIErrorAuthentication = "authentication_error"
	APIErrorInvalidRequest = "invalid_request_error"
)

// ErrorKind is the closed taxonomy every summarize failure is mapped into.
type ErrorKind string

const (
	ErrKindValidation     ErrorKind = "validation"
	ErrKindAuth           ErrorKind = "auth"
	ErrKindInvalidRequest ErrorKind = "invalid_request"
	ErrKindRateLimit      ErrorKind = "rate_limit"
	ErrKindCapacity       ErrorKind = "capacity"
	ErrKindNetwork        ErrorKind = "network"
	ErrKindAPIError       ErrorKind = "api_error"
	ErrKindStructural     ErrorKind = "structural"
	ErrKindUnknown        ErrorKind = "unknown"
)

// ProviderError is a failure reported by the completion provider itself.
// Type carries the provider's own error type string (one of the APIError*
// constants, or whatever unrecognized value the provider sent).
type ProviderError struct {
	Type       string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider error [%s] (HTTP %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider error [%s]: %s", e.Type, e.Message)
}

// TransportError is a network-level failure: connection reset, refused,
// timeout, or any other error raised before a provider response was decoded.
type TransportError struct {
	Timeout bool
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("transport error: %s", e.Message)
	}
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
