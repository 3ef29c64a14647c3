// File: internal/summarizer/errors.go
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/cadence-health/carebrief/api/schemas"
)

// ErrorInfo is the classification of a raw failure: whether another attempt
// may succeed, the taxonomy kind, and a caller-facing message.
type ErrorInfo struct {
	Retryable bool
	Message   string
	Kind      schemas.ErrorKind
}

// Classify maps any failure into the closed taxonomy. It never fails and
// always returns a classification. Dispatch order: provider-reported error
// type first, then network-level signals, then the unknown fallback.
func Classify(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{Retryable: false, Message: "unknown error", Kind: schemas.ErrKindUnknown}
	}

	var provErr *schemas.ProviderError
	if errors.As(err, &provErr) {
		return classifyProviderType(provErr)
	}

	if isNetworkFailure(err) {
		return ErrorInfo{Retryable: true, Message: err.Error(), Kind: schemas.ErrKindNetwork}
	}

	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		msg = "unknown error"
	}
	return ErrorInfo{Retryable: false, Message: msg, Kind: schemas.ErrKindUnknown}
}

func classifyProviderType(provErr *schemas.ProviderError) ErrorInfo {
	switch provErr.Type {
	case schemas.APIErrorRateLimit:
		return ErrorInfo{Retryable: true, Message: "Rate limit exceeded. Please try again later.", Kind: schemas.ErrKindRateLimit}
	case schemas.APIErrorOverloaded:
		return ErrorInfo{Retryable: true, Message: "Service temporarily overloaded. Please try again.", Kind: schemas.ErrKindCapacity}
	case schemas.APIErrorGeneric:
		return ErrorInfo{Retryable: true, Message: "API error occurred. Please try again.", Kind: schemas.ErrKindAPIError}
	case schemas.APIErrorAuthentication:
		return ErrorInfo{Retryable: false, Message: "Authentication failed. Please check API configuration.", Kind: schemas.ErrKindAuth}
	case schemas.APIErrorInvalidRequest:
		return ErrorInfo{Retryable: false, Message: "Invalid request format.", Kind: schemas.ErrKindInvalidRequest}
	default:
		// Unrecognized provider error types default to retryable; the message
		// passes through untouched.
		return ErrorInfo{Retryable: true, Message: provErr.Message, Kind: schemas.ErrKindUnknown}
	}
}

// isNetworkFailure reports whether the error carries a reset/timeout signal
// from the network layer.
func isNetworkFailure(err error) bool {
	var transErr *schemas.TransportError
	if errors.As(err, &transErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// SummaryError is the terminal failure returned by Summarize. It enriches the
// original error with the taxonomy kind, retryability and call timing while
// leaving the original reachable through Unwrap.
type SummaryError struct {
	Kind           schemas.ErrorKind
	Retryable      bool
	Message        string
	Persona        schemas.Persona
	ProcessingTime time.Duration
	Err            error
}

func (e *SummaryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("summarize failed [%s]: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("summarize failed [%s]: %s", e.Kind, e.Message)
}

func (e *SummaryError) Unwrap() error { return e.Err }
