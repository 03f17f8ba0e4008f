package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// AuthError means the provider rejected the credentials (HTTP 401/403) or none were given.
type AuthError struct {
	Provider   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.Cause }

// NetworkError wraps a connection or transport-level failure.
type NetworkError struct {
	Provider string
	Message  string
	Cause    error
}

func (e *NetworkError) Error() string { return e.Message }
func (e *NetworkError) Unwrap() error { return e.Cause }

// MalformedResponseError means a 2xx response could not be parsed or lacked the
// expected content field.
type MalformedResponseError struct {
	Provider string
	Message  string
	Raw      []byte
	Cause    error
}

func (e *MalformedResponseError) Error() string { return e.Message }
func (e *MalformedResponseError) Unwrap() error { return e.Cause }

// UnsupportedProviderError is returned when no transport can be built for a provider id.
type UnsupportedProviderError struct {
	Provider string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported provider: %s", e.Provider)
}

// CancelledError reports that a request was aborted by a newer send or an explicit cancel.
// It is a silent termination, not a user-facing failure.
type CancelledError struct {
	Provider string
	Cause    error
}

func (e *CancelledError) Error() string { return "request was cancelled" }
func (e *CancelledError) Unwrap() error { return e.Cause }

// APIError covers non-2xx responses that are not authentication failures.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Raw        []byte
}

func (e *APIError) Error() string { return e.Message }

// StatusMessage is the detail used when an error body carries no error.message.
func StatusMessage(status int) string {
	return fmt.Sprintf("API request failed: %d", status)
}

// HTTPError classifies a non-2xx response. An empty message falls back to StatusMessage.
func HTTPError(providerID string, status int, message string, raw []byte) error {
	if message == "" {
		message = StatusMessage(status)
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Provider: providerID, StatusCode: status, Message: message}
	default:
		return &APIError{Provider: providerID, StatusCode: status, Message: message, Raw: raw}
	}
}

// Cancelled wraps err as a CancelledError when it stems from context cancellation.
// ctx is consulted too, because some clients surface cancellation as a plain I/O error.
func Cancelled(ctx context.Context, providerID string, err error) (error, bool) {
	if errors.Is(err, context.Canceled) || (ctx != nil && errors.Is(ctx.Err(), context.Canceled)) {
		return &CancelledError{Provider: providerID, Cause: err}, true
	}
	return nil, false
}

// IsCancelled reports whether err represents a cancelled request.
func IsCancelled(err error) bool {
	var ce *CancelledError
	return errors.As(err, &ce) || errors.Is(err, context.Canceled)
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
