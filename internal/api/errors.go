package api

import (
	"context"
	"errors"
	"fmt"
)

// TransportError covers failures below the envelope: network errors,
// HTML pages served instead of JSON, and non-2xx responses without an
// envelope.
type TransportError struct {
	Method string
	Path   string
	Status int
	HTML   bool
	Err    error
}

func (e *TransportError) Error() string {
	switch {
	case e.HTML:
		return fmt.Sprintf("%s %s: received HTML response when expecting JSON (status %d)", e.Method, e.Path, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	default:
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Status)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is an application error reported by the backend through an
// envelope with success set to false.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %s (%d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// AuthError is returned on HTTP 401. The session has already been
// invalidated by the time the caller sees it.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return "auth error: " + e.Message
}

// ValidationError is raised client-side before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Message returns the human-readable text shown to the user for err.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var (
		apiErr       *APIError
		authErr      *AuthError
		transportErr *TransportError
		validErr     *ValidationError
	)
	switch {
	case errors.As(err, &validErr):
		return validErr.Message
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return defaultMessage
	case errors.As(err, &authErr):
		return "Session expired. Please login again."
	case errors.As(err, &transportErr):
		if transportErr.HTML {
			return "Server Error: Received HTML instead of JSON"
		}
		if transportErr.Status != 0 {
			return fmt.Sprintf("Server error (%d)", transportErr.Status)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "Request timed out"
		}
		return "Network error. Check your connection."
	default:
		return err.Error()
	}
}

const defaultMessage = "An error occurred"
