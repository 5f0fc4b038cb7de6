// Package apperror defines the domain errors shared by the service and
// handler layers. Services return these; handlers translate them to HTTP.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrInProgress  = errors.New("request already in progress")
	ErrUpstream    = errors.New("upstream failure")
	ErrFetchFailed = errors.New("fetch failed")
)

type AppError struct {
	Err     error  // sentinel, matched with errors.Is
	Message string // Human-readable error message, safe to show callers
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying error, logged but never exposed
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause so errors.Is and errors.As
// can reach either one.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// MissingParameter reports a required request parameter that was absent or
// blank. HTTP handlers map this to 400 Bad Request.
func MissingParameter(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// AlreadyInProgress reports that a fetch for key is already running.
// The caller should retry later; HTTP handlers map this to 429.
func AlreadyInProgress(key string) *AppError {
	return &AppError{
		Err:     ErrInProgress,
		Message: "Request already in progress",
		Field:   key,
	}
}

// Upstream wraps the terminal failure of one upstream resource.
func Upstream(resource string, cause error) *AppError {
	return &AppError{
		Err:     ErrUpstream,
		Message: fmt.Sprintf("fetching %s", resource),
		Cause:   cause,
	}
}

// FetchFailed is what the coordinator hands back when an aggregation fails.
// Message is the generic text shown to callers; cause stays internal.
func FetchFailed(message string, cause error) *AppError {
	return &AppError{
		Err:     ErrFetchFailed,
		Message: message,
		Cause:   cause,
	}
}
