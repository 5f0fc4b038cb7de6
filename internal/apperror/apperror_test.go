// Table-driven tests: one slice of cases, one loop, t.Run per case.
// Run with: go test ./internal/apperror/ -v
package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")

	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "MissingParameter wraps ErrValidation",
			err:       MissingParameter("username", "Username is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "AlreadyInProgress wraps ErrInProgress",
			err:       AlreadyInProgress("octocat"),
			target:    ErrInProgress,
			wantMatch: true,
		},
		{
			name:      "Upstream wraps ErrUpstream",
			err:       Upstream("user profile", cause),
			target:    ErrUpstream,
			wantMatch: true,
		},
		{
			name:      "Upstream exposes its cause",
			err:       Upstream("user profile", cause),
			target:    cause,
			wantMatch: true,
		},
		{
			name:      "FetchFailed reaches a nested upstream error",
			err:       FetchFailed("Failed to fetch GitHub data", Upstream("repositories", cause)),
			target:    ErrUpstream,
			wantMatch: true,
		},
		{
			name:      "FetchFailed survives fmt.Errorf wrapping",
			err:       fmt.Errorf("serving request: %w", FetchFailed("Failed to fetch GitHub data", cause)),
			target:    ErrFetchFailed,
			wantMatch: true,
		},
		{
			name:      "AlreadyInProgress does NOT match ErrValidation",
			err:       AlreadyInProgress("octocat"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "MissingParameter does NOT match ErrFetchFailed",
			err:       MissingParameter("username", "Username is required"),
			target:    ErrFetchFailed,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "MissingParameter uses custom message",
			err:         MissingParameter("username", "Username is required"),
			wantMessage: "Username is required",
		},
		{
			name:        "AlreadyInProgress has fixed message",
			err:         AlreadyInProgress("octocat"),
			wantMessage: "Request already in progress",
		},
		{
			name:        "Upstream names the resource and cause",
			err:         Upstream("contributions", errors.New("status 404")),
			wantMessage: "fetching contributions: status 404",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestFetchFailedKeepsMessageSeparateFromCause(t *testing.T) {
	err := FetchFailed("Failed to fetch GitHub data", errors.New("secret upstream body"))

	if err.Message != "Failed to fetch GitHub data" {
		t.Errorf("Message = %q, want generic text", err.Message)
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("errors.As did not find *AppError")
	}
}

func TestMissingParameterField(t *testing.T) {
	err := MissingParameter("username", "Username is required")

	if err.Field != "username" {
		t.Errorf("Field = %q, want %q", err.Field, "username")
	}
}
