package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/pkg/errors"
)

func TestException_IsMatchesSentinelWithFields(t *testing.T) {
	err := NewValidationError(map[string]string{"patientName": "too short"})

	if !errors.Is(err, ErrValidationFailed) {
		t.Fatal("expected validation error to match its sentinel")
	}
	if errors.Is(err, ErrTokenNotFound) {
		t.Fatal("validation error must not match not-found")
	}
}

func TestException_ErrorListsFieldsSorted(t *testing.T) {
	err := NewValidationError(map[string]string{
		"phoneNumber": "must contain 10-15 digits",
		"patientName": "must be 3-50 characters",
	})

	want := "validation failed: patientName: must be 3-50 characters, phoneNumber: must contain 10-15 digits"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestException_StatusCodeThroughWrapping(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := errors.Wrap(ErrStoreUnavailable.WithCause(cause), "list tokens")

	if got := StatusCode(err); got != http.StatusServiceUnavailable {
		t.Errorf("expected %d, got %d", http.StatusServiceUnavailable, got)
	}
	if errors.Cause(err) == nil {
		t.Error("expected a cause")
	}
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Error("expected wrapped error to match ErrStoreUnavailable")
	}
}

func TestStatusCode_UnknownErrorIsInternal(t *testing.T) {
	if got := StatusCode(fmt.Errorf("boom")); got != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", got)
	}
}

func TestException_WithCauseDoesNotMutateSentinel(t *testing.T) {
	_ = ErrNumberGenerationFailed.WithCause(fmt.Errorf("redis down"))

	if ErrNumberGenerationFailed.Err != nil {
		t.Error("sentinel was mutated")
	}
}
