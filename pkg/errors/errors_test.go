package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "validation failed", http.StatusUnprocessableEntity)

	if err.Code != CodeValidation {
		t.Errorf("expected code %s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "validation failed" {
		t.Errorf("expected message 'validation failed', got %s", err.Message)
	}
	if err.HTTPStatus != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, err.HTTPStatus)
	}
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("connection refused")
	wrapped := Wrap(originalErr, CodeInternal, "internal error", http.StatusInternalServerError)

	if !errors.Is(wrapped, originalErr) {
		t.Error("expected wrapped error to unwrap to the original error")
	}
	if wrapped.Code != CodeInternal {
		t.Errorf("expected code %s, got %s", CodeInternal, wrapped.Code)
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name: "without underlying error",
			appErr: &AppError{
				Code:    CodeNotFound,
				Message: "booking not found",
			},
			expected: "NOT_FOUND: booking not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeUnavailable,
				Message: "reservation store is temporarily unavailable",
				Err:     errors.New("no reachable servers"),
			},
			expected: "SERVICE_UNAVAILABLE: reservation store is temporarily unavailable (caused by: no reachable servers)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNoAvailability(t *testing.T) {
	err := NoAvailability("64f000000000000000000001")

	if err.Code != CodeNoAvailability {
		t.Errorf("expected code %s, got %s", CodeNoAvailability, err.Code)
	}
	if err.HTTPStatus != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, err.HTTPStatus)
	}
	if err.Details["room_type_id"] != "64f000000000000000000001" {
		t.Error("expected room_type_id detail to be set")
	}
}

func TestInvalidTransition(t *testing.T) {
	err := InvalidTransition("booking is already cancelled")

	if err.Code != CodeInvalidTransition {
		t.Errorf("expected code %s, got %s", CodeInvalidTransition, err.Code)
	}
	if err.HTTPStatus != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, err.HTTPStatus)
	}
}

func TestIsCode(t *testing.T) {
	if !IsCode(NoAvailability("x"), CodeNoAvailability) {
		t.Error("IsCode should match the error's own code")
	}
	if IsCode(NoAvailability("x"), CodeNotFound) {
		t.Error("IsCode should not match a different code")
	}
	if IsCode(errors.New("plain"), CodeInternal) {
		t.Error("IsCode should be false for non-AppError values")
	}
}

func TestAsAppError(t *testing.T) {
	plain := errors.New("boom")
	appErr := AsAppError(plain)

	if appErr.Code != CodeInternal {
		t.Errorf("expected plain errors to become %s, got %s", CodeInternal, appErr.Code)
	}
	if !errors.Is(appErr, plain) {
		t.Error("expected converted error to wrap the original")
	}

	original := NotFound("booking")
	if AsAppError(original) != original {
		t.Error("expected AsAppError to return AppError values unchanged")
	}
}
