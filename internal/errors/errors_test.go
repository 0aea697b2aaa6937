package errors

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{"validation", NewValidationError("bad", nil), ErrorTypeValidation, http.StatusBadRequest},
		{"network", NewNetworkError("down", nil), ErrorTypeNetwork, http.StatusBadGateway},
		{"processing", NewProcessingError("parse", nil), ErrorTypeProcessing, http.StatusUnprocessableEntity},
		{"structural", NewStructuralError("not fits", io.ErrUnexpectedEOF), ErrorTypeStructural, http.StatusUnprocessableEntity},
		{"timeout", NewTimeoutError("slow", nil), ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"not found", NewNotFoundError("gone", nil), ErrorTypeNotFound, http.StatusNotFound},
		{"internal", NewInternalError("boom", nil), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.wantType {
				t.Errorf("Type = %s, want %s", tt.err.Type, tt.wantType)
			}
			if got := GetStatusCode(tt.err); got != tt.wantStatus {
				t.Errorf("GetStatusCode() = %d, want %d", got, tt.wantStatus)
			}
			if !IsType(tt.err, tt.wantType) {
				t.Errorf("IsType(%s) = false", tt.wantType)
			}
		})
	}
}

func TestWrappedAppError(t *testing.T) {
	cause := io.ErrUnexpectedEOF
	err := fmt.Errorf("reading m31.fits: %w", NewStructuralError("not a FITS file", cause))

	if !IsType(err, ErrorTypeStructural) {
		t.Error("wrapped structural error not recognised")
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if got := GetStatusCode(err); got != http.StatusUnprocessableEntity {
		t.Errorf("GetStatusCode() = %d", got)
	}
	if got := GetStatusCode(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("GetStatusCode(plain) = %d", got)
	}
}

func TestErrorString(t *testing.T) {
	err := NewNetworkError("lookup failed", errors.New("dial tcp"))
	want := "network: lookup failed (caused by: dial tcp)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	detailed := err.WithDetails("name=M31")
	if detailed.Details != "name=M31" || err.Details != "" {
		t.Error("WithDetails must not mutate the receiver")
	}
}
