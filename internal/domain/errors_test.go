package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestTransportError(t *testing.T) {
	tests := []struct {
		name     string
		err      *TransportError
		expected string
	}{
		{
			name:     "Server detail",
			err:      NewTransportError(ModalityXRay, 415, "Unsupported file type 'text/plain'"),
			expected: "Unsupported file type 'text/plain'",
		},
		{
			name:     "Generic status",
			err:      NewTransportError(ModalityManual, 500, ""),
			expected: "Server error 500",
		},
		{
			name:     "Network failure",
			err:      &TransportError{Modality: ModalityReport, Err: errors.New("connection refused")},
			expected: "network error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expected {
				t.Errorf("Expected error string %s, got %s", tt.expected, tt.err.Error())
			}
			if tt.err.Code() != ErrCodeTransport {
				t.Errorf("Expected code %s, got %s", ErrCodeTransport, tt.err.Code())
			}
		})
	}
}

func TestAssessmentError(t *testing.T) {
	cause := NewTransportError(ModalityMRI, 502, "")
	err := fmt.Errorf("submit: %w", &AssessmentError{Modality: ModalityMRI, Err: cause})

	var assessErr *AssessmentError
	if !errors.As(err, &assessErr) {
		t.Fatal("Expected AssessmentError in chain")
	}

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatal("Expected TransportError in chain")
	}
	if transportErr.StatusCode != 502 {
		t.Errorf("Expected status 502, got %d", transportErr.StatusCode)
	}

	msg := assessErr.UserMessage()
	if !strings.Contains(msg, "MRI/CT") {
		t.Errorf("Expected modality in user message, got %s", msg)
	}
	if strings.Contains(msg, "502") {
		t.Errorf("User message must not leak transport status, got %s", msg)
	}
}

func TestFailureMessagesAreDistinct(t *testing.T) {
	seen := map[string]Modality{}
	for _, m := range []Modality{ModalityManual, ModalityReport, ModalityXRay, ModalityMRI} {
		msg := FailureMessage(m)
		if prev, ok := seen[msg]; ok {
			t.Errorf("Modalities %s and %s share failure message %q", prev, m, msg)
		}
		seen[msg] = m
	}
}

func TestInFlightUserMessage(t *testing.T) {
	err := &AssessmentError{Modality: ModalityManual, Err: ErrSubmissionInProgress}
	if err.UserMessage() == FailureMessage(ModalityManual) {
		t.Error("Expected dedicated message for overlapping submissions")
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		message string
		value   interface{}
	}{
		{
			name:    "String validation error",
			field:   "backend.base_url",
			message: "Invalid URL",
			value:   "://bad",
		},
		{
			name:    "Float validation error",
			field:   "postprocess.override_probability",
			message: "Must be between 0 and 1",
			value:   1.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message, tt.value)

			if err.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, err.Field)
			}
			if err.Value != tt.value {
				t.Errorf("Expected value %v, got %v", tt.value, err.Value)
			}

			expectedError := "validation error for field '" + tt.field + "': " + tt.message
			if err.Error() != expectedError {
				t.Errorf("Expected error string %s, got %s", expectedError, err.Error())
			}
		})
	}
}
