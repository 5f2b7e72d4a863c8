package domain

import (
	"errors"
	"fmt"
)

// Error codes for different failure scenarios
const (
	ErrCodeTransport  = "TRANSPORT_ERROR"
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeInFlight   = "SUBMISSION_IN_PROGRESS"
)

// ErrSubmissionInProgress is returned when a submission is attempted while
// another one has not resolved yet.
var ErrSubmissionInProgress = errors.New("a submission is already in progress")

// TransportError is the single failure class of the prediction pipeline:
// a non-success response or a network failure.
type TransportError struct {
	Modality   Modality `json:"modality"`
	StatusCode int      `json:"status_code,omitempty"`
	Detail     string   `json:"detail,omitempty"`
	Err        error    `json:"-"`
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("Server error %d", e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("network error: %v", e.Err)
	}
	return "network error"
}

// Unwrap returns the underlying cause, if any.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Code returns the stable error code.
func (e *TransportError) Code() string {
	return ErrCodeTransport
}

// NewTransportError creates a TransportError for a non-success HTTP status.
func NewTransportError(modality Modality, status int, detail string) *TransportError {
	return &TransportError{
		Modality:   modality,
		StatusCode: status,
		Detail:     detail,
	}
}

// AssessmentError wraps a pipeline failure with the modality that produced it.
type AssessmentError struct {
	Modality Modality
	Err      error
}

// Error implements the error interface
func (e *AssessmentError) Error() string {
	return fmt.Sprintf("%s prediction failed: %v", e.Modality.String(), e.Err)
}

// Unwrap returns the underlying cause.
func (e *AssessmentError) Unwrap() error {
	return e.Err
}

// UserMessage is the generic message shown to end users. It identifies the
// failing pipeline without leaking transport details.
func (e *AssessmentError) UserMessage() string {
	if errors.Is(e.Err, ErrSubmissionInProgress) {
		return "A prediction is already running. Please wait for it to finish."
	}
	return FailureMessage(e.Modality)
}

// FailureMessage returns the per-modality failure message.
func FailureMessage(m Modality) string {
	switch m {
	case ModalityManual:
		return "Manual prediction failed. Please check your inputs and try again."
	case ModalityReport:
		return "Report analysis failed. Please upload a valid PDF or image report."
	case ModalityXRay:
		return "X-ray analysis failed. Please upload a clear bone X-ray image."
	case ModalityMRI:
		return "MRI/CT analysis failed. Please upload a valid MRI or CT scan image."
	default:
		return "Prediction failed. Please try again."
	}
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}
