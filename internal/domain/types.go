// Package domain contains the core entities for osteoporosis risk assessment:
// clinical form input, the model feature vector, raw provider responses and the
// canonical prediction result rendered by every presentation surface.
package domain

import (
	"errors"
	"strings"
)

// Modality identifies the data source a prediction was produced from.
type Modality string

const (
	ModalityManual Modality = "manual"
	ModalityReport Modality = "report"
	ModalityXRay   Modality = "xray"
	ModalityMRI    Modality = "mri"
)

// RiskLevel is the qualitative risk bucket shown next to a diagnosis.
// It is always derived from the diagnosis label, never taken from a provider.
type RiskLevel string

const (
	RiskHigh     RiskLevel = "High"
	RiskModerate RiskLevel = "Moderate"
	RiskLow      RiskLevel = "Low"
)

// Diagnosis labels produced by the prediction backends.
const (
	LabelNormal       = "Normal"
	LabelOsteopenia   = "Osteopenia"
	LabelOsteoporosis = "Osteoporosis"
)

var (
	ErrInvalidModality  = errors.New("invalid modality")
	ErrInvalidRiskLevel = errors.New("invalid risk level")
)

// IsValid reports whether m is one of the supported modalities.
func (m Modality) IsValid() bool {
	switch m {
	case ModalityManual, ModalityReport, ModalityXRay, ModalityMRI:
		return true
	default:
		return false
	}
}

// String returns the human readable modality name.
func (m Modality) String() string {
	switch m {
	case ModalityManual:
		return "Manual"
	case ModalityReport:
		return "Report"
	case ModalityXRay:
		return "X-Ray"
	case ModalityMRI:
		return "MRI/CT"
	default:
		return string(m)
	}
}

// ParseModality converts a command or route name into a Modality.
func ParseModality(s string) (Modality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "manual", "form":
		return ModalityManual, nil
	case "report", "dexa":
		return ModalityReport, nil
	case "xray", "x-ray":
		return ModalityXRay, nil
	case "mri", "ct", "mri-ct", "mri/ct":
		return ModalityMRI, nil
	default:
		return "", ErrInvalidModality
	}
}

// IsValid reports whether r is one of the three risk buckets.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskHigh, RiskModerate, RiskLow:
		return true
	default:
		return false
	}
}
