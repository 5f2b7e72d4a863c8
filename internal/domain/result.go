package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// RawPredictionResponse is whatever a prediction provider returned, decoded
// from JSON. Field names are provider specific.
type RawPredictionResponse map[string]any

// Medication is either a structured prescription entry or a bare text line.
type Medication struct {
	Name   string `json:"name,omitempty"`
	Class  string `json:"class,omitempty"`
	Dosage string `json:"dosage,omitempty"`
	Note   string `json:"note,omitempty"`

	// Text holds a bare string entry. It is set only for unstructured items.
	Text string `json:"-"`
}

// IsBare reports whether the medication is a plain text line.
func (m Medication) IsBare() bool {
	return m.Name == "" && m.Class == "" && m.Dosage == "" && m.Note == ""
}

// String renders the medication for plain text output.
func (m Medication) String() string {
	if m.IsBare() {
		return m.Text
	}
	s := m.Name
	if m.Dosage != "" {
		s += ": " + m.Dosage
	}
	if m.Class != "" {
		s += fmt.Sprintf(" (%s)", m.Class)
	}
	if m.Note != "" {
		s += " - " + m.Note
	}
	return s
}

type medicationFields struct {
	Name   string `json:"name,omitempty"`
	Class  string `json:"class,omitempty"`
	Dosage string `json:"dosage,omitempty"`
	Note   string `json:"note,omitempty"`
}

// MarshalJSON encodes bare entries as strings and structured ones as objects.
func (m Medication) MarshalJSON() ([]byte, error) {
	if m.IsBare() {
		return json.Marshal(m.Text)
	}
	return json.Marshal(medicationFields{Name: m.Name, Class: m.Class, Dosage: m.Dosage, Note: m.Note})
}

// UnmarshalJSON accepts either a string or an object.
func (m *Medication) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*m = Medication{Text: text}
		return nil
	}
	var fields medicationFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("medication must be a string or an object: %w", err)
	}
	*m = Medication{Name: fields.Name, Class: fields.Class, Dosage: fields.Dosage, Note: fields.Note}
	return nil
}

// NormalizedResult is the canonical prediction record, identical in shape for
// every modality.
type NormalizedResult struct {
	Diagnosis        string            `json:"diagnosis"`
	RiskLevel        RiskLevel         `json:"risk_level"`
	Confidence       float64           `json:"confidence"`
	TScore           *float64          `json:"t_score"`
	BMD              *float64          `json:"bmd"`
	FractureRisk     string            `json:"fracture_risk"`
	Suggestions      []string          `json:"suggestions"`
	Medications      []Medication      `json:"medications"`
	EvidenceSource   string            `json:"evidence_source"`
	ExtractedMetrics map[string]string `json:"extracted_metrics"`
	Modality         Modality          `json:"modality"`
	GeneratedAt      time.Time         `json:"generated_at"`
}

// Clone returns a deep copy so post-processing never aliases caller state.
func (r NormalizedResult) Clone() NormalizedResult {
	out := r
	if r.TScore != nil {
		v := *r.TScore
		out.TScore = &v
	}
	if r.BMD != nil {
		v := *r.BMD
		out.BMD = &v
	}
	out.Suggestions = append([]string{}, r.Suggestions...)
	out.Medications = append([]Medication{}, r.Medications...)
	out.ExtractedMetrics = make(map[string]string, len(r.ExtractedMetrics))
	for k, v := range r.ExtractedMetrics {
		out.ExtractedMetrics[k] = v
	}
	return out
}

// FileUpload is a single binary file submitted to a file-accepting endpoint.
type FileUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}
