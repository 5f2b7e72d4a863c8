// Package normalizer maps provider specific prediction payloads into the
// canonical NormalizedResult.
package normalizer

// FieldMapping lists, per canonical field, the provider keys to look up in
// priority order. Supporting a new provider means supplying a new mapping.
type FieldMapping struct {
	Name             string
	Diagnosis        []string
	Confidence       []string
	TScore           []string
	BMD              []string
	FractureRisk     []string
	Suggestions      []string
	Medications      []string
	EvidenceSource   []string
	ExtractedMetrics []string

	// Keys inside a structured medication entry.
	MedicationName   []string
	MedicationClass  []string
	MedicationDosage []string
	MedicationNote   []string
}

// SnakeCaseMapping matches the FastAPI inference backend.
var SnakeCaseMapping = FieldMapping{
	Name:             "snake_case",
	Diagnosis:        []string{"prediction", "diagnosis", "label"},
	Confidence:       []string{"confidence", "probability"},
	TScore:           []string{"t_score"},
	BMD:              []string{"bmd"},
	FractureRisk:     []string{"fracture_risk"},
	Suggestions:      []string{"suggestions"},
	Medications:      []string{"medications"},
	EvidenceSource:   []string{"evidence_source"},
	ExtractedMetrics: []string{"extracted_data", "extracted_metrics"},
	MedicationName:   []string{"name", "drug_name", "drug"},
	MedicationClass:  []string{"class", "drug_class"},
	MedicationDosage: []string{"dosage", "dose"},
	MedicationNote:   []string{"note", "notes"},
}

// CamelCaseMapping matches JavaScript style providers and the local simulations.
var CamelCaseMapping = FieldMapping{
	Name:             "camelCase",
	Diagnosis:        []string{"label", "diagnosis", "prediction"},
	Confidence:       []string{"confidence", "probability", "score"},
	TScore:           []string{"tScore", "tscore"},
	BMD:              []string{"bmd", "boneMineralDensity"},
	FractureRisk:     []string{"fractureRisk", "tenYearFractureRisk"},
	Suggestions:      []string{"suggestions", "recommendations"},
	Medications:      []string{"medications", "medicationList"},
	EvidenceSource:   []string{"evidenceSource", "evidence"},
	ExtractedMetrics: []string{"extractedData", "extractedMetrics", "metrics"},
	MedicationName:   []string{"name", "drugName", "drug"},
	MedicationClass:  []string{"class", "drugClass"},
	MedicationDosage: []string{"dosage", "dose"},
	MedicationNote:   []string{"note", "notes"},
}

// DefaultMapping accepts both snake_case and camelCase providers.
var DefaultMapping = Merge("default", SnakeCaseMapping, CamelCaseMapping)

// Merge concatenates the candidate keys of several mappings, keeping the first
// occurrence of each key.
func Merge(name string, mappings ...FieldMapping) FieldMapping {
	out := FieldMapping{Name: name}
	for _, m := range mappings {
		out.Diagnosis = appendUnique(out.Diagnosis, m.Diagnosis...)
		out.Confidence = appendUnique(out.Confidence, m.Confidence...)
		out.TScore = appendUnique(out.TScore, m.TScore...)
		out.BMD = appendUnique(out.BMD, m.BMD...)
		out.FractureRisk = appendUnique(out.FractureRisk, m.FractureRisk...)
		out.Suggestions = appendUnique(out.Suggestions, m.Suggestions...)
		out.Medications = appendUnique(out.Medications, m.Medications...)
		out.EvidenceSource = appendUnique(out.EvidenceSource, m.EvidenceSource...)
		out.ExtractedMetrics = appendUnique(out.ExtractedMetrics, m.ExtractedMetrics...)
		out.MedicationName = appendUnique(out.MedicationName, m.MedicationName...)
		out.MedicationClass = appendUnique(out.MedicationClass, m.MedicationClass...)
		out.MedicationDosage = appendUnique(out.MedicationDosage, m.MedicationDosage...)
		out.MedicationNote = appendUnique(out.MedicationNote, m.MedicationNote...)
	}
	return out
}

func appendUnique(dst []string, keys ...string) []string {
	for _, k := range keys {
		found := false
		for _, existing := range dst {
			if existing == k {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, k)
		}
	}
	return dst
}
