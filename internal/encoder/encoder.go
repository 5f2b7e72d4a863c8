// Package encoder turns the manual predictor form into the fixed-order feature
// vector expected by the tabular ensemble model.
package encoder

import (
	"strings"

	"github.com/osteocare-ai/osteocare/internal/domain"
)

// Defaults applied when a numeric field is missing or unusable.
const (
	DefaultAge    = 50.0
	DefaultWeight = 65.0 // kg
	DefaultHeight = 165.0 // cm
)

// Clinical thresholds.
const (
	UnderweightBMI        = 18.5 // kg/m²
	LowCalciumMgDL        = 8.5
	SufficientVitaminDNgM = 20.0
	PostmenopausalAge     = 50.0
)

// Encode converts a form into a FeatureVector. It never fails: invalid input
// falls back to documented defaults, and slots the form does not collect stay 0.
func Encode(form domain.ClinicalFormState) domain.FeatureVector {
	var v domain.FeatureVector

	age := form.NumberOr(domain.FieldAge, DefaultAge)
	male := flag(strings.EqualFold(form.Text(domain.FieldGender), "male"))

	v[domain.SlotAge] = age
	v[domain.SlotGenderMale] = male
	v[domain.SlotPostmenopausal] = flag(male == 0 && age >= PostmenopausalAge)
	v[domain.SlotFamilyHistory] = flag(form.Text(domain.FieldFamilyHistory) != "No")

	// Ethnicity is not collected by the form.
	v[domain.SlotEthnicityAsian] = 0
	v[domain.SlotEthnicityCaucasian] = 0

	v[domain.SlotUnderweight] = flag(BMI(form) < UnderweightBMI)

	calcium, ok := form.Number(domain.FieldCalciumLevel)
	v[domain.SlotCalciumLow] = flag(ok && calcium < LowCalciumMgDL)

	vitD, ok := form.Number(domain.FieldVitaminD)
	v[domain.SlotVitaminDSufficient] = flag(ok && vitD >= SufficientVitaminDNgM)

	v[domain.SlotSedentary] = flag(form.Text(domain.FieldExercise) == "Sedentary")
	v[domain.SlotSmoking] = flag(form.Text(domain.FieldSmoking) != "Never")

	// The form asks these questions directly, so the "unknown" columns stay 0.
	v[domain.SlotAlcoholUnknown] = 0
	v[domain.SlotRheumatoidArthritis] = 0
	v[domain.SlotConditionUnknown] = 0
	v[domain.SlotMedicationUnknown] = 0

	v[domain.SlotPriorFracture] = flag(form.Text(domain.FieldPrevFracture) != "None")

	return v
}

// BMI computes body-mass index from the form's weight (kg) and height (cm).
// Missing or non-positive values use the defaults.
func BMI(form domain.ClinicalFormState) float64 {
	weight := positiveOr(form, domain.FieldWeight, DefaultWeight)
	heightM := positiveOr(form, domain.FieldHeight, DefaultHeight) / 100
	return weight / (heightM * heightM)
}

func positiveOr(form domain.ClinicalFormState, key string, def float64) float64 {
	if n, ok := form.Number(key); ok && n > 0 {
		return n
	}
	return def
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
