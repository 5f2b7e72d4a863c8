package domain

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Clinical form field names.
const (
	FieldAge           = "age"
	FieldGender        = "gender"
	FieldWeight        = "weight"
	FieldHeight        = "height"
	FieldCalciumLevel  = "calciumLevel"
	FieldVitaminD      = "vitaminD"
	FieldExercise      = "exercise"
	FieldSmoking       = "smoking"
	FieldFamilyHistory = "familyHistory"
	FieldPrevFracture  = "prevFracture"
	FieldMedication    = "medication"
	FieldTScore        = "tScore"
	FieldBMD           = "bmd"
)

// ClinicalFormState holds the values a user entered in the manual predictor form.
// Values are strings or numbers; every field is optional.
type ClinicalFormState map[string]any

// Number returns the field as a finite float64. Numeric strings are accepted;
// booleans are not.
func (f ClinicalFormState) Number(key string) (float64, bool) {
	v, ok := f[key]
	if !ok || v == nil {
		return 0, false
	}
	switch x := v.(type) {
	case bool:
		return 0, false
	case string:
		v = strings.TrimSpace(x)
	}

	n, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// NumberOr returns the numeric field value or def when it is missing or invalid.
func (f ClinicalFormState) NumberOr(key string, def float64) float64 {
	if n, ok := f.Number(key); ok {
		return n
	}
	return def
}

// Text returns the field as a trimmed string. Numbers are formatted without
// trailing zeros; missing or non-scalar fields yield "".
func (f ClinicalFormState) Text(key string) string {
	t, err := cast.ToStringE(f[key])
	if err != nil {
		return ""
	}
	return strings.TrimSpace(t)
}

// Has reports whether the field was filled in.
func (f ClinicalFormState) Has(key string) bool {
	return f.Text(key) != ""
}
