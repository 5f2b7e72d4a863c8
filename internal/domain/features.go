package domain

// FeatureCount is the number of columns the tabular ensemble expects.
const FeatureCount = 16

// Feature slot indices. Position is the schema: consumers index, never search.
const (
	SlotAge = iota
	SlotGenderMale
	SlotPostmenopausal
	SlotFamilyHistory
	SlotEthnicityAsian
	SlotEthnicityCaucasian
	SlotUnderweight
	SlotCalciumLow
	SlotVitaminDSufficient
	SlotSedentary
	SlotSmoking
	SlotAlcoholUnknown
	SlotRheumatoidArthritis
	SlotConditionUnknown
	SlotMedicationUnknown
	SlotPriorFracture
)

// FeatureNames lists the model's feature columns in slot order.
var FeatureNames = [FeatureCount]string{
	"Age",
	"Gender_Male",
	"Hormonal Changes_Postmenopausal",
	"Family History_Yes",
	"Race/Ethnicity_Asian",
	"Race/Ethnicity_Caucasian",
	"Body Weight_Underweight",
	"Calcium Intake_Low",
	"Vitamin D Intake_Sufficient",
	"Physical Activity_Sedentary",
	"Smoking_Yes",
	"Alcohol Consumption_Unknown",
	"Medical Conditions_Rheumatoid Arthritis",
	"Medical Conditions_Unknown",
	"Medications_Unknown",
	"Prior Fractures_Yes",
}

// FeatureVector is the fixed-order numeric input of the manual prediction model.
// The array type fixes the length at 16.
type FeatureVector [FeatureCount]float64

// Slice returns the vector as a slice, e.g. for JSON request bodies.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, v[:])
	return out
}

// Named returns the vector keyed by feature column name.
func (v FeatureVector) Named() map[string]float64 {
	out := make(map[string]float64, FeatureCount)
	for i, name := range FeatureNames {
		out[name] = v[i]
	}
	return out
}

// FeatureVectorFromSlice copies values into a FeatureVector. ok is false when
// the slice length does not match FeatureCount.
func FeatureVectorFromSlice(values []float64) (FeatureVector, bool) {
	var v FeatureVector
	if len(values) != FeatureCount {
		return v, false
	}
	copy(v[:], values)
	return v, true
}
