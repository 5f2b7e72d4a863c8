package simulator

import (
	"math"

	"github.com/osteocare-ai/osteocare/internal/domain"
)

// Risk score thresholds: below lowThreshold is Normal, up to highThreshold is
// Osteopenia, above is Osteoporosis. The maximum attainable score is maxRisk.
const (
	lowThreshold  = 6.0
	highThreshold = 13.0
	maxRisk       = 27.0
)

// Estimate is one simulated model output before clinical guidance is attached.
type Estimate struct {
	Label      string
	Confidence float64
	TScore     float64
	BMD        float64
	Evidence   string
	Metrics    map[string]string
}

// ageScore weighs age, the strongest single predictor.
func ageScore(age float64) float64 {
	switch {
	case age < 40:
		return 0
	case age < 50:
		return 1.0
	case age < 60:
		return 2.5
	case age < 70:
		return 4.5
	default:
		return 6.0
	}
}

// RiskScore accumulates the clinical risk score for a 16-slot feature vector.
func RiskScore(v domain.FeatureVector) float64 {
	risk := ageScore(v[domain.SlotAge])

	if v[domain.SlotUnderweight] == 1 {
		risk += 2.0
	}
	if v[domain.SlotGenderMale] == 0 {
		risk += 1.5
	}
	if v[domain.SlotPostmenopausal] == 1 {
		risk += 2.5
	}
	if v[domain.SlotCalciumLow] == 1 {
		risk += 1.5
	}
	if v[domain.SlotVitaminDSufficient] == 0 {
		risk += 1.5
	}
	if v[domain.SlotSedentary] == 1 {
		risk += 1.5
	}
	if v[domain.SlotSmoking] == 1 {
		risk += 1.5
	}
	if v[domain.SlotFamilyHistory] == 1 {
		risk += 2.0
	}
	if v[domain.SlotPriorFracture] == 1 {
		risk += 3.0
	}
	if v[domain.SlotRheumatoidArthritis] == 1 {
		risk += 2.5
	}
	return risk
}

// ScoreFeatures maps a feature vector to a label with calibrated confidence,
// T-score and BMD. Identical vectors always produce identical estimates.
func ScoreFeatures(v domain.FeatureVector) Estimate {
	risk := RiskScore(v)

	var label string
	var confidence float64
	switch {
	case risk < lowThreshold:
		label = domain.LabelNormal
		confidence = 0.72 + 0.25*(1-risk/lowThreshold)
	case risk <= highThreshold:
		label = domain.LabelOsteopenia
		mid := (lowThreshold + highThreshold) / 2
		dist := math.Abs(risk-mid) / ((highThreshold - lowThreshold) / 2)
		confidence = 0.75 + 0.15*(1-dist)
	default:
		label = domain.LabelOsteoporosis
		confidence = 0.74 + 0.24*math.Min((risk-highThreshold)/8, 1)
	}
	confidence = clamp(confidence, 0.70, 0.99)

	var sum float64
	for _, f := range v {
		sum += f
	}
	tJitter := (frac(sum*7.3) - 0.5) * 0.3
	bmdJitter := (frac(sum*3.7) - 0.5) * 0.05

	return Estimate{
		Label:      label,
		Confidence: round(confidence, 4),
		TScore:     round(0.5-(risk/maxRisk)*5+tJitter, 2),
		BMD:        round(clamp(1.05-(risk/maxRisk)*0.65+bmdJitter, 0.4, 1.2), 3),
		Evidence:   "Rule-based clinical scoring",
	}
}

func frac(x float64) float64 {
	return x - math.Floor(x)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
