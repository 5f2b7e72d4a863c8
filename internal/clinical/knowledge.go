// Package clinical holds the per-diagnosis guidance returned alongside a
// prediction: lifestyle suggestions, medications, reference ranges and the
// 10-year fracture risk band.
package clinical

import (
	"strings"

	"github.com/osteocare-ai/osteocare/internal/domain"
)

// Range is a closed numeric interval.
type Range struct {
	Min float64
	Max float64
}

// Lerp maps u in [0,1] onto the range.
func (r Range) Lerp(u float64) float64 {
	return r.Min + u*(r.Max-r.Min)
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Guidance is the knowledge block for one diagnosis label.
type Guidance struct {
	Label        string
	Suggestions  []string
	Medications  []string
	TScoreRange  Range
	BMDRange     Range
	FractureRisk string
}

// SuggestionList returns a copy of the suggestions.
func (g Guidance) SuggestionList() []string {
	return append([]string{}, g.Suggestions...)
}

// MedicationList returns the medications as bare-string Medication values.
func (g Guidance) MedicationList() []domain.Medication {
	out := make([]domain.Medication, 0, len(g.Medications))
	for _, m := range g.Medications {
		out = append(out, domain.Medication{Text: m})
	}
	return out
}

var knowledgeBase = map[string]Guidance{
	domain.LabelNormal: {
		Label: domain.LabelNormal,
		Suggestions: []string{
			"Maintain a calcium-rich diet (dairy, leafy greens, fortified foods).",
			"Continue weight-bearing exercise (walking, jogging, resistance training) 3-5x/week.",
			"Ensure adequate Vitamin D via sunlight or supplementation.",
			"Schedule a DEXA scan every 2 years after age 50.",
			"Avoid smoking and excessive alcohol consumption.",
			"Monitor bone health annually with your primary care physician.",
		},
		Medications: []string{
			"Calcium supplement: 1000 mg/day (dietary preferred)",
			"Vitamin D3: 600-800 IU/day",
			"No pharmacological treatment required at this stage.",
		},
		TScoreRange:  Range{Min: -1.0, Max: 0.5},
		BMDRange:     Range{Min: 0.90, Max: 1.10},
		FractureRisk: "< 5% (Low)",
	},
	domain.LabelOsteopenia: {
		Label: domain.LabelOsteopenia,
		Suggestions: []string{
			"Increase daily calcium intake to 1200 mg through diet and supplements.",
			"Supplement Vitamin D to 800-1000 IU/day.",
			"Engage in regular high-impact weight-bearing and resistance exercises.",
			"Implement fall-prevention strategies at home (remove trip hazards, improve lighting).",
			"Repeat DEXA scan in 1-2 years to monitor bone density changes.",
			"Discuss fracture risk assessment (FRAX) with your physician.",
			"Limit caffeine, alcohol, and sodium as they reduce calcium absorption.",
			"Consider physical therapy for balance and posture improvement.",
		},
		Medications: []string{
			"Calcium supplement: 1200 mg/day",
			"Vitamin D3: 800-1000 IU/day",
			"Consider bisphosphonates if additional risk factors are present (consult physician).",
			"Hormone Replacement Therapy (HRT): discuss benefits and risks with doctor.",
		},
		TScoreRange:  Range{Min: -2.5, Max: -1.0},
		BMDRange:     Range{Min: 0.70, Max: 0.90},
		FractureRisk: "5-20% (Moderate)",
	},
	domain.LabelOsteoporosis: {
		Label: domain.LabelOsteoporosis,
		Suggestions: []string{
			"Seek immediate consultation with a rheumatologist or endocrinologist.",
			"Begin a medically supervised exercise program focusing on strength and balance.",
			"Strictly implement fall-prevention strategies (grab bars, non-slip mats, proper footwear).",
			"Maintain calcium intake >= 1200 mg/day and Vitamin D >= 1000-2000 IU/day.",
			"Schedule DEXA scan every 1-2 years to assess treatment response.",
			"Undergo spinal X-ray to rule out existing vertebral fractures.",
			"Review all current medications for bone-density side effects (steroids, PPIs, diuretics).",
			"Consider physical therapy and occupational therapy for daily safety.",
			"Discuss FRAX score and 10-year fracture probability with your physician.",
		},
		Medications: []string{
			"Bisphosphonates: Alendronate 70 mg weekly OR Risedronate 35 mg weekly",
			"Calcium: 1200-1500 mg/day (split doses for better absorption)",
			"Vitamin D3: 1000-2000 IU/day",
			"Denosumab (Prolia): 60 mg subcutaneous injection every 6 months (if bisphosphonate intolerant)",
			"Teriparatide (Forteo): daily injection for severe cases (physician prescribed)",
			"Raloxifene (SERM): for post-menopausal women, discuss with doctor",
			"Regular follow-up every 6 months until bone density stabilises.",
		},
		TScoreRange:  Range{Min: -4.0, Max: -2.5},
		BMDRange:     Range{Min: 0.40, Max: 0.70},
		FractureRisk: "> 20% (High)",
	},
}

// Labels lists the diagnosis classes in ascending severity.
var Labels = []string{domain.LabelNormal, domain.LabelOsteopenia, domain.LabelOsteoporosis}

// For returns the guidance for label, matched case-insensitively. Unknown
// labels fall back to Normal.
func For(label string) Guidance {
	for _, known := range Labels {
		if strings.EqualFold(strings.TrimSpace(label), known) {
			return knowledgeBase[known]
		}
	}
	return knowledgeBase[domain.LabelNormal]
}

// HighRisk returns the guidance used whenever a result is escalated to the
// high-risk class.
func HighRisk() Guidance {
	return knowledgeBase[domain.LabelOsteoporosis]
}
