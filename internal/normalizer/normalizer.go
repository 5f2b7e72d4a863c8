package normalizer

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/osteocare-ai/osteocare/internal/domain"
)

// Normalizer converts raw provider payloads into NormalizedResult values.
type Normalizer struct {
	mapping FieldMapping
	now     func() time.Time
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithMapping selects the provider field mapping.
func WithMapping(m FieldMapping) Option {
	return func(n *Normalizer) { n.mapping = m }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// New creates a Normalizer using DefaultMapping and the wall clock.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		mapping: DefaultMapping,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize maps raw into the canonical result. It never fails: missing optional
// fields become empty lists, empty maps or nil pointers.
func (n *Normalizer) Normalize(raw domain.RawPredictionResponse, modality domain.Modality) domain.NormalizedResult {
	m := n.mapping

	diagnosis, _ := stringField(raw, m.Diagnosis)
	result := domain.NormalizedResult{
		Diagnosis:        diagnosis,
		RiskLevel:        DeriveRiskLevel(diagnosis),
		Confidence:       confidenceField(raw, m.Confidence),
		TScore:           floatPtrField(raw, m.TScore),
		BMD:              floatPtrField(raw, m.BMD),
		Suggestions:      stringListField(raw, m.Suggestions),
		Medications:      n.medicationList(raw),
		ExtractedMetrics: metricsField(raw, m.ExtractedMetrics),
		Modality:         modality,
		GeneratedAt:      n.now(),
	}
	result.FractureRisk, _ = stringField(raw, m.FractureRisk)
	result.EvidenceSource, _ = stringField(raw, m.EvidenceSource)
	return result
}

// DeriveRiskLevel buckets a diagnosis label. Matching is a case-insensitive
// substring test; an empty label is Moderate.
func DeriveRiskLevel(label string) domain.RiskLevel {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case l == "":
		return domain.RiskModerate
	case strings.Contains(l, "osteoporosis"):
		return domain.RiskHigh
	case strings.Contains(l, "osteopenia"):
		return domain.RiskModerate
	default:
		return domain.RiskLow
	}
}

func lookup(raw domain.RawPredictionResponse, keys []string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringField(raw domain.RawPredictionResponse, keys []string) (string, bool) {
	v, ok := lookup(raw, keys)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(text(v)), true
}

// text renders any provider value as a string. Scalars go through cast;
// objects and arrays are kept as compact JSON so no content is lost.
func text(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprint(v)
}

// toFloat accepts numbers and numeric strings (with an optional trailing %).
// Booleans, NaN and infinities are rejected.
func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case bool:
		return 0, false
	case string:
		v = strings.TrimSuffix(strings.TrimSpace(x), "%")
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func floatPtrField(raw domain.RawPredictionResponse, keys []string) *float64 {
	v, ok := lookup(raw, keys)
	if !ok {
		return nil
	}
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	return &f
}

// confidenceField reads a fraction in [0,1]. Values above 2 and up to 100 are
// percentages; anything else out of range is clamped.
func confidenceField(raw domain.RawPredictionResponse, keys []string) float64 {
	v, ok := lookup(raw, keys)
	if !ok {
		return 0
	}
	f, ok := toFloat(v)
	if !ok {
		return 0
	}
	if f > 2 && f <= 100 {
		f /= 100
	}
	return math.Max(0, math.Min(1, f))
}

// stringListField keeps every entry in order. Null entries become "".
func stringListField(raw domain.RawPredictionResponse, keys []string) []string {
	out := []string{}
	v, ok := lookup(raw, keys)
	if !ok {
		return out
	}
	switch x := v.(type) {
	case []string:
		return append(out, x...)
	case []interface{}:
		for _, item := range x {
			out = append(out, text(item))
		}
	case string:
		if x != "" {
			out = append(out, x)
		}
	default:
		out = append(out, text(x))
	}
	return out
}

// medicationList keeps every entry in order. Objects with at least one mapped
// key become structured medications; their other keys are appended to the
// note. Objects with no mapped value are kept as compact JSON text.
func (n *Normalizer) medicationList(raw domain.RawPredictionResponse) []domain.Medication {
	out := []domain.Medication{}
	v, ok := lookup(raw, n.mapping.Medications)
	if !ok {
		return out
	}

	var items []interface{}
	switch x := v.(type) {
	case []interface{}:
		items = x
	case []domain.Medication:
		return append(out, x...)
	case []string:
		for _, s := range x {
			out = append(out, domain.Medication{Text: s})
		}
		return out
	default:
		items = []interface{}{x}
	}

	for _, item := range items {
		out = append(out, n.medication(item))
	}
	return out
}

func (n *Normalizer) medication(item interface{}) domain.Medication {
	obj, ok := item.(map[string]interface{})
	if !ok {
		return domain.Medication{Text: text(item)}
	}

	used := map[string]bool{}
	pick := func(keys []string) string {
		for _, k := range keys {
			if v, ok := obj[k]; ok && v != nil {
				used[k] = true
				return text(v)
			}
		}
		return ""
	}
	med := domain.Medication{
		Name:   pick(n.mapping.MedicationName),
		Class:  pick(n.mapping.MedicationClass),
		Dosage: pick(n.mapping.MedicationDosage),
		Note:   pick(n.mapping.MedicationNote),
	}
	if med.IsBare() {
		return domain.Medication{Text: text(obj)}
	}

	var extra []string
	for k, v := range obj {
		if !used[k] && v != nil {
			extra = append(extra, k+": "+text(v))
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		if med.Note != "" {
			extra = append([]string{med.Note}, extra...)
		}
		med.Note = strings.Join(extra, "; ")
	}
	return med
}

func metricsField(raw domain.RawPredictionResponse, keys []string) map[string]string {
	out := map[string]string{}
	v, ok := lookup(raw, keys)
	if !ok {
		return out
	}
	switch x := v.(type) {
	case map[string]interface{}:
		for k, val := range x {
			if val == nil {
				continue
			}
			out[k] = text(val)
		}
	case map[string]string:
		for k, val := range x {
			out[k] = val
		}
	}
	return out
}
