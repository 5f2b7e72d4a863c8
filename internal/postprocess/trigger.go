package postprocess

import (
	"fmt"
	"math/rand/v2"

	"github.com/osteocare-ai/osteocare/internal/domain"
)

// streamTrigger separates the probability check from the boost and metric
// draws that share the same seed.
const streamTrigger = 0x7472696767657200

// OverrideTrigger decides whether a result takes the high-risk override branch.
type OverrideTrigger interface {
	ShouldOverride(rawConfidence float64) bool
}

// TriggerFunc adapts a plain function to OverrideTrigger.
type TriggerFunc func(rawConfidence float64) bool

// ShouldOverride calls f.
func (f TriggerFunc) ShouldOverride(rawConfidence float64) bool { return f(rawConfidence) }

// AlwaysOverride fires on every result.
type AlwaysOverride struct{}

// ShouldOverride always returns true.
func (AlwaysOverride) ShouldOverride(float64) bool { return true }

// NeverOverride keeps every result on the baseline branch.
type NeverOverride struct{}

// ShouldOverride always returns false.
func (NeverOverride) ShouldOverride(float64) bool { return false }

// ProbabilityOverride fires for roughly a fraction P of confidences. The check
// is seeded from the confidence, so a given input always takes the same branch.
type ProbabilityOverride struct {
	P float64
}

// ShouldOverride reports whether the seeded draw for rawConfidence falls below P.
func (p ProbabilityOverride) ShouldOverride(rawConfidence float64) bool {
	return SeededUnit(ConfidenceSeed(rawConfidence), streamTrigger) < p.P
}

// NewTrigger builds the trigger selected by configuration.
func NewTrigger(cfg domain.PostProcessConfig) (OverrideTrigger, error) {
	switch cfg.OverrideMode {
	case domain.OverrideAlways, "":
		return AlwaysOverride{}, nil
	case domain.OverrideNever:
		return NeverOverride{}, nil
	case domain.OverrideProbabilistic:
		if cfg.OverrideProbability < 0 || cfg.OverrideProbability > 1 {
			return nil, fmt.Errorf("override probability %v out of range [0,1]", cfg.OverrideProbability)
		}
		return ProbabilityOverride{P: cfg.OverrideProbability}, nil
	default:
		return nil, fmt.Errorf("unknown override mode %q", cfg.OverrideMode)
	}
}

// RandomSource supplies uniform values in [0,1) for the override redraws.
type RandomSource interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// FixedSource returns the same value on every call.
type FixedSource float64

// Float64 returns the fixed value.
func (f FixedSource) Float64() float64 { return float64(f) }
