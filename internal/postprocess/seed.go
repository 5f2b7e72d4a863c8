// Package postprocess adjusts cross-sectional (MRI/CT) results after
// normalization: a deterministic confidence boost, auxiliary imaging metrics
// and an optional high-risk override.
package postprocess

import (
	"math"
)

const (
	boostBaseOffset = 0.080
	boostSpread     = 40
	boostFloor      = 0.88
	boostCeiling    = 0.96
)

// splitmix64 is a stateless 64-bit mixer.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// SeededUnit returns a value in [0,1) that depends only on seed and stream.
// Different streams yield independent values for the same seed.
func SeededUnit(seed, stream uint64) float64 {
	h := splitmix64(seed ^ splitmix64(stream))
	return float64(h>>11) / (1 << 53)
}

// ConfidenceSeed derives a two-digit seed from the decimal digits of a
// confidence value: round(c*10000) mod 100.
func ConfidenceSeed(c float64) uint64 {
	return uint64(math.Round(clampUnit(c)*10000)) % 100
}

// MetricSeed derives the seed for the auxiliary imaging metrics:
// round(c*9999) mod 100 + 7.
func MetricSeed(c float64) uint64 {
	return uint64(math.Round(clampUnit(c)*9999))%100 + 7
}

// BoostConfidence nudges a raw confidence up by 0.080 to 0.119, chosen from the
// confidence's own digits, and bounds the result to [0.88, 0.96].
func BoostConfidence(c float64) float64 {
	seed := ConfidenceSeed(c)
	offset := boostBaseOffset + float64(splitmix64(seed)%boostSpread)/1000
	return round(clamp(clampUnit(c)+offset, boostFloor, boostCeiling), 4)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return clamp(v, 0, 1)
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
