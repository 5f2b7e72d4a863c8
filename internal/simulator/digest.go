package simulator

import (
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/osteocare-ai/osteocare/internal/domain"
)

// hashProfile tunes the digest-based estimate for one kind of file.
type hashProfile struct {
	normalCut     float64
	osteopeniaCut float64
	jitterSpan    float64
	normal        bucket
	osteopenia    bucket
	osteoporosis  bucket
}

// bucket derives t-score and BMD linearly from the hash value h:
// t = tBase - h*tSlope, bmd = bmdBase + h*bmdSlope.
type bucket struct {
	tBase, tSlope     float64
	bmdBase, bmdSlope float64
	confidenceBase    float64
}

var (
	imageProfile = hashProfile{
		normalCut:     0.38,
		osteopeniaCut: 0.72,
		jitterSpan:    0.14,
		normal:        bucket{tBase: -0.2, tSlope: 1.0, bmdBase: 0.94, bmdSlope: 0.05, confidenceBase: 0.71},
		osteopenia:    bucket{tBase: -1.2, tSlope: 1.5, bmdBase: 0.82, bmdSlope: -0.10, confidenceBase: 0.70},
		osteoporosis:  bucket{tBase: -2.6, tSlope: 1.5, bmdBase: 0.62, bmdSlope: -0.15, confidenceBase: 0.69},
	}

	reportProfile = hashProfile{
		normalCut:     0.40,
		osteopeniaCut: 0.75,
		jitterSpan:    0.12,
		normal:        bucket{tBase: -0.3, tSlope: 1.5, bmdBase: 0.92, bmdSlope: 0.10, confidenceBase: 0.71},
		osteopenia:    bucket{tBase: -1.1, tSlope: 2.0, bmdBase: 0.80, bmdSlope: -0.15, confidenceBase: 0.70},
		osteoporosis:  bucket{tBase: -2.6, tSlope: 1.5, bmdBase: 0.65, bmdSlope: -0.20, confidenceBase: 0.69},
	}
)

// estimateFromDigest produces a stable estimate from a file's SHA-256. The
// first four bytes pick the label bucket; the next two add confidence jitter.
func (p hashProfile) estimateFromDigest(sum [sha256.Size]byte) Estimate {
	h := float64(binary.BigEndian.Uint32(sum[0:4])) / math.MaxUint32
	jitter := float64(binary.BigEndian.Uint16(sum[4:6])) / math.MaxUint16 * p.jitterSpan

	label, b := domain.LabelOsteoporosis, p.osteoporosis
	switch {
	case h < p.normalCut:
		label, b = domain.LabelNormal, p.normal
	case h < p.osteopeniaCut:
		label, b = domain.LabelOsteopenia, p.osteopenia
	}

	return Estimate{
		Label:      label,
		Confidence: round(math.Min(0.93, b.confidenceBase+jitter), 4),
		TScore:     math.Max(-5.5, round(b.tBase-h*b.tSlope, 2)),
		BMD:        math.Max(0.35, round(b.bmdBase+h*b.bmdSlope, 3)),
	}
}
