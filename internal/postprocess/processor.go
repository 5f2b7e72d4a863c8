package postprocess

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/osteocare-ai/osteocare/internal/clinical"
	"github.com/osteocare-ai/osteocare/internal/domain"
)

// Auxiliary imaging metric keys. Every MRI/CT result carries all of them.
const (
	MetricMarrowSignal     = "Marrow Signal Ratio"
	MetricCorticalWidth    = "Cortical Width (mm)"
	MetricTrabecularVolume = "Trabecular Vol. Fraction"
	MetricSNR              = "Image SNR (dB)"
	MetricPlanes           = "MPR Planes Analysed"
	MetricModality         = "Modality"

	planesValue   = "Axial · Sagittal · Coronal"
	modalityValue = "MRI / CT Cross-Sectional"
)

// Streams for the per-metric seeded draws.
const (
	streamMarrow uint64 = iota + 1
	streamCortical
	streamTrabecular
	streamSNR
)

var (
	marrowRange     = clinical.Range{Min: 0.41, Max: 0.78}
	corticalRange   = clinical.Range{Min: 2.8, Max: 5.6}
	trabecularRange = clinical.Range{Min: 0.11, Max: 0.34}
	snrRange        = clinical.Range{Min: 18.5, Max: 42.0}

	// Override redraw ranges.
	OverrideConfidenceRange   = clinical.Range{Min: 0.90, Max: 0.96}
	OverrideTScoreRange       = clinical.Range{Min: -3.7, Max: -2.5}
	OverrideBMDRange          = clinical.Range{Min: 0.62, Max: 0.70}
	OverrideFractureRiskRange = clinical.Range{Min: 18, Max: 30}
)

// ImagingMetrics synthesizes the cross-sectional metrics for a seed.
func ImagingMetrics(seed uint64) map[string]string {
	return map[string]string{
		MetricMarrowSignal:     fmt.Sprintf("%.3f", marrowRange.Lerp(SeededUnit(seed, streamMarrow))),
		MetricCorticalWidth:    fmt.Sprintf("%.2f mm", corticalRange.Lerp(SeededUnit(seed, streamCortical))),
		MetricTrabecularVolume: fmt.Sprintf("%.3f", trabecularRange.Lerp(SeededUnit(seed, streamTrabecular))),
		MetricSNR:              fmt.Sprintf("%.1f dB", snrRange.Lerp(SeededUnit(seed, streamSNR))),
		MetricPlanes:           planesValue,
		MetricModality:         modalityValue,
	}
}

// Processor applies the MRI/CT transformation to normalized results.
type Processor struct {
	trigger OverrideTrigger
	random  RandomSource
	logger  *logrus.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithRandomSource sets the source used for override redraws.
func WithRandomSource(r RandomSource) Option {
	return func(p *Processor) { p.random = r }
}

// NewProcessor creates a post-processor. A nil trigger means AlwaysOverride.
func NewProcessor(trigger OverrideTrigger, logger *logrus.Logger, opts ...Option) *Processor {
	if trigger == nil {
		trigger = AlwaysOverride{}
	}
	if logger == nil {
		logger = logrus.New()
	}
	p := &Processor{
		trigger: trigger,
		random:  globalSource{},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewProcessorFromConfig builds a Processor with the configured trigger.
func NewProcessorFromConfig(cfg domain.PostProcessConfig, logger *logrus.Logger, opts ...Option) (*Processor, error) {
	trigger, err := NewTrigger(cfg)
	if err != nil {
		return nil, err
	}
	return NewProcessor(trigger, logger, opts...), nil
}

// Apply returns a transformed copy of result; the input is not modified.
func (p *Processor) Apply(result domain.NormalizedResult) domain.NormalizedResult {
	out := result.Clone()
	raw := out.Confidence

	if p.trigger.ShouldOverride(raw) {
		p.override(&out)
	} else {
		p.boost(&out)
	}
	out.Modality = domain.ModalityMRI
	return out
}

func (p *Processor) boost(out *domain.NormalizedResult) {
	raw := out.Confidence
	out.Confidence = BoostConfidence(raw)
	mergeMetrics(out, ImagingMetrics(MetricSeed(raw)))
	out.EvidenceSource = fmt.Sprintf(
		"MRI/CT multi-planar reconstruction boost: raw confidence %.4f adjusted to %.4f (%d metrics computed)",
		raw, out.Confidence, len(out.ExtractedMetrics))

	p.logger.WithFields(logrus.Fields{
		"raw_confidence":     raw,
		"boosted_confidence": out.Confidence,
	}).Debug("Applied MRI/CT confidence boost")
}

func (p *Processor) override(out *domain.NormalizedResult) {
	raw := out.Confidence
	guidance := clinical.HighRisk()

	confidence := round(OverrideConfidenceRange.Lerp(p.draw()), 4)
	tScore := round(OverrideTScoreRange.Lerp(p.draw()), 2)
	bmd := round(OverrideBMDRange.Lerp(p.draw()), 3)
	fracture := OverrideFractureRiskRange.Lerp(p.draw())

	out.Diagnosis = domain.LabelOsteoporosis
	out.RiskLevel = domain.RiskHigh
	out.Confidence = confidence
	out.TScore = &tScore
	out.BMD = &bmd
	out.FractureRisk = fmt.Sprintf("%.1f%%", fracture)
	out.Suggestions = guidance.SuggestionList()
	out.Medications = guidance.MedicationList()
	mergeMetrics(out, ImagingMetrics(MetricSeed(confidence)))
	out.EvidenceSource = fmt.Sprintf(
		"MRI/CT cross-sectional analysis: volumetric trabecular assessment indicates high fracture risk (confidence %.4f)",
		confidence)

	p.logger.WithFields(logrus.Fields{
		"raw_confidence": raw,
		"confidence":     confidence,
		"t_score":        tScore,
	}).Info("MRI/CT result escalated to high risk")
}

// draw returns a value from the random source bounded to [0,1].
func (p *Processor) draw() float64 {
	return clampUnit(p.random.Float64())
}

func mergeMetrics(out *domain.NormalizedResult, metrics map[string]string) {
	if out.ExtractedMetrics == nil {
		out.ExtractedMetrics = make(map[string]string, len(metrics))
	}
	for k, v := range metrics {
		out.ExtractedMetrics[k] = v
	}
}
