// Package simulator is a stand-in inference backend. It reproduces the
// prediction contract of the real service with deterministic, rule-based and
// digest-based estimates so the client can be exercised end to end.
package simulator

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/osteocare-ai/osteocare/internal/clinical"
	"github.com/osteocare-ai/osteocare/internal/domain"
	"github.com/osteocare-ai/osteocare/internal/metrics"
	"github.com/osteocare-ai/osteocare/internal/postprocess"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// PredictionResponse is the wire shape returned by every /predict route.
type PredictionResponse struct {
	Prediction     string            `json:"prediction"`
	Confidence     float64           `json:"confidence"`
	TScore         *float64          `json:"t_score"`
	BMD            *float64          `json:"bmd"`
	FractureRisk   string            `json:"fracture_risk"`
	Suggestions    []string          `json:"suggestions"`
	Medications    []string          `json:"medications"`
	EvidenceSource string            `json:"evidence_source,omitempty"`
	ExtractedData  map[string]string `json:"extracted_data,omitempty"`
}

// RequestError is a client error with the HTTP status it maps to.
type RequestError struct {
	Status int
	Detail string
}

// Error implements the error interface
func (e *RequestError) Error() string {
	return e.Detail
}

// fileRule constrains uploads for one file-accepting route.
type fileRule struct {
	allowed     map[string]bool
	allowedText string
	maxBytes    int64
	profile     hashProfile
}

var (
	reportTypes = []string{"application/pdf", "image/jpeg", "image/jpg", "image/png", "image/tiff", "image/bmp"}
	imageTypes  = []string{"image/jpeg", "image/jpg", "image/png", "image/tiff", "image/bmp", "image/dicom", "application/dicom", "image/webp"}
)

// Simulator produces deterministic predictions.
type Simulator struct {
	rules   map[domain.Modality]fileRule
	cache   *lru.Cache[string, Estimate]
	metrics *metrics.Collectors
	logger  *logrus.Logger
}

// New creates a simulator. collectors may be nil.
func New(config domain.SimulatorConfig, collectors *metrics.Collectors, logger *logrus.Logger) (*Simulator, error) {
	size := config.CacheSize
	if size <= 0 {
		size = 512
	}
	cache, err := lru.New[string, Estimate](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create estimate cache: %w", err)
	}

	return &Simulator{
		rules: map[domain.Modality]fileRule{
			domain.ModalityReport: newFileRule(reportTypes, "PDF, JPEG, PNG, TIFF, BMP", config.MaxReportSize, reportProfile),
			domain.ModalityXRay:   newFileRule(imageTypes, "JPEG, PNG, TIFF, BMP, DICOM, WebP", config.MaxXRaySize, imageProfile),
			domain.ModalityMRI:    newFileRule(imageTypes, "JPEG, PNG, TIFF, BMP, DICOM, WebP", config.MaxMRISize, imageProfile),
		},
		cache:   cache,
		metrics: collectors,
		logger:  logger,
	}, nil
}

func newFileRule(types []string, text string, maxBytes int64, profile hashProfile) fileRule {
	allowed := make(map[string]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	return fileRule{allowed: allowed, allowedText: text, maxBytes: maxBytes, profile: profile}
}

// MaxUploadSize returns the largest accepted body for modality.
func (s *Simulator) MaxUploadSize(modality domain.Modality) int64 {
	return s.rules[modality].maxBytes
}

// PredictManual scores a structured feature vector. It requires exactly
// domain.FeatureCount values.
func (s *Simulator) PredictManual(ctx context.Context, features []float64) (*PredictionResponse, error) {
	vector, ok := domain.FeatureVectorFromSlice(features)
	if !ok {
		return nil, &RequestError{
			Status: http.StatusUnprocessableEntity,
			Detail: fmt.Sprintf("Expected exactly %d feature values, got %d.", domain.FeatureCount, len(features)),
		}
	}

	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	est := ScoreFeatures(vector)
	s.logger.WithFields(logrus.Fields{
		"label":      est.Label,
		"confidence": est.Confidence,
		"risk_score": RiskScore(vector),
	}).Info("Manual prediction scored")

	s.metrics.ObservePrediction(string(domain.ModalityManual), est.Label)
	return respond(est), nil
}

// PredictFile estimates a prediction for an uploaded file.
func (s *Simulator) PredictFile(ctx context.Context, modality domain.Modality, file domain.FileUpload) (*PredictionResponse, error) {
	rule, ok := s.rules[modality]
	if !ok {
		return nil, &RequestError{Status: http.StatusNotFound, Detail: fmt.Sprintf("Unknown modality '%s'", modality)}
	}

	contentType := strings.ToLower(strings.TrimSpace(strings.Split(file.ContentType, ";")[0]))
	if !rule.allowed[contentType] {
		return nil, &RequestError{
			Status: http.StatusUnsupportedMediaType,
			Detail: fmt.Sprintf("Unsupported file type '%s'. Allowed: %s", file.ContentType, rule.allowedText),
		}
	}
	if rule.maxBytes > 0 && int64(len(file.Content)) > rule.maxBytes {
		return nil, &RequestError{
			Status: http.StatusRequestEntityTooLarge,
			Detail: fmt.Sprintf("File too large (%.1f MB). Maximum allowed: %d MB.",
				float64(len(file.Content))/(1<<20), rule.maxBytes>>20),
		}
	}
	if len(file.Content) == 0 {
		return nil, &RequestError{Status: http.StatusUnprocessableEntity, Detail: "Uploaded file is empty."}
	}

	est, err := s.estimate(ctx, modality, rule, file)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"modality":   modality,
		"filename":   file.Filename,
		"size_bytes": len(file.Content),
		"label":      est.Label,
		"confidence": est.Confidence,
	}).Info("File prediction estimated")

	s.metrics.ObservePrediction(string(modality), est.Label)
	return respond(est), nil
}

// estimate returns the memoized estimate for a file, keyed by modality and
// content digest. A cache miss is only computed while ctx is live.
func (s *Simulator) estimate(ctx context.Context, modality domain.Modality, rule fileRule, file domain.FileUpload) (Estimate, error) {
	content := file.Content
	if modality == domain.ModalityReport {
		content = append(append([]byte{}, file.Content...), file.Filename...)
	}
	sum := sha256.Sum256(content)
	key := string(modality) + ":" + fmt.Sprintf("%x", sum)

	if est, ok := s.cache.Get(key); ok {
		s.metrics.ObserveCache(true)
		return est, nil
	}
	s.metrics.ObserveCache(false)

	if err := checkContext(ctx); err != nil {
		return Estimate{}, err
	}

	est := rule.profile.estimateFromDigest(sum)
	switch modality {
	case domain.ModalityReport:
		est.Evidence = "No readable text found in file -- statistical estimate"
	case domain.ModalityXRay:
		est.Evidence = "Statistical image estimate (content digest)"
	case domain.ModalityMRI:
		est.Confidence = postprocess.BoostConfidence(est.Confidence)
		est.Metrics = postprocess.ImagingMetrics(postprocess.MetricSeed(est.Confidence))
		est.Evidence = fmt.Sprintf(
			"Enhanced heuristic MRI/CT analysis + MPR volumetric confidence boost (%d metrics computed)",
			len(est.Metrics))
	}

	s.cache.Add(key, est)
	return est, nil
}

// checkContext maps an expired or cancelled request to a 504.
func checkContext(ctx context.Context) error {
	if ctx.Err() != nil {
		return &RequestError{Status: http.StatusGatewayTimeout, Detail: "Request timeout"}
	}
	return nil
}

func respond(est Estimate) *PredictionResponse {
	guidance := clinical.For(est.Label)
	tScore, bmd := est.TScore, est.BMD

	resp := &PredictionResponse{
		Prediction:     est.Label,
		Confidence:     est.Confidence,
		TScore:         &tScore,
		BMD:            &bmd,
		FractureRisk:   guidance.FractureRisk,
		Suggestions:    guidance.SuggestionList(),
		Medications:    append([]string{}, guidance.Medications...),
		EvidenceSource: est.Evidence,
	}
	if len(est.Metrics) > 0 {
		resp.ExtractedData = make(map[string]string, len(est.Metrics))
		for k, v := range est.Metrics {
			resp.ExtractedData[k] = v
		}
	}
	return resp
}
