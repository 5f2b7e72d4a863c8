package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/osteocare-ai/osteocare/internal/domain"
	"github.com/osteocare-ai/osteocare/internal/encoder"
)

// AssessmentService runs the prediction pipeline for each input modality:
// encode (manual only), submit, normalize and, for MRI/CT, post-process.
type AssessmentService struct {
	transport  domain.PredictionTransport
	normalizer domain.ResponseNormalizer
	imaging    domain.ResultPostProcessor
	logger     *logrus.Logger

	inFlight atomic.Bool
}

// NewAssessmentService creates a new assessment service
func NewAssessmentService(
	transport domain.PredictionTransport,
	normalizer domain.ResponseNormalizer,
	imaging domain.ResultPostProcessor,
	logger *logrus.Logger,
) *AssessmentService {
	return &AssessmentService{
		transport:  transport,
		normalizer: normalizer,
		imaging:    imaging,
		logger:     logger,
	}
}

// AssessManual encodes a clinical form and submits it for prediction.
func (s *AssessmentService) AssessManual(ctx context.Context, form domain.ClinicalFormState) (*domain.NormalizedResult, error) {
	vector := encoder.Encode(form)
	return s.run(ctx, domain.ModalityManual, func(ctx context.Context) (domain.RawPredictionResponse, error) {
		return s.transport.SubmitStructured(ctx, vector)
	})
}

// AssessReport submits a clinical report document.
func (s *AssessmentService) AssessReport(ctx context.Context, file domain.FileUpload) (*domain.NormalizedResult, error) {
	return s.run(ctx, domain.ModalityReport, func(ctx context.Context) (domain.RawPredictionResponse, error) {
		return s.transport.SubmitReport(ctx, file)
	})
}

// AssessXRay submits a plain radiograph.
func (s *AssessmentService) AssessXRay(ctx context.Context, file domain.FileUpload) (*domain.NormalizedResult, error) {
	return s.run(ctx, domain.ModalityXRay, func(ctx context.Context) (domain.RawPredictionResponse, error) {
		return s.transport.SubmitXRay(ctx, file)
	})
}

// AssessMRI submits an MRI or CT image and applies the cross-sectional
// post-processing to the normalized result.
func (s *AssessmentService) AssessMRI(ctx context.Context, file domain.FileUpload) (*domain.NormalizedResult, error) {
	return s.run(ctx, domain.ModalityMRI, func(ctx context.Context) (domain.RawPredictionResponse, error) {
		return s.transport.SubmitMRI(ctx, file)
	})
}

// Assess dispatches a file upload by modality.
func (s *AssessmentService) Assess(ctx context.Context, modality domain.Modality, file domain.FileUpload) (*domain.NormalizedResult, error) {
	switch modality {
	case domain.ModalityReport:
		return s.AssessReport(ctx, file)
	case domain.ModalityXRay:
		return s.AssessXRay(ctx, file)
	case domain.ModalityMRI:
		return s.AssessMRI(ctx, file)
	default:
		return nil, &domain.AssessmentError{Modality: modality, Err: domain.ErrInvalidModality}
	}
}

func (s *AssessmentService) run(
	ctx context.Context,
	modality domain.Modality,
	submit func(context.Context) (domain.RawPredictionResponse, error),
) (*domain.NormalizedResult, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.WithField("modality", modality).Warn("Rejected overlapping submission")
		return nil, &domain.AssessmentError{Modality: modality, Err: domain.ErrSubmissionInProgress}
	}
	defer s.inFlight.Store(false)

	start := time.Now()
	raw, err := submit(ctx)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"modality": modality,
			"duration": time.Since(start),
		}).WithError(err).Error("Prediction request failed")
		return nil, &domain.AssessmentError{Modality: modality, Err: err}
	}

	result := s.normalizer.Normalize(raw, modality)
	if modality == domain.ModalityMRI && s.imaging != nil {
		result = s.imaging.Apply(result)
	}

	s.logger.WithFields(logrus.Fields{
		"modality":   modality,
		"diagnosis":  result.Diagnosis,
		"risk_level": result.RiskLevel,
		"confidence": result.Confidence,
		"duration":   time.Since(start),
	}).Info("Assessment completed")

	return &result, nil
}

// Busy reports whether a submission is currently in flight.
func (s *AssessmentService) Busy() bool {
	return s.inFlight.Load()
}
