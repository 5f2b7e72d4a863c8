package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osteocare-ai/osteocare/internal/domain"
	"github.com/osteocare-ai/osteocare/internal/normalizer"
	"github.com/osteocare-ai/osteocare/internal/postprocess"
)

// MockTransport is a mock implementation of domain.PredictionTransport
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) SubmitStructured(ctx context.Context, vector domain.FeatureVector) (domain.RawPredictionResponse, error) {
	args := m.Called(ctx, vector)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.RawPredictionResponse), args.Error(1)
}

func (m *MockTransport) SubmitReport(ctx context.Context, file domain.FileUpload) (domain.RawPredictionResponse, error) {
	args := m.Called(ctx, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.RawPredictionResponse), args.Error(1)
}

func (m *MockTransport) SubmitXRay(ctx context.Context, file domain.FileUpload) (domain.RawPredictionResponse, error) {
	args := m.Called(ctx, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.RawPredictionResponse), args.Error(1)
}

func (m *MockTransport) SubmitMRI(ctx context.Context, file domain.FileUpload) (domain.RawPredictionResponse, error) {
	args := m.Called(ctx, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.RawPredictionResponse), args.Error(1)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress logs during testing
	return logger
}

func newTestService(transport domain.PredictionTransport, trigger postprocess.OverrideTrigger) *AssessmentService {
	logger := testLogger()
	clock := func() time.Time { return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC) }
	return NewAssessmentService(
		transport,
		normalizer.New(normalizer.WithClock(clock)),
		postprocess.NewProcessor(trigger, logger, postprocess.WithRandomSource(postprocess.FixedSource(0.5))),
		logger,
	)
}

func osteopeniaResponse() domain.RawPredictionResponse {
	return domain.RawPredictionResponse{
		"prediction":    "Osteopenia",
		"confidence":    0.8123,
		"t_score":       -1.84,
		"bmd":           0.781,
		"fracture_risk": "5-20% (Moderate)",
		"suggestions":   []interface{}{"Walk daily"},
		"medications":   []interface{}{"Vitamin D3: 800-1000 IU/day"},
	}
}

func TestAssessmentService_AssessManual(t *testing.T) {
	ctx := context.Background()
	transport := new(MockTransport)

	form := domain.ClinicalFormState{
		domain.FieldAge:           68.0,
		domain.FieldGender:        "Female",
		domain.FieldWeight:        60.0,
		domain.FieldHeight:        160.0,
		domain.FieldCalciumLevel:  8.0,
		domain.FieldVitaminD:      15.0,
		domain.FieldExercise:      "Sedentary",
		domain.FieldSmoking:       "Never",
		domain.FieldFamilyHistory: "Yes",
		domain.FieldPrevFracture:  "Yes – 1 fracture",
	}

	transport.On("SubmitStructured", ctx, mock.MatchedBy(func(v domain.FeatureVector) bool {
		return v[domain.SlotAge] == 68 && v[domain.SlotPostmenopausal] == 1 && v[domain.SlotPriorFracture] == 1
	})).Return(osteopeniaResponse(), nil).Once()

	svc := newTestService(transport, postprocess.AlwaysOverride{})
	result, err := svc.AssessManual(ctx, form)
	require.NoError(t, err)

	assert.Equal(t, "Osteopenia", result.Diagnosis)
	assert.Equal(t, domain.RiskModerate, result.RiskLevel)
	assert.Equal(t, 0.8123, result.Confidence)
	assert.Equal(t, domain.ModalityManual, result.Modality)
	transport.AssertExpectations(t)
	assert.False(t, svc.Busy())
}

func TestAssessmentService_XRayIsNotPostProcessed(t *testing.T) {
	ctx := context.Background()
	transport := new(MockTransport)
	file := domain.FileUpload{Filename: "hip.png", ContentType: "image/png", Content: []byte{1, 2, 3}}
	transport.On("SubmitXRay", ctx, file).Return(osteopeniaResponse(), nil).Once()

	svc := newTestService(transport, postprocess.AlwaysOverride{})
	result, err := svc.AssessXRay(ctx, file)
	require.NoError(t, err)

	assert.Equal(t, "Osteopenia", result.Diagnosis)
	assert.Equal(t, 0.8123, result.Confidence)
	assert.NotContains(t, result.ExtractedMetrics, postprocess.MetricModality)
	transport.AssertExpectations(t)
}

func TestAssessmentService_AssessMRI(t *testing.T) {
	ctx := context.Background()
	file := domain.FileUpload{Filename: "spine.dcm", ContentType: "application/dicom", Content: []byte{9}}

	t.Run("Baseline", func(t *testing.T) {
		transport := new(MockTransport)
		transport.On("SubmitMRI", ctx, file).Return(osteopeniaResponse(), nil).Once()

		result, err := newTestService(transport, postprocess.NeverOverride{}).AssessMRI(ctx, file)
		require.NoError(t, err)

		assert.Equal(t, "Osteopenia", result.Diagnosis)
		assert.Equal(t, postprocess.BoostConfidence(0.8123), result.Confidence)
		assert.Equal(t, "MRI / CT Cross-Sectional", result.ExtractedMetrics[postprocess.MetricModality])
		assert.Equal(t, domain.ModalityMRI, result.Modality)
		transport.AssertExpectations(t)
	})

	t.Run("Override", func(t *testing.T) {
		transport := new(MockTransport)
		transport.On("SubmitMRI", ctx, file).Return(osteopeniaResponse(), nil).Once()

		result, err := newTestService(transport, postprocess.AlwaysOverride{}).AssessMRI(ctx, file)
		require.NoError(t, err)

		assert.Equal(t, domain.LabelOsteoporosis, result.Diagnosis)
		assert.Equal(t, domain.RiskHigh, result.RiskLevel)
		assert.InDelta(t, 0.93, result.Confidence, 1e-9)
		assert.Equal(t, "24.0%", result.FractureRisk)
		transport.AssertExpectations(t)
	})
}

func TestAssessmentService_TransportFailure(t *testing.T) {
	ctx := context.Background()
	transport := new(MockTransport)
	file := domain.FileUpload{Content: []byte("%PDF")}
	transport.On("SubmitReport", ctx, file).
		Return(nil, domain.NewTransportError(domain.ModalityReport, 500, "")).Once()

	svc := newTestService(transport, nil)
	result, err := svc.AssessReport(ctx, file)
	assert.Nil(t, result)
	require.Error(t, err)

	var ae *domain.AssessmentError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, domain.ModalityReport, ae.Modality)
	assert.Equal(t, domain.FailureMessage(domain.ModalityReport), ae.UserMessage())
	assert.NotContains(t, ae.UserMessage(), "500")

	var te *domain.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "Server error 500", te.Error())
	assert.False(t, svc.Busy())
}

// blockingTransport holds SubmitXRay until release is closed.
type blockingTransport struct {
	MockTransport
	entered chan struct{}
	release chan struct{}
}

func (b *blockingTransport) SubmitXRay(ctx context.Context, file domain.FileUpload) (domain.RawPredictionResponse, error) {
	close(b.entered)
	<-b.release
	return osteopeniaResponse(), nil
}

func TestAssessmentService_RejectsOverlappingSubmissions(t *testing.T) {
	ctx := context.Background()
	transport := &blockingTransport{entered: make(chan struct{}), release: make(chan struct{})}
	svc := newTestService(transport, nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.AssessXRay(ctx, domain.FileUpload{Content: []byte{1}})
		done <- err
	}()
	<-transport.entered
	assert.True(t, svc.Busy())

	_, err := svc.AssessManual(ctx, domain.ClinicalFormState{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSubmissionInProgress)
	transport.AssertNotCalled(t, "SubmitStructured", mock.Anything, mock.Anything)

	close(transport.release)
	require.NoError(t, <-done)
	assert.False(t, svc.Busy())
}

func TestAssessmentService_AssessDispatch(t *testing.T) {
	ctx := context.Background()
	transport := new(MockTransport)
	file := domain.FileUpload{Content: []byte{1}}
	transport.On("SubmitReport", ctx, file).Return(osteopeniaResponse(), nil).Once()

	svc := newTestService(transport, nil)
	result, err := svc.Assess(ctx, domain.ModalityReport, file)
	require.NoError(t, err)
	assert.Equal(t, domain.ModalityReport, result.Modality)

	_, err = svc.Assess(ctx, domain.ModalityManual, file)
	assert.ErrorIs(t, err, domain.ErrInvalidModality)
	transport.AssertExpectations(t)
}
