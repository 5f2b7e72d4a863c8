package domain

import (
	"context"
)

// PredictionTransport issues exactly one request per call to a prediction
// backend and returns its raw output.
type PredictionTransport interface {
	SubmitStructured(ctx context.Context, vector FeatureVector) (RawPredictionResponse, error)
	SubmitReport(ctx context.Context, file FileUpload) (RawPredictionResponse, error)
	SubmitXRay(ctx context.Context, file FileUpload) (RawPredictionResponse, error)
	SubmitMRI(ctx context.Context, file FileUpload) (RawPredictionResponse, error)
}

// ResponseNormalizer maps provider output into the canonical result.
type ResponseNormalizer interface {
	Normalize(raw RawPredictionResponse, modality Modality) NormalizedResult
}

// ResultPostProcessor transforms a normalized result for a specific modality.
type ResultPostProcessor interface {
	Apply(result NormalizedResult) NormalizedResult
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetBackendConfig() *BackendConfig
	GetPostProcessConfig() *PostProcessConfig
	GetServerConfig() *ServerConfig
	GetSimulatorConfig() *SimulatorConfig
	Reload() error
	Validate() error
	IsProduction() bool
	IsDevelopment() bool
}
