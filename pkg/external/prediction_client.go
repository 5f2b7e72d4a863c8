// Package external contains the HTTP client for the osteoporosis prediction backend.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/osteocare-ai/osteocare/internal/domain"
)

// Backend endpoint paths. MRI/CT uploads reuse the X-ray classifier.
const (
	ManualPath = "/predict/manual"
	ReportPath = "/predict/report"
	XRayPath   = "/predict/xray"
	MRIPath    = XRayPath
)

const defaultFileField = "file"

// PredictionClient submits prediction requests to the inference backend.
// Every Submit call issues exactly one HTTP request; nothing is retried or cached.
type PredictionClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

// NewPredictionClient creates a new prediction backend client
func NewPredictionClient(config domain.BackendConfig, logger *logrus.Logger) *PredictionClient {
	if logger == nil {
		logger = logrus.New()
	}
	c := &PredictionClient{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}
	if config.CircuitBreaker.Enabled {
		c.breaker = newBreaker(config.CircuitBreaker, logger)
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *PredictionClient) WithHTTPClient(hc *http.Client) *PredictionClient {
	c.httpClient = hc
	return c
}

// manualRequest is the JSON body of a structured prediction.
type manualRequest struct {
	Features []float64 `json:"features"`
}

// SubmitStructured posts the encoded feature vector to the manual prediction endpoint.
func (c *PredictionClient) SubmitStructured(ctx context.Context, vector domain.FeatureVector) (domain.RawPredictionResponse, error) {
	body, err := json.Marshal(manualRequest{Features: vector.Slice()})
	if err != nil {
		return nil, &domain.TransportError{Modality: domain.ModalityManual, Err: fmt.Errorf("failed to encode request: %w", err)}
	}
	return c.execute(ctx, domain.ModalityManual, ManualPath, "application/json", body)
}

// SubmitReport uploads a DEXA or medical report document.
func (c *PredictionClient) SubmitReport(ctx context.Context, file domain.FileUpload) (domain.RawPredictionResponse, error) {
	return c.submitFile(ctx, domain.ModalityReport, ReportPath, file)
}

// SubmitXRay uploads a bone X-ray image.
func (c *PredictionClient) SubmitXRay(ctx context.Context, file domain.FileUpload) (domain.RawPredictionResponse, error) {
	return c.submitFile(ctx, domain.ModalityXRay, XRayPath, file)
}

// SubmitMRI uploads an MRI or CT slice to the shared image classification endpoint.
func (c *PredictionClient) SubmitMRI(ctx context.Context, file domain.FileUpload) (domain.RawPredictionResponse, error) {
	return c.submitFile(ctx, domain.ModalityMRI, MRIPath, file)
}

func (c *PredictionClient) submitFile(ctx context.Context, modality domain.Modality, path string, file domain.FileUpload) (domain.RawPredictionResponse, error) {
	body, contentType, err := buildMultipart(file)
	if err != nil {
		return nil, &domain.TransportError{Modality: modality, Err: fmt.Errorf("failed to build multipart body: %w", err)}
	}
	return c.execute(ctx, modality, path, contentType, body)
}

func buildMultipart(file domain.FileUpload) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	filename := file.Filename
	if filename == "" {
		filename = "upload"
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(file.Content)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, defaultFileField, escapeQuotes(filename)))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func (c *PredictionClient) execute(ctx context.Context, modality domain.Modality, path, contentType string, body []byte) (domain.RawPredictionResponse, error) {
	if c.breaker == nil {
		return c.do(ctx, modality, path, contentType, body)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, modality, path, contentType, body)
	})
	if err != nil {
		var te *domain.TransportError
		if errors.As(err, &te) {
			return nil, err
		}
		return nil, &domain.TransportError{Modality: modality, Err: err}
	}
	return result.(domain.RawPredictionResponse), nil
}

func (c *PredictionClient) do(ctx context.Context, modality domain.Modality, path, contentType string, body []byte) (domain.RawPredictionResponse, error) {
	url := c.baseURL + path
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.TransportError{Modality: modality, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"modality": modality,
			"url":      url,
		}).WithError(err).Warn("Prediction request failed")
		return nil, &domain.TransportError{Modality: modality, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransportError{Modality: modality, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.WithFields(logrus.Fields{
		"modality": modality,
		"url":      url,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("Prediction request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.NewTransportError(modality, resp.StatusCode, ExtractErrorDetail(payload))
	}

	var raw domain.RawPredictionResponse
	if err := json.Unmarshal(payload, &raw); err != nil || raw == nil {
		return nil, &domain.TransportError{
			Modality:   modality,
			StatusCode: resp.StatusCode,
			Detail:     "Invalid response from server",
			Err:        err,
		}
	}
	return raw, nil
}
