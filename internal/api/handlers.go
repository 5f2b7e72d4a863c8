package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/osteocare-ai/osteocare/internal/domain"
	"github.com/osteocare-ai/osteocare/internal/middleware"
	"github.com/osteocare-ai/osteocare/internal/simulator"
)

// ManualPredictionRequest is the body of POST /predict/manual.
type ManualPredictionRequest struct {
	Features []float64 `json:"features" binding:"required"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Version     string `json:"version"`
}

// handleRoot points callers at the health endpoint.
func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Osteocare prediction backend is running.",
		"health":  "/health",
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:      "ok",
		ModelLoaded: false,
		Version:     simulator.Version,
	})
}

// handleManual scores a structured feature vector
func (s *Server) handleManual(c *gin.Context) {
	var req ManualPredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortDetail(c, http.StatusUnprocessableEntity, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	resp, err := s.simulator.PredictManual(c.Request.Context(), req.Features)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleFile returns a handler for one multipart file route
func (s *Server) handleFile(modality domain.Modality) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := s.simulator.MaxUploadSize(modality)
		if limit > 0 {
			// Leave headroom for multipart framing so oversize files reach the
			// simulator's own size check and get a 413 with a useful detail.
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+(1<<20))
		}

		header, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				abortDetail(c, http.StatusRequestEntityTooLarge,
					fmt.Sprintf("File too large. Maximum allowed: %d MB.", limit>>20))
				return
			}
			abortDetail(c, http.StatusUnprocessableEntity, "Missing multipart field 'file'.")
			return
		}

		f, err := header.Open()
		if err != nil {
			abortDetail(c, http.StatusBadRequest, "Unable to read uploaded file.")
			return
		}
		defer f.Close()

		content, err := io.ReadAll(f)
		if err != nil {
			abortDetail(c, http.StatusBadRequest, "Unable to read uploaded file.")
			return
		}

		resp, err := s.simulator.PredictFile(c.Request.Context(), modality, domain.FileUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     content,
		})
		if err != nil {
			s.abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func (s *Server) abortWithError(c *gin.Context, err error) {
	var reqErr *simulator.RequestError
	if errors.As(err, &reqErr) {
		abortDetail(c, reqErr.Status, reqErr.Detail)
		return
	}
	s.logger.WithError(err).WithField("correlation_id", c.GetString(middleware.CorrelationIDKey)).
		Error("Prediction failed")
	abortDetail(c, http.StatusInternalServerError, "Model inference error")
}

// abortDetail writes the {"detail": "..."} error body clients parse.
func abortDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}
