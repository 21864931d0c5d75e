// Package httpapi exposes the estimation pipeline over HTTP: a single
// synchronous estimate endpoint plus a health probe.
package httpapi

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/renoquote/renoquote/internal/domain"
	llmerrors "github.com/renoquote/renoquote/internal/llm/errors"
)

// requestTimeout bounds a synchronous estimate call end to end. Generous:
// a full cascade with retries can legitimately take minutes.
const requestTimeout = 4 * time.Minute

// Estimator is the pipeline surface the API depends on.
type Estimator interface {
	Estimate(ctx context.Context, req *domain.EstimateRequest) (*domain.NormalizedEstimate, error)
}

// EstimateRequestBody is the JSON shape accepted by POST /v1/estimates.
// Images arrive base64-encoded; oversized or undecodable entries fail
// the request rather than being silently dropped.
type EstimateRequestBody struct {
	RoomType      string   `json:"roomType" binding:"required"`
	SquareFootage float64  `json:"squareFootage"`
	QualityTier   string   `json:"qualityTier" binding:"required"`
	ZipCode       string   `json:"zipCode" binding:"omitempty,len=5,numeric"`
	Urgency       string   `json:"urgency,omitempty"`
	Materials     []string `json:"materials,omitempty"`
	NeedsPermits  bool     `json:"needsPermits,omitempty"`
	IncludeDesign bool     `json:"includeDesign,omitempty"`
	Images        []string `json:"images,omitempty"`
	Description   string   `json:"description,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewServer builds the HTTP handler with routes and middleware wired.
func NewServer(est Estimator) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", healthCheck)
	r.POST("/v1/estimates", createEstimate(est))

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func createEstimate(est Estimator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		var body EstimateRequestBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
			return
		}

		req, err := toDomain(&body)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
			return
		}

		result, err := est.Estimate(ctx, req)
		if err != nil {
			status, code := classify(err)
			slog.Warn("estimate request failed",
				"request_id", req.ID, "status", status, "error", err)
			c.JSON(status, errorResponse{Error: code, Message: err.Error()})
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// toDomain converts the wire body into a validated domain request,
// decoding base64 image payloads.
func toDomain(body *EstimateRequestBody) (*domain.EstimateRequest, error) {
	req, err := domain.NewEstimateRequest(
		domain.RoomType(body.RoomType),
		body.SquareFootage,
		domain.QualityTier(body.QualityTier),
	)
	if err != nil {
		return nil, err
	}
	req.ZipCode = body.ZipCode
	if body.Urgency != "" {
		req.Urgency = domain.Urgency(body.Urgency)
	}
	req.Materials = body.Materials
	req.NeedsPermits = body.NeedsPermits
	req.IncludeDesign = body.IncludeDesign
	req.Description = body.Description

	for i, enc := range body.Images {
		data, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return nil, fmt.Errorf("image %d is not valid base64: %w", i, err)
		}
		req.Images = append(req.Images, data)
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// classify maps pipeline failures onto HTTP statuses: operator
// misconfiguration is a 503, every upstream model failure is a 502, and
// anything else is a 500.
func classify(err error) (int, string) {
	var cfgErr *llmerrors.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		return http.StatusServiceUnavailable, "not_configured"
	case errors.Is(err, llmerrors.ErrCascadeExhausted):
		return http.StatusBadGateway, "all_models_failed"
	case errors.Is(err, llmerrors.ErrUnusable):
		return http.StatusBadGateway, "unusable_model_output"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
			"ip", c.ClientIP())
	}
}
