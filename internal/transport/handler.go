package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-fits-inspector/internal/config"
	apperrors "go-fits-inspector/internal/errors"
	"go-fits-inspector/internal/extractor"
	"go-fits-inspector/internal/observer"
	"go-fits-inspector/internal/resolver"
	"go-fits-inspector/internal/storage"
	"go-fits-inspector/internal/version"
	"go-fits-inspector/pkg/geometry"
	"go-fits-inspector/pkg/models"
)

// Dependencies are the collaborators behind the HTTP API
type Dependencies struct {
	Extractor extractor.MetadataExtractor
	Resolver  resolver.Resolver
	// Publisher and Metrics are optional.
	Publisher observer.Subject
	Metrics   *observer.MetricsObserver
	Logger    logrus.FieldLogger
}

type handler struct {
	deps Dependencies
	cfg  *config.Config
	log  logrus.FieldLogger
}

func NewHandler(deps Dependencies, cfg *config.Config) http.Handler {
	h := &handler{deps: deps, cfg: cfg, log: deps.Logger}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		h.requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		h.errorHandler(),
	)

	// Configure routes
	r.GET("/health", h.healthCheck)
	r.POST("/extract", h.extract)
	r.POST("/contains", h.contains)
	r.GET("/resolve", h.resolve)

	return r
}

func (h *handler) extract(c *gin.Context) {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	file, err := c.FormFile("file")
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid request format",
			apperrors.NewValidationError("multipart field \"file\" is required", err))
		return
	}
	name := path.Base(file.Filename)
	if !storage.IsFITS(name) {
		h.respondError(c, http.StatusBadRequest, "invalid upload",
			apperrors.NewValidationError("file must have a .fit or .fits extension", nil))
		return
	}

	f, err := file.Open()
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid upload", apperrors.NewValidationError("cannot read upload", err))
		return
	}
	defer f.Close()

	md, err := h.deps.Extractor.Extract(ctx, name, f)
	duration := time.Since(startTime)
	if err != nil {
		h.notify(ctx, observer.BatchEvent{
			EventType:      observer.FileFailed,
			File:           name,
			ProcessingTime: duration,
			ErrorMessage:   err.Error(),
		})
		h.respondError(c, determineStatusCode(err), "metadata extraction failed", err)
		return
	}
	h.notify(ctx, observer.BatchEvent{
		EventType:      observer.FileExtracted,
		File:           name,
		ProcessingTime: duration,
		Success:        true,
	})

	h.log.WithFields(logrus.Fields{
		"file":               name,
		"object":             md.Object,
		"has_footprint":      md.MOC != nil,
		"processing_time_ms": duration.Milliseconds(),
	}).Info("Metadata extraction completed successfully")

	c.JSON(http.StatusOK, models.ExtractResponse{Metadata: md, ProcessingTimeSec: duration.Seconds()})
}

func (h *handler) contains(c *gin.Context) {
	var req models.ContainsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid request format", apperrors.NewValidationError("invalid polygon query", err))
		return
	}

	vertices := req.Vertices
	if req.Normalize {
		if err := geometry.Validate(vertices); err != nil {
			h.respondError(c, http.StatusBadRequest, "invalid polygon", apperrors.NewValidationError(err.Error(), err))
			return
		}
		vertices = geometry.Clockwise(vertices)
	}

	c.JSON(http.StatusOK, models.ContainsResponse{Inside: geometry.Contains(req.Point, vertices)})
}

func (h *handler) resolve(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	name := c.Query("name")
	c.JSON(http.StatusOK, models.ResolveResponse{Name: name, Resolved: h.deps.Resolver.Resolve(ctx, name)})
}

func (h *handler) healthCheck(c *gin.Context) {
	body := gin.H{
		"status":  "available",
		"version": version.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}
	if h.deps.Metrics != nil {
		body["metrics"] = h.deps.Metrics.GetMetrics()
	}
	c.JSON(http.StatusOK, body)
}

func (h *handler) notify(ctx context.Context, event observer.BatchEvent) {
	if h.deps.Publisher != nil {
		h.deps.Publisher.NotifyObservers(ctx, event)
	}
}

// Middleware and helper functions
func (h *handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"user_agent":  c.Request.UserAgent(),
			"ip":          c.ClientIP(),
		}).Debug("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func (h *handler) errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last().Err
			h.respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return apperrors.GetStatusCode(err)
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return apperrors.GetStatusCode(err)
	}
}

func (h *handler) respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	entry := h.log.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
