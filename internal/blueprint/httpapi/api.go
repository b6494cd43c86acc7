// Package httpapi serves blueprint lookups over HTTP for chat bots.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rsned/blueprint-cost-server/pkg/blueprint"
)

const requestIDHeader = "X-Request-ID"

// Service is the lookup logic behind the routes.
type Service interface {
	Respond(ctx context.Context, req blueprint.LookupRequest) (*blueprint.Message, error)
	Search(ctx context.Context, req blueprint.SearchRequest) (*blueprint.SearchResponse, error)
}

type APIHandler struct {
	service Service
	logger  *slog.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(svc Service, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	SetupRoutes(r.Group("/api/v1"), svc, logger)
	return r
}

// SetupRoutes registers the blueprint routes on r.
func SetupRoutes(r *gin.RouterGroup, svc Service, logger *slog.Logger) *APIHandler {
	handler := &APIHandler{service: svc, logger: logger}

	bp := r.Group("/blueprints")
	{
		bp.GET("/lookup", handler.Lookup)
		bp.GET("/search", handler.Search)
	}
	return handler
}

// Lookup renders the cost breakdown for ?q=, using the narrow layout when
// ?mobile= is true.
func (h *APIHandler) Lookup(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	mobile, _ := strconv.ParseBool(c.DefaultQuery("mobile", "false"))

	msg, err := h.service.Respond(c.Request.Context(), blueprint.LookupRequest{Query: q, Mobile: mobile})
	if err != nil {
		h.logger.Error("lookup failed", "request_id", c.GetString(requestIDHeader), "query", q, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if msg == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no blueprint matched"})
		return
	}
	c.JSON(http.StatusOK, msg)
}

// Search lists ranked matches for ?q=, at most ?limit= of them.
func (h *APIHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	if limit > 50 {
		limit = 50
	}

	resp, err := h.service.Search(c.Request.Context(), blueprint.SearchRequest{Query: q, Limit: limit})
	if err != nil {
		h.logger.Error("search failed", "request_id", c.GetString(requestIDHeader), "query", q, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// requestLogger tags each request with an id and logs it when done.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		logger.Info("http request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
