package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SessionCounter reports how many sessions a pipeline holds.
type SessionCounter interface {
	ActiveSessions() int
}

// HealthHandler serves liveness and metrics endpoints.
type HealthHandler struct {
	service  string
	gatherer prometheus.Gatherer
	safety   SessionCounter
	nav      SessionCounter
}

// NewHealthHandler creates a new HealthHandler. gatherer may be nil, in
// which case /metrics is not registered.
func NewHealthHandler(service string, gatherer prometheus.Gatherer, safety, nav SessionCounter) *HealthHandler {
	return &HealthHandler{service: service, gatherer: gatherer, safety: safety, nav: nav}
}

// RegisterRoutes registers /health and /metrics on the engine root.
func (h *HealthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", h.Health)
	if h.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}
}

// Health handles GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	body := gin.H{"status": "ok", "service": h.service}
	if h.safety != nil {
		body["safety_sessions"] = h.safety.ActiveSessions()
	}
	if h.nav != nil {
		body["navigation_sessions"] = h.nav.ActiveSessions()
	}
	c.JSON(http.StatusOK, body)
}
