package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wayfarer-travel/service-companion/internal/application"
	"github.com/wayfarer-travel/service-companion/internal/platform/auth"
	"github.com/wayfarer-travel/service-companion/internal/platform/middleware"
	"github.com/wayfarer-travel/service-companion/internal/platform/response"
)

// SafetyHandler handles HTTP requests for the zone safety pipeline.
type SafetyHandler struct {
	service *application.SafetyService
}

// NewSafetyHandler creates a new SafetyHandler.
func NewSafetyHandler(service *application.SafetyService) *SafetyHandler {
	return &SafetyHandler{service: service}
}

// RegisterRoutes registers all safety routes on the given router group.
func (h *SafetyHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	safety := r.Group("/api/v1/safety")
	safety.Use(middleware.AuthMiddleware(jwtManager))
	{
		safety.POST("/position", h.ReportPosition)
		safety.GET("", h.GetStatus)
		safety.POST("/refresh", h.Refresh)
		safety.GET("/zones", h.NearbyZones)
		safety.POST("/alert/dismiss", h.DismissAlert)
		safety.DELETE("/session", h.EndSession)
	}
}

// ReportPosition handles POST /api/v1/safety/position.
func (h *SafetyHandler) ReportPosition(c *gin.Context) {
	travelerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.PositionUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdatePosition(c.Request.Context(), travelerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetStatus handles GET /api/v1/safety.
func (h *SafetyHandler) GetStatus(c *gin.Context) {
	travelerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.GetStatus(c.Request.Context(), travelerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Refresh handles POST /api/v1/safety/refresh.
func (h *SafetyHandler) Refresh(c *gin.Context) {
	travelerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.RefreshZones(c.Request.Context(), travelerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// NearbyZones handles GET /api/v1/safety/zones?radius=meters.
func (h *SafetyHandler) NearbyZones(c *gin.Context) {
	travelerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	radius, err := strconv.ParseFloat(c.DefaultQuery("radius", "0"), 64)
	if err != nil {
		response.BadRequest(c, "invalid radius")
		return
	}

	result, err := h.service.NearbyZones(c.Request.Context(), travelerID, radius)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DismissAlert handles POST /api/v1/safety/alert/dismiss.
func (h *SafetyHandler) DismissAlert(c *gin.Context) {
	travelerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var body struct {
		AlertID string `json:"alert_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	alertID, err := uuid.Parse(body.AlertID)
	if err != nil {
		response.BadRequest(c, "invalid alert ID")
		return
	}

	result, err := h.service.DismissAlert(c.Request.Context(), travelerID, alertID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// EndSession handles DELETE /api/v1/safety/session.
func (h *SafetyHandler) EndSession(c *gin.Context) {
	travelerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	if err := h.service.EndSession(c.Request.Context(), travelerID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "session ended"})
}
