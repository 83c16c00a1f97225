package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/wayfarer-travel/service-companion/internal/application"
	"github.com/wayfarer-travel/service-companion/internal/platform/auth"
	"github.com/wayfarer-travel/service-companion/internal/platform/middleware"
	"github.com/wayfarer-travel/service-companion/internal/platform/response"
)

// NavigationHandler handles HTTP requests for route guidance.
type NavigationHandler struct {
	service *application.NavigationService
}

// NewNavigationHandler creates a new NavigationHandler.
func NewNavigationHandler(service *application.NavigationService) *NavigationHandler {
	return &NavigationHandler{service: service}
}

// RegisterRoutes registers all navigation routes on the given router group.
func (h *NavigationHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	nav := r.Group("/api/v1/navigation")
	nav.Use(middleware.AuthMiddleware(jwtManager))
	{
		nav.POST("/start", h.StartNavigation)
		nav.GET("", h.GetNavigation)
		nav.POST("/stop", h.StopNavigation)
		nav.GET("/resolve", h.ResolveRoute)
	}
}

// StartNavigation handles POST /api/v1/navigation/start.
func (h *NavigationHandler) StartNavigation(c *gin.Context) {
	travelerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.StartNavigationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.StartNavigation(c.Request.Context(), travelerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetNavigation handles GET /api/v1/navigation.
func (h *NavigationHandler) GetNavigation(c *gin.Context) {
	travelerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.GetNavigation(c.Request.Context(), travelerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// StopNavigation handles POST /api/v1/navigation/stop.
func (h *NavigationHandler) StopNavigation(c *gin.Context) {
	travelerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.StopNavigation(c.Request.Context(), travelerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ResolveRoute handles GET /api/v1/navigation/resolve?q=query.
func (h *NavigationHandler) ResolveRoute(c *gin.Context) {
	result, err := h.service.ResolveRoute(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
