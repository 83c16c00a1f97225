package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wayfarer-travel/service-companion/internal/application"
	"github.com/wayfarer-travel/service-companion/internal/domain/zone"
	"github.com/wayfarer-travel/service-companion/internal/platform/auth"
	"github.com/wayfarer-travel/service-companion/internal/platform/middleware"
	"github.com/wayfarer-travel/service-companion/internal/platform/response"
)

// maxImportBytes caps the size of an uploaded catalogue.
const maxImportBytes = 8 << 20

// AdminZoneHandler handles admin HTTP requests for the zone catalogue.
type AdminZoneHandler struct {
	service *application.ZoneCatalogService
}

// NewAdminZoneHandler creates a new AdminZoneHandler.
func NewAdminZoneHandler(service *application.ZoneCatalogService) *AdminZoneHandler {
	return &AdminZoneHandler{service: service}
}

// RegisterRoutes registers admin zone routes.
func (h *AdminZoneHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin/zones")
	admin.Use(authMW, adminRole)
	{
		admin.GET("", h.ListZones)
		admin.GET("/export", h.ExportZones)
		admin.POST("/import", h.ImportZones)
		admin.GET("/:id", h.GetZone)
		admin.PUT("/:id", h.UpsertZone)
		admin.DELETE("/:id", h.DeleteZone)
	}
}

// ListZones handles GET /api/v1/admin/zones.
func (h *AdminZoneHandler) ListZones(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListZones(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetZone handles GET /api/v1/admin/zones/:id.
func (h *AdminZoneHandler) GetZone(c *gin.Context) {
	result, err := h.service.GetZone(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpsertZone handles PUT /api/v1/admin/zones/:id. The path ID wins over
// any ID in the body.
func (h *AdminZoneHandler) UpsertZone(c *gin.Context) {
	var z zone.Zone
	if err := c.ShouldBindJSON(&z); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	z.ID = c.Param("id")

	result, err := h.service.UpsertZone(c.Request.Context(), z)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteZone handles DELETE /api/v1/admin/zones/:id.
func (h *AdminZoneHandler) DeleteZone(c *gin.Context) {
	if err := h.service.DeleteZone(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "zone deleted"})
}

// ExportZones handles GET /api/v1/admin/zones/export.
func (h *AdminZoneHandler) ExportZones(c *gin.Context) {
	data, err := h.service.ExportGeoJSON(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Data(http.StatusOK, "application/geo+json", data)
}

// ImportZones handles POST /api/v1/admin/zones/import with a GeoJSON
// FeatureCollection as the request body.
func (h *AdminZoneHandler) ImportZones(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		response.BadRequest(c, "unable to read request body")
		return
	}
	if len(data) == 0 {
		response.BadRequest(c, "empty request body")
		return
	}

	result, err := h.service.ImportGeoJSON(c.Request.Context(), data)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
