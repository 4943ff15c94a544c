package routes

import (
	"rentify/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterCatalogRoutes registers the vehicle and extras catalog endpoints.
func RegisterCatalogRoutes(r *gin.Engine, h *handlers.CatalogHandler) {
	cat := r.Group("/api/catalog")
	{
		cat.GET("/vehicles", h.ListVehicles)
		cat.GET("/vehicles/:id", h.GetVehicle)
		cat.GET("/extras", h.ListExtras)
	}
}
