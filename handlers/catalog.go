package handlers

import (
	"net/http"

	"rentify/services/catalog"
	"rentify/utils"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the vehicle fleet and extras catalog.
type CatalogHandler struct {
	Service catalog.CatalogService
}

func NewCatalogHandler(svc catalog.CatalogService) *CatalogHandler {
	return &CatalogHandler{Service: svc}
}

// ListVehicles returns the fleet, optionally filtered by ?category=.
func (h *CatalogHandler) ListVehicles(c *gin.Context) {
	vehicles, err := h.Service.ListVehicles(c.Request.Context(), c.Query("category"))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to list vehicles", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": vehicles})
}

// GetVehicle returns one vehicle by id.
func (h *CatalogHandler) GetVehicle(c *gin.Context) {
	vehicle, err := h.Service.GetVehicleByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "vehicle not found", err.Error())
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

// ListExtras returns every offered add-on.
func (h *CatalogHandler) ListExtras(c *gin.Context) {
	extras, err := h.Service.ListAvailableExtras(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to list extras", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"extras": extras})
}
