// internal/interfaces/http/handlers/location.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/location"
	"gorm.io/gorm"
)

// LocationHandler serves the administrative division picker data
type LocationHandler struct {
	locationService *location.Service
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(db *gorm.DB) *LocationHandler {
	return &LocationHandler{
		locationService: location.NewService(db),
	}
}

// GetProvinces lists all provinces
func (h *LocationHandler) GetProvinces(c *gin.Context) {
	provinces, err := h.locationService.GetProvinces()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": provinces})
}

// GetDistricts lists the districts of a province
func (h *LocationHandler) GetDistricts(c *gin.Context) {
	provinceID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	districts, err := h.locationService.GetDistricts(provinceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": districts})
}

// GetWards lists the wards of a district
func (h *LocationHandler) GetWards(c *gin.Context) {
	districtID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	wards, err := h.locationService.GetWards(districtID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": wards})
}
