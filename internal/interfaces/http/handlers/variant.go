// internal/interfaces/http/handlers/variant.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

// VariantHandler handles product option and variant endpoints
type VariantHandler struct {
	variantService *product.VariantService
	config         *config.Config
}

// NewVariantHandler creates a new variant handler
func NewVariantHandler(db *gorm.DB, cfg *config.Config) *VariantHandler {
	return &VariantHandler{
		variantService: product.NewVariantService(db, cfg),
		config:         cfg,
	}
}

// ResolveVariantRequest selects one value per option axis
type ResolveVariantRequest struct {
	Selections []product.VariantSelection `json:"selections" binding:"required"`
}

// CreateOption adds an option axis to a product (admin)
func (h *VariantHandler) CreateOption(c *gin.Context) {
	productID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	var req product.OptionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	option, err := h.variantService.CreateOption(productID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Option created successfully",
		"data":    option,
	})
}

// CreateOptionValue adds a value to an option axis (admin)
func (h *VariantHandler) CreateOptionValue(c *gin.Context) {
	productID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	optionID, err := parseUintParam(c, "option_id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	var req product.OptionValueCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	value, err := h.variantService.CreateOptionValue(productID, optionID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Option value created successfully",
		"data":    value,
	})
}

// CreateVariant creates a sellable variant from option selections (admin)
func (h *VariantHandler) CreateVariant(c *gin.Context) {
	productID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	var req product.VariantCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	variant, err := h.variantService.CreateVariant(productID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Variant created successfully",
		"data":    variant,
	})
}

// UpdateVariant updates variant price, stock or active flag (admin)
func (h *VariantHandler) UpdateVariant(c *gin.Context) {
	productID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	variantID, err := parseUintParam(c, "variant_id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	var req product.VariantUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	variant, err := h.variantService.UpdateVariant(productID, variantID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Variant updated successfully",
		"data":    variant,
	})
}

// DeleteVariant removes a variant (admin)
func (h *VariantHandler) DeleteVariant(c *gin.Context) {
	productID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	variantID, err := parseUintParam(c, "variant_id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.variantService.DeleteVariant(productID, variantID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Variant deleted successfully"})
}

// ResolveVariant maps a full option selection to the single matching variant
func (h *VariantHandler) ResolveVariant(c *gin.Context) {
	productID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	var req ResolveVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	variant, err := h.variantService.ResolveVariant(productID, req.Selections)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": variant})
}
