// internal/interfaces/http/handlers/product.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

// ProductHandler handles product catalog endpoints
type ProductHandler struct {
	productService *product.Service
	config         *config.Config
}

// NewProductHandler creates a new product handler
func NewProductHandler(db *gorm.DB, cfg *config.Config) *ProductHandler {
	return &ProductHandler{
		productService: product.NewService(db, cfg),
		config:         cfg,
	}
}

// AddImageRequest attaches a hosted image to a product
type AddImageRequest struct {
	URL           string `json:"url" binding:"required"`
	PublicID      string `json:"public_id"`
	OptionValueID *uint  `json:"option_value_id"`
	IsPrimary     bool   `json:"is_primary"`
}

// GetProducts returns the filtered, paginated product listing
func (h *ProductHandler) GetProducts(c *gin.Context) {
	var req product.ProductListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.productService.GetProducts(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": response})
}

// GetProduct returns a product with its full variant graph
func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	prod, err := h.productService.GetProduct(productID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": prod})
}

// GetProductBySlug returns a product looked up by its slug
func (h *ProductHandler) GetProductBySlug(c *gin.Context) {
	prod, err := h.productService.GetProductBySlug(c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": prod})
}

// CreateProduct creates a new product (admin)
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req product.ProductCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	prod, err := h.productService.CreateProduct(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"data":    prod,
	})
}

// UpdateProduct updates product fields (admin)
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	productID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	var req product.ProductUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	prod, err := h.productService.UpdateProduct(productID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"data":    prod,
	})
}

// DeleteProduct soft-deletes a product (admin)
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	productID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.productService.DeleteProduct(productID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// AddImage attaches an uploaded image to a product (admin)
func (h *ProductHandler) AddImage(c *gin.Context) {
	productID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	var req AddImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	image, err := h.productService.AddImage(productID, req.URL, req.PublicID, req.OptionValueID, req.IsPrimary)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Image added successfully",
		"data":    image,
	})
}

// RemoveImage detaches an image from a product (admin)
func (h *ProductHandler) RemoveImage(c *gin.Context) {
	productID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	imageID, err := parseUintParam(c, "image_id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.productService.RemoveImage(productID, imageID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Image removed successfully"})
}
