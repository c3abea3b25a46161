// internal/interfaces/http/handlers/order.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/location"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// OrderHandler handles order history and lifecycle endpoints
type OrderHandler struct {
	orderService *order.Service
	config       *config.Config
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *OrderHandler {
	cartService := cart.NewService(db, redisClient, cfg)
	locationService := location.NewService(db)

	return &OrderHandler{
		orderService: order.NewService(db, cfg, cartService, locationService),
		config:       cfg,
	}
}

// pageParams reads page/limit query values with defaults
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, limit
}

// GetOrders lists the authenticated user's orders, newest first
func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	page, limit := pageParams(c)
	response, err := h.orderService.GetOrders(userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": response})
}

// GetOrder returns one of the user's orders with items and transactions
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	orderID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	o, err := h.orderService.GetOrder(userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": o})
}

// GetOrderByCode returns one of the user's orders looked up by order code
func (h *OrderHandler) GetOrderByCode(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	o, err := h.orderService.GetOrderByCode(userID, c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": o})
}

// CancelOrder cancels an order that has not yet shipped; reserved stock
// is returned
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	orderID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	o, err := h.orderService.CancelOrder(userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled",
		"data":    o,
	})
}

// ConfirmReceived marks a shipping order as completed by the customer
func (h *OrderHandler) ConfirmReceived(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	orderID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	o, err := h.orderService.ConfirmReceived(userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order completed",
		"data":    o,
	})
}

// AdminGetOrders lists all orders with an optional status filter (admin)
func (h *OrderHandler) AdminGetOrders(c *gin.Context) {
	page, limit := pageParams(c)
	response, err := h.orderService.AdminGetOrders(c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": response})
}

// AdminGetOrder returns any order by ID (admin)
func (h *OrderHandler) AdminGetOrder(c *gin.Context) {
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	o, err := h.orderService.AdminGetOrder(orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": o})
}

// AdminUpdateStatus moves an order through its lifecycle (admin)
func (h *OrderHandler) AdminUpdateStatus(c *gin.Context) {
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	var req order.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	o, err := h.orderService.AdminUpdateStatus(orderID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated",
		"data":    o,
	})
}
