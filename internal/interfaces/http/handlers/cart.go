// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// CartHandler handles cart endpoints for both authenticated users and
// guest sessions
type CartHandler struct {
	cartService *cart.Service
	config      *config.Config
}

// NewCartHandler creates a new cart handler
func NewCartHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *CartHandler {
	return &CartHandler{
		cartService: cart.NewService(db, redisClient, cfg),
		config:      cfg,
	}
}

// cartIdentity resolves the caller to either an authenticated user or a
// guest session. A missing session header mints a fresh session ID; the
// client is expected to persist the session_id returned in the response.
func (h *CartHandler) cartIdentity(c *gin.Context) (*uint, string) {
	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		return &userID, ""
	}

	sessionID := c.GetHeader("X-Session-ID")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	return nil, sessionID
}

// GetCart returns the caller's cart with live variant details
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, sessionID := h.cartIdentity(c)

	response, err := h.cartService.GetCart(userID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": response})
}

// AddToCart adds a variant to the cart, accumulating quantity on repeats
func (h *CartHandler) AddToCart(c *gin.Context) {
	userID, sessionID := h.cartIdentity(c)

	var req cart.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.cartService.AddToCart(userID, sessionID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart",
		"data":    response,
	})
}

// UpdateCartItem sets a line's quantity; zero or below removes it
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	userID, sessionID := h.cartIdentity(c)

	variantID, err := parseUintParam(c, "variant_id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	var req cart.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.cartService.UpdateCartItem(userID, sessionID, variantID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart updated",
		"data":    response,
	})
}

// RemoveFromCart removes a line from the cart
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	userID, sessionID := h.cartIdentity(c)

	variantID, err := parseUintParam(c, "variant_id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.cartService.RemoveFromCart(userID, sessionID, variantID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart",
		"data":    response,
	})
}

// ClearCart removes every line from the cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	userID, sessionID := h.cartIdentity(c)

	if err := h.cartService.ClearCart(userID, sessionID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

// GetItemCount returns the cart's total quantity for badge rendering
func (h *CartHandler) GetItemCount(c *gin.Context) {
	userID, sessionID := h.cartIdentity(c)

	count, err := h.cartService.GetCartItemCount(userID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"count": count}})
}

// ValidateCart reports stock and price drift without mutating the cart
func (h *CartHandler) ValidateCart(c *gin.Context) {
	userID, sessionID := h.cartIdentity(c)

	result, err := h.cartService.ValidateCart(userID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
