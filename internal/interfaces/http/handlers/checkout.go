// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/location"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/email"
	"gorm.io/gorm"
)

// CheckoutHandler converts the authenticated user's cart into an order
type CheckoutHandler struct {
	orderService *order.Service
	emailService *email.EmailService
	config       *config.Config
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *CheckoutHandler {
	cartService := cart.NewService(db, redisClient, cfg)
	locationService := location.NewService(db)

	return &CheckoutHandler{
		orderService: order.NewService(db, cfg, cartService, locationService),
		emailService: email.NewEmailService(cfg),
		config:       cfg,
	}
}

// Checkout places an order from the current cart. Stock is reserved and
// the cart cleared atomically; the confirmation email goes out after the
// order is committed and never blocks the response.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req order.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	placed, err := h.orderService.Checkout(userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	if userEmail, ok := middleware.GetUserEmailFromContext(c); ok {
		go func(recipient string, o *order.Order) {
			if err := h.emailService.SendOrderConfirmation(recipient, o); err != nil {
				log.Println("⚠️ Failed to send order confirmation:", err)
			}
		}(userEmail, placed)
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"data":    placed,
	})
}
