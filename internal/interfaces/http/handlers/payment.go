// internal/interfaces/http/handlers/payment.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/location"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// PaymentHandler handles gateway payment endpoints
type PaymentHandler struct {
	paymentService *payment.VNPayService
	config         *config.Config
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *PaymentHandler {
	cartService := cart.NewService(db, redisClient, cfg)
	locationService := location.NewService(db)
	orderService := order.NewService(db, cfg, cartService, locationService)

	return &PaymentHandler{
		paymentService: payment.NewVNPayService(db, cfg, orderService),
		config:         cfg,
	}
}

// SimulateRequest drives the sandbox gateway without a real redirect
type SimulateRequest struct {
	OrderCode string `json:"order_code" binding:"required"`
	Amount    int64  `json:"amount" binding:"required"`
	Success   *bool  `json:"success" binding:"required"`
}

// InitiatePayment starts an online payment for a pending order and
// returns the gateway redirect URL
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
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

	response, err := h.paymentService.InitiatePayment(userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": response})
}

// HandleReturn processes the signed gateway return redirect. The endpoint
// is unauthenticated because the gateway redirects the browser here; the
// signature is the trust anchor.
func (h *PaymentHandler) HandleReturn(c *gin.Context) {
	result, err := h.paymentService.HandleReturn(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// SimulateReturn fabricates a signed gateway return and processes it.
// Lets the full payment loop run without the real sandbox.
func (h *PaymentHandler) SimulateReturn(c *gin.Context) {
	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	params := h.paymentService.SimulateReturn(req.OrderCode, req.Amount, *req.Success)
	result, err := h.paymentService.HandleReturn(params)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
