// internal/domain/order/service.go
package order

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/location"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// Service handles order business logic
type Service struct {
	db              *gorm.DB
	config          *config.Config
	cartService     *cart.Service
	locationService *location.Service
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config, cartService *cart.Service, locationService *location.Service) *Service {
	return &Service{
		db:              db,
		config:          cfg,
		cartService:     cartService,
		locationService: locationService,
	}
}

// CheckoutRequest represents checkout request. The shipping address comes
// either from the user's address book or inline.
type CheckoutRequest struct {
	PaymentMethod PaymentMethod `json:"payment_method" binding:"required"`

	ShippingAddressID *uint `json:"shipping_address_id,omitempty"`

	ReceiverName string `json:"receiver_name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	AddressLine  string `json:"address_line,omitempty"`
	ProvinceID   uint   `json:"province_id,omitempty"`
	DistrictID   uint   `json:"district_id,omitempty"`
	WardID       uint   `json:"ward_id,omitempty"`

	Note string `json:"note,omitempty"`
}

// UpdateStatusRequest represents an admin status change request
type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required"`
}

// OrderListResponse represents paginated orders
type OrderListResponse struct {
	Orders     []Order `json:"orders"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"total_pages"`
}

// addressSnapshot holds the denormalized shipping fields written onto the order
type addressSnapshot struct {
	ReceiverName string
	Phone        string
	AddressLine  string
	ProvinceName string
	DistrictName string
	WardName     string
}

// Checkout converts the user's cart into an order. Order row, order items,
// stock decrements and cart clearing all commit in one transaction; any
// failure leaves everything untouched.
func (s *Service) Checkout(userID uint, req *CheckoutRequest) (*Order, error) {
	if !req.PaymentMethod.IsValid() {
		return nil, apperror.Validation("unsupported payment method %q", req.PaymentMethod)
	}

	snapshot, err := s.resolveShippingAddress(userID, req)
	if err != nil {
		return nil, err
	}

	userCart, err := s.cartService.GetOrCreateCart(userID)
	if err != nil {
		return nil, err
	}

	var created *Order
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var cartItems []cart.CartItem
		if err := tx.Where("cart_id = ?", userCart.ID).Order("created_at ASC").Find(&cartItems).Error; err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}
		if len(cartItems) == 0 {
			return apperror.Validation("cart is empty")
		}

		orderItems := make([]OrderItem, 0, len(cartItems))
		var itemsTotal int64

		for _, cartItem := range cartItems {
			variant, prod, err := s.loadSellableVariant(tx, cartItem.ProductVariantID)
			if err != nil {
				return err
			}

			if err := s.reserveStock(tx, variant, cartItem.Quantity); err != nil {
				return err
			}

			subtotal := cartItem.UnitPrice * int64(cartItem.Quantity)
			itemsTotal += subtotal
			orderItems = append(orderItems, OrderItem{
				ProductVariantID: variant.ID,
				ProductName:      prod.Name,
				SKU:              variant.SKU,
				OptionSummary:    variant.OptionDescription(),
				UnitPrice:        cartItem.UnitPrice,
				Quantity:         cartItem.Quantity,
				Subtotal:         subtotal,
			})
		}

		// COD involves no gateway, so the order starts confirmed and
		// waits for fulfilment instead of payment
		initialStatus := StatusPendingPayment
		if req.PaymentMethod == PaymentMethodCOD {
			initialStatus = StatusConfirmed
		}

		shippingFee := s.config.Checkout.ShippingFee
		newOrder := &Order{
			UserID:        userID,
			Status:        initialStatus,
			ItemsTotal:    itemsTotal,
			ShippingFee:   shippingFee,
			TotalAmount:   itemsTotal + shippingFee,
			Currency:      s.config.Checkout.Currency,
			PaymentMethod: req.PaymentMethod,
			PaymentStatus: PaymentStatusPending,
			ReceiverName:  snapshot.ReceiverName,
			Phone:         snapshot.Phone,
			AddressLine:   snapshot.AddressLine,
			ProvinceName:  snapshot.ProvinceName,
			DistrictName:  snapshot.DistrictName,
			WardName:      snapshot.WardName,
			Note:          req.Note,
		}

		if err := s.createWithUniqueCode(tx, newOrder); err != nil {
			return err
		}

		for i := range orderItems {
			orderItems[i].OrderID = newOrder.ID
		}
		if err := tx.Create(&orderItems).Error; err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}

		for _, item := range orderItems {
			movement := product.StockMovement{
				ProductVariantID: item.ProductVariantID,
				Delta:            -item.Quantity,
				Reason:           product.StockReasonOrderPlaced,
				OrderID:          &newOrder.ID,
			}
			if err := tx.Create(&movement).Error; err != nil {
				return fmt.Errorf("failed to record stock movement: %w", err)
			}
		}

		if err := s.cartService.ClearCartTx(tx, userCart.ID); err != nil {
			return err
		}

		newOrder.Items = orderItems
		created = newOrder
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// GetOrders lists the user's orders, newest first
func (s *Service) GetOrders(userID uint, page, limit int) (*OrderListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := s.db.Model(&Order{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	offset := (page - 1) * limit
	err := query.Preload("Items").Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	return &OrderListResponse{
		Orders:     orders,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// GetOrder retrieves one order belonging to the user
func (s *Service) GetOrder(userID, orderID uint) (*Order, error) {
	var o Order
	err := s.db.Preload("Items").Preload("Transactions").
		Where("id = ? AND user_id = ?", orderID, userID).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("order %d not found", orderID)
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &o, nil
}

// GetOrderByCode retrieves one order by its public code
func (s *Service) GetOrderByCode(userID uint, code string) (*Order, error) {
	var o Order
	err := s.db.Preload("Items").Preload("Transactions").
		Where("order_code = ? AND user_id = ?", code, userID).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("order %s not found", code)
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &o, nil
}

// CancelOrder cancels an order on the customer's behalf and restores the
// reserved stock
func (s *Service) CancelOrder(userID, orderID uint) (*Order, error) {
	o, err := s.GetOrder(userID, orderID)
	if err != nil {
		return nil, err
	}
	if !o.CanBeCancelledByCustomer() {
		return nil, apperror.InvalidTransition(string(o.Status), string(StatusCancelled))
	}
	return s.transition(o, StatusCancelled)
}

// ConfirmReceived moves a shipping order to completed. This is the only
// status change a customer may trigger besides cancellation.
func (s *Service) ConfirmReceived(userID, orderID uint) (*Order, error) {
	o, err := s.GetOrder(userID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusShipping {
		return nil, apperror.InvalidTransition(string(o.Status), string(StatusCompleted))
	}
	return s.transition(o, StatusCompleted)
}

// Admin operations

// AdminGetOrders lists all orders with optional status filter
func (s *Service) AdminGetOrders(status string, page, limit int) (*OrderListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := s.db.Model(&Order{})
	if status != "" {
		if !Status(status).IsValid() {
			return nil, apperror.Validation("unknown order status %q", status)
		}
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	offset := (page - 1) * limit
	err := query.Preload("Items").Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	return &OrderListResponse{
		Orders:     orders,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// AdminGetOrder retrieves any order regardless of owner
func (s *Service) AdminGetOrder(orderID uint) (*Order, error) {
	var o Order
	err := s.db.Preload("Items").Preload("Transactions").Where("id = ?", orderID).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("order %d not found", orderID)
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &o, nil
}

// AdminUpdateStatus applies a status change requested by staff
func (s *Service) AdminUpdateStatus(orderID uint, req *UpdateStatusRequest) (*Order, error) {
	if !req.Status.IsValid() {
		return nil, apperror.Validation("unknown order status %q", req.Status)
	}

	o, err := s.AdminGetOrder(orderID)
	if err != nil {
		return nil, err
	}
	return s.transition(o, req.Status)
}

// ApplyPaymentResult records a payment outcome on the order. Success marks
// the order paid; failure moves it to payment failed. Called by the
// payment service after a provider callback.
func (s *Service) ApplyPaymentResult(orderID uint, success bool) (*Order, error) {
	var o Order
	if err := s.db.Where("id = ?", orderID).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("order %d not found", orderID)
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}

	target := StatusPaid
	paymentStatus := PaymentStatusSuccess
	if !success {
		target = StatusPaymentFailed
		paymentStatus = PaymentStatusFailed
	}

	updated, err := s.transitionWithExtra(&o, target, map[string]interface{}{
		"payment_status": paymentStatus,
	})
	if err != nil {
		return nil, err
	}
	updated.PaymentStatus = paymentStatus
	return updated, nil
}

// transition validates the move against the transition table and applies
// it with an optimistic guard on the current status, so two racing
// updates cannot both win.
func (s *Service) transition(o *Order, to Status) (*Order, error) {
	return s.transitionWithExtra(o, to, nil)
}

func (s *Service) transitionWithExtra(o *Order, to Status, extra map[string]interface{}) (*Order, error) {
	if !CanTransition(o.PaymentMethod, o.Status, to) {
		return nil, apperror.InvalidTransition(string(o.Status), string(to))
	}

	updates := map[string]interface{}{"status": to}
	now := time.Now().UTC()
	switch to {
	case StatusPaid:
		updates["paid_at"] = &now
	case StatusShipping:
		updates["shipped_at"] = &now
	case StatusCompleted:
		updates["completed_at"] = &now
	case StatusCancelled:
		updates["cancelled_at"] = &now
	}
	for k, v := range extra {
		updates[k] = v
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Order{}).
			Where("id = ? AND status = ?", o.ID, o.Status).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update order status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperror.Conflict("order %d changed concurrently, retry", o.ID)
		}

		if to == StatusCancelled {
			if err := s.restoreStock(tx, o.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.Status = to
	switch to {
	case StatusPaid:
		o.PaidAt = &now
	case StatusShipping:
		o.ShippedAt = &now
	case StatusCompleted:
		o.CompletedAt = &now
	case StatusCancelled:
		o.CancelledAt = &now
	}
	return o, nil
}

// restoreStock returns reserved quantities to the catalog when an order
// is cancelled
func (s *Service) restoreStock(tx *gorm.DB, orderID uint) error {
	var items []OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}

	for _, item := range items {
		err := tx.Model(&product.ProductVariant{}).
			Where("id = ?", item.ProductVariantID).
			Update("stock", gorm.Expr("stock + ?", item.Quantity)).Error
		if err != nil {
			return fmt.Errorf("failed to restore stock: %w", err)
		}

		movement := product.StockMovement{
			ProductVariantID: item.ProductVariantID,
			Delta:            item.Quantity,
			Reason:           product.StockReasonOrderCancelled,
			OrderID:          &orderID,
		}
		if err := tx.Create(&movement).Error; err != nil {
			return fmt.Errorf("failed to record stock movement: %w", err)
		}
	}
	return nil
}

// reserveStock decrements stock only when enough remains. The conditional
// update makes two simultaneous checkouts against the same variant safe
// without row locks.
func (s *Service) reserveStock(tx *gorm.DB, variant *product.ProductVariant, quantity int) error {
	result := tx.Model(&product.ProductVariant{}).
		Where("id = ? AND stock >= ?", variant.ID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return fmt.Errorf("failed to reserve stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.InsufficientStock(variant.SKU, variant.Stock, quantity)
	}
	return nil
}

func (s *Service) loadSellableVariant(tx *gorm.DB, variantID uint) (*product.ProductVariant, *product.Product, error) {
	var variant product.ProductVariant
	err := tx.Preload("Options.Option").Preload("Options.OptionValue").
		Where("id = ? AND is_active = ?", variantID, true).First(&variant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperror.NotFound("variant %d is no longer available", variantID)
		}
		return nil, nil, fmt.Errorf("failed to retrieve variant: %w", err)
	}

	var prod product.Product
	err = tx.Where("id = ? AND is_active = ?", variant.ProductID, true).First(&prod).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperror.NotFound("product for variant %d is no longer available", variantID)
		}
		return nil, nil, fmt.Errorf("failed to retrieve product: %w", err)
	}

	return &variant, &prod, nil
}

// resolveShippingAddress builds the denormalized address snapshot, either
// from a saved address or from inline fields validated against the
// location hierarchy
func (s *Service) resolveShippingAddress(userID uint, req *CheckoutRequest) (*addressSnapshot, error) {
	if req.ShippingAddressID != nil {
		var addr user.Address
		err := s.db.Where("id = ? AND user_id = ?", *req.ShippingAddressID, userID).First(&addr).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.NotFound("address %d not found", *req.ShippingAddressID)
			}
			return nil, fmt.Errorf("failed to retrieve address: %w", err)
		}

		resolved, err := s.locationService.Resolve(addr.ProvinceID, addr.DistrictID, addr.WardID)
		if err != nil {
			return nil, err
		}
		return &addressSnapshot{
			ReceiverName: addr.ReceiverName,
			Phone:        addr.Phone,
			AddressLine:  addr.AddressLine,
			ProvinceName: resolved.ProvinceName,
			DistrictName: resolved.DistrictName,
			WardName:     resolved.WardName,
		}, nil
	}

	if strings.TrimSpace(req.ReceiverName) == "" || strings.TrimSpace(req.Phone) == "" || strings.TrimSpace(req.AddressLine) == "" {
		return nil, apperror.Validation("receiver name, phone and address line are required")
	}

	resolved, err := s.locationService.Resolve(req.ProvinceID, req.DistrictID, req.WardID)
	if err != nil {
		return nil, err
	}
	return &addressSnapshot{
		ReceiverName: req.ReceiverName,
		Phone:        req.Phone,
		AddressLine:  req.AddressLine,
		ProvinceName: resolved.ProvinceName,
		DistrictName: resolved.DistrictName,
		WardName:     resolved.WardName,
	}, nil
}

// createWithUniqueCode creates the order row, retrying once with a fresh
// code if the generated one collides
func (s *Service) createWithUniqueCode(tx *gorm.DB, o *Order) error {
	for attempt := 0; attempt < 2; attempt++ {
		o.OrderCode = generateOrderCode()
		err := tx.Create(o).Error
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt == 0 {
			o.ID = 0
			continue
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return apperror.Conflict("could not allocate a unique order code")
}

// orderCodeAlphabet avoids ambiguous characters in customer-facing codes
const orderCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

func generateOrderCode() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	for i := range buf {
		buf[i] = orderCodeAlphabet[int(buf[i])%len(orderCodeAlphabet)]
	}
	return fmt.Sprintf("ORD-%s-%s", time.Now().UTC().Format("20060102"), string(buf))
}
