// internal/domain/cart/service.go
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// guestCartTTL bounds how long an untouched guest cart survives in Redis
const guestCartTTL = 24 * time.Hour

// Service handles cart business logic
type Service struct {
	db          *gorm.DB
	redisClient *redis.Client
	config      *config.Config
}

// NewService creates a new cart service
func NewService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Service {
	return &Service{
		db:          db,
		redisClient: redisClient,
		config:      cfg,
	}
}

// CartItemResponse represents a cart line with variant details
type CartItemResponse struct {
	ID               uint                    `json:"id,omitempty"`
	ProductVariantID uint                    `json:"product_variant_id"`
	Quantity         int                     `json:"quantity"`
	UnitPrice        int64                   `json:"unit_price"`
	Subtotal         int64                   `json:"subtotal"`
	Variant          *product.ProductVariant `json:"variant,omitempty"`
	Product          *product.Product        `json:"product,omitempty"`
	AddedAt          time.Time               `json:"added_at"`
}

// CartResponse represents a shopping cart with items and summary
type CartResponse struct {
	SessionID string             `json:"session_id,omitempty"`
	UserID    *uint              `json:"user_id,omitempty"`
	Items     []CartItemResponse `json:"items"`
	Totals    CartTotals         `json:"totals"`
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductVariantID uint `json:"product_variant_id" binding:"required"`
	Quantity         int  `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest represents update cart item request. A quantity of
// zero or below removes the line.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// GetOrCreateCart returns the user's cart, creating it lazily
func (s *Service) GetOrCreateCart(userID uint) (*Cart, error) {
	var userCart Cart
	err := s.db.Where("user_id = ?", userID).First(&userCart).Error
	if err == nil {
		return &userCart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}

	userCart = Cart{UserID: userID}
	// Two racing first-use requests are resolved by the unique user index
	createErr := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&userCart).Error
	if createErr != nil {
		return nil, fmt.Errorf("failed to create cart: %w", createErr)
	}

	if err := s.db.Where("user_id = ?", userID).First(&userCart).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}
	return &userCart, nil
}

// GetCart retrieves the cart for a user or guest session
func (s *Service) GetCart(userID *uint, sessionID string) (*CartResponse, error) {
	var items []CartItemResponse

	if userID != nil {
		userCart, err := s.GetOrCreateCart(*userID)
		if err != nil {
			return nil, err
		}

		var dbItems []CartItem
		if err := s.db.Where("cart_id = ?", userCart.ID).Order("created_at ASC").Find(&dbItems).Error; err != nil {
			return nil, fmt.Errorf("failed to retrieve cart items: %w", err)
		}

		items = make([]CartItemResponse, len(dbItems))
		for i, item := range dbItems {
			items[i] = CartItemResponse{
				ID:               item.ID,
				ProductVariantID: item.ProductVariantID,
				Quantity:         item.Quantity,
				UnitPrice:        item.UnitPrice,
				Subtotal:         item.UnitPrice * int64(item.Quantity),
				AddedAt:          item.CreatedAt,
			}
		}
	} else {
		sessionCart, err := s.getGuestCart(sessionID)
		if err != nil {
			return nil, err
		}

		items = make([]CartItemResponse, len(sessionCart.Items))
		for i, item := range sessionCart.Items {
			items[i] = CartItemResponse{
				ProductVariantID: item.ProductVariantID,
				Quantity:         item.Quantity,
				UnitPrice:        item.UnitPrice,
				Subtotal:         item.UnitPrice * int64(item.Quantity),
				AddedAt:          item.AddedAt,
			}
		}
	}

	if err := s.loadVariantDetails(items); err != nil {
		return nil, err
	}

	return &CartResponse{
		SessionID: sessionID,
		UserID:    userID,
		Items:     items,
		Totals:    s.calculateTotals(items),
	}, nil
}

// AddToCart adds a variant to the cart. Repeated adds of the same variant
// accumulate quantity on the existing line; the unit price is captured on
// first insert only.
func (s *Service) AddToCart(userID *uint, sessionID string, req *AddToCartRequest) (*CartResponse, error) {
	variant, _, err := s.lookupSellableVariant(req.ProductVariantID)
	if err != nil {
		return nil, err
	}

	if variant.Stock < req.Quantity {
		return nil, apperror.InsufficientStock(variant.SKU, variant.Stock, req.Quantity)
	}

	if userID != nil {
		if err := s.addToUserCart(*userID, variant, req.Quantity); err != nil {
			return nil, err
		}
	} else {
		if err := s.addToGuestCart(sessionID, variant, req.Quantity); err != nil {
			return nil, err
		}
	}

	return s.GetCart(userID, sessionID)
}

// UpdateCartItem updates the quantity of a cart line. Quantity zero or
// below removes the line instead of persisting a non-positive quantity.
func (s *Service) UpdateCartItem(userID *uint, sessionID string, variantID uint, req *UpdateCartItemRequest) (*CartResponse, error) {
	if userID != nil {
		if err := s.updateUserCartItem(*userID, variantID, req.Quantity); err != nil {
			return nil, err
		}
	} else {
		if err := s.updateGuestCartItem(sessionID, variantID, req.Quantity); err != nil {
			return nil, err
		}
	}

	return s.GetCart(userID, sessionID)
}

// RemoveFromCart removes a line from the cart
func (s *Service) RemoveFromCart(userID *uint, sessionID string, variantID uint) (*CartResponse, error) {
	return s.UpdateCartItem(userID, sessionID, variantID, &UpdateCartItemRequest{Quantity: 0})
}

// ClearCart removes all lines from the cart
func (s *Service) ClearCart(userID *uint, sessionID string) error {
	if userID != nil {
		userCart, err := s.GetOrCreateCart(*userID)
		if err != nil {
			return err
		}
		return s.ClearCartTx(s.db, userCart.ID)
	}

	ctx := context.Background()
	return s.redisClient.Del(ctx, guestCartKey(sessionID)).Err()
}

// ClearCartTx removes all lines of a cart inside an existing transaction.
// Checkout uses this so order creation and cart clearing commit together.
func (s *Service) ClearCartTx(tx *gorm.DB, cartID uint) error {
	if err := tx.Where("cart_id = ?", cartID).Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// GetCartItemCount returns the total quantity across all lines
func (s *Service) GetCartItemCount(userID *uint, sessionID string) (int, error) {
	cartResponse, err := s.GetCart(userID, sessionID)
	if err != nil {
		return 0, nil // Treat a missing cart as empty
	}

	total := 0
	for _, item := range cartResponse.Items {
		total += item.Quantity
	}
	return total, nil
}

// MergeGuestCartToUser merges a guest session cart into the user's cart on
// login. Quantities accumulate for variants already in the user cart.
func (s *Service) MergeGuestCartToUser(userID uint, sessionID string) error {
	guestCart, err := s.getGuestCart(sessionID)
	if err != nil || len(guestCart.Items) == 0 {
		return nil // No guest cart to merge
	}

	userCart, err := s.GetOrCreateCart(userID)
	if err != nil {
		return err
	}

	for _, guestItem := range guestCart.Items {
		item := CartItem{
			CartID:           userCart.ID,
			ProductVariantID: guestItem.ProductVariantID,
			Quantity:         guestItem.Quantity,
			UnitPrice:        guestItem.UnitPrice,
		}
		err := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_variant_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"quantity": gorm.Expr("cart_items.quantity + excluded.quantity")}),
		}).Create(&item).Error
		if err != nil {
			return fmt.Errorf("failed to merge cart item: %w", err)
		}
	}

	return s.ClearCart(nil, sessionID)
}

// Private helpers

func (s *Service) lookupSellableVariant(variantID uint) (*product.ProductVariant, *product.Product, error) {
	var variant product.ProductVariant
	result := s.db.Where("id = ? AND is_active = ?", variantID, true).First(&variant)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil, apperror.NotFound("variant %d not found or inactive", variantID)
		}
		return nil, nil, fmt.Errorf("failed to retrieve variant: %w", result.Error)
	}

	var prod product.Product
	result = s.db.Where("id = ? AND is_active = ?", variant.ProductID, true).First(&prod)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil, apperror.NotFound("product for variant %d not found or inactive", variantID)
		}
		return nil, nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}

	return &variant, &prod, nil
}

// addToUserCart upserts on the unique (cart_id, product_variant_id) pair so
// two concurrent adds never create two rows. Only quantity is touched on
// conflict; the stored unit price stays frozen.
func (s *Service) addToUserCart(userID uint, variant *product.ProductVariant, quantity int) error {
	userCart, err := s.GetOrCreateCart(userID)
	if err != nil {
		return err
	}

	item := CartItem{
		CartID:           userCart.ID,
		ProductVariantID: variant.ID,
		Quantity:         quantity,
		UnitPrice:        variant.Price,
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_variant_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"quantity": gorm.Expr("cart_items.quantity + excluded.quantity")}),
	}).Create(&item).Error
	if err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

func (s *Service) updateUserCartItem(userID, variantID uint, quantity int) error {
	userCart, err := s.GetOrCreateCart(userID)
	if err != nil {
		return err
	}

	if quantity <= 0 {
		result := s.db.Where("cart_id = ? AND product_variant_id = ?", userCart.ID, variantID).Delete(&CartItem{})
		if result.Error != nil {
			return fmt.Errorf("failed to remove cart item: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperror.NotFound("variant %d is not in the cart", variantID)
		}
		return nil
	}

	result := s.db.Model(&CartItem{}).
		Where("cart_id = ? AND product_variant_id = ?", userCart.ID, variantID).
		Update("quantity", quantity)
	if result.Error != nil {
		return fmt.Errorf("failed to update cart item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("variant %d is not in the cart", variantID)
	}
	return nil
}

func (s *Service) addToGuestCart(sessionID string, variant *product.ProductVariant, quantity int) error {
	sessionCart, err := s.getGuestCart(sessionID)
	if err != nil {
		return err
	}

	found := false
	for i := range sessionCart.Items {
		if sessionCart.Items[i].ProductVariantID == variant.ID {
			sessionCart.Items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		sessionCart.Items = append(sessionCart.Items, SessionCartItem{
			ProductVariantID: variant.ID,
			Quantity:         quantity,
			UnitPrice:        variant.Price,
			AddedAt:          time.Now().UTC(),
		})
	}

	sessionCart.UpdatedAt = time.Now().UTC()
	return s.saveGuestCart(sessionID, sessionCart)
}

func (s *Service) updateGuestCartItem(sessionID string, variantID uint, quantity int) error {
	sessionCart, err := s.getGuestCart(sessionID)
	if err != nil {
		return err
	}

	for i := range sessionCart.Items {
		if sessionCart.Items[i].ProductVariantID != variantID {
			continue
		}
		if quantity <= 0 {
			sessionCart.Items = append(sessionCart.Items[:i], sessionCart.Items[i+1:]...)
		} else {
			sessionCart.Items[i].Quantity = quantity
		}
		sessionCart.UpdatedAt = time.Now().UTC()
		return s.saveGuestCart(sessionID, sessionCart)
	}

	return apperror.NotFound("variant %d is not in the cart", variantID)
}

func (s *Service) getGuestCart(sessionID string) (*SessionCart, error) {
	if sessionID == "" {
		return nil, apperror.Validation("session ID required for guest cart")
	}

	ctx := context.Background()
	cartData, err := s.redisClient.Get(ctx, guestCartKey(sessionID)).Result()
	if err == redis.Nil {
		return &SessionCart{
			SessionID: sessionID,
			Items:     []SessionCartItem{},
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read guest cart: %w", err)
	}

	var sessionCart SessionCart
	if err := json.Unmarshal([]byte(cartData), &sessionCart); err != nil {
		return nil, fmt.Errorf("failed to decode guest cart: %w", err)
	}
	return &sessionCart, nil
}

func (s *Service) saveGuestCart(sessionID string, sessionCart *SessionCart) error {
	ctx := context.Background()
	cartData, err := json.Marshal(sessionCart)
	if err != nil {
		return fmt.Errorf("failed to encode guest cart: %w", err)
	}
	return s.redisClient.Set(ctx, guestCartKey(sessionID), cartData, guestCartTTL).Err()
}

func (s *Service) loadVariantDetails(items []CartItemResponse) error {
	for i := range items {
		var variant product.ProductVariant
		err := s.db.
			Preload("Options.Option").
			Preload("Options.OptionValue").
			Where("id = ?", items[i].ProductVariantID).
			First(&variant).Error
		if err != nil {
			continue // Variant since removed; line still renders from frozen data
		}
		items[i].Variant = &variant

		var prod product.Product
		if err := s.db.Where("id = ?", variant.ProductID).First(&prod).Error; err == nil {
			items[i].Product = &prod
		}
	}
	return nil
}

func (s *Service) calculateTotals(items []CartItemResponse) CartTotals {
	var totals CartTotals
	totals.ItemCount = len(items)
	for _, item := range items {
		totals.TotalQuantity += item.Quantity
		totals.SubTotal += item.UnitPrice * int64(item.Quantity)
	}
	return totals
}

func guestCartKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}
