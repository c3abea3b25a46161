package cart

import (
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

// CartIssue describes one problem with a cart line
type CartIssue struct {
	ProductVariantID uint   `json:"product_variant_id"`
	Code             string `json:"code"`
	Message          string `json:"message"`
	CartPrice        int64  `json:"cart_price,omitempty"`
	CurrentPrice     int64  `json:"current_price,omitempty"`
	Requested        int    `json:"requested,omitempty"`
	Available        int    `json:"available,omitempty"`
}

// Issue codes reported by ValidateCart
const (
	IssueVariantUnavailable = "variant_unavailable"
	IssuePriceChanged       = "price_changed"
	IssueInsufficientStock  = "insufficient_stock"
)

// ValidationResult summarizes cart health before checkout
type ValidationResult struct {
	Valid  bool        `json:"valid"`
	Issues []CartIssue `json:"issues"`
}

// ValidateCart checks every line against the live catalog and reports
// price drift, stock shortages and removed variants. Price drift is
// informational only; the frozen line price still applies at checkout.
func (s *Service) ValidateCart(userID *uint, sessionID string) (*ValidationResult, error) {
	cartResponse, err := s.GetCart(userID, sessionID)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{Valid: true, Issues: []CartIssue{}}

	for _, item := range cartResponse.Items {
		var variant product.ProductVariant
		err := s.db.Where("id = ? AND is_active = ?", item.ProductVariantID, true).First(&variant).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result.Valid = false
				result.Issues = append(result.Issues, CartIssue{
					ProductVariantID: item.ProductVariantID,
					Code:             IssueVariantUnavailable,
					Message:          "variant is no longer available",
				})
				continue
			}
			return nil, fmt.Errorf("failed to validate cart item: %w", err)
		}

		var prod product.Product
		if err := s.db.Where("id = ? AND is_active = ?", variant.ProductID, true).First(&prod).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result.Valid = false
				result.Issues = append(result.Issues, CartIssue{
					ProductVariantID: item.ProductVariantID,
					Code:             IssueVariantUnavailable,
					Message:          "product is no longer available",
				})
				continue
			}
			return nil, fmt.Errorf("failed to validate cart item: %w", err)
		}

		if variant.Stock < item.Quantity {
			result.Valid = false
			result.Issues = append(result.Issues, CartIssue{
				ProductVariantID: item.ProductVariantID,
				Code:             IssueInsufficientStock,
				Message:          fmt.Sprintf("only %d of %s in stock", variant.Stock, variant.SKU),
				Requested:        item.Quantity,
				Available:        variant.Stock,
			})
		}

		// Drift does not invalidate the cart; the captured price sticks
		if variant.Price != item.UnitPrice {
			result.Issues = append(result.Issues, CartIssue{
				ProductVariantID: item.ProductVariantID,
				Code:             IssuePriceChanged,
				Message:          "price has changed since the item was added",
				CartPrice:        item.UnitPrice,
				CurrentPrice:     variant.Price,
			})
		}
	}

	return result, nil
}
