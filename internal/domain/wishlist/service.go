// internal/domain/wishlist/service.go
package wishlist

import (
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service handles wishlist business logic
type Service struct {
	db *gorm.DB
}

// NewService creates a new wishlist service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// AddProduct adds a product to the user's wishlist. Adding the same
// product twice is a no-op.
func (s *Service) AddProduct(userID, productID uint) error {
	var prod product.Product
	err := s.db.Where("id = ? AND is_active = ?", productID, true).First(&prod).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("product %d not found", productID)
		}
		return fmt.Errorf("failed to retrieve product: %w", err)
	}

	item := WishlistItem{UserID: userID, ProductID: productID}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoNothing: true,
	}).Create(&item).Error
	if err != nil {
		return fmt.Errorf("failed to add wishlist item: %w", err)
	}
	return nil
}

// RemoveProduct removes a product from the user's wishlist
func (s *Service) RemoveProduct(userID, productID uint) error {
	result := s.db.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&WishlistItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("product %d is not in the wishlist", productID)
	}
	return nil
}

// GetWishlist lists the user's wishlist with product details, newest first
func (s *Service) GetWishlist(userID uint) ([]WishlistItem, error) {
	var items []WishlistItem
	err := s.db.Preload("Product").Preload("Product.Variants").Preload("Product.Images").
		Where("user_id = ?", userID).Order("created_at DESC").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve wishlist: %w", err)
	}
	return items, nil
}

// Contains reports whether the product is on the user's wishlist
func (s *Service) Contains(userID, productID uint) (bool, error) {
	var count int64
	err := s.db.Model(&WishlistItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check wishlist: %w", err)
	}
	return count > 0, nil
}
