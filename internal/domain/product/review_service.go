// internal/domain/product/review_service.go
package product

import (
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// ReviewService handles product review business logic
type ReviewService struct {
	db     *gorm.DB
	config *config.Config
}

// NewReviewService creates a new review service
func NewReviewService(db *gorm.DB, cfg *config.Config) *ReviewService {
	return &ReviewService{db: db, config: cfg}
}

// ReviewCreateRequest represents review creation data
type ReviewCreateRequest struct {
	Rating   int      `json:"rating" binding:"required"`
	Title    string   `json:"title"`
	Content  string   `json:"content" binding:"required"`
	OrderID  *uint    `json:"order_id"`
	VideoURL string   `json:"video_url"`
	Images   []string `json:"images"`
}

// ReviewListResponse represents reviews with an aggregate
type ReviewListResponse struct {
	Reviews       []ProductReview `json:"reviews"`
	AverageRating float64         `json:"average_rating"`
	ReviewCount   int64           `json:"review_count"`
	Pagination    Pagination      `json:"pagination"`
}

// CreateReview creates a review. The 1..5 rating bound is enforced here
// because the schema deliberately carries no CHECK constraint.
func (s *ReviewService) CreateReview(userID, productID uint, req *ReviewCreateRequest) (*ProductReview, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperror.Validation("rating must be between 1 and 5")
	}

	var prod Product
	if err := s.db.First(&prod, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product %d not found", productID)
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}

	// A linked order must belong to the reviewer and contain the product
	if req.OrderID != nil {
		var count int64
		err := s.db.Table("order_items").
			Joins("JOIN orders ON orders.id = order_items.order_id").
			Joins("JOIN product_variants ON product_variants.id = order_items.product_variant_id").
			Where("orders.id = ? AND orders.user_id = ? AND product_variants.product_id = ?",
				*req.OrderID, userID, productID).
			Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("failed to verify purchase: %w", err)
		}
		if count == 0 {
			return nil, apperror.Validation("order %d does not contain this product", *req.OrderID)
		}
	}

	review := ProductReview{
		ProductID: productID,
		UserID:    userID,
		OrderID:   req.OrderID,
		Rating:    req.Rating,
		Title:     req.Title,
		Content:   req.Content,
		VideoURL:  req.VideoURL,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&review).Error; err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}
		for i, url := range req.Images {
			image := ProductReviewImage{
				ReviewID:  review.ID,
				URL:       url,
				SortOrder: i,
			}
			if err := tx.Create(&image).Error; err != nil {
				return fmt.Errorf("failed to create review image: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetReview(review.ID)
}

// GetReview retrieves a single review
func (s *ReviewService) GetReview(reviewID uint) (*ProductReview, error) {
	var review ProductReview
	result := s.db.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	}).First(&review, reviewID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("review %d not found", reviewID)
		}
		return nil, fmt.Errorf("failed to retrieve review: %w", result.Error)
	}
	return &review, nil
}

// GetProductReviews lists reviews of a product with the rating aggregate
func (s *ReviewService) GetProductReviews(productID uint, page, limit int) (*ReviewListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := s.db.Model(&ProductReview{}).Where("product_id = ?", productID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	var reviews []ProductReview
	err := query.
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve reviews: %w", err)
	}

	var average float64
	if total > 0 {
		row := s.db.Model(&ProductReview{}).
			Where("product_id = ?", productID).
			Select("AVG(rating)").
			Row()
		if err := row.Scan(&average); err != nil {
			return nil, fmt.Errorf("failed to compute rating average: %w", err)
		}
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ReviewListResponse{
		Reviews:       reviews,
		AverageRating: average,
		ReviewCount:   total,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}, nil
}

// DeleteReview soft-deletes the caller's own review
func (s *ReviewService) DeleteReview(userID, reviewID uint) error {
	review, err := s.GetReview(reviewID)
	if err != nil {
		return err
	}

	if review.UserID != userID {
		return apperror.Validation("review %d does not belong to user %d", reviewID, userID)
	}

	if err := s.db.Delete(review).Error; err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}
