// internal/domain/product/service.go
package product

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// Service handles product business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new product service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Page       int    `form:"page,default=1"`
	Limit      int    `form:"limit,default=20"`
	CategoryID uint   `form:"category_id"`
	Gender     string `form:"gender"`
	Search     string `form:"search"`
	SortBy     string `form:"sort_by,default=created_at"`
	SortOrder  string `form:"sort_order,default=desc"`
	IsActive   *bool  `form:"is_active"`
}

// ProductCreateRequest represents product creation data
type ProductCreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Gender      Gender `json:"gender" binding:"omitempty,oneof=men women unisex"`
	ShortDesc   string `json:"short_description"`
	Description string `json:"description"`
	CategoryID  *uint  `json:"category_id"`
	IsActive    bool   `json:"is_active"`
}

// ProductUpdateRequest represents product update data
type ProductUpdateRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Gender      *Gender `json:"gender" binding:"omitempty,oneof=men women unisex"`
	ShortDesc   *string `json:"short_description"`
	Description *string `json:"description"`
	CategoryID  *uint   `json:"category_id"`
	IsActive    *bool   `json:"is_active"`
}

// ProductListItem is a listing row with the computed variant price floor
type ProductListItem struct {
	Product
	MinPrice int64 `json:"min_price"`
	InStock  bool  `json:"in_stock"`
}

// ProductResponse represents product response with pagination
type ProductResponse struct {
	Products   []ProductListItem `json:"products"`
	Pagination Pagination        `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// GetProducts retrieves products with filtering and pagination. Listing
// price is computed from variants, never read from a stored column.
func (s *Service) GetProducts(req *ProductListRequest) (*ProductResponse, error) {
	var products []Product
	var total int64

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.Model(&Product{}).
		Preload("Category").
		Preload("Variants").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, sort_order ASC, id ASC")
		})

	if req.CategoryID > 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}

	if req.Gender != "" {
		query = query.Where("gender = ?", req.Gender)
	}

	if req.Search != "" {
		search := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", search, search)
	}

	if req.IsActive != nil {
		query = query.Where("is_active = ?", *req.IsActive)
	} else {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	query = query.Order(s.buildOrderClause(req.SortBy, req.SortOrder))

	offset := (req.Page - 1) * req.Limit
	if err := query.Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	items := make([]ProductListItem, len(products))
	for i := range products {
		items[i] = ProductListItem{
			Product:  products[i],
			MinPrice: products[i].MinVariantPrice(),
			InStock:  products[i].IsInStock(),
		}
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ProductResponse{
		Products: items,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// GetProduct retrieves a single product with its full option/variant graph
func (s *Service) GetProduct(id uint) (*Product, error) {
	var prod Product
	result := s.productGraph().Where("id = ?", id).First(&prod)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product %d not found", id)
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}
	return &prod, nil
}

// GetProductBySlug retrieves a single product by slug
func (s *Service) GetProductBySlug(slug string) (*Product, error) {
	var prod Product
	result := s.productGraph().Where("slug = ?", slug).First(&prod)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product %q not found", slug)
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}
	return &prod, nil
}

// CreateProduct creates a new product
func (s *Service) CreateProduct(req *ProductCreateRequest) (*Product, error) {
	slug := req.Slug
	if slug == "" {
		slug = s.generateSlug(req.Name)
	}

	var existing Product
	if err := s.db.Where("slug = ?", slug).First(&existing).Error; err == nil {
		return nil, apperror.Conflict("product slug %q already exists", slug)
	}

	if req.CategoryID != nil {
		var category Category
		if err := s.db.First(&category, *req.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.NotFound("category %d not found", *req.CategoryID)
			}
			return nil, fmt.Errorf("failed to retrieve category: %w", err)
		}
	}

	gender := req.Gender
	if gender == "" {
		gender = GenderUnisex
	}

	prod := Product{
		Name:        req.Name,
		Slug:        slug,
		Gender:      gender,
		ShortDesc:   req.ShortDesc,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		IsActive:    req.IsActive,
	}

	if err := s.db.Create(&prod).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return s.GetProduct(prod.ID)
}

// UpdateProduct updates an existing product
func (s *Service) UpdateProduct(id uint, req *ProductUpdateRequest) (*Product, error) {
	prod, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Slug != nil && *req.Slug != prod.Slug {
		var existing Product
		if err := s.db.Where("slug = ? AND id <> ?", *req.Slug, id).First(&existing).Error; err == nil {
			return nil, apperror.Conflict("product slug %q already exists", *req.Slug)
		}
		updates["slug"] = *req.Slug
	}
	if req.Gender != nil {
		updates["gender"] = *req.Gender
	}
	if req.ShortDesc != nil {
		updates["short_desc"] = *req.ShortDesc
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.CategoryID != nil {
		var category Category
		if err := s.db.First(&category, *req.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.NotFound("category %d not found", *req.CategoryID)
			}
			return nil, fmt.Errorf("failed to retrieve category: %w", err)
		}
		updates["category_id"] = *req.CategoryID
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(prod).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}

	return s.GetProduct(id)
}

// DeleteProduct soft-deletes a product
func (s *Service) DeleteProduct(id uint) error {
	if _, err := s.GetProduct(id); err != nil {
		return err
	}

	if err := s.db.Delete(&Product{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// AddImage records a media-host image against a product
func (s *Service) AddImage(productID uint, url, publicID string, optionValueID *uint, isPrimary bool) (*ProductImage, error) {
	if _, err := s.GetProduct(productID); err != nil {
		return nil, err
	}

	if optionValueID != nil {
		var value ProductOptionValue
		if err := s.db.First(&value, *optionValueID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.NotFound("option value %d not found", *optionValueID)
			}
			return nil, fmt.Errorf("failed to retrieve option value: %w", err)
		}
	}

	image := ProductImage{
		ProductID:            productID,
		ProductOptionValueID: optionValueID,
		URL:                  url,
		PublicID:             publicID,
		IsPrimary:            isPrimary,
	}
	if err := s.db.Create(&image).Error; err != nil {
		return nil, fmt.Errorf("failed to create product image: %w", err)
	}
	return &image, nil
}

// RemoveImage deletes a product image record
func (s *Service) RemoveImage(productID, imageID uint) error {
	result := s.db.Where("id = ? AND product_id = ?", imageID, productID).Delete(&ProductImage{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete product image: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("image %d not found on product %d", imageID, productID)
	}
	return nil
}

// productGraph preloads the full catalog graph for a product
func (s *Service) productGraph() *gorm.DB {
	return s.db.
		Preload("Category").
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Preload("Options.Values", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Preload("Variants").
		Preload("Variants.Options").
		Preload("Variants.Options.Option").
		Preload("Variants.Options.OptionValue").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, sort_order ASC, id ASC")
		})
}

func (s *Service) buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
		"slug":       true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s", sortBy, sortOrder)
}

var slugCleanup = regexp.MustCompile(`[^a-z0-9]+`)

func (s *Service) generateSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugCleanup.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
