// internal/domain/product/variant_service.go
package product

import (
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// VariantService handles option axes, option values and variants
type VariantService struct {
	db     *gorm.DB
	config *config.Config
}

// NewVariantService creates a new variant service
func NewVariantService(db *gorm.DB, cfg *config.Config) *VariantService {
	return &VariantService{db: db, config: cfg}
}

// OptionCreateRequest represents option axis creation data
type OptionCreateRequest struct {
	Name      string `json:"name" binding:"required"`
	SortOrder int    `json:"sort_order"`
}

// OptionValueCreateRequest represents option value creation data
type OptionValueCreateRequest struct {
	Value     string `json:"value" binding:"required"`
	Meta      string `json:"meta"`
	SortOrder int    `json:"sort_order"`
}

// VariantSelection picks one value on one option axis
type VariantSelection struct {
	OptionID      uint `json:"option_id" binding:"required"`
	OptionValueID uint `json:"option_value_id" binding:"required"`
}

// VariantCreateRequest represents variant creation data
type VariantCreateRequest struct {
	SKU        string             `json:"sku" binding:"required"`
	Price      int64              `json:"price" binding:"required,min=1"`
	Stock      int                `json:"stock" binding:"min=0"`
	IsActive   bool               `json:"is_active"`
	Selections []VariantSelection `json:"selections" binding:"required"`
}

// VariantUpdateRequest represents variant update data
type VariantUpdateRequest struct {
	Price    *int64 `json:"price" binding:"omitempty,min=1"`
	Stock    *int   `json:"stock" binding:"omitempty,min=0"`
	IsActive *bool  `json:"is_active"`
}

// CreateOption adds an option axis to a product
func (s *VariantService) CreateOption(productID uint, req *OptionCreateRequest) (*ProductOption, error) {
	if err := s.ensureProduct(productID); err != nil {
		return nil, err
	}

	var existing ProductOption
	if err := s.db.Where("product_id = ? AND name = ?", productID, req.Name).First(&existing).Error; err == nil {
		return nil, apperror.Conflict("option %q already exists on product %d", req.Name, productID)
	}

	option := ProductOption{
		ProductID: productID,
		Name:      req.Name,
		SortOrder: req.SortOrder,
	}
	if err := s.db.Create(&option).Error; err != nil {
		return nil, fmt.Errorf("failed to create option: %w", err)
	}
	return &option, nil
}

// CreateOptionValue adds a value to an option axis
func (s *VariantService) CreateOptionValue(productID, optionID uint, req *OptionValueCreateRequest) (*ProductOptionValue, error) {
	option, err := s.getOption(productID, optionID)
	if err != nil {
		return nil, err
	}

	var existing ProductOptionValue
	if err := s.db.Where("product_option_id = ? AND value = ?", option.ID, req.Value).First(&existing).Error; err == nil {
		return nil, apperror.Conflict("value %q already exists on option %q", req.Value, option.Name)
	}

	value := ProductOptionValue{
		ProductOptionID: option.ID,
		Value:           req.Value,
		Meta:            req.Meta,
		SortOrder:       req.SortOrder,
	}
	if err := s.db.Create(&value).Error; err != nil {
		return nil, fmt.Errorf("failed to create option value: %w", err)
	}
	return &value, nil
}

// CreateVariant creates a sellable variant. The selection must cover every
// option axis of the product exactly once, each value must belong to its
// axis, and no existing variant may already represent the same combination.
func (s *VariantService) CreateVariant(productID uint, req *VariantCreateRequest) (*ProductVariant, error) {
	options, err := s.productOptions(productID)
	if err != nil {
		return nil, err
	}

	selection, err := s.normalizeSelection(options, req.Selections)
	if err != nil {
		return nil, err
	}

	var existingSKU ProductVariant
	if err := s.db.Where("sku = ?", req.SKU).First(&existingSKU).Error; err == nil {
		return nil, apperror.Conflict("SKU %q already exists", req.SKU)
	}

	// Reject a duplicate combination before writing
	variants, err := s.loadVariants(productID)
	if err != nil {
		return nil, err
	}
	for i := range variants {
		if selectionsEqual(variants[i].ValueSet(), selection) {
			return nil, apperror.Conflict("a variant with this option combination already exists")
		}
	}

	variant := ProductVariant{
		ProductID: productID,
		SKU:       req.SKU,
		Price:     req.Price,
		Stock:     req.Stock,
		IsActive:  req.IsActive,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&variant).Error; err != nil {
			return fmt.Errorf("failed to create variant: %w", err)
		}
		for optionID, valueID := range selection {
			join := ProductVariantOption{
				ProductVariantID:     variant.ID,
				ProductOptionID:      optionID,
				ProductOptionValueID: valueID,
			}
			if err := tx.Create(&join).Error; err != nil {
				return fmt.Errorf("failed to bind variant option: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetVariant(variant.ID)
}

// UpdateVariant updates price, stock or active flag of a variant
func (s *VariantService) UpdateVariant(productID, variantID uint, req *VariantUpdateRequest) (*ProductVariant, error) {
	variant, err := s.getProductVariant(productID, variantID)
	if err != nil {
		return nil, err
	}

	// Updates mutates the struct in memory, so take the stock before
	prevStock := variant.Stock

	updates := map[string]interface{}{}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Stock != nil {
		updates["stock"] = *req.Stock
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(variant).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update variant: %w", err)
		}
		if req.Stock != nil {
			delta := *req.Stock - prevStock
			if delta != 0 {
				movement := StockMovement{
					ProductVariantID: variant.ID,
					Delta:            delta,
					Reason:           StockReasonAdminAdjust,
				}
				if err := s.db.Create(&movement).Error; err != nil {
					return nil, fmt.Errorf("failed to record stock movement: %w", err)
				}
			}
		}
	}

	return s.GetVariant(variantID)
}

// DeleteVariant soft-deletes a variant. Variants referenced by order items
// survive as soft-deleted rows so historical orders keep resolving.
func (s *VariantService) DeleteVariant(productID, variantID uint) error {
	variant, err := s.getProductVariant(productID, variantID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(variant).Error; err != nil {
		return fmt.Errorf("failed to delete variant: %w", err)
	}
	return nil
}

// GetVariant retrieves a variant with its option bindings
func (s *VariantService) GetVariant(variantID uint) (*ProductVariant, error) {
	var variant ProductVariant
	result := s.db.
		Preload("Options").
		Preload("Options.Option").
		Preload("Options.OptionValue").
		First(&variant, variantID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("variant %d not found", variantID)
		}
		return nil, fmt.Errorf("failed to retrieve variant: %w", result.Error)
	}
	return &variant, nil
}

// ResolveVariant finds the unique variant of a product matching one option
// value per axis. The selection must cover every axis; a combination with
// no seeded variant reports VariantNotFound.
func (s *VariantService) ResolveVariant(productID uint, req []VariantSelection) (*ProductVariant, error) {
	options, err := s.productOptions(productID)
	if err != nil {
		return nil, err
	}

	selection, err := s.normalizeSelection(options, req)
	if err != nil {
		return nil, err
	}

	variants, err := s.loadVariants(productID)
	if err != nil {
		return nil, err
	}

	for i := range variants {
		if !variants[i].IsActive {
			continue
		}
		if selectionsEqual(variants[i].ValueSet(), selection) {
			return &variants[i], nil
		}
	}

	return nil, apperror.NotFound("no variant matches the selected options")
}

// ValidateVariantCoverage checks that every variant of a product carries
// exactly one value per option axis. Used by seeding and admin audits.
func (s *VariantService) ValidateVariantCoverage(productID uint) error {
	options, err := s.productOptions(productID)
	if err != nil {
		return err
	}

	variants, err := s.loadVariants(productID)
	if err != nil {
		return err
	}

	for i := range variants {
		set := variants[i].ValueSet()
		if len(set) != len(options) {
			return apperror.Validation("variant %s covers %d of %d option axes", variants[i].SKU, len(set), len(options))
		}
		for _, opt := range options {
			if _, ok := set[opt.ID]; !ok {
				return apperror.Validation("variant %s is missing a value for option %q", variants[i].SKU, opt.Name)
			}
		}
	}
	return nil
}

// Private helpers

func (s *VariantService) ensureProduct(productID uint) error {
	var prod Product
	if err := s.db.First(&prod, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("product %d not found", productID)
		}
		return fmt.Errorf("failed to retrieve product: %w", err)
	}
	return nil
}

func (s *VariantService) getOption(productID, optionID uint) (*ProductOption, error) {
	var option ProductOption
	result := s.db.Where("id = ? AND product_id = ?", optionID, productID).First(&option)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("option %d not found on product %d", optionID, productID)
		}
		return nil, fmt.Errorf("failed to retrieve option: %w", result.Error)
	}
	return &option, nil
}

func (s *VariantService) getProductVariant(productID, variantID uint) (*ProductVariant, error) {
	var variant ProductVariant
	result := s.db.Where("id = ? AND product_id = ?", variantID, productID).First(&variant)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("variant %d not found on product %d", variantID, productID)
		}
		return nil, fmt.Errorf("failed to retrieve variant: %w", result.Error)
	}
	return &variant, nil
}

func (s *VariantService) productOptions(productID uint) ([]ProductOption, error) {
	if err := s.ensureProduct(productID); err != nil {
		return nil, err
	}

	var options []ProductOption
	if err := s.db.Preload("Values").Where("product_id = ?", productID).Find(&options).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve options: %w", err)
	}
	return options, nil
}

func (s *VariantService) loadVariants(productID uint) ([]ProductVariant, error) {
	var variants []ProductVariant
	err := s.db.
		Preload("Options").
		Where("product_id = ?", productID).
		Find(&variants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve variants: %w", err)
	}
	return variants, nil
}

// normalizeSelection validates a selection against the product's option
// axes and returns it keyed by option id
func (s *VariantService) normalizeSelection(options []ProductOption, selections []VariantSelection) (map[uint]uint, error) {
	if len(options) == 0 {
		return nil, apperror.Validation("product has no option axes")
	}

	byOption := make(map[uint]uint, len(selections))
	for _, sel := range selections {
		if _, dup := byOption[sel.OptionID]; dup {
			return nil, apperror.Validation("option %d selected more than once", sel.OptionID)
		}
		byOption[sel.OptionID] = sel.OptionValueID
	}

	if len(byOption) != len(options) {
		return nil, apperror.Validation("selection must cover all %d option axes", len(options))
	}

	for _, opt := range options {
		valueID, ok := byOption[opt.ID]
		if !ok {
			return nil, apperror.Validation("missing selection for option %q", opt.Name)
		}
		found := false
		for _, v := range opt.Values {
			if v.ID == valueID {
				found = true
				break
			}
		}
		if !found {
			return nil, apperror.Validation("value %d does not belong to option %q", valueID, opt.Name)
		}
	}

	return byOption, nil
}

func selectionsEqual(a, b map[uint]uint) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
