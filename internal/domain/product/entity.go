// internal/domain/product/entity.go
package product

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Gender is the product gender segment
type Gender string

const (
	GenderMen    Gender = "men"
	GenderWomen  Gender = "women"
	GenderUnisex Gender = "unisex"
)

// Category represents a product category node. Categories form a tree via
// ParentID; traversal is iterative, never through recursive object graphs.
type Category struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string         `gorm:"size:500" json:"description"`
	ParentID    *uint          `gorm:"index" json:"parent_id"`
	SortOrder   int            `gorm:"default:0" json:"sort_order"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Children []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}

// Product represents the product entity. Price and stock live on variants;
// the listing price is computed as the minimum active variant price.
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CategoryID  *uint          `gorm:"index" json:"category_id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Gender      Gender         `gorm:"not null;size:10;default:'unisex'" json:"gender"`
	ShortDesc   string         `gorm:"size:500" json:"short_description"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Category *Category        `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"category,omitempty"`
	Options  []ProductOption  `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"options,omitempty"`
	Variants []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"variants,omitempty"`
	Images   []ProductImage   `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"images,omitempty"`
}

// ProductOption represents one customization axis of a product, e.g. "Color"
type ProductOption struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_option_product_name" json:"product_id"`
	Name      string    `gorm:"not null;size:100;uniqueIndex:idx_option_product_name" json:"name"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Values []ProductOptionValue `gorm:"foreignKey:ProductOptionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"values,omitempty"`
}

// ProductOptionValue represents one concrete value of an option axis,
// e.g. "Red". Meta carries presentation detail such as a hex code.
type ProductOptionValue struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ProductOptionID uint      `gorm:"not null;uniqueIndex:idx_value_option_value" json:"product_option_id"`
	Value           string    `gorm:"not null;size:100;uniqueIndex:idx_value_option_value" json:"value"`
	Meta            string    `gorm:"size:100" json:"meta,omitempty"`
	SortOrder       int       `gorm:"default:0" json:"sort_order"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ProductVariant is the sellable unit: one concrete combination of option
// values with its own SKU, price and stock
type ProductVariant struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ProductID uint           `gorm:"not null;index" json:"product_id"`
	SKU       string         `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Price     int64          `gorm:"not null" json:"price"` // Minor currency units
	Stock     int            `gorm:"not null;default:0" json:"stock"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Options []ProductVariantOption `gorm:"foreignKey:ProductVariantID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"variant_options,omitempty"`
}

// ProductVariantOption binds a variant to exactly one value per option axis
type ProductVariantOption struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	ProductVariantID     uint      `gorm:"not null;uniqueIndex:idx_variant_option" json:"product_variant_id"`
	ProductOptionID      uint      `gorm:"not null;uniqueIndex:idx_variant_option" json:"product_option_id"`
	ProductOptionValueID uint      `gorm:"not null;index" json:"product_option_value_id"`
	CreatedAt            time.Time `json:"created_at"`

	// Relationships
	Option      ProductOption      `gorm:"foreignKey:ProductOptionID" json:"option,omitempty"`
	OptionValue ProductOptionValue `gorm:"foreignKey:ProductOptionValueID" json:"option_value,omitempty"`
}

// ProductImage represents a product image hosted on the external media host.
// An image may be tagged to a specific option value (color swatch).
type ProductImage struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	ProductID            uint      `gorm:"not null;index" json:"product_id"`
	ProductOptionValueID *uint     `gorm:"index" json:"product_option_value_id,omitempty"`
	URL                  string    `gorm:"not null;size:500" json:"url"`
	PublicID             string    `gorm:"size:255" json:"public_id"`
	SortOrder            int       `gorm:"default:0" json:"sort_order"`
	IsPrimary            bool      `gorm:"default:false" json:"is_primary"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Stock movement reasons
const (
	StockReasonOrderPlaced    = "order_placed"
	StockReasonOrderCancelled = "order_cancelled"
	StockReasonAdminAdjust    = "admin_adjust"
)

// StockMovement is an append-only audit row for variant stock changes
type StockMovement struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ProductVariantID uint      `gorm:"not null;index" json:"product_variant_id"`
	Delta            int       `gorm:"not null" json:"delta"`
	Reason           string    `gorm:"not null;size:50" json:"reason"`
	OrderID          *uint     `gorm:"index" json:"order_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// ProductReview represents customer feedback on a product
type ProductReview struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ProductID uint           `gorm:"not null;index" json:"product_id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	OrderID   *uint          `gorm:"index" json:"order_id,omitempty"` // Link to verified purchase
	Rating    int            `gorm:"not null" json:"rating"`          // 1..5, enforced in the service
	Title     string         `gorm:"size:255" json:"title"`
	Content   string         `gorm:"type:text" json:"content"`
	VideoURL  string         `gorm:"size:500" json:"video_url,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Images []ProductReviewImage `gorm:"foreignKey:ReviewID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"images,omitempty"`
}

// ProductReviewImage represents images attached to reviews
type ProductReviewImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReviewID  uint      `gorm:"not null;index" json:"review_id"`
	URL       string    `gorm:"not null;size:500" json:"url"`
	PublicID  string    `gorm:"size:255" json:"public_id"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides
func (Category) TableName() string             { return "categories" }
func (Product) TableName() string              { return "products" }
func (ProductOption) TableName() string        { return "product_options" }
func (ProductOptionValue) TableName() string   { return "product_option_values" }
func (ProductVariant) TableName() string       { return "product_variants" }
func (ProductVariantOption) TableName() string { return "product_variant_options" }
func (ProductImage) TableName() string         { return "product_images" }
func (StockMovement) TableName() string        { return "stock_movements" }
func (ProductReview) TableName() string        { return "product_reviews" }
func (ProductReviewImage) TableName() string   { return "product_review_images" }

// Business methods

// MinVariantPrice returns the listing price: the minimum price across the
// product's loaded active variants, or 0 when none exist
func (p *Product) MinVariantPrice() int64 {
	var min int64
	for _, v := range p.Variants {
		if !v.IsActive {
			continue
		}
		if min == 0 || v.Price < min {
			min = v.Price
		}
	}
	return min
}

// IsInStock reports whether any active variant has stock
func (p *Product) IsInStock() bool {
	for _, v := range p.Variants {
		if v.IsActive && v.Stock > 0 {
			return true
		}
	}
	return false
}

// OptionDescription renders the variant's option values as a display string,
// e.g. "Color: Red, Size: M". Used for the order item snapshot.
func (v *ProductVariant) OptionDescription() string {
	parts := make([]string, 0, len(v.Options))
	for _, opt := range v.Options {
		if opt.Option.Name == "" && opt.OptionValue.Value == "" {
			continue
		}
		parts = append(parts, opt.Option.Name+": "+opt.OptionValue.Value)
	}
	return strings.Join(parts, ", ")
}

// ValueSet returns the variant's option-value ids keyed by option id
func (v *ProductVariant) ValueSet() map[uint]uint {
	set := make(map[uint]uint, len(v.Options))
	for _, opt := range v.Options {
		set[opt.ProductOptionID] = opt.ProductOptionValueID
	}
	return set
}
