// internal/domain/cart/entity.go
package cart

import (
	"time"
)

// Cart is the per-user shopping cart, created lazily on first use
type Cart struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items,omitempty"`
}

// CartItem is one line in a cart. The (cart, variant) pair is unique;
// repeated adds accumulate quantity. UnitPrice is frozen at add time and
// is not re-read from the variant later.
type CartItem struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	CartID           uint      `gorm:"not null;uniqueIndex:idx_cart_variant" json:"cart_id"`
	ProductVariantID uint      `gorm:"not null;uniqueIndex:idx_cart_variant" json:"product_variant_id"`
	Quantity         int       `gorm:"not null;default:1" json:"quantity"`
	UnitPrice        int64     `gorm:"not null" json:"unit_price"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName overrides
func (Cart) TableName() string     { return "carts" }
func (CartItem) TableName() string { return "cart_items" }

// SessionCart represents a cart for guest users (stored in Redis)
type SessionCart struct {
	SessionID string            `json:"session_id"`
	Items     []SessionCartItem `json:"items"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// SessionCartItem represents a cart line for guest users
type SessionCartItem struct {
	ProductVariantID uint      `json:"product_variant_id"`
	Quantity         int       `json:"quantity"`
	UnitPrice        int64     `json:"unit_price"`
	AddedAt          time.Time `json:"added_at"`
}

// CartTotals represents calculated cart totals
type CartTotals struct {
	ItemCount     int   `json:"item_count"`     // Number of unique lines
	TotalQuantity int   `json:"total_quantity"` // Sum of all quantities
	SubTotal      int64 `json:"sub_total"`      // Σ(frozen unit price × quantity)
}
