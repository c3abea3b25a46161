// internal/domain/order/entity.go
package order

import (
	"time"

	"gorm.io/gorm"
)

// Status represents order lifecycle status
type Status string

const (
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusConfirmed      Status = "CONFIRMED"
	StatusPaid           Status = "PAID"
	StatusShipping       Status = "SHIPPING"
	StatusCompleted      Status = "COMPLETED"
	StatusCancelled      Status = "CANCELLED"
	StatusPaymentFailed  Status = "PAYMENT_FAILED"
)

// PaymentStatus tracks the payment outcome independently of the order
// lifecycle status
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// PaymentMethod represents how an order is paid
type PaymentMethod string

const (
	PaymentMethodVNPayFake PaymentMethod = "VNPAY_FAKE"
	PaymentMethodCOD       PaymentMethod = "COD"
	PaymentMethodTest      PaymentMethod = "TEST"
)

// statusTransitions is the single source of truth for which status moves
// are legal. Anything absent here is rejected.
var statusTransitions = map[Status][]Status{
	StatusPendingPayment: {StatusConfirmed, StatusPaid, StatusCancelled, StatusPaymentFailed},
	StatusConfirmed:      {StatusPaid, StatusShipping, StatusCancelled},
	StatusPaid:           {StatusShipping, StatusCancelled},
	StatusShipping:       {StatusCompleted},
	StatusPaymentFailed:  {StatusPendingPayment, StatusCancelled},
	StatusCompleted:      {},
	StatusCancelled:      {},
}

// IsValid reports whether s is a known order status
func (s Status) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// IsTerminal reports whether the order can never move again
func (s Status) IsTerminal() bool {
	next, ok := statusTransitions[s]
	return ok && len(next) == 0
}

// IsValid reports whether m is a supported payment method
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodVNPayFake, PaymentMethodCOD, PaymentMethodTest:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from its current status
// to the target, given its payment method. Cash-on-delivery orders collect
// payment at the door, so PAID never appears in their lifecycle.
func CanTransition(method PaymentMethod, from, to Status) bool {
	if method == PaymentMethodCOD && to == StatusPaid {
		return false
	}
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTransitions lists the statuses an order may move to next
func AllowedTransitions(method PaymentMethod, from Status) []Status {
	out := []Status{}
	for _, to := range statusTransitions[from] {
		if method == PaymentMethodCOD && to == StatusPaid {
			continue
		}
		out = append(out, to)
	}
	return out
}

// Order represents a customer order. Address strings and money fields are
// snapshots taken at checkout; later catalog or address-book edits never
// alter an existing order.
type Order struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	OrderCode string         `json:"order_code" gorm:"uniqueIndex;not null;size:32"`
	UserID    uint           `json:"user_id" gorm:"not null;index"`
	Status    Status         `json:"status" gorm:"not null;size:32;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Amounts in minor currency units. TotalAmount is always
	// ItemsTotal + ShippingFee.
	ItemsTotal  int64  `json:"items_total" gorm:"not null"`
	ShippingFee int64  `json:"shipping_fee" gorm:"not null"`
	TotalAmount int64  `json:"total_amount" gorm:"not null"`
	Currency    string `json:"currency" gorm:"not null;size:8"`

	PaymentMethod PaymentMethod `json:"payment_method" gorm:"not null;size:16"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"not null;size:16"`

	// Shipping address snapshot, plain strings rather than foreign keys
	ReceiverName string `json:"receiver_name" gorm:"not null;size:255"`
	Phone        string `json:"phone" gorm:"not null;size:20"`
	AddressLine  string `json:"address_line" gorm:"not null;size:500"`
	ProvinceName string `json:"province_name" gorm:"not null;size:100"`
	DistrictName string `json:"district_name" gorm:"not null;size:100"`
	WardName     string `json:"ward_name" gorm:"not null;size:100"`
	Note         string `json:"note,omitempty" gorm:"size:500"`

	PaidAt      *time.Time `json:"paid_at,omitempty"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	Items        []OrderItem          `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	Transactions []PaymentTransaction `json:"transactions,omitempty" gorm:"foreignKey:OrderID"`
}

// OrderItem is one purchased line. Product name, option summary, SKU and
// price are copied from the catalog at checkout time so order history
// survives catalog edits. Subtotal is always UnitPrice multiplied by
// Quantity.
type OrderItem struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	OrderID          uint      `json:"order_id" gorm:"not null;index"`
	ProductVariantID uint      `json:"product_variant_id" gorm:"not null;index"`
	ProductName      string    `json:"product_name" gorm:"not null;size:255"`
	SKU              string    `json:"sku" gorm:"not null;size:100"`
	OptionSummary    string    `json:"option_summary" gorm:"size:255"`
	UnitPrice        int64     `json:"unit_price" gorm:"not null"`
	Quantity         int       `json:"quantity" gorm:"not null"`
	Subtotal         int64     `json:"subtotal" gorm:"not null"`
	CreatedAt        time.Time `json:"created_at"`
}

// PaymentTransaction is an append-only log of payment provider
// interactions for an order. Rows are never rewritten after creation
// except to record the final status.
type PaymentTransaction struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	OrderID       uint          `json:"order_id" gorm:"not null;index"`
	Provider      string        `json:"provider" gorm:"not null;size:32"`
	ProviderTxnID string        `json:"provider_txn_id,omitempty" gorm:"size:64"`
	Amount        int64         `json:"amount" gorm:"not null"`
	Currency      string        `json:"currency" gorm:"not null;size:8"`
	Status        PaymentStatus `json:"status" gorm:"not null;size:16"`
	ResponseCode  string        `json:"response_code,omitempty" gorm:"size:16"`
	RawPayload    string        `json:"-" gorm:"type:text"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// CanBeCancelledByCustomer reports whether the customer may still cancel.
// Once payment succeeds or fulfilment starts only staff can cancel.
func (o *Order) CanBeCancelledByCustomer() bool {
	switch o.Status {
	case StatusPendingPayment, StatusConfirmed, StatusPaymentFailed:
		return true
	}
	return false
}

// IsCOD reports whether the order pays cash on delivery
func (o *Order) IsCOD() bool {
	return o.PaymentMethod == PaymentMethodCOD
}

// TableName overrides the table name
func (Order) TableName() string {
	return "orders"
}

// TableName overrides the table name
func (OrderItem) TableName() string {
	return "order_items"
}

// TableName overrides the table name
func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}
