// internal/domain/order/service_test.go
package order_test

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/location"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps every session on the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(postgres.Models()...))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Checkout: config.CheckoutConfig{
			ShippingFee: 30000,
			Currency:    "VND",
		},
	}
}

type fixture struct {
	db       *gorm.DB
	cfg      *config.Config
	service  *order.Service
	carts    *cart.Service
	user     user.User
	variantA product.ProductVariant
	variantB product.ProductVariant
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	cfg := testConfig()
	carts := cart.NewService(db, nil, cfg)
	locations := location.NewService(db)

	f := &fixture{
		db:      db,
		cfg:     cfg,
		service: order.NewService(db, cfg, carts, locations),
		carts:   carts,
	}

	require.NoError(t, db.Create(&location.Province{ID: 1, Code: "01", Name: "Hà Nội"}).Error)
	require.NoError(t, db.Create(&location.District{ID: 1, ProvinceID: 1, Code: "001", Name: "Ba Đình"}).Error)
	require.NoError(t, db.Create(&location.Ward{ID: 1, DistrictID: 1, Code: "00001", Name: "Phúc Xá"}).Error)

	f.user = user.User{Email: "buyer@example.com", Password: "x", FirstName: "Test", LastName: "Buyer", IsActive: true}
	require.NoError(t, db.Create(&f.user).Error)

	prod := product.Product{Name: "Áo Thun Basic", Slug: "ao-thun-basic", IsActive: true}
	require.NoError(t, db.Create(&prod).Error)

	f.variantA = product.ProductVariant{ProductID: prod.ID, SKU: "AT-DO-S", Price: 100000, Stock: 5, IsActive: true}
	f.variantB = product.ProductVariant{ProductID: prod.ID, SKU: "AT-DO-M", Price: 50000, Stock: 3, IsActive: true}
	require.NoError(t, db.Create(&f.variantA).Error)
	require.NoError(t, db.Create(&f.variantB).Error)

	return f
}

func (f *fixture) fillCart(t *testing.T, lines map[uint]int) {
	t.Helper()

	userCart, err := f.carts.GetOrCreateCart(f.user.ID)
	require.NoError(t, err)

	prices := map[uint]int64{f.variantA.ID: f.variantA.Price, f.variantB.ID: f.variantB.Price}
	for variantID, quantity := range lines {
		item := cart.CartItem{
			CartID:           userCart.ID,
			ProductVariantID: variantID,
			Quantity:         quantity,
			UnitPrice:        prices[variantID],
		}
		require.NoError(t, f.db.Create(&item).Error)
	}
}

func inlineCheckout(method order.PaymentMethod) *order.CheckoutRequest {
	return &order.CheckoutRequest{
		PaymentMethod: method,
		ReceiverName:  "Nguyễn Văn A",
		Phone:         "+84901234567",
		AddressLine:   "12 Phố Huế",
		ProvinceID:    1,
		DistrictID:    1,
		WardID:        1,
	}
}

func TestCheckout(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, map[uint]int{f.variantA.ID: 2, f.variantB.ID: 1})

	placed, err := f.service.Checkout(f.user.ID, inlineCheckout(order.PaymentMethodCOD))
	require.NoError(t, err)

	// COD involves no gateway so the order starts confirmed
	assert.Equal(t, order.StatusConfirmed, placed.Status)
	assert.Equal(t, order.PaymentStatusPending, placed.PaymentStatus)
	assert.Equal(t, int64(250000), placed.ItemsTotal)
	assert.Equal(t, int64(30000), placed.ShippingFee)
	assert.Equal(t, int64(280000), placed.TotalAmount)
	assert.Equal(t, placed.ItemsTotal+placed.ShippingFee, placed.TotalAmount)
	assert.Equal(t, "VND", placed.Currency)
	assert.Regexp(t, `^ORD-\d{8}-[A-Z2-9]{6}$`, placed.OrderCode)

	// Address snapshot written from resolved location names
	assert.Equal(t, "Nguyễn Văn A", placed.ReceiverName)
	assert.Equal(t, "Hà Nội", placed.ProvinceName)
	assert.Equal(t, "Ba Đình", placed.DistrictName)
	assert.Equal(t, "Phúc Xá", placed.WardName)

	require.Len(t, placed.Items, 2)
	for _, item := range placed.Items {
		assert.Equal(t, item.UnitPrice*int64(item.Quantity), item.Subtotal)
		assert.NotEmpty(t, item.ProductName)
		assert.NotEmpty(t, item.SKU)
	}

	// Stock reserved
	var a, b product.ProductVariant
	require.NoError(t, f.db.First(&a, f.variantA.ID).Error)
	require.NoError(t, f.db.First(&b, f.variantB.ID).Error)
	assert.Equal(t, 3, a.Stock)
	assert.Equal(t, 2, b.Stock)

	// Audit trail written
	var movements int64
	f.db.Model(&product.StockMovement{}).Where("reason = ?", product.StockReasonOrderPlaced).Count(&movements)
	assert.Equal(t, int64(2), movements)

	// Cart cleared
	var remaining int64
	f.db.Model(&cart.CartItem{}).Count(&remaining)
	assert.Zero(t, remaining)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Checkout(f.user.ID, inlineCheckout(order.PaymentMethodCOD))
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestCheckoutInsufficientStock(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, map[uint]int{f.variantA.ID: 1, f.variantB.ID: 10})

	_, err := f.service.Checkout(f.user.ID, inlineCheckout(order.PaymentMethodCOD))
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInsufficientStock))

	// The whole transaction rolled back: no order, stock intact, cart intact
	var orders int64
	f.db.Model(&order.Order{}).Count(&orders)
	assert.Zero(t, orders)

	var a product.ProductVariant
	require.NoError(t, f.db.First(&a, f.variantA.ID).Error)
	assert.Equal(t, 5, a.Stock)

	var lines int64
	f.db.Model(&cart.CartItem{}).Count(&lines)
	assert.Equal(t, int64(2), lines)
}

func TestCheckoutUnknownPaymentMethod(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, map[uint]int{f.variantA.ID: 1})

	req := inlineCheckout("STRIPE")
	_, err := f.service.Checkout(f.user.ID, req)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestCheckoutMissingAddress(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, map[uint]int{f.variantA.ID: 1})

	req := &order.CheckoutRequest{PaymentMethod: order.PaymentMethodCOD}
	_, err := f.service.Checkout(f.user.ID, req)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestCheckoutWithSavedAddress(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, map[uint]int{f.variantA.ID: 1})

	addr := user.Address{
		UserID:       f.user.ID,
		ReceiverName: "Trần Thị B",
		Phone:        "+84911111111",
		AddressLine:  "5 Lê Lợi",
		ProvinceID:   1,
		DistrictID:   1,
		WardID:       1,
	}
	require.NoError(t, f.db.Create(&addr).Error)

	placed, err := f.service.Checkout(f.user.ID, &order.CheckoutRequest{
		PaymentMethod:     order.PaymentMethodCOD,
		ShippingAddressID: &addr.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Trần Thị B", placed.ReceiverName)
	assert.Equal(t, "5 Lê Lợi", placed.AddressLine)
	assert.Equal(t, "Hà Nội", placed.ProvinceName)
}

func TestCancelOrderRestoresStock(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, map[uint]int{f.variantA.ID: 2})

	placed, err := f.service.Checkout(f.user.ID, inlineCheckout(order.PaymentMethodCOD))
	require.NoError(t, err)

	cancelled, err := f.service.CancelOrder(f.user.ID, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	var a product.ProductVariant
	require.NoError(t, f.db.First(&a, f.variantA.ID).Error)
	assert.Equal(t, 5, a.Stock)

	var restores int64
	f.db.Model(&product.StockMovement{}).Where("reason = ?", product.StockReasonOrderCancelled).Count(&restores)
	assert.Equal(t, int64(1), restores)
}

func TestCancelOrderAfterShipping(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, map[uint]int{f.variantA.ID: 1})

	placed, err := f.service.Checkout(f.user.ID, inlineCheckout(order.PaymentMethodCOD))
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&order.Order{}).Where("id = ?", placed.ID).
		Update("status", order.StatusShipping).Error)

	_, err = f.service.CancelOrder(f.user.ID, placed.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidTransition))
}

func TestConfirmReceived(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, map[uint]int{f.variantA.ID: 1})

	placed, err := f.service.Checkout(f.user.ID, inlineCheckout(order.PaymentMethodCOD))
	require.NoError(t, err)

	// Not yet shipping
	_, err = f.service.ConfirmReceived(f.user.ID, placed.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidTransition))

	require.NoError(t, f.db.Model(&order.Order{}).Where("id = ?", placed.ID).
		Update("status", order.StatusShipping).Error)

	completed, err := f.service.ConfirmReceived(f.user.ID, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)
}

func TestApplyPaymentResult(t *testing.T) {
	f := newFixture(t)

	t.Run("success marks paid", func(t *testing.T) {
		f.fillCart(t, map[uint]int{f.variantA.ID: 1})
		placed, err := f.service.Checkout(f.user.ID, inlineCheckout(order.PaymentMethodVNPayFake))
		require.NoError(t, err)
		assert.Equal(t, order.StatusPendingPayment, placed.Status)

		updated, err := f.service.ApplyPaymentResult(placed.ID, true)
		require.NoError(t, err)
		assert.Equal(t, order.StatusPaid, updated.Status)
		assert.Equal(t, order.PaymentStatusSuccess, updated.PaymentStatus)
		assert.NotNil(t, updated.PaidAt)
	})

	t.Run("failure marks payment failed", func(t *testing.T) {
		f.fillCart(t, map[uint]int{f.variantA.ID: 1})
		placed, err := f.service.Checkout(f.user.ID, inlineCheckout(order.PaymentMethodVNPayFake))
		require.NoError(t, err)

		updated, err := f.service.ApplyPaymentResult(placed.ID, false)
		require.NoError(t, err)
		assert.Equal(t, order.StatusPaymentFailed, updated.Status)
		assert.Equal(t, order.PaymentStatusFailed, updated.PaymentStatus)

		// Failed payment can be retried
		retried, err := f.service.ApplyPaymentResult(placed.ID, true)
		require.Error(t, err)
		assert.Nil(t, retried)
	})
}

func TestAdminUpdateStatus(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, map[uint]int{f.variantA.ID: 1})

	placed, err := f.service.Checkout(f.user.ID, inlineCheckout(order.PaymentMethodCOD))
	require.NoError(t, err)

	t.Run("unknown status", func(t *testing.T) {
		_, err := f.service.AdminUpdateStatus(placed.ID, &order.UpdateStatusRequest{Status: "DELIVERED"})
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("cod order never becomes paid", func(t *testing.T) {
		_, err := f.service.AdminUpdateStatus(placed.ID, &order.UpdateStatusRequest{Status: order.StatusPaid})
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindInvalidTransition))
	})

	t.Run("ship confirmed order", func(t *testing.T) {
		shipped, err := f.service.AdminUpdateStatus(placed.ID, &order.UpdateStatusRequest{Status: order.StatusShipping})
		require.NoError(t, err)
		assert.Equal(t, order.StatusShipping, shipped.Status)
		assert.NotNil(t, shipped.ShippedAt)
	})
}

func TestGetOrdersScopedToUser(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, map[uint]int{f.variantA.ID: 1})

	placed, err := f.service.Checkout(f.user.ID, inlineCheckout(order.PaymentMethodCOD))
	require.NoError(t, err)

	other := user.User{Email: "other@example.com", Password: "x", IsActive: true}
	require.NoError(t, f.db.Create(&other).Error)

	_, err = f.service.GetOrder(other.ID, placed.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	list, err := f.service.GetOrders(f.user.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, placed.OrderCode, list.Orders[0].OrderCode)

	byCode, err := f.service.GetOrderByCode(f.user.ID, placed.OrderCode)
	require.NoError(t, err)
	assert.Equal(t, placed.ID, byCode.ID)
}
