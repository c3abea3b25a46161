// internal/domain/cart/service_test.go
package cart_test

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type cartFixture struct {
	db      *gorm.DB
	service *cart.Service
	userID  uint
	variant product.ProductVariant
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(postgres.Models()...))

	u := user.User{Email: "cart@example.com", Password: "x", IsActive: true}
	require.NoError(t, db.Create(&u).Error)

	prod := product.Product{Name: "Áo Sơ Mi", Slug: "ao-so-mi", IsActive: true}
	require.NoError(t, db.Create(&prod).Error)

	variant := product.ProductVariant{ProductID: prod.ID, SKU: "ASM-TRANG-M", Price: 220000, Stock: 10, IsActive: true}
	require.NoError(t, db.Create(&variant).Error)

	// Guest flows need Redis; the user-cart paths under test do not
	return &cartFixture{
		db:      db,
		service: cart.NewService(db, nil, &config.Config{}),
		userID:  u.ID,
		variant: variant,
	}
}

func TestAddToCartAccumulates(t *testing.T) {
	f := newCartFixture(t)

	_, err := f.service.AddToCart(&f.userID, "", &cart.AddToCartRequest{ProductVariantID: f.variant.ID, Quantity: 1})
	require.NoError(t, err)

	response, err := f.service.AddToCart(&f.userID, "", &cart.AddToCartRequest{ProductVariantID: f.variant.ID, Quantity: 1})
	require.NoError(t, err)

	// One line, quantity accumulated
	require.Len(t, response.Items, 1)
	assert.Equal(t, 2, response.Items[0].Quantity)
	assert.Equal(t, int64(220000), response.Items[0].UnitPrice)
	assert.Equal(t, int64(440000), response.Items[0].Subtotal)

	var rows int64
	f.db.Model(&cart.CartItem{}).Count(&rows)
	assert.Equal(t, int64(1), rows)
}

func TestAddToCartFreezesUnitPrice(t *testing.T) {
	f := newCartFixture(t)

	_, err := f.service.AddToCart(&f.userID, "", &cart.AddToCartRequest{ProductVariantID: f.variant.ID, Quantity: 1})
	require.NoError(t, err)

	// Catalog price changes after the line was added
	require.NoError(t, f.db.Model(&product.ProductVariant{}).
		Where("id = ?", f.variant.ID).Update("price", 999000).Error)

	response, err := f.service.AddToCart(&f.userID, "", &cart.AddToCartRequest{ProductVariantID: f.variant.ID, Quantity: 1})
	require.NoError(t, err)

	require.Len(t, response.Items, 1)
	assert.Equal(t, int64(220000), response.Items[0].UnitPrice)
}

func TestAddToCartInsufficientStock(t *testing.T) {
	f := newCartFixture(t)

	_, err := f.service.AddToCart(&f.userID, "", &cart.AddToCartRequest{ProductVariantID: f.variant.ID, Quantity: 11})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInsufficientStock))
}

func TestAddToCartUnknownVariant(t *testing.T) {
	f := newCartFixture(t)

	_, err := f.service.AddToCart(&f.userID, "", &cart.AddToCartRequest{ProductVariantID: 9999, Quantity: 1})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestUpdateCartItem(t *testing.T) {
	f := newCartFixture(t)

	_, err := f.service.AddToCart(&f.userID, "", &cart.AddToCartRequest{ProductVariantID: f.variant.ID, Quantity: 2})
	require.NoError(t, err)

	t.Run("set quantity", func(t *testing.T) {
		response, err := f.service.UpdateCartItem(&f.userID, "", f.variant.ID, &cart.UpdateCartItemRequest{Quantity: 5})
		require.NoError(t, err)
		require.Len(t, response.Items, 1)
		assert.Equal(t, 5, response.Items[0].Quantity)
	})

	t.Run("zero removes the line", func(t *testing.T) {
		response, err := f.service.UpdateCartItem(&f.userID, "", f.variant.ID, &cart.UpdateCartItemRequest{Quantity: 0})
		require.NoError(t, err)
		assert.Empty(t, response.Items)
	})

	t.Run("absent line is not found", func(t *testing.T) {
		_, err := f.service.UpdateCartItem(&f.userID, "", f.variant.ID, &cart.UpdateCartItemRequest{Quantity: 3})
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	})
}

func TestCartTotals(t *testing.T) {
	f := newCartFixture(t)

	second := product.ProductVariant{ProductID: f.variant.ProductID, SKU: "ASM-TRANG-L", Price: 100000, Stock: 10, IsActive: true}
	require.NoError(t, f.db.Create(&second).Error)

	_, err := f.service.AddToCart(&f.userID, "", &cart.AddToCartRequest{ProductVariantID: f.variant.ID, Quantity: 2})
	require.NoError(t, err)
	response, err := f.service.AddToCart(&f.userID, "", &cart.AddToCartRequest{ProductVariantID: second.ID, Quantity: 3})
	require.NoError(t, err)

	assert.Equal(t, 2, response.Totals.ItemCount)
	assert.Equal(t, 5, response.Totals.TotalQuantity)
	assert.Equal(t, int64(2*220000+3*100000), response.Totals.SubTotal)

	count, err := f.service.GetCartItemCount(&f.userID, "")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestClearCart(t *testing.T) {
	f := newCartFixture(t)

	_, err := f.service.AddToCart(&f.userID, "", &cart.AddToCartRequest{ProductVariantID: f.variant.ID, Quantity: 2})
	require.NoError(t, err)

	require.NoError(t, f.service.ClearCart(&f.userID, ""))

	response, err := f.service.GetCart(&f.userID, "")
	require.NoError(t, err)
	assert.Empty(t, response.Items)
}

func TestValidateCartReportsIssues(t *testing.T) {
	f := newCartFixture(t)

	_, err := f.service.AddToCart(&f.userID, "", &cart.AddToCartRequest{ProductVariantID: f.variant.ID, Quantity: 8})
	require.NoError(t, err)

	t.Run("clean cart is valid", func(t *testing.T) {
		result, err := f.service.ValidateCart(&f.userID, "")
		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Empty(t, result.Issues)
	})

	t.Run("price drift reported but stays valid", func(t *testing.T) {
		require.NoError(t, f.db.Model(&product.ProductVariant{}).
			Where("id = ?", f.variant.ID).Update("price", 250000).Error)

		result, err := f.service.ValidateCart(&f.userID, "")
		require.NoError(t, err)
		assert.True(t, result.Valid)
		require.Len(t, result.Issues, 1)
		assert.Equal(t, cart.IssuePriceChanged, result.Issues[0].Code)
		assert.Equal(t, int64(220000), result.Issues[0].CartPrice)
		assert.Equal(t, int64(250000), result.Issues[0].CurrentPrice)
	})

	t.Run("stock shortfall invalidates", func(t *testing.T) {
		require.NoError(t, f.db.Model(&product.ProductVariant{}).
			Where("id = ?", f.variant.ID).Update("stock", 2).Error)

		result, err := f.service.ValidateCart(&f.userID, "")
		require.NoError(t, err)
		assert.False(t, result.Valid)

		var codes []string
		for _, issue := range result.Issues {
			codes = append(codes, issue.Code)
		}
		assert.Contains(t, codes, cart.IssueInsufficientStock)
	})

	t.Run("deactivated variant invalidates", func(t *testing.T) {
		require.NoError(t, f.db.Model(&product.ProductVariant{}).
			Where("id = ?", f.variant.ID).Update("is_active", false).Error)

		result, err := f.service.ValidateCart(&f.userID, "")
		require.NoError(t, err)
		assert.False(t, result.Valid)

		var codes []string
		for _, issue := range result.Issues {
			codes = append(codes, issue.Code)
		}
		assert.Contains(t, codes, cart.IssueVariantUnavailable)
	})
}
