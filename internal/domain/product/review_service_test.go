// internal/domain/product/review_service_test.go
package product_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

type reviewFixture struct {
	service   *product.ReviewService
	userID    uint
	productID uint
	variantID uint
	orderID   uint
}

// seedReviewFixture creates a user, a product with one variant, and a
// completed order of that variant belonging to the user.
func seedReviewFixture(t *testing.T, db *gorm.DB) *reviewFixture {
	t.Helper()

	u := user.User{Email: "review@example.com", Password: "x", IsActive: true}
	require.NoError(t, db.Create(&u).Error)

	prod := product.Product{Name: "Giày Sneaker", Slug: "giay-sneaker", IsActive: true}
	require.NoError(t, db.Create(&prod).Error)

	variant := product.ProductVariant{ProductID: prod.ID, SKU: "GS-TRANG-42", Price: 750000, Stock: 4, IsActive: true}
	require.NoError(t, db.Create(&variant).Error)

	ord := order.Order{
		OrderCode:     "ORD-20260901-ABC234",
		UserID:        u.ID,
		Status:        order.StatusCompleted,
		ItemsTotal:    750000,
		ShippingFee:   30000,
		TotalAmount:   780000,
		Currency:      "VND",
		PaymentMethod: order.PaymentMethodCOD,
		PaymentStatus: order.PaymentStatusSuccess,
		ReceiverName:  "Nguyễn Văn A",
		Phone:         "0901234567",
		AddressLine:   "12 Lý Thường Kiệt",
		ProvinceName:  "Hà Nội",
		DistrictName:  "Hoàn Kiếm",
		WardName:      "Tràng Tiền",
	}
	require.NoError(t, db.Create(&ord).Error)

	item := order.OrderItem{
		OrderID:          ord.ID,
		ProductVariantID: variant.ID,
		ProductName:      prod.Name,
		SKU:              variant.SKU,
		UnitPrice:        750000,
		Quantity:         1,
		Subtotal:         750000,
	}
	require.NoError(t, db.Create(&item).Error)

	return &reviewFixture{
		service:   product.NewReviewService(db, &config.Config{}),
		userID:    u.ID,
		productID: prod.ID,
		variantID: variant.ID,
		orderID:   ord.ID,
	}
}

func TestCreateReview(t *testing.T) {
	db := newProductTestDB(t)
	f := seedReviewFixture(t, db)

	review, err := f.service.CreateReview(f.userID, f.productID, &product.ReviewCreateRequest{
		Rating:  5,
		Title:   "Rất đáng tiền",
		Content: "Đi êm chân, giao hàng nhanh.",
		OrderID: &f.orderID,
		Images:  []string{"https://cdn.example.com/r1.jpg", "https://cdn.example.com/r2.jpg"},
	})
	require.NoError(t, err)

	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, f.userID, review.UserID)
	require.NotNil(t, review.OrderID)
	assert.Equal(t, f.orderID, *review.OrderID)
	require.Len(t, review.Images, 2)
	assert.Equal(t, "https://cdn.example.com/r1.jpg", review.Images[0].URL)
	assert.Equal(t, 0, review.Images[0].SortOrder)
	assert.Equal(t, 1, review.Images[1].SortOrder)
}

func TestCreateReviewRatingBounds(t *testing.T) {
	db := newProductTestDB(t)
	f := seedReviewFixture(t, db)

	for _, rating := range []int{0, -1, 6, 11} {
		_, err := f.service.CreateReview(f.userID, f.productID, &product.ReviewCreateRequest{
			Rating:  rating,
			Content: "x",
		})
		require.Error(t, err, "rating %d", rating)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	}
}

func TestCreateReviewUnknownProduct(t *testing.T) {
	db := newProductTestDB(t)
	f := seedReviewFixture(t, db)

	_, err := f.service.CreateReview(f.userID, 999, &product.ReviewCreateRequest{
		Rating:  4,
		Content: "x",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestCreateReviewOrderLinkVerification(t *testing.T) {
	db := newProductTestDB(t)
	f := seedReviewFixture(t, db)

	// Linked order belongs to someone else
	stranger := user.User{Email: "stranger@example.com", Password: "x", IsActive: true}
	require.NoError(t, db.Create(&stranger).Error)

	_, err := f.service.CreateReview(stranger.ID, f.productID, &product.ReviewCreateRequest{
		Rating:  3,
		Content: "x",
		OrderID: &f.orderID,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	// Linked order does not contain the product
	other := product.Product{Name: "Mũ Lưỡi Trai", Slug: "mu-luoi-trai", IsActive: true}
	require.NoError(t, db.Create(&other).Error)

	_, err = f.service.CreateReview(f.userID, other.ID, &product.ReviewCreateRequest{
		Rating:  3,
		Content: "x",
		OrderID: &f.orderID,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	// Without an order link, no verification applies
	review, err := f.service.CreateReview(f.userID, other.ID, &product.ReviewCreateRequest{
		Rating:  3,
		Content: "Chưa mua nhưng thấy đẹp.",
	})
	require.NoError(t, err)
	assert.Nil(t, review.OrderID)
}

func TestGetProductReviewsAggregate(t *testing.T) {
	db := newProductTestDB(t)
	f := seedReviewFixture(t, db)

	for i, rating := range []int{5, 4, 3} {
		_, err := f.service.CreateReview(f.userID, f.productID, &product.ReviewCreateRequest{
			Rating:  rating,
			Content: fmt.Sprintf("review %d", i),
		})
		require.NoError(t, err)
	}

	resp, err := f.service.GetProductReviews(f.productID, 1, 2)
	require.NoError(t, err)

	assert.Equal(t, int64(3), resp.ReviewCount)
	assert.InDelta(t, 4.0, resp.AverageRating, 0.001)
	assert.Len(t, resp.Reviews, 2)
	assert.Equal(t, 2, resp.Pagination.TotalPages)
	assert.True(t, resp.Pagination.HasNext)
	assert.False(t, resp.Pagination.HasPrev)
}

func TestDeleteReviewOwnership(t *testing.T) {
	db := newProductTestDB(t)
	f := seedReviewFixture(t, db)

	review, err := f.service.CreateReview(f.userID, f.productID, &product.ReviewCreateRequest{
		Rating:  2,
		Content: "Form hơi nhỏ.",
	})
	require.NoError(t, err)

	stranger := user.User{Email: "stranger2@example.com", Password: "x", IsActive: true}
	require.NoError(t, db.Create(&stranger).Error)

	err = f.service.DeleteReview(stranger.ID, review.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	require.NoError(t, f.service.DeleteReview(f.userID, review.ID))

	_, err = f.service.GetReview(review.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}
