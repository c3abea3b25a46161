// internal/domain/payment/vnpay_service_test.go
package payment_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newPaymentTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func paymentTestConfig() *config.Config {
	return &config.Config{
		Checkout: config.CheckoutConfig{ShippingFee: 30000, Currency: "VND"},
		External: config.ExternalConfig{
			VNPay: config.VNPayConfig{
				TerminalCode: "STOREFRONT01",
				HashSecret:   "test-secret",
				PaymentURL:   "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
				ReturnURL:    "http://localhost:3000/payment/return",
			},
		},
	}
}

type paymentFixture struct {
	db      *gorm.DB
	service *payment.VNPayService
	userID  uint
	order   *order.Order
}

// seedPaymentFixture creates a user with one VNPAY_FAKE order awaiting
// payment, inserted directly so no cart plumbing is needed.
func seedPaymentFixture(t *testing.T, method order.PaymentMethod) *paymentFixture {
	t.Helper()

	db := newPaymentTestDB(t)
	cfg := paymentTestConfig()

	u := user.User{Email: "payer@example.com", Password: "x", IsActive: true}
	require.NoError(t, db.Create(&u).Error)

	o := order.Order{
		OrderCode:     "ORD-20260901-PAY234",
		UserID:        u.ID,
		Status:        order.StatusPendingPayment,
		ItemsTotal:    500000,
		ShippingFee:   30000,
		TotalAmount:   530000,
		Currency:      "VND",
		PaymentMethod: method,
		PaymentStatus: order.PaymentStatusPending,
		ReceiverName:  "Trần Thị B",
		Phone:         "0912345678",
		AddressLine:   "5 Nguyễn Huệ",
		ProvinceName:  "Hồ Chí Minh",
		DistrictName:  "Quận 1",
		WardName:      "Bến Nghé",
	}
	if method == order.PaymentMethodCOD {
		o.Status = order.StatusConfirmed
	}
	require.NoError(t, db.Create(&o).Error)

	orderService := order.NewService(db, cfg, nil, nil)
	return &paymentFixture{
		db:      db,
		service: payment.NewVNPayService(db, cfg, orderService),
		userID:  u.ID,
		order:   &o,
	}
}

func TestInitiatePayment(t *testing.T) {
	f := seedPaymentFixture(t, order.PaymentMethodVNPayFake)

	resp, err := f.service.InitiatePayment(f.userID, f.order.ID)
	require.NoError(t, err)

	assert.Equal(t, f.order.OrderCode, resp.OrderCode)
	assert.Equal(t, int64(530000), resp.Amount)
	assert.True(t, strings.HasPrefix(resp.PaymentURL, "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html?"))

	parsed, err := url.Parse(resp.PaymentURL)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, f.order.OrderCode, q.Get("vnp_TxnRef"))
	assert.Equal(t, "530000", q.Get("vnp_Amount"))
	assert.Equal(t, "STOREFRONT01", q.Get("vnp_TmnCode"))
	assert.NotEmpty(t, q.Get("vnp_SecureHash"))

	var txn order.PaymentTransaction
	require.NoError(t, f.db.Where("order_id = ?", f.order.ID).First(&txn).Error)
	assert.Equal(t, "VNPAY_FAKE", txn.Provider)
	assert.Equal(t, order.PaymentStatusPending, txn.Status)
	assert.Equal(t, int64(530000), txn.Amount)
}

func TestInitiatePaymentRejectsCOD(t *testing.T) {
	f := seedPaymentFixture(t, order.PaymentMethodCOD)

	_, err := f.service.InitiatePayment(f.userID, f.order.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestInitiatePaymentWrongUser(t *testing.T) {
	f := seedPaymentFixture(t, order.PaymentMethodVNPayFake)

	_, err := f.service.InitiatePayment(f.userID+1, f.order.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestHandleReturnSuccess(t *testing.T) {
	f := seedPaymentFixture(t, order.PaymentMethodVNPayFake)

	_, err := f.service.InitiatePayment(f.userID, f.order.ID)
	require.NoError(t, err)

	params := f.service.SimulateReturn(f.order.OrderCode, 530000, true)
	result, err := f.service.HandleReturn(params)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, f.order.OrderCode, result.OrderCode)
	assert.Equal(t, order.StatusPaid, result.Order.Status)
	assert.Equal(t, order.PaymentStatusSuccess, result.Order.PaymentStatus)
	assert.NotNil(t, result.Order.PaidAt)

	var txn order.PaymentTransaction
	require.NoError(t, f.db.Where("order_id = ?", f.order.ID).First(&txn).Error)
	assert.Equal(t, order.PaymentStatusSuccess, txn.Status)
	assert.Equal(t, "00", txn.ResponseCode)
	assert.NotEmpty(t, txn.ProviderTxnID)
}

func TestHandleReturnFailure(t *testing.T) {
	f := seedPaymentFixture(t, order.PaymentMethodVNPayFake)

	_, err := f.service.InitiatePayment(f.userID, f.order.ID)
	require.NoError(t, err)

	params := f.service.SimulateReturn(f.order.OrderCode, 530000, false)
	result, err := f.service.HandleReturn(params)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, order.StatusPaymentFailed, result.Order.Status)
	assert.Equal(t, order.PaymentStatusFailed, result.Order.PaymentStatus)
	assert.Nil(t, result.Order.PaidAt)
}

func TestHandleReturnRejectsTamperedSignature(t *testing.T) {
	f := seedPaymentFixture(t, order.PaymentMethodVNPayFake)

	params := f.service.SimulateReturn(f.order.OrderCode, 530000, true)
	params.Set("vnp_Amount", "1")

	_, err := f.service.HandleReturn(params)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindUpstreamFailure))

	params.Del("vnp_SecureHash")
	_, err = f.service.HandleReturn(params)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindUpstreamFailure))
}

func TestHandleReturnAmountMismatch(t *testing.T) {
	f := seedPaymentFixture(t, order.PaymentMethodVNPayFake)

	// Correctly signed but for the wrong amount
	params := f.service.SimulateReturn(f.order.OrderCode, 999999, true)
	_, err := f.service.HandleReturn(params)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindUpstreamFailure))

	var o order.Order
	require.NoError(t, f.db.First(&o, f.order.ID).Error)
	assert.Equal(t, order.StatusPendingPayment, o.Status)
}

func TestHandleReturnUnknownOrder(t *testing.T) {
	f := seedPaymentFixture(t, order.PaymentMethodVNPayFake)

	params := f.service.SimulateReturn("ORD-20260901-ZZZ999", 530000, true)
	_, err := f.service.HandleReturn(params)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}
