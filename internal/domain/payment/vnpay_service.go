// internal/domain/payment/vnpay_service.go
package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

const providerVNPay = "VNPAY_FAKE"

// VNPayService builds fake VNPay payment URLs and consumes the signed
// return redirect. No network call ever leaves the process; the gateway
// is simulated end to end so the full payment flow can run locally.
type VNPayService struct {
	db           *gorm.DB
	config       *config.Config
	orderService *order.Service
}

// NewVNPayService creates a new VNPay payment service
func NewVNPayService(db *gorm.DB, cfg *config.Config, orderService *order.Service) *VNPayService {
	return &VNPayService{
		db:           db,
		config:       cfg,
		orderService: orderService,
	}
}

// InitiationResponse carries the redirect URL the frontend sends the
// customer to
type InitiationResponse struct {
	PaymentURL string       `json:"payment_url"`
	OrderCode  string       `json:"order_code"`
	Amount     int64        `json:"amount"`
	Order      *order.Order `json:"order"`
}

// ReturnResult summarizes a processed gateway return
type ReturnResult struct {
	OrderCode string       `json:"order_code"`
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Order     *order.Order `json:"order"`
}

// InitiatePayment creates a pending transaction for the order and returns
// the gateway redirect URL. Only online payment methods can be initiated;
// cash on delivery settles at the door.
func (s *VNPayService) InitiatePayment(userID, orderID uint) (*InitiationResponse, error) {
	o, err := s.orderService.GetOrder(userID, orderID)
	if err != nil {
		return nil, err
	}

	if o.IsCOD() {
		return nil, apperror.Validation("cash on delivery orders are settled on delivery")
	}
	if o.Status != order.StatusPendingPayment {
		return nil, apperror.InvalidTransition(string(o.Status), string(order.StatusPaid))
	}

	txn := order.PaymentTransaction{
		OrderID:  o.ID,
		Provider: providerVNPay,
		Amount:   o.TotalAmount,
		Currency: o.Currency,
		Status:   order.PaymentStatusPending,
	}
	if err := s.db.Create(&txn).Error; err != nil {
		return nil, fmt.Errorf("failed to create payment transaction: %w", err)
	}

	paymentURL, err := s.buildPaymentURL(o)
	if err != nil {
		return nil, err
	}

	return &InitiationResponse{
		PaymentURL: paymentURL,
		OrderCode:  o.OrderCode,
		Amount:     o.TotalAmount,
		Order:      o,
	}, nil
}

// HandleReturn processes the signed redirect back from the gateway. The
// signature is verified before anything is trusted; response code "00"
// means the customer paid.
func (s *VNPayService) HandleReturn(params url.Values) (*ReturnResult, error) {
	if !s.verifySignature(params) {
		return nil, apperror.Upstream("payment return signature mismatch", nil)
	}

	orderCode := params.Get("vnp_TxnRef")
	if orderCode == "" {
		return nil, apperror.Validation("missing transaction reference")
	}

	var o order.Order
	err := s.db.Where("order_code = ?", orderCode).First(&o).Error
	if err != nil {
		return nil, apperror.NotFound("order %s not found", orderCode)
	}

	responseCode := params.Get("vnp_ResponseCode")
	success := responseCode == "00"

	amount, err := strconv.ParseInt(params.Get("vnp_Amount"), 10, 64)
	if err != nil || amount != o.TotalAmount {
		return nil, apperror.Newf(apperror.KindUpstreamFailure, "payment amount mismatch for order %s", orderCode)
	}

	err = s.db.Model(&order.PaymentTransaction{}).
		Where("order_id = ? AND provider = ? AND status = ?", o.ID, providerVNPay, order.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":          paymentStatusFor(success),
			"provider_txn_id": params.Get("vnp_TransactionNo"),
			"response_code":   responseCode,
			"raw_payload":     params.Encode(),
		}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update payment transaction: %w", err)
	}

	updated, err := s.orderService.ApplyPaymentResult(o.ID, success)
	if err != nil {
		return nil, err
	}

	message := "payment failed"
	if success {
		message = "payment successful"
	}
	return &ReturnResult{
		OrderCode: orderCode,
		Success:   success,
		Message:   message,
		Order:     updated,
	}, nil
}

// SimulateReturn fabricates the signed query the real gateway would
// redirect with. TEST orders and local development use it to drive the
// return flow without a gateway.
func (s *VNPayService) SimulateReturn(orderCode string, amount int64, success bool) url.Values {
	responseCode := "24"
	if success {
		responseCode = "00"
	}

	params := url.Values{}
	params.Set("vnp_TxnRef", orderCode)
	params.Set("vnp_Amount", strconv.FormatInt(amount, 10))
	params.Set("vnp_ResponseCode", responseCode)
	params.Set("vnp_TransactionNo", fmt.Sprintf("FAKE%d", time.Now().UnixNano()))
	params.Set("vnp_TmnCode", s.config.External.VNPay.TerminalCode)
	params.Set("vnp_SecureHash", s.sign(params))
	return params
}

func (s *VNPayService) buildPaymentURL(o *order.Order) (string, error) {
	params := url.Values{}
	params.Set("vnp_Version", "2.1.0")
	params.Set("vnp_Command", "pay")
	params.Set("vnp_TmnCode", s.config.External.VNPay.TerminalCode)
	params.Set("vnp_TxnRef", o.OrderCode)
	params.Set("vnp_Amount", strconv.FormatInt(o.TotalAmount, 10))
	params.Set("vnp_CurrCode", o.Currency)
	params.Set("vnp_OrderInfo", fmt.Sprintf("Thanh toan don hang %s", o.OrderCode))
	params.Set("vnp_CreateDate", time.Now().UTC().Format("20060102150405"))
	params.Set("vnp_ReturnUrl", s.config.External.VNPay.ReturnURL)
	params.Set("vnp_SecureHash", s.sign(params))

	base := s.config.External.VNPay.PaymentURL
	if base == "" {
		return "", apperror.Upstream("payment gateway URL not configured", nil)
	}
	return base + "?" + params.Encode(), nil
}

// sign computes the HMAC-SHA512 of the sorted parameters, excluding the
// hash field itself
func (s *VNPayService) sign(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "vnp_SecureHash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params.Get(k))
	}

	mac := hmac.New(sha512.New, []byte(s.config.External.VNPay.HashSecret))
	mac.Write([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *VNPayService) verifySignature(params url.Values) bool {
	provided := params.Get("vnp_SecureHash")
	if provided == "" {
		return false
	}
	return hmac.Equal([]byte(provided), []byte(s.sign(params)))
}

func paymentStatusFor(success bool) order.PaymentStatus {
	if success {
		return order.PaymentStatusSuccess
	}
	return order.PaymentStatusFailed
}
