// internal/domain/order/entity_test.go
package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		method  PaymentMethod
		from    Status
		to      Status
		allowed bool
	}{
		{"pending to confirmed", PaymentMethodCOD, StatusPendingPayment, StatusConfirmed, true},
		{"pending to paid online", PaymentMethodVNPayFake, StatusPendingPayment, StatusPaid, true},
		{"pending to cancelled", PaymentMethodVNPayFake, StatusPendingPayment, StatusCancelled, true},
		{"pending to payment failed", PaymentMethodVNPayFake, StatusPendingPayment, StatusPaymentFailed, true},
		{"pending to shipping skips confirmation", PaymentMethodVNPayFake, StatusPendingPayment, StatusShipping, false},
		{"pending to completed skips everything", PaymentMethodVNPayFake, StatusPendingPayment, StatusCompleted, false},

		{"confirmed to paid online", PaymentMethodVNPayFake, StatusConfirmed, StatusPaid, true},
		{"confirmed to shipping", PaymentMethodCOD, StatusConfirmed, StatusShipping, true},
		{"confirmed to cancelled", PaymentMethodCOD, StatusConfirmed, StatusCancelled, true},
		{"confirmed back to pending", PaymentMethodVNPayFake, StatusConfirmed, StatusPendingPayment, false},

		{"paid to shipping", PaymentMethodVNPayFake, StatusPaid, StatusShipping, true},
		{"paid to cancelled", PaymentMethodVNPayFake, StatusPaid, StatusCancelled, true},
		{"paid to completed skips shipping", PaymentMethodVNPayFake, StatusPaid, StatusCompleted, false},

		{"shipping to completed", PaymentMethodVNPayFake, StatusShipping, StatusCompleted, true},
		{"shipping cannot be cancelled", PaymentMethodVNPayFake, StatusShipping, StatusCancelled, false},

		{"payment failed to pending for retry", PaymentMethodVNPayFake, StatusPaymentFailed, StatusPendingPayment, true},
		{"payment failed to cancelled", PaymentMethodVNPayFake, StatusPaymentFailed, StatusCancelled, true},
		{"payment failed straight to paid", PaymentMethodVNPayFake, StatusPaymentFailed, StatusPaid, false},

		{"completed is terminal", PaymentMethodVNPayFake, StatusCompleted, StatusShipping, false},
		{"cancelled is terminal", PaymentMethodVNPayFake, StatusCancelled, StatusPendingPayment, false},

		// COD collects at the door, PAID never enters its lifecycle
		{"cod pending to paid", PaymentMethodCOD, StatusPendingPayment, StatusPaid, false},
		{"cod confirmed to paid", PaymentMethodCOD, StatusConfirmed, StatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.method, tt.from, tt.to))
		})
	}
}

func TestAllowedTransitions(t *testing.T) {
	t.Run("cod suppresses paid", func(t *testing.T) {
		allowed := AllowedTransitions(PaymentMethodCOD, StatusPendingPayment)
		assert.ElementsMatch(t, []Status{StatusConfirmed, StatusCancelled, StatusPaymentFailed}, allowed)
	})

	t.Run("online keeps paid", func(t *testing.T) {
		allowed := AllowedTransitions(PaymentMethodVNPayFake, StatusConfirmed)
		assert.ElementsMatch(t, []Status{StatusPaid, StatusShipping, StatusCancelled}, allowed)
	})

	t.Run("terminal status has none", func(t *testing.T) {
		assert.Empty(t, AllowedTransitions(PaymentMethodVNPayFake, StatusCompleted))
		assert.Empty(t, AllowedTransitions(PaymentMethodCOD, StatusCancelled))
	})
}

func TestStatusIsValid(t *testing.T) {
	for _, s := range []Status{
		StatusPendingPayment, StatusConfirmed, StatusPaid, StatusShipping,
		StatusCompleted, StatusCancelled, StatusPaymentFailed,
	} {
		assert.True(t, s.IsValid(), "status %s", s)
	}
	assert.False(t, Status("DELIVERED").IsValid())
	assert.False(t, Status("").IsValid())
}

func TestStatusIsTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPendingPayment.IsTerminal())
	assert.False(t, StatusShipping.IsTerminal())
}

func TestCanBeCancelledByCustomer(t *testing.T) {
	cancellable := []Status{StatusPendingPayment, StatusConfirmed, StatusPaymentFailed}
	for _, s := range cancellable {
		o := Order{Status: s}
		assert.True(t, o.CanBeCancelledByCustomer(), "status %s", s)
	}

	locked := []Status{StatusPaid, StatusShipping, StatusCompleted, StatusCancelled}
	for _, s := range locked {
		o := Order{Status: s}
		assert.False(t, o.CanBeCancelledByCustomer(), "status %s", s)
	}
}

func TestPaymentMethodIsValid(t *testing.T) {
	assert.True(t, PaymentMethodVNPayFake.IsValid())
	assert.True(t, PaymentMethodCOD.IsValid())
	assert.True(t, PaymentMethodTest.IsValid())
	assert.False(t, PaymentMethod("STRIPE").IsValid())
}

func TestGenerateOrderCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := generateOrderCode()
		assert.Regexp(t, `^ORD-\d{8}-[ABCDEFGHJKMNPQRSTUVWXYZ23456789]{6}$`, code)
		seen[code] = true
	}
	// 100 draws from a 31^6 space should not collide
	assert.Greater(t, len(seen), 95)
}
