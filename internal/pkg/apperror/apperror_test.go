// internal/pkg/apperror/apperror_test.go
package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	plain := New(KindValidation, "quantity must be positive")
	assert.Equal(t, "quantity must be positive", plain.Error())

	cause := errors.New("connection refused")
	wrapped := Wrap(KindUpstreamFailure, "payment gateway unreachable", cause)
	assert.Equal(t, "payment gateway unreachable: connection refused", wrapped.Error())
	assert.Equal(t, cause, errors.Unwrap(wrapped))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("order %d not found", 7)))
	assert.Equal(t, KindConflict, KindOf(Conflict("slug taken")))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))

	// Kind survives fmt wrapping
	err := fmt.Errorf("checkout failed: %w", Validation("cart is empty"))
	assert.Equal(t, KindValidation, KindOf(err))
	assert.True(t, IsKind(err, KindValidation))
	assert.False(t, IsKind(err, KindNotFound))
}

func TestInvalidTransitionFields(t *testing.T) {
	err := InvalidTransition("COMPLETED", "CANCELLED")

	assert.Equal(t, KindInvalidTransition, err.Kind)
	assert.Equal(t, "COMPLETED", err.Fields["current_status"])
	assert.Equal(t, "CANCELLED", err.Fields["requested_status"])
	assert.Contains(t, err.Error(), "COMPLETED")
	assert.Contains(t, err.Error(), "CANCELLED")
}

func TestInsufficientStockFields(t *testing.T) {
	err := InsufficientStock("AT-DO-S", 2, 5)

	assert.Equal(t, KindInsufficientStock, err.Kind)
	assert.Equal(t, "AT-DO-S", err.Fields["sku"])
	assert.Contains(t, err.Error(), "available 2")
	assert.Contains(t, err.Error(), "requested 5")
}

func TestAsError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NotFound("missing"))

	appErr, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, appErr.Kind)

	_, ok = AsError(errors.New("plain"))
	assert.False(t, ok)
}

func TestWithField(t *testing.T) {
	err := New(KindValidation, "bad input").
		WithField("field", "email").
		WithField("reason", "format")

	assert.Equal(t, "email", err.Fields["field"])
	assert.Equal(t, "format", err.Fields["reason"])
}
