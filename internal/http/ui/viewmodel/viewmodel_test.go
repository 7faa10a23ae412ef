package viewmodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/target/storefront/internal/domain/order"
)

func TestNewOrder(t *testing.T) {
	vm := NewOrder(order.Order{
		ID:           42,
		Status:       order.StatusPaid,
		ProductName:  "Widget",
		ProductPrice: "19.9",
		CardLastFour: "4242",
		CreatedAt:    "2024-05-01T10:00:00Z",
	})

	assert.Equal(t, int64(42), vm.ID)
	assert.True(t, vm.Paid)
	assert.Equal(t, "19.90", vm.Price)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), vm.CreatedAt.UTC())
}

func TestNewOrder_UnparsableFieldsFallBack(t *testing.T) {
	vm := NewOrder(order.Order{ID: 1, Status: "failed", ProductPrice: "n/a", CreatedAt: "yesterday"})

	assert.False(t, vm.Paid)
	assert.Equal(t, "n/a", vm.Price)
	assert.True(t, vm.CreatedAt.IsZero())
}

func TestNewOrders_NonNil(t *testing.T) {
	assert.NotNil(t, NewOrders(nil))
	assert.Len(t, NewOrders([]order.Order{{ID: 1}, {ID: 2}}), 2)
}
