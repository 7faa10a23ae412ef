package viewmodel

import (
	"strconv"
	"time"

	"github.com/target/storefront/internal/domain/order"
)

// Order is the template-facing projection of an order.
type Order struct {
	ID           int64
	Status       string
	Paid         bool
	ProductName  string
	ProductImage string
	Price        string
	CardLastFour string
	CreatedAt    time.Time
}

// NewOrder projects o for rendering. Unparsable prices and timestamps fall
// back to the raw value and the zero time respectively.
func NewOrder(o order.Order) Order {
	vm := Order{
		ID:           o.ID,
		Status:       o.Status,
		Paid:         o.IsPaid(),
		ProductName:  o.ProductName,
		ProductImage: o.ProductImage,
		Price:        o.ProductPrice,
		CardLastFour: o.CardLastFour,
	}
	if p, err := o.Price(); err == nil {
		vm.Price = strconv.FormatFloat(p, 'f', 2, 64)
	}
	if ts, err := o.Created(); err == nil {
		vm.CreatedAt = ts
	}
	return vm
}

// NewOrders projects a list, preserving order.
func NewOrders(in []order.Order) []Order {
	out := make([]Order, 0, len(in))
	for _, o := range in {
		out = append(out, NewOrder(o))
	}
	return out
}
