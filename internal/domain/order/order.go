// Package order holds the read-only order record served by the shop API.
package order

import (
	"fmt"
	"strconv"
	"time"
)

// StatusPaid is the only status that counts as a confirmed order.
const StatusPaid = "paid"

// Order is a single purchase as returned by the shop API.
type Order struct {
	ID           int64  `json:"id"`
	Status       string `json:"status"`
	ProductName  string `json:"product_name"`
	ProductImage string `json:"product_image"`
	ProductPrice string `json:"product_price"`
	CardLastFour string `json:"card_last_four"`
	CreatedAt    string `json:"created_at"`
}

// IsPaid reports whether the payment for the order went through.
func (o Order) IsPaid() bool { return o.Status == StatusPaid }

// Price parses the decimal price string.
func (o Order) Price() (float64, error) {
	p, err := strconv.ParseFloat(o.ProductPrice, 64)
	if err != nil {
		return 0, fmt.Errorf("parse product price %q: %w", o.ProductPrice, err)
	}
	return p, nil
}

// Created parses the creation timestamp (RFC 3339, fractional seconds allowed).
func (o Order) Created() (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, o.CreatedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse created_at %q: %w", o.CreatedAt, err)
	}
	return ts, nil
}
