// Package confirmation resolves the order confirmation view: given the current
// bearer token and an order identifier it fetches the order once and settles
// on one of Loading, Error, Confirmed or Failed.
package confirmation

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/target/storefront/internal/domain/order"
	"github.com/target/storefront/internal/ports"
)

// State is the visible state of the view.
type State string

const (
	StateLoading   State = "loading"
	StateError     State = "error"
	StateConfirmed State = "confirmed"
	StateFailed    State = "failed"
)

// User-visible messages for the error state.
const (
	MessageLoadFailed = "Failed to load order"
	MessageNotFound   = "Order not found"
)

// ErrMissingPrerequisite means there was no token or no usable order id, so no fetch was attempted.
var ErrMissingPrerequisite = errors.New("missing token or order id")

// Model is what the view renders.
type Model struct {
	State   State
	Order   *order.Order
	Message string
	// Err is the fault behind StateError. It is never shown to the user.
	Err error
}

// Loading is the initial model.
func Loading() Model { return Model{State: StateLoading} }

// Title is the page heading for a settled order.
func (m Model) Title() string {
	switch m.State {
	case StateConfirmed:
		return "Order Confirmed!"
	case StateFailed:
		return "Order Failed"
	default:
		return ""
	}
}

// Description is the sentence under the heading for a settled order.
func (m Model) Description() string {
	switch m.State {
	case StateConfirmed:
		return "Thank you for your purchase. Your order has been confirmed."
	case StateFailed:
		return "Your payment was declined. Please try again with a different card."
	default:
		return ""
	}
}

// ParseOrderID accepts a positive decimal identifier.
func ParseOrderID(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Resolve performs the single fetch for token and rawOrderID and returns the
// settled model. A missing token or unusable id yields StateError without
// calling the fetcher; any fetch failure yields StateError with a generic message.
func Resolve(ctx context.Context, fetcher ports.OrderFetcher, token, rawOrderID string) Model {
	id, ok := ParseOrderID(rawOrderID)
	if token == "" || !ok {
		return Model{State: StateError, Message: MessageNotFound, Err: ErrMissingPrerequisite}
	}

	o, err := fetcher.GetOrder(ctx, token, id)
	if err != nil {
		return Model{State: StateError, Message: MessageLoadFailed, Err: err}
	}
	return FromOrder(o)
}

// FromOrder maps a fetched order to Confirmed or Failed.
func FromOrder(o order.Order) Model {
	if o.IsPaid() {
		return Model{State: StateConfirmed, Order: &o}
	}
	return Model{State: StateFailed, Order: &o}
}
