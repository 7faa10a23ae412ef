package ports

import (
	"context"

	"github.com/target/storefront/internal/domain/order"
)

// OrderFetcher retrieves a single order on behalf of the token holder.
type OrderFetcher interface {
	GetOrder(ctx context.Context, token string, orderID int64) (order.Order, error)
}

// OrderLister lists every order that belongs to the token holder.
type OrderLister interface {
	ListOrders(ctx context.Context, token string) ([]order.Order, error)
}

// AdminOrderLister lists every customer's orders; the API only grants it to staff.
type AdminOrderLister interface {
	ListAllOrders(ctx context.Context, token string) ([]order.Order, error)
}
