package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/target/storefront/internal/confirmation"
	"github.com/target/storefront/internal/domain/order"
	apperrors "github.com/target/storefront/internal/errors"
	"github.com/target/storefront/internal/http/ui/viewmodel"
)

// OrderConfirmation renders the post-checkout page for /orders/{orderId}/confirmation.
// The fetch runs as a controller task tied to the request; if the client goes
// away or the wait runs out the page renders the loading state and refreshes.
func (h *UIHandlers) OrderConfirmation(w http.ResponseWriter, r *http.Request) {
	token := ""
	if sess := GetSessionFromContext(r.Context()); sess != nil {
		token = sess.Token
	}

	ctrl := confirmation.NewController(r.Context(), confirmation.Options{
		Fetcher: h.Fetcher,
		Logger:  h.logger(),
		Metrics: h.Metrics,
	})
	defer ctrl.Close()

	ctrl.Update(token, r.PathValue("orderId"))

	waitCtx, cancel := context.WithTimeout(r.Context(), h.confirmationWait())
	defer cancel()
	model := ctrl.Wait(waitCtx)

	h.renderConfirmation(w, r, model)
}

func (h *UIHandlers) renderConfirmation(w http.ResponseWriter, r *http.Request, m confirmation.Model) {
	b := NewTemplateData(r, PageMeta{
		Title:       "Order Confirmation - Storefront",
		CurrentPage: PageOrderConfirmation,
	}).
		With("State", string(m.State)).
		With("Heading", m.Title()).
		With("Description", m.Description()).
		With("Message", m.Message).
		With("AutoRefresh", m.State == confirmation.StateLoading)
	if m.Order != nil {
		b.With("Order", viewmodel.NewOrder(*m.Order))
	}
	h.renderPage(w, r, confirmationStatus(m), b.Build())
}

// confirmationStatus keeps the page's HTTP status in line with what it shows.
func confirmationStatus(m confirmation.Model) int {
	if m.State != confirmation.StateError {
		return http.StatusOK
	}
	if errors.Is(m.Err, confirmation.ErrMissingPrerequisite) {
		return http.StatusNotFound
	}
	if code := apperrors.GetCode(m.Err); code != "" {
		return StatusForCode(code)
	}
	return http.StatusBadGateway
}

// Orders lists the signed-in shopper's orders.
func (h *UIHandlers) Orders(w http.ResponseWriter, r *http.Request) {
	h.renderOrderList(w, r, orderListPage{
		meta: PageMeta{Title: "My Orders - Storefront", PageTitle: "My Orders", CurrentPage: PageOrders},
		list: h.Lister.ListOrders,
	})
}

// AdminOrders lists every customer's orders for staff.
func (h *UIHandlers) AdminOrders(w http.ResponseWriter, r *http.Request) {
	if h.AdminLister == nil {
		h.NotFound(w, r)
		return
	}
	h.renderOrderList(w, r, orderListPage{
		meta: PageMeta{Title: "All Orders - Storefront", PageTitle: "All Orders", CurrentPage: PageAdminOrders},
		list: h.AdminLister.ListAllOrders,
	})
}

type orderListPage struct {
	meta PageMeta
	list func(ctx context.Context, token string) ([]order.Order, error)
}

func (h *UIHandlers) renderOrderList(w http.ResponseWriter, r *http.Request, page orderListPage) {
	sess := GetSessionFromContext(r.Context())
	if sess == nil || !sess.IsAuthenticated() {
		redirectToLogin(w, r)
		return
	}

	b := NewTemplateData(r, page.meta)
	status := http.StatusOK
	orders, err := page.list(r.Context(), sess.Token)
	if err != nil {
		h.logger().WarnContext(r.Context(), "list orders failed",
			slog.String("page", page.meta.CurrentPage),
			slog.Any("error", err),
		)
		status = StatusForCode(apperrors.GetCode(err))
		b.WithError("Failed to load orders")
		orders = nil
	}
	b.With("Orders", viewmodel.NewOrders(orders))
	h.renderPage(w, r, status, b.Build())
}
