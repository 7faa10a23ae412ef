package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/target/storefront/internal/domain/auth"
	"github.com/target/storefront/internal/observability/statsd"
	"github.com/target/storefront/internal/ports"
	"github.com/target/storefront/internal/session"
)

// SessionService is the slice of the session store the UI drives.
type SessionService interface {
	SessionReader
	Login(ctx context.Context, token string, user domainauth.User) error
	Logout(ctx context.Context)
}

// Compile-time interface assertions to ensure concrete services satisfy their UI interfaces.
var _ SessionService = (*session.Store)(nil)

// defaultConfirmationWait bounds how long the confirmation page waits for the
// order fetch before rendering the loading state.
const defaultConfirmationWait = 15 * time.Second

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T           *TemplateRenderer
	Sessions    SessionService
	Auth        ports.Authenticator
	Fetcher     ports.OrderFetcher
	Lister      ports.OrderLister
	AdminLister ports.AdminOrderLister // Optional: enables /admin/orders
	Metrics     statsd.Sink

	// LoginLimiter throttles POST /login per client; nil disables throttling.
	LoginLimiter *LoginLimiter

	// ConfirmationWait caps the wait for the order fetch; zero means the default.
	ConfirmationWait time.Duration
	Logger           *slog.Logger
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *UIHandlers) confirmationWait() time.Duration {
	if h.ConfirmationWait > 0 {
		return h.ConfirmationWait
	}
	return defaultConfirmationWait
}

// renderPage renders a full page with the given status, falling back to plain text.
func (h *UIHandlers) renderPage(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	if h.T == nil {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if err := h.T.RenderFullStatus(w, status, data); err != nil {
		h.logger().ErrorContext(r.Context(), "failed to render page",
			slog.Any("error", err),
			slog.Any("page", data["CurrentPage"]),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// NotFound renders the 404 page for browsers and a JSON body for API callers.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "not_found",
			Err:     errors.New("not found"),
		})
		return
	}

	data := map[string]any{
		"Title":           "Page Not Found - Storefront",
		"Code":            "404",
		"Message":         "The page you're looking for doesn't exist.",
		"IsAuthenticated": IsAuthenticated(r.Context()),
		"ShowLogin":       !IsAuthenticated(r.Context()),
	}
	if h.T == nil {
		http.Error(w, "Page not found", http.StatusNotFound)
		return
	}
	if err := h.T.RenderError(w, http.StatusNotFound, data); err != nil {
		http.Error(w, "Page not found", http.StatusNotFound)
	}
}
