package httpx

import (
	"bytes"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	storefront "github.com/target/storefront"
	"github.com/target/storefront/internal/observability/statsd"
	"github.com/target/storefront/internal/ports"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Sessions    SessionService
	Auth        ports.Authenticator
	Orders      ports.OrderFetcher
	Lister      ports.OrderLister
	AdminLister ports.AdminOrderLister // Optional
	Metrics     statsd.Sink

	LoginLimiter *LoginLimiter // Optional

	// Optional: overrides the embedded/disk template lookup (tests).
	TemplateFS       fs.FS
	ConfirmationWait time.Duration
	IsDev            bool         // Development mode flag for template hot reloading
	Logger           *slog.Logger // Logger for template and HTTP errors (optional)
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ui := &UIHandlers{
		T:                setupRenderer(services, logger),
		Sessions:         services.Sessions,
		Auth:             services.Auth,
		Fetcher:          services.Orders,
		Lister:           services.Lister,
		AdminLister:      services.AdminLister,
		Metrics:          services.Metrics,
		LoginLimiter:     services.LoginLimiter,
		ConfirmationWait: services.ConfirmationWait,
		Logger:           logger,
	}

	mux.Handle("GET /healthz", healthHandler(services.Sessions))
	mux.Handle("HEAD /healthz", healthHandler(services.Sessions))
	mux.HandleFunc("GET /api/session", ui.SessionJSON)
	registerUIRoutes(mux, ui)

	handler := &notFoundHandler{mux: mux, uiHandlers: ui}

	// Order: CSRF -> Session snapshot -> router
	return CSRFProtection()(WithSession(services.Sessions)(handler))
}

func registerUIRoutes(mux *http.ServeMux, ui *UIHandlers) {
	requireAuth := RequireAuthBrowser()
	requireStaff := RequireStaffBrowser()

	mux.HandleFunc("GET /login", ui.LoginPage)
	mux.HandleFunc("POST /login", ui.LoginSubmit)
	mux.HandleFunc("POST /logout", ui.Logout)

	// Without a session the page itself reports "Order not found"; no redirect.
	mux.HandleFunc("GET /orders/{orderId}/confirmation", ui.OrderConfirmation)

	mux.Handle("GET /{$}", requireAuth(http.HandlerFunc(ui.Orders)))
	mux.Handle("GET /orders", requireAuth(http.HandlerFunc(ui.Orders)))
	mux.Handle("GET /admin/orders", requireStaff(http.HandlerFunc(ui.AdminOrders)))
}

// setupRenderer chooses the template filesystem.
// In dev mode, templates are loaded from disk for hot reloading.
// In production mode, templates are loaded from the embedded FS.
func setupRenderer(services RouterServices, logger *slog.Logger) *TemplateRenderer {
	templateFS := services.TemplateFS
	if templateFS == nil {
		if services.IsDev {
			templateFS = os.DirFS(TemplatePathFromRoot)
		} else {
			sub, err := fs.Sub(storefront.TemplateFS, TemplatePathFromRoot)
			if err != nil {
				logger.Error("failed to create sub-filesystem for templates; falling back to disk", slog.Any("error", err))
				sub = os.DirFS(TemplatePathFromRoot)
			}
			templateFS = sub
		}
	}

	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS,
		DevMode:    services.IsDev,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to create template renderer", slog.Any("error", err))
		return nil
	}
	return tr
}

// notFoundHandler wraps a ServeMux and provides custom 404 handling.
type notFoundHandler struct {
	mux        *http.ServeMux
	uiHandlers *UIHandlers
}

// ServeHTTP implements http.Handler and provides custom 404 handling.
func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only unmatched routes are buffered; matched handlers write straight through.
	if _, pattern := h.mux.Handler(r); pattern != "" {
		h.mux.ServeHTTP(w, r)
		return
	}

	cw := newCaptureWriter()
	h.mux.ServeHTTP(cw, r)
	if cw.status == http.StatusNotFound && h.uiHandlers != nil {
		h.uiHandlers.NotFound(w, r)
		return
	}
	cw.flushTo(w, h.uiHandlers.logger())
}

// captureWriter buffers headers, status and body so we can decide post-dispatch.
type captureWriter struct {
	header http.Header
	status int
	buf    bytes.Buffer
}

func newCaptureWriter() *captureWriter {
	return &captureWriter{header: make(http.Header), status: http.StatusOK}
}

func (c *captureWriter) Header() http.Header         { return c.header }
func (c *captureWriter) WriteHeader(code int)        { c.status = code }
func (c *captureWriter) Write(b []byte) (int, error) { return c.buf.Write(b) }

func (c *captureWriter) flushTo(w http.ResponseWriter, logger *slog.Logger) {
	for k, vs := range c.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(c.status)
	if _, err := w.Write(c.buf.Bytes()); err != nil {
		logger.Error("failed to write captured response", slog.Any("error", err))
	}
}
