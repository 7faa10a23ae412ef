package config

import "time"

// DefaultHTTPAddr keeps the server on the loopback interface.
const DefaultHTTPAddr = "127.0.0.1:8080"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to. It defaults to loopback:
	// the server acts for one signed-in shopper, so every client that can reach
	// it sees that shopper's orders. Bind wider only behind an authenticating proxy.
	Addr string `env:"HTTP_ADDR" envDefault:"127.0.0.1:8080"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Sign-in attempts allowed per client address per minute, and the burst.
	LoginRatePerMinute float64 `env:"HTTP_LOGIN_RATE_PER_MINUTE" envDefault:"10"`
	LoginBurst         int     `env:"HTTP_LOGIN_BURST"           envDefault:"5"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	// Guard against empty addr to avoid listening on Go default
	if h.Addr == "" {
		h.Addr = DefaultHTTPAddr
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 10 * time.Second
	}
	if h.LoginRatePerMinute <= 0 {
		h.LoginRatePerMinute = 10
	}
	if h.LoginBurst <= 0 {
		h.LoginBurst = 5
	}
}
