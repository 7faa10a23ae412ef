// Package shopapi is an HTTP client for the shop REST API: token login and
// order retrieval on behalf of the logged-in user.
package shopapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"

	domainauth "github.com/target/storefront/internal/domain/auth"
	"github.com/target/storefront/internal/domain/order"
	apperrors "github.com/target/storefront/internal/errors"
	"github.com/target/storefront/internal/ports"
	"github.com/target/storefront/internal/requestid"
)

var (
	// ErrOrderFetch wraps every failure to retrieve orders: transport,
	// authorization, missing order or a malformed response.
	ErrOrderFetch = errors.New("order fetch failed")
	// ErrInvalidCredentials is returned by Login when the API rejects the credentials.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const (
	maxErrorBody = 4 << 10

	defaultBreakerFailures = 5
	defaultBreakerCooldown = 30 * time.Second
)

// Config captures the shop API connection settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
	Logger  *slog.Logger

	// BreakerFailures is the number of consecutive upstream failures that
	// opens the circuit. BreakerCooldown is how long it stays open.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Client talks to the shop API. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	client  *http.Client
	logger  *slog.Logger
	group   singleflight.Group
	breaker *gobreaker.CircuitBreaker
}

var (
	_ ports.OrderFetcher  = (*Client)(nil)
	_ ports.OrderLister   = (*Client)(nil)
	_ ports.Authenticator = (*Client)(nil)
)

// NewClient builds a client. BaseURL must be an absolute http(s) URL.
func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("shop api base url is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse shop api base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("shop api base url must be http(s): %q", raw)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With("component", "shopapi")

	return &Client{
		baseURL: base,
		client:  hc,
		logger:  logger,
		breaker: newBreaker(cfg, logger),
	}, nil
}

func newBreaker(cfg Config, logger *slog.Logger) *gobreaker.CircuitBreaker {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = defaultBreakerFailures
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = defaultBreakerCooldown
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "shopapi",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: countsAsHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
}

// countsAsHealthy reports whether err still proves the API is up. Answers
// such as 404 or 401 and caller cancellations do not trip the breaker.
func countsAsHealthy(err error) bool {
	if err == nil {
		return true
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Code {
	case apperrors.ErrCodeNotFound, apperrors.ErrCodeUnauthorized,
		apperrors.ErrCodeValidation, apperrors.ErrCodeCanceled:
		return true
	default:
		return false
	}
}

// BreakerState exposes the circuit state for diagnostics and tests.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string          `json:"token"`
	User  domainauth.User `json:"user"`
}

// Login exchanges a username and password for a token and user record.
func (c *Client) Login(ctx context.Context, username, password string) (ports.LoginResult, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return ports.LoginResult{}, fmt.Errorf("encode login request: %w", err)
	}

	var out loginResponse
	status, err := c.do(ctx, request{method: http.MethodPost, path: "api/auth/login/", body: body}, &out)
	if err != nil {
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			return ports.LoginResult{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return ports.LoginResult{}, fmt.Errorf("login: %w", err)
	}
	if out.Token == "" {
		return ports.LoginResult{}, apperrors.New(apperrors.ErrCodeUnavailable, "login response carried no token")
	}
	return ports.LoginResult{Token: out.Token, User: out.User}, nil
}

// GetOrder fetches one order. Concurrent calls for the same token and order
// share a single request; a caller whose context ends stops waiting without
// cancelling the shared request.
func (c *Client) GetOrder(ctx context.Context, token string, orderID int64) (order.Order, error) {
	key := token + "|" + strconv.FormatInt(orderID, 10)
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		var o order.Order
		_, err := c.do(detached, request{
			method: http.MethodGet,
			path:   "api/orders/" + strconv.FormatInt(orderID, 10) + "/",
			token:  token,
		}, &o)
		return o, err
	})

	select {
	case <-ctx.Done():
		return order.Order{}, fmt.Errorf("%w: %w", ErrOrderFetch,
			apperrors.Wrapf(ctx.Err(), apperrors.ErrCodeCanceled, "get order %d", orderID))
	case res := <-ch:
		if res.Err != nil {
			return order.Order{}, fmt.Errorf("%w: get order %d: %w", ErrOrderFetch, orderID, res.Err)
		}
		o, _ := res.Val.(order.Order)
		return o, nil
	}
}

// ListOrders returns the orders that belong to the token holder.
func (c *Client) ListOrders(ctx context.Context, token string) ([]order.Order, error) {
	return c.list(ctx, token, "api/orders/")
}

// ListAllOrders returns every order in the shop. The API only allows staff users.
func (c *Client) ListAllOrders(ctx context.Context, token string) ([]order.Order, error) {
	return c.list(ctx, token, "api/admin/orders/")
}

func (c *Client) list(ctx context.Context, token, path string) ([]order.Order, error) {
	var out []order.Order
	if _, err := c.do(ctx, request{method: http.MethodGet, path: path, token: token}, &out); err != nil {
		return nil, fmt.Errorf("%w: list orders: %w", ErrOrderFetch, err)
	}
	if out == nil {
		out = []order.Order{}
	}
	return out, nil
}

type request struct {
	method string
	path   string
	token  string
	body   []byte
}

// do runs the request through the circuit breaker. While the circuit is open
// calls fail fast with an unavailable AppError.
func (c *Client) do(ctx context.Context, in request, dst any) (int, error) {
	var status int
	_, err := c.breaker.Execute(func() (any, error) {
		var rtErr error
		status, rtErr = c.roundTrip(ctx, in, dst)
		return nil, rtErr
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return 0, apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "shop api circuit open")
	}
	return status, err
}

// roundTrip performs the request and decodes a 2xx JSON body into dst. It
// returns the HTTP status (0 when no response arrived) and an AppError on failure.
func (c *Client) roundTrip(ctx context.Context, in request, dst any) (int, error) {
	target := c.baseURL.ResolveReference(&url.URL{Path: in.path})

	var reader io.Reader
	if in.body != nil {
		reader = bytes.NewReader(in.body)
	}
	req, err := http.NewRequestWithContext(ctx, in.method, target.String(), reader)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrCodeInternal, "build shop api request")
	}
	req.Header.Set("Accept", "application/json")
	if in.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if in.token != "" {
		req.Header.Set("Authorization", "Token "+in.token)
	}
	_, reqID := requestid.Ensure(ctx)
	req.Header.Set(requestid.Header, reqID)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, transportError(ctx, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	c.logger.DebugContext(ctx, "shop api call",
		"method", in.method,
		"path", target.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return resp.StatusCode, apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "decode shop api response")
	}
	return resp.StatusCode, nil
}

func transportError(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return apperrors.Wrap(err, apperrors.ErrCodeCanceled, "shop api request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(err, apperrors.ErrCodeTimeout, "shop api request timed out")
	default:
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "shop api request failed")
	}
}

func statusError(resp *http.Response) error {
	detail := readErrorDetail(resp.Body)
	msg := fmt.Sprintf("shop api returned %d", resp.StatusCode)
	if detail != "" {
		msg += ": " + detail
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return apperrors.New(apperrors.ErrCodeNotFound, msg)
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.New(apperrors.ErrCodeUnauthorized, msg)
	case http.StatusBadRequest:
		return apperrors.New(apperrors.ErrCodeValidation, msg)
	default:
		return apperrors.New(apperrors.ErrCodeUnavailable, msg)
	}
}

// readErrorDetail pulls a human-readable reason out of a DRF-style error body.
func readErrorDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return ""
}
