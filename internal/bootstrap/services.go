package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/storefront/config"
	"github.com/target/storefront/internal/adapters/shopapi"
	"github.com/target/storefront/internal/observability/statsd"
	"github.com/target/storefront/internal/ports"
	"github.com/target/storefront/internal/session"
)

// ServiceContainer holds the storefront client core shared by every surface.
type ServiceContainer struct {
	Session *session.Store
	ShopAPI *shopapi.Client
	Metrics statsd.Sink

	closers []func() error
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config  *config.AppConfig
	Storage ports.KeyValueStore
	Logger  *slog.Logger
}

// NewServices builds the metrics sink, the shop API client and the session
// store, then restores any persisted session.
func NewServices(ctx context.Context, deps ServiceDeps) (*ServiceContainer, error) {
	if deps.Config == nil {
		return nil, errors.New("service config is required")
	}
	if deps.Storage == nil {
		return nil, errors.New("session storage is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	container := &ServiceContainer{Metrics: statsd.Discard}
	if client := buildMetrics(logger, deps.Config.Observability.Metrics); client != nil {
		container.Metrics = client
		container.closers = append(container.closers, client.Close)
	}

	api, err := shopapi.NewClient(shopapi.Config{
		BaseURL: deps.Config.ShopAPI.BaseURL,
		Timeout: deps.Config.ShopAPI.Timeout,
		Logger:  logger,

		BreakerFailures: deps.Config.ShopAPI.BreakerFailures,
		BreakerCooldown: deps.Config.ShopAPI.BreakerCooldown,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("build shop api client: %w", err), container.Close())
	}
	container.ShopAPI = api

	store, err := session.NewStore(session.Options{
		Storage: deps.Storage,
		Logger:  logger,
		Metrics: container.Metrics,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("build session store: %w", err), container.Close())
	}
	store.Initialize(ctx)
	container.Session = store

	return container, nil
}

// Close releases resources owned by the container.
func (c *ServiceContainer) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// buildMetrics returns nil when metrics are disabled or the sink cannot be
// dialed; emission then falls back to statsd.Discard.
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) *statsd.Client {
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Warn("metrics disabled", "error", err, "address", cfg.StatsdAddress)
		return nil
	}
	logger.Info("metrics enabled", "address", cfg.StatsdAddress, "prefix", cfg.Prefix)
	return client
}
