package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/target/storefront/config"
	"github.com/target/storefront/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger(config.ObservabilityConfig{LogLevel: "info"})
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger = bootstrap.InitLogger(cfg.Observability)

	logger.InfoContext(ctx, "starting storefront service",
		"http_addr", cfg.HTTP.Addr,
		"storage_backend", cfg.Storage.Backend,
		"shop_api", cfg.ShopAPI.BaseURL,
		"dev", cfg.IsDev,
	)

	return bootstrap.RunServer(ctx, bootstrap.RunServerConfig{
		Config: &cfg,
		Logger: logger,
	})
}
