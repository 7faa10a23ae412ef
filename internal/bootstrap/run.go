package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os/signal"
	"syscall"

	"github.com/target/storefront/config"
	"golang.org/x/sync/errgroup"
)

// RunServerConfig wires the storefront server process.
type RunServerConfig struct {
	Config *config.AppConfig
	Logger *slog.Logger
	// Listener, when set, replaces listening on Config.HTTP.Addr (tests).
	Listener net.Listener
}

// RunServer opens storage, builds services and serves HTTP until SIGINT/SIGTERM
// or ctx is canceled.
func RunServer(ctx context.Context, cfg RunServerConfig) (err error) {
	if cfg.Config == nil {
		return errors.New("server config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := OpenStorage(ctx, StorageDeps{
		Storage: cfg.Config.Storage,
		Redis:   cfg.Config.Redis,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close storage: %w", cerr))
		}
	}()

	services, err := NewServices(ctx, ServiceDeps{Config: cfg.Config, Storage: storage.Store, Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := services.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close services: %w", cerr))
		}
	}()

	server := NewHTTPServer(&HTTPServerConfig{Config: cfg.Config, Services: services, Logger: logger})

	ln := cfg.Listener
	if ln == nil {
		ln, err = (&net.ListenConfig{}).Listen(ctx, "tcp", server.Addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", server.Addr, err)
		}
	}

	logger.InfoContext(ctx, "starting storefront",
		"addr", ln.Addr().String(),
		"storage_backend", cfg.Config.Storage.Backend,
		"shop_api", cfg.Config.ShopAPI.BaseURL,
		"authenticated", services.Session.IsAuthenticated(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ServeHTTP(gctx, server, ln, cfg.Config.HTTP.ShutdownTimeout, logger)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("storefront stopped")
	return nil
}
