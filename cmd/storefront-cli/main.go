package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/target/storefront/config"
	"github.com/target/storefront/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx      context.Context
	Logger   *slog.Logger
	Config   config.AppConfig
	Services *bootstrap.ServiceContainer
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
}

// errUsage marks argument errors; main exits with status 2 for them.
var errUsage = errors.New("usage error")

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)) //nolint:forbidigo // CLI must propagate exit status to callers
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		_ = printUsage(stderr)
		return 2
	}

	cmdName := args[0]
	cmd, ok := commands()[cmdName]
	if !ok {
		_ = writef(stderr, "unknown command %q\n\n", cmdName)
		_ = printUsage(stderr)
		return 2
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		_ = writef(stderr, "load config: %v\n", err)
		return 1
	}
	// Logs go to stderr so they never mix with command output.
	logger := bootstrap.NewLogger(stderr, cfg.Observability)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.OpenStorage(ctx, bootstrap.StorageDeps{
		Storage: cfg.Storage,
		Redis:   cfg.Redis,
		Logger:  logger,
	})
	if err != nil {
		logger.ErrorContext(ctx, "open session storage", "error", err)
		return 1
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.WarnContext(ctx, "close session storage", "error", cerr)
		}
	}()

	services, err := bootstrap.NewServices(ctx, bootstrap.ServiceDeps{
		Config:  &cfg,
		Storage: storage.Store,
		Logger:  logger,
	})
	if err != nil {
		logger.ErrorContext(ctx, "build services", "error", err)
		return 1
	}
	defer func() {
		if cerr := services.Close(); cerr != nil {
			logger.WarnContext(ctx, "close services", "error", cerr)
		}
	}()

	cmdCtx := &commandContext{
		Ctx:      ctx,
		Logger:   logger,
		Config:   cfg,
		Services: services,
		Stdin:    stdin,
		Stdout:   stdout,
		Stderr:   stderr,
	}
	return exitCode(cmdCtx, cmdName, cmd.run(cmdCtx, args[1:]))
}

func exitCode(cmdCtx *commandContext, name string, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		_ = writef(cmdCtx.Stderr, "%v\n", err)
		return 2
	default:
		_ = writef(cmdCtx.Stderr, "%s: %v\n", name, err)
		return 1
	}
}

func commands() map[string]command {
	return map[string]command{
		"login": {
			name:        "login",
			description: "Sign in to the shop and persist the session",
			run:         runLogin,
		},
		"logout": {
			name:        "logout",
			description: "Clear the persisted session",
			run:         runLogout,
		},
		"whoami": {
			name:        "whoami",
			description: "Show the signed-in user",
			run:         runWhoami,
		},
		"order": {
			name:        "order",
			description: "Show the confirmation for an order: order <id>",
			run:         runOrder,
		},
		"orders": {
			name:        "orders",
			description: "List your orders (--all lists every order, staff only)",
			run:         runOrders,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: storefront-cli <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-10s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func writeln(w io.Writer, line string) error {
	return writef(w, "%s\n", line)
}
