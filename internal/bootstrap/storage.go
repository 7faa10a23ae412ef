package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
	"github.com/target/storefront/config"
	"github.com/target/storefront/internal/adapters/kvstore"
	"github.com/target/storefront/internal/adapters/redis"
	"github.com/target/storefront/internal/ports"
)

// StorageDeps groups what OpenStorage needs to build the session backend.
type StorageDeps struct {
	Storage config.StorageConfig
	Redis   config.RedisConfig
	Logger  *slog.Logger

	// RedisClient, when set, is used instead of dialing Redis.
	RedisClient goredis.UniversalClient
}

// Storage is an opened session backend and the function that releases it.
type Storage struct {
	Store ports.KeyValueStore
	Close func() error
}

// OpenStorage builds the durable key-value store selected by STORAGE_BACKEND.
func OpenStorage(ctx context.Context, deps StorageDeps) (Storage, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	noop := func() error { return nil }

	switch deps.Storage.Backend {
	case config.StorageBackendMemory:
		logger.WarnContext(ctx, "session storage is in-memory; sessions will not survive restarts")
		return Storage{Store: kvstore.NewMemoryStore(), Close: noop}, nil

	case config.StorageBackendRedis:
		client := deps.RedisClient
		closeFn := noop
		if client == nil {
			var err error
			client, err = ConnectRedis(ctx, RedisConnectConfig{RedisConfig: deps.Redis, Logger: logger})
			if err != nil {
				return Storage{}, fmt.Errorf("connect redis: %w", err)
			}
			closeFn = client.Close
		}
		store := redis.NewKVStoreWithPrefix(client, deps.Storage.KeyPrefix)
		logger.InfoContext(ctx, "session storage ready", "backend", "redis", "prefix", deps.Storage.KeyPrefix)
		return Storage{Store: store, Close: closeFn}, nil

	case config.StorageBackendFile, "":
		path := deps.Storage.FilePath
		if path == "" {
			path = config.DefaultSessionFile()
		}
		store, err := kvstore.NewFileStore(path)
		if err != nil {
			return Storage{}, fmt.Errorf("open session file: %w", err)
		}
		logger.InfoContext(ctx, "session storage ready", "backend", "file", "path", store.Path())
		return Storage{Store: store, Close: noop}, nil

	default:
		return Storage{}, fmt.Errorf("unsupported storage backend %q", deps.Storage.Backend)
	}
}
