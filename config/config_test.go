package config

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.HTTP.Addr != "127.0.0.1:8080" {
		t.Errorf("HTTP.Addr = %q, want 127.0.0.1:8080", cfg.HTTP.Addr)
	}
	if cfg.Storage.Backend != StorageBackendFile {
		t.Errorf("Storage.Backend = %q, want file", cfg.Storage.Backend)
	}
	if filepath.Base(cfg.Storage.FilePath) != "session.json" {
		t.Errorf("Storage.FilePath = %q, want .../session.json", cfg.Storage.FilePath)
	}
	if cfg.Storage.KeyPrefix != "storefront:" {
		t.Errorf("Storage.KeyPrefix = %q", cfg.Storage.KeyPrefix)
	}
	if cfg.ShopAPI.BaseURL != "http://localhost:8000" || cfg.ShopAPI.Timeout != 10*time.Second {
		t.Errorf("unexpected ShopAPI config: %#v", cfg.ShopAPI)
	}
	if cfg.ShopAPI.BreakerFailures != 5 || cfg.ShopAPI.BreakerCooldown != 30*time.Second {
		t.Errorf("unexpected ShopAPI breaker config: %#v", cfg.ShopAPI)
	}
	if cfg.Observability.Metrics.IsEnabled() {
		t.Error("metrics should be disabled by default")
	}
}

func TestAppConfig_ParseStorageEnv(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "REDIS")
	t.Setenv("STORAGE_KEY_PREFIX", "tab-1:")
	t.Setenv("REDIS_URI", "redis://cache:6379/2")
	t.Setenv("REDIS_CLUSTER_NODES", "a:7000,b:7001")
	t.Setenv("REDIS_USE_CLUSTER", "true")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}

	if cfg.Storage.Backend != StorageBackendRedis {
		t.Fatalf("Storage.Backend = %q, want redis", cfg.Storage.Backend)
	}
	if cfg.Storage.KeyPrefix != "tab-1:" {
		t.Fatalf("Storage.KeyPrefix = %q", cfg.Storage.KeyPrefix)
	}
	expected := []string{"a:7000", "b:7001"}
	if !reflect.DeepEqual(cfg.Redis.ClusterNodes, expected) || !cfg.Redis.UseCluster {
		t.Fatalf("unexpected redis config: %#v", cfg.Redis)
	}
}

func TestStorageBackend_Invalid(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "sqlite")

	var cfg AppConfig
	if err := env.Parse(&cfg); err == nil {
		t.Fatal("expected error for invalid storage backend")
	}
}

func TestAppConfig_Sanitize(t *testing.T) {
	cfg := AppConfig{
		HTTP:    HTTPConfig{},
		ShopAPI: ShopAPIConfig{BaseURL: " http://shop.local/ ", Timeout: -1},
		Observability: ObservabilityConfig{
			LogLevel:  "LOUD",
			LogFormat: "xml",
			Metrics:   ObservabilityMetricsConfig{Enabled: true, StatsdAddress: "  "},
		},
	}
	cfg.Sanitize()

	if cfg.HTTP.Addr != "127.0.0.1:8080" || cfg.HTTP.ShutdownTimeout != 10*time.Second {
		t.Errorf("unexpected HTTP config: %#v", cfg.HTTP)
	}
	if cfg.HTTP.LoginRatePerMinute != 10 || cfg.HTTP.LoginBurst != 5 {
		t.Errorf("unexpected login throttle: %#v", cfg.HTTP)
	}
	if cfg.ShopAPI.BaseURL != "http://shop.local" || cfg.ShopAPI.Timeout != 10*time.Second {
		t.Errorf("unexpected ShopAPI config: %#v", cfg.ShopAPI)
	}
	if cfg.ShopAPI.BreakerFailures != 5 || cfg.ShopAPI.BreakerCooldown != 30*time.Second {
		t.Errorf("unexpected ShopAPI breaker config: %#v", cfg.ShopAPI)
	}
	if cfg.Observability.LogLevel != "info" || cfg.Observability.LogFormat != "json" {
		t.Errorf("unexpected log config: %#v", cfg.Observability)
	}
	if cfg.Observability.Metrics.IsEnabled() {
		t.Error("metrics without an address must be disabled")
	}
	if cfg.Observability.Metrics.Prefix != "storefront" {
		t.Errorf("Metrics.Prefix = %q", cfg.Observability.Metrics.Prefix)
	}
	if cfg.Storage.Backend != StorageBackendFile || cfg.Storage.FilePath == "" {
		t.Errorf("unexpected storage config: %#v", cfg.Storage)
	}
}

func TestAppConfig_DevModeFromNodeEnv(t *testing.T) {
	t.Setenv("NODE_ENV", "development")

	cfg := AppConfig{Observability: ObservabilityConfig{LogLevel: "info"}}
	cfg.Sanitize()

	if !cfg.IsDev {
		t.Fatal("expected dev mode from NODE_ENV")
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Fatalf("dev mode should raise log level to debug, got %q", cfg.Observability.LogLevel)
	}
}
