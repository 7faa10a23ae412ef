package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/storefront/config"
	"github.com/target/storefront/internal/adapters/kvstore"
	"github.com/target/storefront/internal/adapters/redis"
	domainauth "github.com/target/storefront/internal/domain/auth"
	"github.com/target/storefront/internal/requestid"
)

func TestNewLogger_LevelAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, config.ObservabilityConfig{LogLevel: "warn", LogFormat: "json"})

	ctx := requestid.WithID(context.Background(), "rid-7")
	logger.InfoContext(ctx, "dropped")
	logger.WarnContext(ctx, "kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "rid-7", entry["request_id"])
}

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, config.ObservabilityConfig{LogLevel: "debug", LogFormat: "text"})

	logger.Debug("hello", "k", "v")

	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "k=v")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestOpenStorage_Memory(t *testing.T) {
	st, err := OpenStorage(context.Background(), StorageDeps{
		Storage: config.StorageConfig{Backend: config.StorageBackendMemory},
	})
	require.NoError(t, err)
	assert.IsType(t, &kvstore.MemoryStore{}, st.Store)
	assert.NoError(t, st.Close())
}

func TestOpenStorage_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	st, err := OpenStorage(context.Background(), StorageDeps{
		Storage: config.StorageConfig{Backend: config.StorageBackendFile, FilePath: path},
	})
	require.NoError(t, err)

	fs, ok := st.Store.(*kvstore.FileStore)
	require.True(t, ok)
	assert.Equal(t, path, fs.Path())
}

func TestOpenStorage_RedisDialsFromConfig(t *testing.T) {
	mr := miniredis.RunT(t)

	st, err := OpenStorage(context.Background(), StorageDeps{
		Storage: config.StorageConfig{Backend: config.StorageBackendRedis, KeyPrefix: "tab:"},
		Redis:   config.RedisConfig{URI: mr.Addr()},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	assert.IsType(t, &redis.KVStore{}, st.Store)
	require.NoError(t, st.Store.Set(context.Background(), domainauth.KeyToken, "abc"))
	got, err := mr.Get("tab:token")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}

func TestOpenStorage_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := OpenStorage(context.Background(), StorageDeps{
		Storage: config.StorageConfig{Backend: config.StorageBackendRedis},
		Redis:   config.RedisConfig{URI: addr},
	})
	assert.Error(t, err)
}

func TestOpenStorage_Unsupported(t *testing.T) {
	_, err := OpenStorage(context.Background(), StorageDeps{
		Storage: config.StorageConfig{Backend: "sqlite"},
	})
	assert.Error(t, err)
}

func TestConnectRedis_URL(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), RedisConnectConfig{
		RedisConfig: config.RedisConfig{URI: "redis://" + mr.Addr() + "/0"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestConnectRedis_ConfigErrors(t *testing.T) {
	_, err := ConnectRedis(context.Background(), RedisConnectConfig{
		RedisConfig: config.RedisConfig{UseSentinel: true, SentinelNodes: []string{" "}},
	})
	assert.ErrorContains(t, err, "sentinel")

	_, err = ConnectRedis(context.Background(), RedisConnectConfig{
		RedisConfig: config.RedisConfig{UseCluster: true},
	})
	assert.ErrorContains(t, err, "cluster")

	_, err = ConnectRedis(context.Background(), RedisConnectConfig{
		RedisConfig: config.RedisConfig{URI: "  "},
	})
	assert.ErrorContains(t, err, "URI")
}

func TestRedactAddr(t *testing.T) {
	redacted := redactAddr("redis://user:pw@cache:6379/0")
	assert.NotContains(t, redacted, "pw")
	assert.NotContains(t, redacted, "user")
	assert.Contains(t, redacted, "cache:6379")
	assert.Equal(t, "cache:6379", redactAddr("cache:6379"))
	assert.Equal(t, "sentinel:mymaster", redactAddr("sentinel:mymaster"))
}

func TestClusterFallbackFromURI(t *testing.T) {
	addr, user, pass, tlsCfg, err := clusterFallbackFromURI("rediss://bob:pw@cache:7000", "default")
	require.NoError(t, err)
	assert.Equal(t, "cache:7000", addr)
	assert.Equal(t, "bob", user)
	assert.Equal(t, "pw", pass)
	assert.NotNil(t, tlsCfg)

	addr, _, pass, _, err = clusterFallbackFromURI("cache:7000", "default")
	require.NoError(t, err)
	assert.Equal(t, "cache:7000", addr)
	assert.Equal(t, "default", pass)
}

func testConfig() *config.AppConfig {
	cfg := &config.AppConfig{
		Storage: config.StorageConfig{Backend: config.StorageBackendMemory},
		ShopAPI: config.ShopAPIConfig{BaseURL: "http://shop.invalid", Timeout: time.Second},
	}
	cfg.Sanitize()
	return cfg
}

func TestNewServices_RestoresSession(t *testing.T) {
	raw, err := domainauth.EncodeUser(domainauth.User{ID: 3, Username: "cat", Email: "cat@example.com"})
	require.NoError(t, err)
	kv := kvstore.NewMemoryStoreWith(map[string]string{
		domainauth.KeyToken: "persisted",
		domainauth.KeyUser:  raw,
	})

	services, err := NewServices(context.Background(), ServiceDeps{Config: testConfig(), Storage: kv})
	require.NoError(t, err)
	t.Cleanup(func() { _ = services.Close() })

	assert.True(t, services.Session.IsAuthenticated())
	assert.Equal(t, "persisted", services.Session.Token())
	assert.NotNil(t, services.ShopAPI)
	assert.NotNil(t, services.Metrics)
}

func TestNewServices_Errors(t *testing.T) {
	_, err := NewServices(context.Background(), ServiceDeps{Storage: kvstore.NewMemoryStore()})
	assert.Error(t, err)

	_, err = NewServices(context.Background(), ServiceDeps{Config: testConfig()})
	assert.Error(t, err)

	cfg := testConfig()
	cfg.ShopAPI.BaseURL = "ftp://shop"
	_, err = NewServices(context.Background(), ServiceDeps{Config: cfg, Storage: kvstore.NewMemoryStore()})
	assert.Error(t, err)
}

func TestRunServer_ServesUntilCanceled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunServer(ctx, RunServerConfig{
			Config:   testConfig(),
			Logger:   slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
			Listener: ln,
		})
	}()

	url := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url) //nolint:noctx // test helper
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK && resp.Header.Get(requestid.Header) != ""
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestNewHTTPServer_DefaultsToLoopback(t *testing.T) {
	srv := NewHTTPServer(&HTTPServerConfig{
		Config:   &config.AppConfig{},
		Services: &ServiceContainer{},
		Logger:   slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	})
	require.NotNil(t, srv)
	assert.Equal(t, config.DefaultHTTPAddr, srv.Addr)

	host, _, err := net.SplitHostPort(srv.Addr)
	require.NoError(t, err)
	assert.True(t, net.ParseIP(host).IsLoopback())
}
