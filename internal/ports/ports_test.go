package ports_test

import (
	"testing"

	"github.com/target/storefront/internal/adapters/kvstore"
	"github.com/target/storefront/internal/adapters/redis"
	"github.com/target/storefront/internal/adapters/shopapi"
	"github.com/target/storefront/internal/mocks"
	"github.com/target/storefront/internal/ports"
)

// This test only verifies that adapters and mocks conform to the ports at compile time.
func TestAdaptersImplementPorts(t *testing.T) {
	t.Helper()

	var _ ports.KeyValueStore = (*kvstore.MemoryStore)(nil)
	var _ ports.KeyValueStore = (*kvstore.FileStore)(nil)
	var _ ports.KeyValueStore = (*redis.KVStore)(nil)
	var _ ports.KeyValueStore = (*mocks.MockKeyValueStore)(nil)
	var _ ports.OrderFetcher = (*shopapi.Client)(nil)
	var _ ports.OrderFetcher = (*mocks.MockOrderFetcher)(nil)
	var _ ports.OrderLister = (*shopapi.Client)(nil)
	var _ ports.AdminOrderLister = (*shopapi.Client)(nil)
	var _ ports.Authenticator = (*shopapi.Client)(nil)
	var _ ports.Authenticator = (*mocks.MockAuthenticator)(nil)
}
