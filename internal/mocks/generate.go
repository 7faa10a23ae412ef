// Package mocks provides gomock implementations of the storefront ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the port interfaces.
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	kv := mocks.NewMockKeyValueStore(ctrl)
//	kv.EXPECT().Get(gomock.Any(), "token").Return("", false, nil)
package mocks

// Generate mock for KeyValueStore interface from internal/ports package.
// This creates MockKeyValueStore with methods: Get, Set, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=key_value_store_mock.go github.com/target/storefront/internal/ports KeyValueStore

// Generate mock for OrderFetcher interface from internal/ports package.
// This creates MockOrderFetcher with methods: GetOrder
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=order_fetcher_mock.go github.com/target/storefront/internal/ports OrderFetcher

// Generate mock for Authenticator interface from internal/ports package.
// This creates MockAuthenticator with methods: Login
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=authenticator_mock.go github.com/target/storefront/internal/ports Authenticator
