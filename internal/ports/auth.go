package ports

// Package ports defines interfaces (hexagonal ports) for the storefront client.
// Implementations live in internal/adapters; orchestration in internal/session
// and internal/confirmation.

import (
	"context"

	domainauth "github.com/target/storefront/internal/domain/auth"
)

// LoginResult is what the shop API hands back for valid credentials.
type LoginResult struct {
	Token string
	User  domainauth.User
}

// Authenticator exchanges credentials for a bearer token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (LoginResult, error)
}

// KeyValueStore is the durable string-keyed storage that backs the session.
// Get reports ok=false for a missing key; that is not an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}
