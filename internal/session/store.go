// Package session holds the authentication state of one storefront client and
// keeps it in step with durable key-value storage.
//
// A Store is either Unauthenticated or Authenticated. Initialize picks the
// starting state from storage; Login moves to (or refreshes) Authenticated;
// Logout returns to Unauthenticated. The in-memory state is authoritative for
// the life of the process. Storage writes are best-effort: a failed write is
// logged and counted but never blocks a transition.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	domainauth "github.com/target/storefront/internal/domain/auth"
	"github.com/target/storefront/internal/observability/metrics"
	"github.com/target/storefront/internal/observability/statsd"
	"github.com/target/storefront/internal/ports"
)

// ErrEmptyToken is returned by Login when the token is empty.
var ErrEmptyToken = errors.New("token cannot be empty")

// Options configures a Store.
type Options struct {
	Storage ports.KeyValueStore // required
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// Store is the single source of truth for who is logged in.
// It is safe for concurrent use.
type Store struct {
	storage ports.KeyValueStore
	logger  *slog.Logger
	metrics statsd.Sink

	// writeMu serializes transitions so storage sees them in the same order
	// as memory. mu guards state and is never held across storage calls.
	writeMu sync.Mutex
	mu      sync.RWMutex
	state   domainauth.Session

	listenersMu sync.Mutex
	listeners   map[int]func(domainauth.Session)
	nextID      int
}

// NewStore constructs an Unauthenticated store. Call Initialize to restore a
// persisted session.
func NewStore(opts Options) (*Store, error) {
	if opts.Storage == nil {
		return nil, errors.New("session storage is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := opts.Metrics
	if sink == nil {
		sink = statsd.Discard
	}
	return &Store{
		storage:   opts.Storage,
		logger:    logger.With("component", "session"),
		metrics:   sink,
		listeners: make(map[int]func(domainauth.Session)),
	}, nil
}

// Initialize restores the session from storage. Both the token and a
// well-formed user must be present; otherwise the store ends up
// Unauthenticated and any stray partial entry is removed. Initialize never
// fails: storage and parse problems degrade to Unauthenticated.
func (s *Store) Initialize(ctx context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	restored, outcome, err := s.restore(ctx)

	s.mu.Lock()
	s.state = restored
	s.mu.Unlock()

	switch outcome {
	case metrics.OutcomeOK, metrics.OutcomeEmpty:
		s.logger.DebugContext(ctx, "session restored", "authenticated", restored.IsAuthenticated())
	default:
		s.logger.WarnContext(ctx, "session restore fell back to unauthenticated", "outcome", outcome, "error", err)
	}
	metrics.EmitSession(s.metrics, metrics.SessionEvent{Transition: "restore", Outcome: outcome, Err: err})
	s.notify(restored)
}

func (s *Store) restore(ctx context.Context) (domainauth.Session, string, error) {
	token, hasToken, err := s.storage.Get(ctx, domainauth.KeyToken)
	if err != nil {
		return domainauth.Session{}, metrics.OutcomeError, err
	}
	rawUser, hasUser, err := s.storage.Get(ctx, domainauth.KeyUser)
	if err != nil {
		return domainauth.Session{}, metrics.OutcomeError, err
	}

	if hasToken && token != "" && hasUser {
		user, decodeErr := domainauth.DecodeUser(rawUser)
		if decodeErr == nil {
			return domainauth.Session{Token: token, User: &user}, metrics.OutcomeOK, nil
		}
		err = decodeErr
	}

	if !hasToken && !hasUser {
		return domainauth.Session{}, metrics.OutcomeEmpty, nil
	}

	// Partial or corrupted entry: clear both keys so the next load starts clean.
	if delErr := s.storage.Delete(ctx, domainauth.KeyToken, domainauth.KeyUser); delErr != nil {
		metrics.EmitPersistError(s.metrics, "repair", delErr)
		err = errors.Join(err, delErr)
	}
	if err == nil {
		err = errors.New("partial session entry")
	}
	return domainauth.Session{}, metrics.OutcomeRepaired, err
}

// Login records token and user as the current session and persists both.
// Calling it while already authenticated overwrites the session.
func (s *Store) Login(ctx context.Context, token string, user domainauth.User) error {
	if token == "" {
		return ErrEmptyToken
	}
	rawUser, err := domainauth.EncodeUser(user)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := domainauth.Session{Token: token, User: &user}
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	outcome := metrics.OutcomeOK
	if err := s.storage.Set(ctx, domainauth.KeyToken, token); err != nil {
		outcome = metrics.OutcomeError
		s.persistFailed(ctx, "set_token", err)
	}
	if err := s.storage.Set(ctx, domainauth.KeyUser, rawUser); err != nil {
		outcome = metrics.OutcomeError
		s.persistFailed(ctx, "set_user", err)
	}

	s.logger.InfoContext(ctx, "logged in", "user_id", user.ID, "username", user.Username)
	metrics.EmitSession(s.metrics, metrics.SessionEvent{Transition: "login", Outcome: outcome})
	s.notify(next)
	return nil
}

// Logout clears the session and removes both storage keys. It is a no-op
// when nobody is logged in, apart from re-issuing the delete.
func (s *Store) Logout(ctx context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	wasAuthenticated := s.state.IsAuthenticated()
	s.state = domainauth.Session{}
	s.mu.Unlock()

	outcome := metrics.OutcomeOK
	if err := s.storage.Delete(ctx, domainauth.KeyToken, domainauth.KeyUser); err != nil {
		outcome = metrics.OutcomeError
		s.persistFailed(ctx, "delete", err)
	}

	if wasAuthenticated {
		s.logger.InfoContext(ctx, "logged out")
	}
	metrics.EmitSession(s.metrics, metrics.SessionEvent{Transition: "logout", Outcome: outcome})
	s.notify(domainauth.Session{})
}

func (s *Store) persistFailed(ctx context.Context, op string, err error) {
	s.logger.WarnContext(ctx, "session storage write failed", "op", op, "error", err)
	metrics.EmitPersistError(s.metrics, op, err)
}

// Snapshot returns a consistent copy of the current session.
func (s *Store) Snapshot() domainauth.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Token returns the current bearer token, or "" when unauthenticated.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// User returns a copy of the current user, or nil when unauthenticated.
func (s *Store) User() *domainauth.User {
	return s.Snapshot().User
}

// IsAuthenticated reports whether a token is held.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsAuthenticated()
}

// Subscribe registers fn to receive the new session after every transition.
// fn runs synchronously on the transitioning goroutine and must not call
// Initialize, Login or Logout. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(domainauth.Session)) (cancel func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			defer s.listenersMu.Unlock()
			delete(s.listeners, id)
		})
	}
}

func (s *Store) notify(sess domainauth.Session) {
	s.listenersMu.Lock()
	fns := make([]func(domainauth.Session), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(sess.Clone())
	}
}
