// Package session holds the current signed-in identity and owns the
// persisted bearer token it was derived from.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afiatamanna06/csedu-web-sub001/internal/auth"
	"github.com/afiatamanna06/csedu-web-sub001/internal/domain"
	"github.com/afiatamanna06/csedu-web-sub001/internal/events"
	apperrors "github.com/afiatamanna06/csedu-web-sub001/pkg/util"
)

// DefaultKey is the storage key used when none is configured.
const DefaultKey = "token"

// Store is the session store. Only the Store reads or writes the persisted
// token; everything else asks it for the identity or the bearer token.
type Store struct {
	storage    TokenStorage
	key        string
	sessionID  string
	decoder    *auth.Decoder
	now        func() time.Time
	logger     *zap.Logger
	dispatcher events.Dispatcher

	// writeMu serializes storage writes with the in-memory update so the
	// persisted token and the identity always describe the same token.
	writeMu sync.Mutex

	mu            sync.RWMutex
	initialized   bool
	identity      domain.Identity
	token         string
	expiresAt     time.Time
	lastDecodeErr error

	ready     chan struct{}
	readyOnce sync.Once
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithSessionID tags events and log lines with a browser session id.
func WithSessionID(id string) Option {
	return func(s *Store) { s.sessionID = id }
}

// WithDecoder overrides the token decoder.
func WithDecoder(d *auth.Decoder) Option {
	return func(s *Store) { s.decoder = d }
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDispatcher publishes session lifecycle events.
func WithDispatcher(d events.Dispatcher) Option {
	return func(s *Store) {
		if d != nil {
			s.dispatcher = d
		}
	}
}

// NewStore builds an uninitialized store over storage.
func NewStore(storage TokenStorage, opts ...Option) *Store {
	s := &Store{
		storage:    storage,
		key:        DefaultKey,
		now:        time.Now,
		logger:     zap.NewNop(),
		dispatcher: events.Nop{},
		ready:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.decoder == nil {
		s.decoder = auth.NewDecoder(s.now)
	}
	return s
}

// Initialize loads the persisted token. A token that fails to decode or has
// expired is removed and the store stays unauthenticated; that is not an
// error. Only a storage failure is returned, and the store is still marked
// ready (unauthenticated) in that case.
func (s *Store) Initialize(ctx context.Context) error {
	defer s.markReady()

	reason, err := s.load(ctx)
	if err != nil {
		return fmt.Errorf("initialize session: %w", err)
	}
	if reason != "" {
		s.publish(ctx, events.EventSessionDiscarded, domain.Identity{}, events.DiscardedPayload{Reason: reason})
	}
	return nil
}

// load reads and validates the persisted token. It returns the discard
// reason when a stored token was dropped.
func (s *Store) load(ctx context.Context) (string, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	token, found, err := s.storage.Get(ctx, s.key)
	if err != nil {
		s.reset(nil)
		s.logger.Warn("read persisted token", zap.String("session_id", s.sessionID), zap.Error(err))
		return "", err
	}
	if !found {
		s.reset(nil)
		return "", nil
	}

	claims, err := s.decoder.Decode(token)
	if err != nil {
		s.reset(err)
		reason := "unknown"
		if decodeErr, ok := auth.IsDecodeError(err); ok {
			reason = string(decodeErr.Reason)
		}
		s.logger.Info("discarding persisted token",
			zap.String("session_id", s.sessionID),
			zap.String("reason", reason),
			zap.Error(err))
		if delErr := s.storage.Delete(ctx, s.key); delErr != nil {
			s.logger.Warn("remove discarded token", zap.String("session_id", s.sessionID), zap.Error(delErr))
		}
		return reason, nil
	}

	s.mu.Lock()
	s.initialized = true
	s.identity = claims.Identity()
	s.token = token
	s.expiresAt = claims.Expiry()
	s.lastDecodeErr = nil
	s.mu.Unlock()
	return "", nil
}

// Ready is closed once Initialize has completed at least once.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Current returns the signed-in identity. The second result is false when
// nobody is signed in or the held token has expired since it was loaded.
func (s *Store) Current() (domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || !s.expiresAt.After(s.now()) {
		return domain.Identity{}, false
	}
	return s.identity, true
}

// BearerToken returns the held token for authenticated API calls.
func (s *Store) BearerToken() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || !s.expiresAt.After(s.now()) {
		return "", apperrors.NewNotAuthenticated()
	}
	return s.token, nil
}

// LastDecodeError returns the *auth.DecodeError recorded by the most
// recent Initialize, or nil.
func (s *Store) LastDecodeError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastDecodeErr
}

// Establish decodes token, persists it and then publishes the identity. If
// any step fails the previous state is left untouched.
func (s *Store) Establish(ctx context.Context, token string) (domain.Identity, error) {
	claims, err := s.decoder.Decode(token)
	if err != nil {
		return domain.Identity{}, err
	}
	identity := claims.Identity()

	s.writeMu.Lock()
	if err := s.storage.Set(ctx, s.key, token, claims.Expiry()); err != nil {
		s.writeMu.Unlock()
		return domain.Identity{}, fmt.Errorf("persist token: %w", err)
	}
	s.mu.Lock()
	s.initialized = true
	s.identity = identity
	s.token = token
	s.expiresAt = claims.Expiry()
	s.lastDecodeErr = nil
	s.mu.Unlock()
	s.writeMu.Unlock()

	s.markReady()
	s.logger.Info("session established",
		zap.String("session_id", s.sessionID),
		zap.String("user_id", identity.ID),
		zap.String("role", identity.Role.String()))
	s.publish(ctx, events.EventSessionEstablished, identity, nil)
	return identity, nil
}

// Clear removes the persisted token and forgets the identity. Clearing an
// initialized, unauthenticated store does not touch storage. Before
// Initialize the store cannot know whether a token is persisted, so the
// first Clear deletes it and leaves the store initialized and signed out.
func (s *Store) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	s.mu.RLock()
	initialized, token, previous := s.initialized, s.token, s.identity
	s.mu.RUnlock()

	if initialized && token == "" {
		s.writeMu.Unlock()
		return nil
	}
	if err := s.storage.Delete(ctx, s.key); err != nil {
		s.writeMu.Unlock()
		return fmt.Errorf("clear session: %w", err)
	}
	s.reset(nil)
	s.writeMu.Unlock()
	s.markReady()

	if !previous.IsZero() {
		s.logger.Info("session cleared", zap.String("session_id", s.sessionID), zap.String("user_id", previous.ID))
		s.publish(ctx, events.EventSessionCleared, previous, nil)
	}
	return nil
}

func (s *Store) reset(decodeErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
	s.identity = domain.Identity{}
	s.token = ""
	s.expiresAt = time.Time{}
	s.lastDecodeErr = decodeErr
}

func (s *Store) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *Store) publish(ctx context.Context, eventType events.EventType, identity domain.Identity, payload interface{}) {
	err := s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SessionID: s.sessionID,
		Identity:  identity,
		Timestamp: s.now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		s.logger.Warn("publish session event", zap.String("type", string(eventType)), zap.Error(err))
	}
}
