package session

import (
	"context"
	"errors"
)

// Manager hands out one Store per browser session over a shared storage
// backend. Each store persists its token under "<key>:<session id>".
type Manager struct {
	storage TokenStorage
	key     string
	opts    []Option
}

// NewManager builds a manager. opts are applied to every store it opens.
func NewManager(storage TokenStorage, key string, opts ...Option) *Manager {
	if key == "" {
		key = DefaultKey
	}
	return &Manager{storage: storage, key: key, opts: opts}
}

// Open builds and initializes the store for sessionID. The store is usable
// even when an error is returned; it is then unauthenticated.
func (m *Manager) Open(ctx context.Context, sessionID string) (*Store, error) {
	if sessionID == "" {
		return nil, errors.New("session id required")
	}
	opts := append([]Option{}, m.opts...)
	opts = append(opts, WithKey(m.key+":"+sessionID), WithSessionID(sessionID))
	store := NewStore(m.storage, opts...)
	err := store.Initialize(ctx)
	return store, err
}
