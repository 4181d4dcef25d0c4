package session

import (
	"context"
	"sync"
	"time"
)

// TokenStorage persists bearer tokens under string keys. Implementations
// must be safe for concurrent use.
type TokenStorage interface {
	// Get returns the token stored under key and whether one was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores token under key. expiresAt is the token's own expiry and
	// may be used by backends that support TTLs.
	Set(ctx context.Context, key, token string, expiresAt time.Time) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// MemoryStorage keeps tokens in process memory.
type MemoryStorage struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewMemoryStorage builds an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{tokens: make(map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	token, ok := m.tokens[key]
	return token, ok, nil
}

func (m *MemoryStorage) Set(_ context.Context, key, token string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[key] = token
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, key)
	return nil
}
