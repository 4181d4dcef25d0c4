package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTokenExpired is returned when asked to store a token whose expiry has
// already passed.
var ErrTokenExpired = errors.New("token already expired")

// RedisStorage keeps tokens in Redis. Keys expire together with the token
// they hold.
type RedisStorage struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStorage wraps a go-redis client. prefix namespaces every key.
func NewRedisStorage(client redis.Cmdable, prefix string) *RedisStorage {
	return &RedisStorage{client: client, prefix: prefix}
}

func (r *RedisStorage) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

func (r *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	token, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get token: %w", err)
	}
	return token, true, nil
}

func (r *RedisStorage) Set(ctx context.Context, key, token string, expiresAt time.Time) error {
	var ttl time.Duration
	if !expiresAt.IsZero() {
		ttl = time.Until(expiresAt)
		if ttl <= 0 {
			return fmt.Errorf("redis set token: %w", ErrTokenExpired)
		}
	}
	if err := r.client.Set(ctx, r.key(key), token, ttl).Err(); err != nil {
		return fmt.Errorf("redis set token: %w", err)
	}
	return nil
}

func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete token: %w", err)
	}
	return nil
}
