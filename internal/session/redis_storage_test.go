package session

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/afiatamanna06/csedu-web-sub001/internal/auth"
)

// Runs only when REDIS_TEST_ADDR points at a disposable Redis.
func TestRedisStorage(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	storage := NewRedisStorage(client, "test-"+uuid.NewString())
	if err := storage.Set(ctx, "sid", "tok", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ttl, err := client.TTL(ctx, storage.key("sid")).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected ttl bounded by token expiry, got %s (%v)", ttl, err)
	}
	token, found, err := storage.Get(ctx, "sid")
	if err != nil || !found || token != "tok" {
		t.Fatalf("Get() = %q, %v, %v", token, found, err)
	}
	if err := storage.Delete(ctx, "sid"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, _ := storage.Get(ctx, "sid"); found {
		t.Fatalf("expected key to be gone")
	}
	if err := storage.Set(ctx, "old", "tok", time.Now().Add(-time.Second)); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Set expired: expected ErrTokenExpired, got %v", err)
	}
	if _, found, _ := storage.Get(ctx, "old"); found {
		t.Fatalf("expired tokens must not be stored")
	}
}

func TestRedisStorageRejectsExpiredToken(t *testing.T) {
	// Unreachable address: an expired token must fail before any round trip.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()

	storage := NewRedisStorage(client, "portal")
	err := storage.Set(context.Background(), "sid", "tok", time.Now().Add(-time.Minute))
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestEstablishFailsWhenTokenExpiresBeforePersist(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()

	// The store's clock still accepts the token; the wall clock Redis sees
	// has already passed its expiry.
	exp := time.Now().Add(-time.Minute)
	past := func() time.Time { return exp.Add(-time.Hour) }
	store := NewStore(NewRedisStorage(client, "portal"), WithClock(past))
	token, err := auth.NewTokenManager("secret", time.Hour).WithClock(past).Issue("9", "student", exp)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = store.Establish(context.Background(), token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if _, ok := store.Current(); ok {
		t.Fatalf("identity must not be published without a persisted token")
	}
}
