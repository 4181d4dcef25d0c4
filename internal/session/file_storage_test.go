package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "sessions")
	storage, err := NewFileStorage(dir)
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}

	if _, found, err := storage.Get(ctx, "token"); err != nil || found {
		t.Fatalf("expected empty storage, got found=%v err=%v", found, err)
	}
	if err := storage.Set(ctx, "token", "abc.def.ghi", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	info, err := os.Stat(storage.path("token"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 token file, got %v", info.Mode().Perm())
	}

	token, found, err := storage.Get(ctx, "token")
	if err != nil || !found || token != "abc.def.ghi" {
		t.Fatalf("Get() = %q, %v, %v", token, found, err)
	}

	if err := storage.Delete(ctx, "token"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := storage.Delete(ctx, "token"); err != nil {
		t.Fatalf("deleting a missing key must succeed: %v", err)
	}
	if _, found, _ := storage.Get(ctx, "token"); found {
		t.Fatalf("expected token to be gone")
	}
}

func TestFileStorageBacksStore(t *testing.T) {
	ctx := context.Background()
	storage, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}

	first := NewStore(storage, WithClock(clock))
	if _, err := first.Establish(ctx, issue(t, "9", "alumni", testNow.Add(time.Hour))); err != nil {
		t.Fatalf("Establish: %v", err)
	}

	second := NewStore(storage, WithClock(clock))
	if err := second.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if identity, ok := second.Current(); !ok || identity.ID != "9" {
		t.Fatalf("expected session restored from disk, got %+v", identity)
	}
}
