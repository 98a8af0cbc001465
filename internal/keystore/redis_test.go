package keystore

import (
	"context"
	"os"
	"testing"

	"github.com/portcullisgw/portcullis/internal/model"
)

// Run against a live Redis with e.g.
//
//	PORTCULLIS_TEST_REDIS=localhost:6379 go test ./internal/keystore/
func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("PORTCULLIS_TEST_REDIS")
	if addr == "" {
		t.Skip("skipping redis tests: set PORTCULLIS_TEST_REDIS to a redis address")
	}

	s, err := NewRedisStore(addr, "", 15, testParams) // DB 15 to stay clear of real data
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	t.Cleanup(func() {
		ctx := context.Background()
		if keys, _ := scanKeys(ctx, s.client, "portcullis:*", 100); len(keys) > 0 {
			s.client.Del(ctx, keys...)
		}
		s.Close()
	})
	return s
}

func TestRedisStoreRoundTrip(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, "pcl_redistest_0123456789abcdef", model.RoleUser, "redis key")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	role, err := s.Verify(ctx, "pcl_redistest_0123456789abcdef")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if role != model.RoleUser {
		t.Errorf("got role %q, want %q", role, model.RoleUser)
	}

	keys, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("got %d keys, want 1", len(keys))
	}
	if keys[0].KeyHash != "" {
		t.Error("List must not expose key hashes")
	}

	if err := s.Revoke(ctx, id); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := s.Verify(ctx, "pcl_redistest_0123456789abcdef"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after revoke, got %v", err)
	}
	if err := s.Revoke(ctx, "no-such-id"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}
