package keystore

import (
	"context"
	"testing"

	"github.com/portcullisgw/portcullis/internal/model"
)

func newTestSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := NewSQLStore("sqlite", "", testParams) // in-memory
	if err != nil {
		t.Fatalf("NewSQLStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLStoreRoundTrip(t *testing.T) {
	s := newTestSQLStore(t)
	ctx := context.Background()

	// Insert
	id, err := s.Insert(ctx, "pcl_sqltest_0123456789abcdef", model.RoleTicketManager, "sql key")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty id after insert")
	}

	// Verify
	role, err := s.Verify(ctx, "pcl_sqltest_0123456789abcdef")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if role != model.RoleTicketManager {
		t.Errorf("got role %q, want %q", role, model.RoleTicketManager)
	}

	if _, err := s.Verify(ctx, "pcl_unknown_0123456789abcdef"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for unknown key, got %v", err)
	}

	// List: metadata only, last_used stamped by the successful Verify above.
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
	if keys[0].Role != model.RoleTicketManager {
		t.Errorf("got role %q, want %q", keys[0].Role, model.RoleTicketManager)
	}
	if keys[0].LastUsed == nil {
		t.Error("expected last_used to be set after a successful verify")
	}

	// Revoke
	if err := s.Revoke(ctx, id); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := s.Verify(ctx, "pcl_sqltest_0123456789abcdef"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after revoke, got %v", err)
	}
	if err := s.Revoke(ctx, "no-such-id"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestSQLStoreDuplicate(t *testing.T) {
	s := newTestSQLStore(t)
	ctx := context.Background()

	if _, err := s.Insert(ctx, "pcl_sqldup_0123456789abcdef", model.RoleUser, "first"); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := s.Insert(ctx, "pcl_sqldup_0123456789abcdef", model.RoleAdmin, "second"); err != ErrDuplicateKey {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestSQLStoreSharedPrefix(t *testing.T) {
	s := newTestSQLStore(t)
	ctx := context.Background()

	rawA := "pcl_BBBBBBBB1111111111111111"
	rawB := "pcl_BBBBBBBB2222222222222222"

	if _, err := s.Insert(ctx, rawA, model.RoleUser, "a"); err != nil {
		t.Fatalf("Insert a: %v", err)
	}
	if _, err := s.Insert(ctx, rawB, model.RoleAdmin, "b"); err != nil {
		t.Fatalf("Insert b: %v", err)
	}

	roleB, err := s.Verify(ctx, rawB)
	if err != nil {
		t.Fatalf("Verify b: %v", err)
	}
	if roleB != model.RoleAdmin {
		t.Errorf("got role %q, want %q", roleB, model.RoleAdmin)
	}
}

func TestSQLStorePing(t *testing.T) {
	s := newTestSQLStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestSQLStoreSettings(t *testing.T) {
	s := newTestSQLStore(t)
	ctx := context.Background()

	if _, err := s.GetSetting(ctx, "instance_id"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for missing setting, got %v", err)
	}

	if err := s.SetSetting(ctx, "instance_id", "abc-123"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	got, err := s.GetSetting(ctx, "instance_id")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if got != "abc-123" {
		t.Errorf("got %q, want %q", got, "abc-123")
	}

	// Overwrite updates in place.
	if err := s.SetSetting(ctx, "instance_id", "def-456"); err != nil {
		t.Fatalf("SetSetting overwrite: %v", err)
	}
	got, err = s.GetSetting(ctx, "instance_id")
	if err != nil {
		t.Fatalf("GetSetting after overwrite: %v", err)
	}
	if got != "def-456" {
		t.Errorf("got %q, want %q", got, "def-456")
	}
}

func TestSQLDriverName(t *testing.T) {
	tests := []struct {
		driver string
		want   string
		ok     bool
	}{
		{"sqlite", "sqlite", true},
		{"postgres", "pgx", true},
		{"mysql", "mysql", true},
		{"mssql", "sqlserver", true},
		{"sqlserver", "sqlserver", true},
		{"oracle", "", false},
	}
	for _, tt := range tests {
		got, err := sqlDriverName(tt.driver)
		if tt.ok && err != nil {
			t.Errorf("sqlDriverName(%q): %v", tt.driver, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("sqlDriverName(%q): expected error", tt.driver)
		}
		if got != tt.want {
			t.Errorf("sqlDriverName(%q) = %q, want %q", tt.driver, got, tt.want)
		}
	}
}
