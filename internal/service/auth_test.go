package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/portcullisgw/portcullis/internal/keystore"
	"github.com/portcullisgw/portcullis/internal/model"
)

func newTestAuth(t *testing.T) (*AuthService, *keystore.MemoryStore) {
	t.Helper()
	store := keystore.NewMemoryStore(keystore.Params{MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1})
	t.Cleanup(func() { store.Close() })
	auth := NewAuthService(store, "test-secret-key-for-jwt", time.Hour)
	return auth, store
}

func TestAuthenticate(t *testing.T) {
	auth, store := newTestAuth(t)
	ctx := context.Background()

	if _, err := store.Insert(ctx, "pcl_authtest_0123456789abcdef", model.RoleTicketManager, "test"); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	principal, err := auth.Authenticate(ctx, "pcl_authtest_0123456789abcdef")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if principal.Role != model.RoleTicketManager {
		t.Errorf("got role %q, want %q", principal.Role, model.RoleTicketManager)
	}
}

func TestAuthenticateMissingKey(t *testing.T) {
	auth, _ := newTestAuth(t)

	_, err := auth.Authenticate(context.Background(), "")
	if err != ErrMissingKey {
		t.Errorf("expected ErrMissingKey, got %v", err)
	}
}

func TestAuthenticateUnknownKey(t *testing.T) {
	auth, _ := newTestAuth(t)

	_, err := auth.Authenticate(context.Background(), "pcl_never_inserted_0123456789")
	if err != ErrInvalidKey {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestAuthenticateRevokedKey(t *testing.T) {
	auth, store := newTestAuth(t)
	ctx := context.Background()

	id, err := store.Insert(ctx, "pcl_revoked_0123456789abcdef", model.RoleUser, "")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := store.Revoke(ctx, id); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	if _, err := auth.Authenticate(ctx, "pcl_revoked_0123456789abcdef"); err != ErrInvalidKey {
		t.Errorf("expected ErrInvalidKey for revoked key, got %v", err)
	}
}

func TestJWTRoundTrip(t *testing.T) {
	auth, _ := newTestAuth(t)
	ctx := context.Background()

	token, err := auth.IssueJWT(ctx, 42, "admin@example.com")
	if err != nil {
		t.Fatalf("IssueJWT: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	principal, err := auth.ValidateJWT(ctx, token)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if principal.AdminID != 42 {
		t.Errorf("AdminID: got %d, want 42", principal.AdminID)
	}
	if principal.Email != "admin@example.com" {
		t.Errorf("Email: got %q, want %q", principal.Email, "admin@example.com")
	}
}

func TestJWTExpired(t *testing.T) {
	store := keystore.NewMemoryStore(keystore.Params{MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1})
	auth := NewAuthService(store, "test-secret-key-for-jwt", -time.Hour)
	ctx := context.Background()

	token, err := auth.IssueJWT(ctx, 1, "test@test.com")
	if err != nil {
		t.Fatalf("IssueJWT: %v", err)
	}

	if _, err := auth.ValidateJWT(ctx, token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestJWTInvalidToken(t *testing.T) {
	auth, _ := newTestAuth(t)

	if _, err := auth.ValidateJWT(context.Background(), "garbage.token.here"); err == nil {
		t.Fatal("expected error for invalid token")
	}
}

func TestJWTWrongSecret(t *testing.T) {
	auth, _ := newTestAuth(t)
	ctx := context.Background()

	token, err := auth.IssueJWT(ctx, 7, "ops@example.com")
	if err != nil {
		t.Fatalf("IssueJWT: %v", err)
	}

	other := NewAuthService(keystore.NewMemoryStore(keystore.Params{MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1}), "different-secret", time.Hour)
	if _, err := other.ValidateJWT(ctx, token); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials across secrets, got %v", err)
	}
}

func TestAdminRegistry(t *testing.T) {
	r := NewAdminRegistry()
	ctx := context.Background()

	admin, err := r.CreateAdmin(ctx, "ops@example.com", "hunter2hunter2", "Ops")
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	if admin.ID == 0 {
		t.Error("expected non-zero admin ID")
	}

	// Duplicate email
	if _, err := r.CreateAdmin(ctx, "ops@example.com", "other", ""); err != ErrDuplicateAdmin {
		t.Errorf("expected ErrDuplicateAdmin, got %v", err)
	}

	// Login
	got, err := r.Login(ctx, "ops@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.LastLoginAt == nil {
		t.Error("expected LastLoginAt stamped on login")
	}

	// Wrong password / unknown email
	if _, err := r.Login(ctx, "ops@example.com", "wrong"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := r.Login(ctx, "nobody@example.com", "hunter2hunter2"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	// List hides hashes
	admins := r.ListAdmins(ctx)
	if len(admins) != 1 {
		t.Fatalf("got %d admins, want 1", len(admins))
	}
	if admins[0].PasswordHash != "" {
		t.Error("ListAdmins must not expose password hashes")
	}
}
