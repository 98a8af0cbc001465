package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/portcullisgw/portcullis/internal/model"
)

var ErrDuplicateAdmin = errors.New("admin already exists")

// dummyHash absorbs a bcrypt compare for unknown emails so they cost the
// same as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("portcullis-dummy-credential"), bcrypt.DefaultCost)

// AdminRegistry holds operator accounts in memory, seeded from configuration
// at startup. Accounts created at runtime last for the process lifetime.
type AdminRegistry struct {
	mu     sync.RWMutex
	nextID int64
	admins map[string]*model.Admin // email -> account
}

func NewAdminRegistry() *AdminRegistry {
	return &AdminRegistry{
		nextID: 1,
		admins: make(map[string]*model.Admin),
	}
}

// CreateAdmin registers an operator account with a bcrypt-hashed password.
func (r *AdminRegistry) CreateAdmin(ctx context.Context, email, password, name string) (*model.Admin, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.admins[email]; exists {
		return nil, ErrDuplicateAdmin
	}

	admin := &model.Admin{
		ID:           r.nextID,
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	r.nextID++
	r.admins[email] = admin

	cp := *admin
	return &cp, nil
}

// SeedAdmin registers an account from a pre-computed bcrypt hash, as declared
// in the auth.admins config section. The clear-text password never passes
// through this path.
func (r *AdminRegistry) SeedAdmin(email, name, passwordHash string) (*model.Admin, error) {
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, errors.New("password_hash for " + email + " is not a bcrypt hash")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.admins[email]; exists {
		return nil, ErrDuplicateAdmin
	}

	admin := &model.Admin{
		ID:           r.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	r.nextID++
	r.admins[email] = admin

	cp := *admin
	return &cp, nil
}

// Login checks an email/password pair and stamps the account's last login.
func (r *AdminRegistry) Login(ctx context.Context, email, password string) (*model.Admin, error) {
	r.mu.RLock()
	admin, ok := r.admins[email]
	r.mu.RUnlock()

	if !ok || !admin.IsActive {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	r.mu.Lock()
	admin.LastLoginAt = &now
	cp := *admin
	r.mu.Unlock()
	return &cp, nil
}

// ListAdmins returns all accounts. Password hashes never serialize, but the
// copies here keep callers from mutating registry state either way.
func (r *AdminRegistry) ListAdmins(ctx context.Context) []model.Admin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Admin, 0, len(r.admins))
	for _, a := range r.admins {
		cp := *a
		cp.PasswordHash = ""
		out = append(out, cp)
	}
	return out
}

// Len reports the number of registered accounts.
func (r *AdminRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.admins)
}
