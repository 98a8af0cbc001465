package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/portcullisgw/portcullis/internal/keystore"
	"github.com/portcullisgw/portcullis/internal/model"
)

var (
	ErrMissingKey         = errors.New("missing api key")
	ErrInvalidKey         = errors.New("invalid api key")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Principal is the authenticated identity attached to a request. API-key
// callers carry only their role; nothing else about the key leaves the store.
type Principal struct {
	Role model.Role
}

// AdminPrincipal identifies an operator authenticated via JWT session.
type AdminPrincipal struct {
	AdminID int64
	Email   string
}

// AuthService turns presented credentials into principals. API keys go
// through the keystore; operator sessions are HMAC-signed JWTs.
type AuthService struct {
	keys      keystore.Store
	jwtSecret []byte
	jwtExpiry time.Duration
}

func NewAuthService(keys keystore.Store, jwtSecret string, jwtExpiry time.Duration) *AuthService {
	return &AuthService{
		keys:      keys,
		jwtSecret: []byte(jwtSecret),
		jwtExpiry: jwtExpiry,
	}
}

// JWTExpiry returns the configured session token lifetime.
func (s *AuthService) JWTExpiry() time.Duration {
	return s.jwtExpiry
}

// Authenticate resolves a raw API key to a principal. A missing or unknown
// key fails with ErrMissingKey/ErrInvalidKey; a store failure is returned
// wrapped so callers can log it, but every error path means "reject".
func (s *AuthService) Authenticate(ctx context.Context, rawKey string) (*Principal, error) {
	if rawKey == "" {
		return nil, ErrMissingKey
	}

	role, err := s.keys.Verify(ctx, rawKey)
	if err != nil {
		if errors.Is(err, keystore.ErrNotFound) {
			return nil, ErrInvalidKey
		}
		return nil, fmt.Errorf("verify api key: %w", err)
	}
	return &Principal{Role: role}, nil
}

// ValidateJWT verifies a session token and returns the operator identity.
func (s *AuthService) ValidateJWT(ctx context.Context, tokenStr string) (*AdminPrincipal, error) {
	claims := &jwtClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	return &AdminPrincipal{
		AdminID: claims.AdminID,
		Email:   claims.Email,
	}, nil
}

// IssueJWT creates a signed session token for the given admin.
func (s *AuthService) IssueJWT(ctx context.Context, adminID int64, email string) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		AdminID: adminID,
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiry)),
			Issuer:    "portcullis",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

type jwtClaims struct {
	AdminID int64  `json:"admin_id"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}
