package model

import "time"

// APIKey represents an API key record bound to a role. The raw key is never
// stored; only an argon2id hash and a short prefix for identification are
// persisted.
type APIKey struct {
	ID        string     `json:"id" db:"id"`
	KeyHash   string     `json:"-" db:"key_hash"`            // argon2id PHC string, never expose
	KeyPrefix string     `json:"key_prefix" db:"key_prefix"` // first chars of the raw key, for identification
	Role      Role       `json:"role" db:"role"`
	Label     string     `json:"label" db:"label"`
	IsActive  bool       `json:"is_active" db:"is_active"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	LastUsed  *time.Time `json:"last_used,omitempty" db:"last_used"`
}
