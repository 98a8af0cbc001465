// Package keystore holds the API key credential records the gateway
// authenticates against. Raw keys are never persisted: each record stores an
// argon2id hash plus a short non-secret prefix used to shortlist candidates
// before the slow verification runs.
package keystore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"

	"github.com/portcullisgw/portcullis/internal/model"
)

var (
	// ErrNotFound is returned when no record matches a presented key or id.
	ErrNotFound = errors.New("api key not found")

	// ErrDuplicateKey is returned by Insert when the raw key already
	// verifies against an existing record.
	ErrDuplicateKey = errors.New("api key already exists")
)

// Store is the credential store capability. Implementations: in-memory
// (development), SQL and Redis (durable). The backend is selected by
// configuration at startup, never by runtime type inspection.
type Store interface {
	// Verify resolves a raw key to its role by shortlisting records on the
	// key prefix and running the slow hash comparison against each
	// candidate. Returns ErrNotFound when nothing matches.
	Verify(ctx context.Context, rawKey string) (model.Role, error)

	// Insert hashes rawKey and stores the record. Returns ErrDuplicateKey
	// if the raw key already verifies against a stored hash. The raw key is
	// discarded after hashing.
	Insert(ctx context.Context, rawKey string, role model.Role, label string) (string, error)

	// Revoke removes the record with the given id. Subsequent Verify calls
	// with its key return ErrNotFound.
	Revoke(ctx context.Context, id string) error

	// List returns record metadata. Hashes are never included.
	List(ctx context.Context) ([]model.APIKey, error)

	Ping(ctx context.Context) error
	Close() error
}

// Params are the tunable argon2id cost parameters. Salt and key lengths are
// fixed; only the cost knobs are exposed through configuration.
type Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams returns the OWASP-minimum argon2id cost configuration
// (47 MiB memory, 1 iteration, 1 lane).
func DefaultParams() Params {
	return Params{MemoryKiB: 47 * 1024, Iterations: 1, Parallelism: 1}
}

func (p Params) argon2id() *argon2id.Params {
	return &argon2id.Params{
		Memory:      p.MemoryKiB,
		Iterations:  p.Iterations,
		Parallelism: p.Parallelism,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// hashKey returns the argon2id hash of rawKey in PHC format
// ($argon2id$v=19$m=...,t=...,p=...$<salt>$<hash>).
func hashKey(rawKey string, params Params) (string, error) {
	return argon2id.CreateHash(rawKey, params.argon2id())
}

// verifyKey compares a raw key against a stored PHC hash. The comparison
// inside the library is constant-time. The argon2 library panics on
// malformed hash parameters; that is converted to an error here so
// verification never panics on corrupt store contents.
func verifyKey(rawKey, storedHash string) (match bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			match = false
			err = fmt.Errorf("invalid argon2id hash parameters: %v", r)
		}
	}()
	return argon2id.ComparePasswordAndHash(rawKey, storedHash)
}

// prefixLen bounds the stored key prefix. The prefix is a non-secret
// discriminator: it shortlists candidates so the slow hash runs against a
// handful of records instead of the whole table.
const prefixLen = 12

// keyPrefix derives the shortlist discriminator for a raw key. Short keys
// (bootstrap-supplied, arbitrary strings) expose at most half their length
// so the prefix never reconstructs the secret.
func keyPrefix(rawKey string) string {
	n := prefixLen
	if half := len(rawKey) / 2; half < n {
		n = half
	}
	return rawKey[:n]
}

// Prefix returns the non-secret identification prefix stored alongside a
// key's hash. Callers use it to label freshly generated keys.
func Prefix(rawKey string) string {
	return keyPrefix(rawKey)
}

// GenerateKey produces a new raw API key: the "pcl_" marker followed by
// 32 random bytes hex-encoded. The caller sees the raw key exactly once.
func GenerateKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return "pcl_" + hex.EncodeToString(buf), nil
}
