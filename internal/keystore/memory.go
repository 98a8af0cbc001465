package keystore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/portcullisgw/portcullis/internal/model"
)

// MemoryStore is the ephemeral Store used for development and tests. Records
// live for the process lifetime. Hashing runs outside the lock so concurrent
// verifications of different keys do not serialize on the mutex.
type MemoryStore struct {
	mu       sync.RWMutex
	params   Params
	keys     map[string]*model.APIKey // id -> record
	settings map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(params Params) *MemoryStore {
	return &MemoryStore{
		params:   params,
		keys:     make(map[string]*model.APIKey),
		settings: make(map[string]string),
	}
}

func (s *MemoryStore) Verify(ctx context.Context, rawKey string) (model.Role, error) {
	prefix := keyPrefix(rawKey)

	s.mu.RLock()
	candidates := make([]*model.APIKey, 0, 1)
	for _, rec := range s.keys {
		if rec.IsActive && rec.KeyPrefix == prefix {
			candidates = append(candidates, rec)
		}
	}
	s.mu.RUnlock()

	for _, rec := range candidates {
		match, err := verifyKey(rawKey, rec.KeyHash)
		if err != nil || !match {
			continue
		}
		now := time.Now().UTC()
		s.mu.Lock()
		rec.LastUsed = &now
		s.mu.Unlock()
		return rec.Role, nil
	}
	return "", ErrNotFound
}

func (s *MemoryStore) Insert(ctx context.Context, rawKey string, role model.Role, label string) (string, error) {
	if _, err := s.Verify(ctx, rawKey); err == nil {
		return "", ErrDuplicateKey
	}

	hash, err := hashKey(rawKey, s.params)
	if err != nil {
		return "", err
	}

	rec := &model.APIKey{
		ID:        uuid.NewString(),
		KeyHash:   hash,
		KeyPrefix: keyPrefix(rawKey),
		Role:      role,
		Label:     label,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.keys[rec.ID] = rec
	s.mu.Unlock()
	return rec.ID, nil
}

func (s *MemoryStore) Revoke(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.keys[id]
	if !ok {
		return ErrNotFound
	}
	rec.IsActive = false
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]model.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.APIKey, 0, len(s.keys))
	for _, rec := range s.keys {
		cp := *rec
		cp.KeyHash = "" // metadata only
		out = append(out, cp)
	}
	return out, nil
}

// GetSetting returns the stored value for key, or ErrNotFound.
func (s *MemoryStore) GetSetting(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.settings[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// SetSetting stores key=value, replacing any previous value.
func (s *MemoryStore) SetSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
