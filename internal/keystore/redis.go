package keystore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/portcullisgw/portcullis/internal/model"
)

const (
	redisRecordPrefix  = "portcullis:apikey:"
	redisIndexPrefix   = "portcullis:prefix:"
	redisSettingPrefix = "portcullis:setting:"
)

// RedisStore keeps API keys in Redis. Each record is a hash at
// portcullis:apikey:<id>; a set at portcullis:prefix:<key_prefix> indexes
// record ids by key prefix so Verify only hashes against the shortlist.
type RedisStore struct {
	client *redis.Client
	params Params
}

// NewRedisStore connects to Redis and verifies the connection. addr accepts
// either host:port or a redis:// URL (which may carry its own password and
// database number).
func NewRedisStore(addr, password string, db int, params Params) (*RedisStore, error) {
	var opts *redis.Options
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr, Password: password, DB: db}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisStore{client: client, params: params}, nil
}

func recordKey(id string) string    { return redisRecordPrefix + id }
func indexKey(prefix string) string { return redisIndexPrefix + prefix }

func (s *RedisStore) Verify(ctx context.Context, rawKey string) (model.Role, error) {
	ids, err := s.client.SMembers(ctx, indexKey(keyPrefix(rawKey))).Result()
	if err != nil {
		return "", fmt.Errorf("read prefix index: %w", err)
	}

	for _, id := range ids {
		fields, err := s.client.HGetAll(ctx, recordKey(id)).Result()
		if err != nil || len(fields) == 0 || fields["is_active"] != "1" {
			continue
		}
		match, err := verifyKey(rawKey, fields["key_hash"])
		if err != nil || !match {
			continue
		}
		// Best-effort; a failed timestamp update must not fail verification.
		_ = s.client.HSet(ctx, recordKey(id), "last_used", time.Now().UTC().Format(time.RFC3339Nano)).Err()
		return model.Role(fields["role"]), nil
	}
	return "", ErrNotFound
}

func (s *RedisStore) Insert(ctx context.Context, rawKey string, role model.Role, label string) (string, error) {
	if _, err := s.Verify(ctx, rawKey); err == nil {
		return "", ErrDuplicateKey
	}

	hash, err := hashKey(rawKey, s.params)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	prefix := keyPrefix(rawKey)

	// Record and index entry land together or not at all.
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, recordKey(id),
		"key_hash", hash,
		"key_prefix", prefix,
		"role", role.String(),
		"label", label,
		"is_active", "1",
		"created_at", time.Now().UTC().Format(time.RFC3339Nano),
	)
	pipe.SAdd(ctx, indexKey(prefix), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("insert api key: %w", err)
	}
	return id, nil
}

func (s *RedisStore) Revoke(ctx context.Context, id string) error {
	n, err := s.client.Exists(ctx, recordKey(id)).Result()
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	if err := s.client.HSet(ctx, recordKey(id), "is_active", "0").Err(); err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]model.APIKey, error) {
	keys, err := scanKeys(ctx, s.client, redisRecordPrefix+"*", 100)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}

	out := make([]model.APIKey, 0, len(keys))
	for _, k := range keys {
		fields, err := s.client.HGetAll(ctx, k).Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		rec := model.APIKey{
			ID:        strings.TrimPrefix(k, redisRecordPrefix),
			KeyPrefix: fields["key_prefix"],
			Role:      model.Role(fields["role"]),
			Label:     fields["label"],
			IsActive:  fields["is_active"] == "1",
		}
		if t, err := time.Parse(time.RFC3339Nano, fields["created_at"]); err == nil {
			rec.CreatedAt = t
		}
		if t, err := time.Parse(time.RFC3339Nano, fields["last_used"]); err == nil {
			rec.LastUsed = &t
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetSetting returns the named setting, or ErrNotFound.
func (s *RedisStore) GetSetting(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, redisSettingPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting: %w", err)
	}
	return v, nil
}

// SetSetting stores key=value with no expiry.
func (s *RedisStore) SetSetting(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, redisSettingPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// scanKeys iterates Redis keys matching the given pattern using cursor-based
// SCAN instead of the blocking O(N) KEYS command. The count hint controls
// how many keys Redis returns per iteration (not an exact limit).
func scanKeys(ctx context.Context, client *redis.Client, pattern string, countHint int64) ([]string, error) {
	var cursor uint64
	var keys []string
	for {
		batch, nextCursor, err := client.Scan(ctx, cursor, pattern, countHint).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}
