package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/portcullisgw/portcullis/internal/keystore"
	"github.com/portcullisgw/portcullis/internal/model"
)

// BootstrapKeysEnv is the environment variable holding a JSON array of
// bootstrap key entries: [{"key":"...","role":"...","label":"..."}].
const BootstrapKeysEnv = "PORTCULLIS_BOOTSTRAP_KEYS"

// BootstrapKey is one pre-provisioned API key seeded into the store at
// startup. The raw key text only passes through; it is hashed on insert.
type BootstrapKey struct {
	Key   string `json:"key" yaml:"key"`
	Role  string `json:"role" yaml:"role"`
	Label string `json:"label" yaml:"label"`
}

// LoadBootstrapKeys collects bootstrap keys from the environment variable
// and the optional keys file. Malformed sources and entries are skipped with
// a warning; seeding problems never prevent startup.
func LoadBootstrapKeys(logger *slog.Logger, filePath string) []BootstrapKey {
	var out []BootstrapKey

	if raw := os.Getenv(BootstrapKeysEnv); raw != "" {
		var entries []BootstrapKey
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			logger.Warn("skipping bootstrap keys from environment", "env", BootstrapKeysEnv, "error", err)
		} else {
			out = append(out, filterBootstrapKeys(logger, "env:"+BootstrapKeysEnv, entries)...)
		}
	}

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			logger.Warn("skipping bootstrap keys file", "path", filePath, "error", err)
			return out
		}
		var entries []BootstrapKey
		if err := yaml.Unmarshal(data, &entries); err != nil {
			logger.Warn("skipping bootstrap keys file", "path", filePath, "error", err)
			return out
		}
		out = append(out, filterBootstrapKeys(logger, filePath, entries)...)
	}

	return out
}

// filterBootstrapKeys drops entries with a missing key or an unknown role.
func filterBootstrapKeys(logger *slog.Logger, source string, entries []BootstrapKey) []BootstrapKey {
	valid := make([]BootstrapKey, 0, len(entries))
	for i, e := range entries {
		if e.Key == "" {
			logger.Warn("skipping bootstrap key with empty key", "source", source, "index", i)
			continue
		}
		if _, err := model.ParseRole(e.Role); err != nil {
			logger.Warn("skipping bootstrap key", "source", source, "index", i, "error", err)
			continue
		}
		valid = append(valid, e)
	}
	return valid
}

// SeedKeys inserts bootstrap keys into the store. Keys already present are
// left alone; individual failures are logged and skipped. Returns the number
// of keys newly inserted.
func SeedKeys(ctx context.Context, st keystore.Store, keys []BootstrapKey, logger *slog.Logger) int {
	inserted := 0
	for _, k := range keys {
		role, err := model.ParseRole(k.Role)
		if err != nil {
			continue
		}
		label := k.Label
		if label == "" {
			label = fmt.Sprintf("bootstrap (%s)", role)
		}
		if _, err := st.Insert(ctx, k.Key, role, label); err != nil {
			if errors.Is(err, keystore.ErrDuplicateKey) {
				continue
			}
			logger.Warn("failed to seed bootstrap key", "label", label, "error", err)
			continue
		}
		inserted++
	}
	return inserted
}
