package keystore

import (
	"fmt"
	"strings"
)

func (s *SQLStore) migrate() error {
	for _, m := range migrationsFor(s.driver) {
		if _, err := s.db.Exec(m); err != nil {
			// SQLite ALTER TABLE ADD COLUMN fails if column already exists;
			// treat "duplicate column" as a no-op for idempotent migrations.
			if strings.Contains(err.Error(), "duplicate column") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// migrationsFor returns the schema statements for the given driver. Every
// statement must be safe to re-run: migrate executes the full list on each
// start.
func migrationsFor(driver string) []string {
	switch driver {
	case "postgres":
		return []string{
			`CREATE TABLE IF NOT EXISTS api_keys (
				id TEXT PRIMARY KEY,
				key_hash TEXT NOT NULL,
				key_prefix TEXT NOT NULL,
				role TEXT NOT NULL,
				label TEXT NOT NULL DEFAULT '',
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				last_used TIMESTAMPTZ
			)`,
			`CREATE INDEX IF NOT EXISTS idx_api_keys_prefix ON api_keys(key_prefix)`,
			`CREATE TABLE IF NOT EXISTS settings (
				name TEXT PRIMARY KEY,
				value TEXT NOT NULL
			)`,
		}

	case "mysql":
		// MySQL has no CREATE INDEX IF NOT EXISTS, so the index lives in the
		// table definition.
		return []string{
			`CREATE TABLE IF NOT EXISTS api_keys (
				id VARCHAR(36) PRIMARY KEY,
				key_hash VARCHAR(255) NOT NULL,
				key_prefix VARCHAR(32) NOT NULL,
				role VARCHAR(32) NOT NULL,
				label VARCHAR(255) NOT NULL DEFAULT '',
				is_active TINYINT(1) NOT NULL DEFAULT 1,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				last_used TIMESTAMP NULL,
				INDEX idx_api_keys_prefix (key_prefix)
			)`,
			`CREATE TABLE IF NOT EXISTS settings (
				name VARCHAR(128) PRIMARY KEY,
				value TEXT NOT NULL
			)`,
		}

	case "mssql", "sqlserver":
		return []string{
			`IF OBJECT_ID(N'api_keys', N'U') IS NULL
			CREATE TABLE api_keys (
				id NVARCHAR(36) NOT NULL PRIMARY KEY,
				key_hash NVARCHAR(400) NOT NULL,
				key_prefix NVARCHAR(32) NOT NULL,
				role NVARCHAR(32) NOT NULL,
				label NVARCHAR(255) NOT NULL DEFAULT '',
				is_active BIT NOT NULL DEFAULT 1,
				created_at DATETIMEOFFSET NOT NULL DEFAULT SYSUTCDATETIME(),
				last_used DATETIMEOFFSET NULL
			)`,
			`IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = N'idx_api_keys_prefix')
			CREATE INDEX idx_api_keys_prefix ON api_keys(key_prefix)`,
			`IF OBJECT_ID(N'settings', N'U') IS NULL
			CREATE TABLE settings (
				name NVARCHAR(128) NOT NULL PRIMARY KEY,
				value NVARCHAR(MAX) NOT NULL
			)`,
		}

	default: // sqlite
		return []string{
			`CREATE TABLE IF NOT EXISTS api_keys (
				id TEXT PRIMARY KEY,
				key_hash TEXT NOT NULL,
				key_prefix TEXT NOT NULL,
				role TEXT NOT NULL,
				label TEXT NOT NULL DEFAULT '',
				is_active INTEGER NOT NULL DEFAULT 1,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				last_used DATETIME
			)`,
			`CREATE INDEX IF NOT EXISTS idx_api_keys_prefix ON api_keys(key_prefix)`,
			`CREATE TABLE IF NOT EXISTS settings (
				name TEXT PRIMARY KEY,
				value TEXT NOT NULL
			)`,
		}
	}
}
