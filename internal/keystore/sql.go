package keystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/portcullisgw/portcullis/internal/model"
)

// SQLStore is the durable Store. It speaks SQLite, PostgreSQL, MySQL, and
// SQL Server through sqlx; queries are written with ? placeholders and
// rebound per driver.
type SQLStore struct {
	db     *sqlx.DB
	driver string
	params Params
}

// sqlDriverName maps a configured driver name to the name the database/sql
// driver registered itself under.
func sqlDriverName(driver string) (string, error) {
	switch driver {
	case "sqlite":
		return "sqlite", nil
	case "postgres":
		return "pgx", nil
	case "mysql":
		return "mysql", nil
	case "mssql", "sqlserver":
		return "sqlserver", nil
	default:
		return "", fmt.Errorf("unsupported keystore driver %q", driver)
	}
}

// NewSQLStore opens (and migrates) the API key database. For SQLite an empty
// DSN selects an in-memory database; a plain file path gets WAL and a busy
// timeout appended.
func NewSQLStore(driver, dsn string, params Params) (*SQLStore, error) {
	name, err := sqlDriverName(driver)
	if err != nil {
		return nil, err
	}

	if driver == "sqlite" {
		if dsn == "" {
			dsn = ":memory:?_journal_mode=WAL"
		} else if !strings.Contains(dsn, "?") {
			if dir := filepath.Dir(dsn); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return nil, fmt.Errorf("create data dir: %w", err)
				}
			}
			dsn += "?_journal_mode=WAL&_busy_timeout=5000"
		}
	} else {
		dsn = sanitizeDSN(driver, dsn)
	}

	db, err := sqlx.Connect(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open key database: %w", err)
	}

	if driver == "sqlite" {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

		// Enable foreign keys (off by default in SQLite).
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	s := &SQLStore{db: db, driver: driver, params: params}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate key database: %w", err)
	}
	return s, nil
}

// apiKeyRow maps 1:1 to the api_keys table columns.
type apiKeyRow struct {
	ID        string       `db:"id"`
	KeyHash   string       `db:"key_hash"`
	KeyPrefix string       `db:"key_prefix"`
	Role      string       `db:"role"`
	Label     string       `db:"label"`
	IsActive  bool         `db:"is_active"`
	CreatedAt time.Time    `db:"created_at"`
	LastUsed  sql.NullTime `db:"last_used"`
}

func (r apiKeyRow) toModel() model.APIKey {
	k := model.APIKey{
		ID:        r.ID,
		KeyPrefix: r.KeyPrefix,
		Role:      model.Role(r.Role),
		Label:     r.Label,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
	}
	if r.LastUsed.Valid {
		t := r.LastUsed.Time
		k.LastUsed = &t
	}
	return k
}

func (s *SQLStore) Verify(ctx context.Context, rawKey string) (model.Role, error) {
	var rows []apiKeyRow
	q := s.db.Rebind("SELECT id, key_hash, key_prefix, role, label, is_active, created_at, last_used FROM api_keys WHERE key_prefix = ? AND is_active = ?")
	if err := s.db.SelectContext(ctx, &rows, q, keyPrefix(rawKey), true); err != nil {
		return "", fmt.Errorf("select api keys: %w", err)
	}

	for i := range rows {
		match, err := verifyKey(rawKey, rows[i].KeyHash)
		if err != nil || !match {
			continue
		}
		s.touchLastUsed(ctx, rows[i].ID)
		return model.Role(rows[i].Role), nil
	}
	return "", ErrNotFound
}

// touchLastUsed is best-effort; a failed timestamp update must not fail the
// verification that just succeeded.
func (s *SQLStore) touchLastUsed(ctx context.Context, id string) {
	q := s.db.Rebind("UPDATE api_keys SET last_used = ? WHERE id = ?")
	_, _ = s.db.ExecContext(ctx, q, time.Now().UTC(), id)
}

func (s *SQLStore) Insert(ctx context.Context, rawKey string, role model.Role, label string) (string, error) {
	if _, err := s.Verify(ctx, rawKey); err == nil {
		return "", ErrDuplicateKey
	}

	hash, err := hashKey(rawKey, s.params)
	if err != nil {
		return "", err
	}

	row := apiKeyRow{
		ID:        uuid.NewString(),
		KeyHash:   hash,
		KeyPrefix: keyPrefix(rawKey),
		Role:      role.String(),
		Label:     label,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.NamedExecContext(ctx, `INSERT INTO api_keys (id, key_hash, key_prefix, role, label, is_active, created_at)
		VALUES (:id, :key_hash, :key_prefix, :role, :label, :is_active, :created_at)`, row)
	if err != nil {
		return "", fmt.Errorf("insert api key: %w", err)
	}
	return row.ID, nil
}

func (s *SQLStore) Revoke(ctx context.Context, id string) error {
	q := s.db.Rebind("UPDATE api_keys SET is_active = ? WHERE id = ?")
	res, err := s.db.ExecContext(ctx, q, false, id)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]model.APIKey, error) {
	// key_hash stays out of the result set.
	var rows []apiKeyRow
	q := "SELECT id, key_prefix, role, label, is_active, created_at, last_used FROM api_keys ORDER BY created_at DESC"
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}

	out := make([]model.APIKey, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// GetSetting returns the named settings row, or ErrNotFound.
func (s *SQLStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	q := s.db.Rebind("SELECT value FROM settings WHERE name = ?")
	err := s.db.GetContext(ctx, &value, q, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

// SetSetting writes key=value, updating in place when the row exists. The
// update-then-insert pair stays portable across all four dialects; native
// upsert syntax does not.
func (s *SQLStore) SetSetting(ctx context.Context, key, value string) error {
	q := s.db.Rebind("UPDATE settings SET value = ? WHERE name = ?")
	res, err := s.db.ExecContext(ctx, q, value, key)
	if err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	q = s.db.Rebind("INSERT INTO settings (name, value) VALUES (?, ?)")
	if _, err := s.db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
