package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/portcullisgw/portcullis/internal/config"
	"github.com/portcullisgw/portcullis/internal/keystore"
	"github.com/portcullisgw/portcullis/internal/tufin"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from --data-dir flag,
// PORTCULLIS_DATA_DIR env var, or ~/.portcullis as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("PORTCULLIS_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return home + "/.portcullis"
}

// openKeyStore opens the API key store selected by the store config section.
// A sqlite driver with no DSN defaults to portcullis.db in the data dir.
func openKeyStore(cfg *config.Config) (keystore.Store, error) {
	params := cfg.Auth.KeyParams()

	switch cfg.Store.Driver {
	case "memory":
		return keystore.NewMemoryStore(params), nil
	case "redis":
		return keystore.NewRedisStore(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB, params)
	case "sqlite":
		dsn := cfg.Store.DSN
		if dsn == "" {
			dsn = filepath.Join(resolveDataDir(), "portcullis.db")
		}
		return keystore.NewSQLStore("sqlite", dsn, params)
	case "postgres", "mysql", "mssql", "sqlserver":
		if cfg.Store.DSN == "" {
			return nil, fmt.Errorf("store.dsn is required for driver %q", cfg.Store.Driver)
		}
		return keystore.NewSQLStore(cfg.Store.Driver, cfg.Store.DSN, params)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

// newLogger builds the process logger from the logging config section. The
// dev flag forces debug level regardless of configuration.
func newLogger(cfg *config.Config, dev bool) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if dev {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// newTufinClient builds the upstream client from the tufin config section.
func newTufinClient(cfg *config.Config) *tufin.HTTPClient {
	return tufin.NewHTTPClient(tufin.Config{
		SecureTrackURL:  cfg.Tufin.SecureTrackURL,
		SecureChangeURL: cfg.Tufin.SecureChangeURL,
		GraphQLURL:      cfg.Tufin.GraphQLURL,
		Username:        cfg.Tufin.Username,
		Password:        cfg.Tufin.Password,
		SSLVerify:       cfg.Tufin.VerifyTLS(),
		Timeout:         cfg.Tufin.TimeoutDuration(),
		UserAgent:       "portcullis/" + versionString(),
	})
}

// --- PID file management ---

func pidFilePath() string {
	return filepath.Join(resolveDataDir(), "portcullis.pid")
}

func writePID(pid int) error {
	dir := resolveDataDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(pidFilePath(), []byte(strconv.Itoa(pid)), 0644)
}

func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePID() {
	os.Remove(pidFilePath())
}

func logFilePath() string {
	return filepath.Join(resolveDataDir(), "portcullis.log")
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
