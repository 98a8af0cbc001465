// Package config defines the gateway configuration schema and its loaders.
// Settings come from a YAML file, PORTCULLIS_* environment variables, and
// CLI flags, in increasing order of precedence. Validation runs once at
// startup; a config the gateway cannot run safely with is a fatal error,
// never a silent fallback.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/portcullisgw/portcullis/internal/keystore"
	"github.com/portcullisgw/portcullis/internal/model"
)

// Config is the top-level portcullis configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Auth      AuthConfig      `yaml:"auth" mapstructure:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Tufin     TufinConfig     `yaml:"tufin" mapstructure:"tufin"`
	MCP       MCPConfig       `yaml:"mcp" mapstructure:"mcp"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
	Bootstrap BootstrapConfig `yaml:"bootstrap" mapstructure:"bootstrap"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string     `yaml:"host" mapstructure:"host"`
	Port            int        `yaml:"port" mapstructure:"port" validate:"min=0,max=65535"`
	MaxBodySize     string     `yaml:"max_body_size" mapstructure:"max_body_size"`
	ShutdownTimeout string     `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	CORS            CORSConfig `yaml:"cors" mapstructure:"cors"`
	TLS             TLSConfig  `yaml:"tls" mapstructure:"tls"`
}

// CORSConfig controls cross-origin resource sharing settings.
type CORSConfig struct {
	Origins []string `yaml:"origins" mapstructure:"origins"`
	Methods []string `yaml:"methods" mapstructure:"methods"`
}

// TLSConfig controls TLS termination at the server level.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile  string `yaml:"key_file" mapstructure:"key_file"`
}

// AuthConfig controls authentication settings.
type AuthConfig struct {
	APIKeyHeader string       `yaml:"api_key_header" mapstructure:"api_key_header"`
	JWTSecret    string       `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	JWTExpiry    string       `yaml:"jwt_expiry" mapstructure:"jwt_expiry"`
	Argon2       Argon2Config `yaml:"argon2" mapstructure:"argon2"`
	Admins       []AdminSeed  `yaml:"admins" mapstructure:"admins" validate:"omitempty,dive"`
}

// Argon2Config exposes the argon2id cost knobs. Salt and key lengths are
// fixed in the keystore.
type Argon2Config struct {
	MemoryKiB   int `yaml:"memory_kib" mapstructure:"memory_kib" validate:"min=0"`
	Iterations  int `yaml:"iterations" mapstructure:"iterations" validate:"min=0"`
	Parallelism int `yaml:"parallelism" mapstructure:"parallelism" validate:"min=0,max=255"`
}

// AdminSeed declares a management-UI admin account in the config file. The
// password is stored as a bcrypt hash, never in the clear; use
// `portcullis admin hash` to produce one.
type AdminSeed struct {
	Email        string `yaml:"email" mapstructure:"email" validate:"required,email"`
	Name         string `yaml:"name" mapstructure:"name"`
	PasswordHash string `yaml:"password_hash" mapstructure:"password_hash" validate:"required"`
}

// RateLimitConfig controls the global per-source fixed-window limiter.
type RateLimitConfig struct {
	Requests int    `yaml:"requests" mapstructure:"requests" validate:"min=1"`
	Window   string `yaml:"window" mapstructure:"window"`
}

// StoreConfig selects and configures the API key store backend.
type StoreConfig struct {
	Driver string      `yaml:"driver" mapstructure:"driver" validate:"omitempty,oneof=memory sqlite postgres mysql mssql sqlserver redis"`
	DSN    string      `yaml:"dsn" mapstructure:"dsn"`
	Redis  RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig configures the redis key store backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db" validate:"min=0"`
}

// TufinConfig holds the upstream SecureTrack/SecureChange connection.
type TufinConfig struct {
	SecureTrackURL  string `yaml:"securetrack_url" mapstructure:"securetrack_url" validate:"omitempty,url"`
	SecureChangeURL string `yaml:"securechange_url" mapstructure:"securechange_url" validate:"omitempty,url"`
	GraphQLURL      string `yaml:"graphql_url" mapstructure:"graphql_url" validate:"omitempty,url"`
	Username        string `yaml:"username" mapstructure:"username"`
	Password        string `yaml:"password" mapstructure:"password"`
	SSLVerify       *bool  `yaml:"ssl_verify" mapstructure:"ssl_verify"`
	Timeout         string `yaml:"timeout" mapstructure:"timeout"`
}

// MCPConfig controls the MCP (Model Context Protocol) server surface.
type MCPConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Transport string `yaml:"transport" mapstructure:"transport" validate:"omitempty,oneof=stdio"`
	Role      string `yaml:"role" mapstructure:"role" validate:"omitempty,oneof=admin ticket_manager user"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=text json"`
}

// TelemetryConfig controls anonymous usage reporting.
type TelemetryConfig struct {
	Enabled *bool `yaml:"enabled" mapstructure:"enabled"`
}

// ReportingEnabled reports whether anonymous usage reporting is on. Unset
// means on.
func (t TelemetryConfig) ReportingEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

// BootstrapConfig points at startup API key seeding sources. Keys may also
// arrive through the PORTCULLIS_BOOTSTRAP_KEYS environment variable.
type BootstrapConfig struct {
	KeysFile string `yaml:"keys_file" mapstructure:"keys_file"`
}

// SetDefaults fills every unset field with its default value.
func (c *Config) SetDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.MaxBodySize == "" {
		c.Server.MaxBodySize = "10MB"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "30s"
	}
	if len(c.Server.CORS.Origins) == 0 {
		c.Server.CORS.Origins = []string{"*"}
	}
	if len(c.Server.CORS.Methods) == 0 {
		c.Server.CORS.Methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}
	}
	if c.Auth.APIKeyHeader == "" {
		c.Auth.APIKeyHeader = "X-API-Key"
	}
	if c.Auth.JWTExpiry == "" {
		c.Auth.JWTExpiry = "1h"
	}
	if c.Auth.Argon2.MemoryKiB == 0 {
		c.Auth.Argon2.MemoryKiB = int(keystore.DefaultParams().MemoryKiB)
	}
	if c.Auth.Argon2.Iterations == 0 {
		c.Auth.Argon2.Iterations = int(keystore.DefaultParams().Iterations)
	}
	if c.Auth.Argon2.Parallelism == 0 {
		c.Auth.Argon2.Parallelism = int(keystore.DefaultParams().Parallelism)
	}
	if c.RateLimit.Requests == 0 {
		c.RateLimit.Requests = 60
	}
	if c.RateLimit.Window == "" {
		c.RateLimit.Window = "60s"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.Redis.Addr == "" {
		c.Store.Redis.Addr = "localhost:6379"
	}
	if c.Tufin.SSLVerify == nil {
		t := true
		c.Tufin.SSLVerify = &t
	}
	if c.Tufin.Timeout == "" {
		c.Tufin.Timeout = "30s"
	}
	if c.MCP.Transport == "" {
		c.MCP.Transport = "stdio"
	}
	if c.MCP.Role == "" {
		c.MCP.Role = string(model.RoleUser)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Telemetry.Enabled == nil {
		t := true
		c.Telemetry.Enabled = &t
	}
}

// Default returns a Config pre-filled with every default value.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// ShutdownDuration parses server.shutdown_timeout, falling back to 30s.
func (s ServerConfig) ShutdownDuration() time.Duration {
	return parseDuration(s.ShutdownTimeout, 30*time.Second)
}

// MaxBodyBytes parses server.max_body_size ("10MB", "512KB", or a bare byte
// count), falling back to 10 MiB.
func (s ServerConfig) MaxBodyBytes() int64 {
	return parseSize(s.MaxBodySize, 10*1024*1024)
}

// JWTExpiryDuration parses auth.jwt_expiry, falling back to 1h.
func (a AuthConfig) JWTExpiryDuration() time.Duration {
	return parseDuration(a.JWTExpiry, time.Hour)
}

// KeyParams converts the argon2 section into keystore cost parameters.
func (a AuthConfig) KeyParams() keystore.Params {
	p := keystore.DefaultParams()
	if a.Argon2.MemoryKiB > 0 {
		p.MemoryKiB = uint32(a.Argon2.MemoryKiB)
	}
	if a.Argon2.Iterations > 0 {
		p.Iterations = uint32(a.Argon2.Iterations)
	}
	if a.Argon2.Parallelism > 0 {
		p.Parallelism = uint8(a.Argon2.Parallelism)
	}
	return p
}

// WindowDuration parses rate_limit.window, falling back to 60s.
func (r RateLimitConfig) WindowDuration() time.Duration {
	return parseDuration(r.Window, 60*time.Second)
}

// TimeoutDuration parses tufin.timeout, falling back to 30s.
func (t TufinConfig) TimeoutDuration() time.Duration {
	return parseDuration(t.Timeout, 30*time.Second)
}

// VerifyTLS reports whether upstream certificate verification is on. Unset
// means on.
func (t TufinConfig) VerifyTLS() bool {
	return t.SSLVerify == nil || *t.SSLVerify
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// parseSize understands bare byte counts plus KB/MB/GB suffixes (powers of
// 1024, case-insensitive).
func parseSize(s string, fallback int64) int64 {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" {
		return fallback
	}
	mult := int64(1)
	switch {
	case strings.HasSuffix(s, "GB"):
		mult, s = 1024*1024*1024, strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		mult, s = 1024*1024, strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		mult, s = 1024, strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		s = strings.TrimSuffix(s, "B")
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n * mult
}

// WriteDefault writes the default configuration to a YAML file.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
