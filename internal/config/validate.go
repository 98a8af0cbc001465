package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validate checks struct tags plus the cross-field rules tags cannot
// express. It covers everything needed before any component starts; callers
// treat a non-nil error as fatal.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	for field, val := range map[string]string{
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"auth.jwt_expiry":         c.Auth.JWTExpiry,
		"rate_limit.window":       c.RateLimit.Window,
		"tufin.timeout":           c.Tufin.Timeout,
	} {
		if val == "" {
			continue
		}
		if d, err := time.ParseDuration(val); err != nil || d <= 0 {
			return fmt.Errorf("%s: %q is not a positive duration", field, val)
		}
	}

	if c.Server.TLS.Enabled && (c.Server.TLS.CertFile == "" || c.Server.TLS.KeyFile == "") {
		return errors.New("server.tls: cert_file and key_file are required when enabled")
	}
	return nil
}

// RequireTufin checks the fields the proxy surface cannot run without. The
// serve path calls this on top of Validate; key-management commands do not.
func (c *Config) RequireTufin() error {
	var missing []string
	if c.Tufin.SecureTrackURL == "" {
		missing = append(missing, "tufin.securetrack_url")
	}
	if c.Tufin.SecureChangeURL == "" {
		missing = append(missing, "tufin.securechange_url")
	}
	if c.Tufin.Username == "" {
		missing = append(missing, "tufin.username")
	}
	if c.Tufin.Password == "" {
		missing = append(missing, "tufin.password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// formatValidationErrors converts validator.ValidationErrors to actionable
// messages.
func formatValidationErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatSingleValidationError(e))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}
