package session

import (
	"fmt"
	"net/http"
	"time"
)

// Session methods. Essential is the opaque-token-with-hashed-public-data
// scheme; advanced is the rotating-refresh-token scheme, recognized in
// configuration but not implemented.
const (
	MethodEssential = "essential"
	MethodAdvanced  = "advanced"
)

// minSecretLength is the minimum signing secret length required in production.
const minSecretLength = 32

// devSecretKey is used outside production when no secret is configured.
const devSecretKey = "development-only-session-secret-do-not-deploy"

// Config holds the session core configuration. It is read-only after
// construction; build it once at startup and pass it to NewManager.
type Config struct {
	// Environment mirrors NODE_ENV; "production" enables strict secret checks.
	Environment string `env:"NODE_ENV" envDefault:"development"`

	// SecretKey signs anonymous session JWTs. Required and at least 32 bytes
	// in production.
	SecretKey string `env:"SESSION_SECRET_KEY"`

	// LegacySecretKey is the old name of SecretKey. Setting it alone in
	// production produces a rename error instead of a silent fallback.
	LegacySecretKey string `env:"SECRET_SESSION_KEY"`

	// DisableCSRFProtection turns off the anti-CSRF check on state-changing
	// methods. Dangerous; exists for controlled environments only.
	DisableCSRFProtection bool `env:"DANGEROUSLY_DISABLE_CSRF_PROTECTION"`

	// Method selects the credential scheme for authenticated sessions.
	Method string `env:"SESSION_METHOD" envDefault:"essential"`

	SessionExpiryMinutes     int `env:"SESSION_EXPIRY_MINUTES" envDefault:"43200"`       // 30 days
	AnonSessionExpiryMinutes int `env:"ANON_SESSION_EXPIRY_MINUTES" envDefault:"2628000"` // 5 years

	// CookiePrefix is prepended to every cookie name this core writes.
	CookiePrefix string `env:"SESSION_COOKIE_PREFIX"`

	// SecureCookies marks cookies Secure unless the request host is localhost.
	SecureCookies bool          `env:"SESSION_SECURE_COOKIES" envDefault:"true"`
	SameSite      http.SameSite `env:"SESSION_SAME_SITE" envDefault:"2"` // SameSiteLaxMode
	Domain        string        `env:"SESSION_COOKIE_DOMAIN"`

	// PublicDataKeysToSync lists public-data keys propagated to every other
	// session of the same user on SetPublicData.
	PublicDataKeysToSync []string `env:"SESSION_PUBLIC_DATA_KEYS_TO_SYNC"`

	// IsAuthorized is the application-supplied authorization predicate used
	// by Context.Authorize and Context.IsAuthorized. A nil predicate denies
	// every authorization check.
	IsAuthorized AuthorizationPredicate `env:"-"`
}

// DefaultConfig returns a Config with the defaults used in development.
func DefaultConfig() Config {
	return Config{
		Environment:              "development",
		Method:                   MethodEssential,
		SessionExpiryMinutes:     43200,
		AnonSessionExpiryMinutes: 2628000,
		SecureCookies:            true,
		SameSite:                 http.SameSiteLaxMode,
	}
}

// Validate checks the configuration for startup-time failures.
func (c Config) Validate() error {
	switch c.Method {
	case MethodEssential, MethodAdvanced:
	default:
		return fmt.Errorf("%w: unknown session method %q", ErrInvalidConfig, c.Method)
	}
	if c.SessionExpiryMinutes <= 0 || c.AnonSessionExpiryMinutes <= 0 {
		return fmt.Errorf("%w: session expiry must be positive", ErrInvalidConfig)
	}
	if _, err := c.secretKey(); err != nil {
		return err
	}
	return nil
}

func (c Config) isProduction() bool {
	return c.Environment == "production"
}

// secretKey resolves the signing secret. Production requires an explicit
// secret of at least minSecretLength bytes; other environments fall back to a
// fixed development secret.
func (c Config) secretKey() (string, error) {
	if !c.isProduction() {
		if c.SecretKey != "" {
			return c.SecretKey, nil
		}
		return devSecretKey, nil
	}

	if c.SecretKey == "" {
		if c.LegacySecretKey != "" {
			return "", fmt.Errorf("%w: SECRET_SESSION_KEY was renamed to SESSION_SECRET_KEY, update your environment", ErrInvalidConfig)
		}
		return "", fmt.Errorf("%w: SESSION_SECRET_KEY is required in production", ErrInvalidConfig)
	}
	if len(c.SecretKey) < minSecretLength {
		return "", fmt.Errorf("%w: SESSION_SECRET_KEY must be at least %d bytes", ErrInvalidConfig, minSecretLength)
	}
	return c.SecretKey, nil
}

func (c Config) sessionTTL() time.Duration {
	return time.Duration(c.SessionExpiryMinutes) * time.Minute
}

func (c Config) anonSessionTTL() time.Duration {
	return time.Duration(c.AnonSessionExpiryMinutes) * time.Minute
}

// AuthorizationPredicate decides whether the current session may perform an
// operation. The argument list is opaque to the core and interpreted by the
// application (typically role or permission names).
type AuthorizationPredicate interface {
	Authorize(ctx *Context, args ...any) bool
}

// AuthorizerFunc adapts a plain function to an AuthorizationPredicate.
type AuthorizerFunc func(ctx *Context, args ...any) bool

// Authorize implements AuthorizationPredicate.
func (f AuthorizerFunc) Authorize(ctx *Context, args ...any) bool {
	return f(ctx, args...)
}
