package auth

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// DefaultSessionTTL is how long a session token stays valid after issuance.
const DefaultSessionTTL = 7 * 24 * time.Hour

// DefaultCookieName is the cookie that carries the session token.
const DefaultCookieName = "session"

// Config carries the signing key, cookie attributes, and route targets for
// the session layer. It is constructed explicitly and injected into the
// TokenCodec and SessionManager so both can run with test keys.
type Config struct {
	SigningKey     string
	CookieName     string
	SessionTTL     time.Duration
	CookieSecure   bool
	SignInRoute    string
	DashboardRoute string
}

// NewConfig returns a Config with production defaults for everything but the
// signing key, which has no default on purpose.
func NewConfig(signingKey string) *Config {
	return &Config{
		SigningKey:     signingKey,
		CookieName:     DefaultCookieName,
		SessionTTL:     DefaultSessionTTL,
		CookieSecure:   true,
		SignInRoute:    "/sign-in",
		DashboardRoute: "/dashboard",
	}
}

// Validate will run validation rules
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SigningKey, validation.Required, validation.Length(32, 0)),
		validation.Field(&c.CookieName, validation.Required),
		validation.Field(&c.SessionTTL, validation.Required),
	)
}
