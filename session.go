package auth

import (
	"time"

	"github.com/goliatone/go-router"
)

// SessionManager persists the session token in an HTTP-only signed cookie
// and resolves it back into a SessionUser on later requests.
type SessionManager struct {
	cfg    *Config
	codec  TokenEncoder
	store  CredentialStore
	logger Logger
	now    func() time.Time
}

type SessionManagerOption func(*SessionManager)

// WithSessionLogger overrides the session logger.
func WithSessionLogger(l Logger) SessionManagerOption {
	return func(s *SessionManager) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSessionClock injects the clock used to compute cookie expiry.
func WithSessionClock(now func() time.Time) SessionManagerOption {
	return func(s *SessionManager) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSessionManager wires the cookie store to a codec and the credential
// store used for the authoritative re-fetch in GetUser.
func NewSessionManager(cfg *Config, codec TokenEncoder, store CredentialStore, opts ...SessionManagerOption) *SessionManager {
	s := &SessionManager{
		cfg:    cfg,
		codec:  codec,
		store:  store,
		logger: defLogger{},
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Establish mints a token expiring SessionTTL from now and persists it
// client-side. Call it only after every prior step of the action succeeded;
// a failed handler must leave no partial session behind.
func (s *SessionManager) Establish(c router.Context, user SessionUser) error {
	expires := s.now().Add(s.cfg.SessionTTL)

	token, err := s.codec.Encode(user, expires)
	if err != nil {
		return err
	}

	c.Cookie(&router.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Expires:  expires,
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: "Lax",
	})

	return nil
}

// Current reads and decodes the persisted token. The embedded projection is
// trusted for the token's lifetime without consulting the store: role or
// email changes only take effect after the next sign-in or re-issuance.
// Every decode failure collapses to nil.
func (s *SessionManager) Current(c router.Context) *SessionUser {
	raw := c.Cookies(s.cfg.CookieName)
	if raw == "" {
		return nil
	}

	claims, err := s.codec.Decode(raw)
	if err != nil {
		s.logger.Debug("session cookie rejected: %s", err)
		return nil
	}

	user := claims.User
	return &user
}

// GetUser resolves the current user for authorization decisions. The token
// is only a cheap existence hint here; the row fetched by id is the actual
// authority, so a deleted account stops being honored immediately even while
// its cookie is still cryptographically valid.
func (s *SessionManager) GetUser(c router.Context) (*SessionUser, error) {
	candidate := s.Current(c)
	if candidate == nil {
		return nil, ErrNoSession
	}

	row, err := s.store.FindByID(c.Context(), candidate.ID)
	if err != nil {
		if IsNoSession(err) {
			return nil, ErrNoSession
		}
		return nil, WrapStoreError(err, "failed to resolve session user")
	}

	user := row.SessionUser()
	return &user, nil
}

// Destroy removes the persisted token immediately. Calling it without a
// session is a no-op.
func (s *SessionManager) Destroy(c router.Context) {
	c.Cookie(&router.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Expires:  s.now().Add(-time.Hour * (24 * 365)),
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: "Lax",
	})
}
