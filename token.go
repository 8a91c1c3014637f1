package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// SigningAlgorithm is the only algorithm the codec mints or accepts. The
// keyfunc refuses to hand out the key for any other header value.
const SigningAlgorithm = "HS256"

// SessionClaims is the signed token payload: the SessionUser projection plus
// the registered expiry and issuance claims.
type SessionClaims struct {
	jwt.RegisteredClaims
	User SessionUser `json:"user"`
}

// Expires returns the expiry embedded at issuance.
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// TokenCodec signs and verifies session tokens with a server-held symmetric
// key. The zero value is not usable; construct it with NewTokenCodec.
type TokenCodec struct {
	signingKey []byte
	logger     Logger
	now        func() time.Time
}

var _ TokenEncoder = (*TokenCodec)(nil)

type TokenCodecOption func(*TokenCodec)

// WithTokenLogger overrides the codec logger.
func WithTokenLogger(l Logger) TokenCodecOption {
	return func(tc *TokenCodec) {
		if l != nil {
			tc.logger = l
		}
	}
}

// WithTokenClock injects the clock used for expiry checks. Tests use this to
// simulate a skip past the validity window.
func WithTokenClock(now func() time.Time) TokenCodecOption {
	return func(tc *TokenCodec) {
		if now != nil {
			tc.now = now
		}
	}
}

// NewTokenCodec creates a codec bound to the configured signing key.
func NewTokenCodec(cfg *Config, opts ...TokenCodecOption) *TokenCodec {
	tc := &TokenCodec{
		signingKey: []byte(cfg.SigningKey),
		logger:     defLogger{},
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(tc)
		}
	}

	return tc
}

// Encode serializes and signs a {user, expires} payload.
func (tc *TokenCodec) Encode(user SessionUser, expires time.Time) (string, error) {
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(tc.now()),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		User: user,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(tc.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign session token")
	}

	return signed, nil
}

// Decode verifies signature, algorithm, and expiry and returns the embedded
// claims. Every failure maps to one of the sentinel reasons in errors.go;
// callers that only care about "no valid session" treat them uniformly. The
// cause is logged without echoing the token or the key.
func (tc *TokenCodec) Decode(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != SigningAlgorithm {
			tc.logger.Error("token decode rejected signing method %v", t.Header["alg"])
			return nil, ErrTokenAlgorithm
		}
		return tc.signingKey, nil
	}, jwt.WithTimeFunc(tc.now))

	if err != nil {
		reason := decodeFailureReason(err)
		tc.logger.Debug("token decode failed: %s", reason)
		return nil, reason
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		tc.logger.Error("token decode produced unusable claims")
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

func decodeFailureReason(err error) error {
	switch {
	case goerrors.Is(err, ErrTokenAlgorithm):
		return ErrTokenAlgorithm
	case goerrors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case goerrors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenSignature
	default:
		return ErrTokenMalformed
	}
}
