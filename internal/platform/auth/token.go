package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	defaultIssuer   = "marketbay-api"
	defaultTokenTTL = 24 * time.Hour
)

var (
	// ErrTokenExpired signals that the provided session token has expired.
	ErrTokenExpired = errors.New("auth: session token expired")
	// ErrTokenInvalid signals that the provided session token is invalid for other reasons.
	ErrTokenInvalid = errors.New("auth: session token invalid")
)

type sessionClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies signed session tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  func() time.Time
}

// TokenOption customises TokenIssuer behaviour.
type TokenOption func(*TokenIssuer)

// WithTokenTTL overrides the session token lifetime.
func WithTokenTTL(ttl time.Duration) TokenOption {
	return func(t *TokenIssuer) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

// WithTokenIssuerName overrides the issuer claim stamped on minted tokens.
func WithTokenIssuerName(name string) TokenOption {
	return func(t *TokenIssuer) {
		name = strings.TrimSpace(name)
		if name != "" {
			t.issuer = name
		}
	}
}

// WithTokenClock injects the time source used for issued-at and expiry claims.
func WithTokenClock(clock func() time.Time) TokenOption {
	return func(t *TokenIssuer) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// NewTokenIssuer constructs a TokenIssuer signing tokens with the provided HMAC secret.
func NewTokenIssuer(secret []byte, opts ...TokenOption) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: signing secret is required")
	}

	issuer := &TokenIssuer{
		secret: secret,
		issuer: defaultIssuer,
		ttl:    defaultTokenTTL,
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(issuer)
		}
	}
	return issuer, nil
}

// Issue mints a signed session token for the provided identity.
func (t *TokenIssuer) Issue(identity Identity) (string, error) {
	if t == nil {
		return "", errors.New("auth: token issuer not configured")
	}
	if strings.TrimSpace(identity.UserID) == "" {
		return "", errors.New("auth: identity requires a user id")
	}

	now := t.clock().UTC()
	claims := sessionClaims{
		Email: identity.Email,
		Name:  identity.Name,
		Role:  normaliseRole(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses the signed token and returns the embedded identity.
func (t *TokenIssuer) Verify(tokenStr string) (*Identity, error) {
	if t == nil {
		return nil, ErrTokenInvalid
	}
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, ErrTokenInvalid
	}

	claims := &sessionClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	token, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	// The parser has no time hook, so claim times are checked here against
	// the injected clock.
	now := t.clock().UTC()
	if claims.ExpiresAt == nil {
		return nil, ErrTokenInvalid
	}
	if !now.Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}
	if claims.NotBefore != nil && now.Before(claims.NotBefore.Time) {
		return nil, ErrTokenInvalid
	}

	if t.issuer != "" && claims.Issuer != t.issuer {
		return nil, ErrTokenInvalid
	}

	role := normaliseRole(claims.Role)
	if role == "" {
		role = RoleUser
	}

	return &Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Name:   claims.Name,
		Role:   role,
	}, nil
}
