package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const CookieName = "jwt"

var ErrInvalidToken = errors.New("invalid token")

type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

// Claims carries the password stamp the token was issued against, so a
// password change invalidates every earlier token regardless of iat precision.
type Claims struct {
	PasswordStamp int64 `json:"pwd,omitempty"`
	jwt.RegisteredClaims
}

// PasswordStamp encodes a password change time at the microsecond precision
// Postgres keeps. Zero means the password was never changed.
func PasswordStamp(changedAt *time.Time) int64 {
	if changedAt == nil {
		return 0
	}
	return changedAt.UnixMicro()
}

// Tokens signs and verifies HS256 bearer tokens carrying the user id as subject.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(cfg TokenConfig) *Tokens {
	return &Tokens{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		now:    time.Now,
	}
}

func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

func (t *Tokens) Issue(userID string, passwordChangedAt *time.Time) (string, *Claims, error) {
	now := t.now()
	claims := &Claims{
		PasswordStamp: PasswordStamp(passwordChangedAt),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	return signed, claims, nil
}

func (t *Tokens) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Stale reports whether the password changed after the token was issued.
func (c *Claims) Stale(passwordChangedAt *time.Time) bool {
	return c.PasswordStamp != PasswordStamp(passwordChangedAt)
}

// ExtractToken reads the token from the auth cookie, falling back to a bearer header.
func ExtractToken(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}

	return ""
}

// Revoker tracks logged-out token ids until they expire.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type noopRevoker struct{}

func (noopRevoker) Revoke(context.Context, string, time.Duration) error { return nil }

func (noopRevoker) IsRevoked(context.Context, string) (bool, error) { return false, nil }

// NoopRevoker is used when no revocation backend is configured.
var NoopRevoker Revoker = noopRevoker{}
