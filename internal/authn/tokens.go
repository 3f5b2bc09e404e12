package authn

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of a session token.
type Claims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	AuthTime int64  `json:"auth_time"`
	jwt.RegisteredClaims
}

// AuthenticatedAt is when the holder last proved knowledge of the password.
func (c *Claims) AuthenticatedAt() time.Time {
	return time.Unix(c.AuthTime, 0)
}

// Tokens signs and validates HS256 session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens returns a token manager. ttl bounds the lifetime of every token.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for uid. authTime is carried unchanged into the claims.
func (t *Tokens) Issue(uid, email string, authTime time.Time) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)
	claims := &Claims{
		UserID:   uid,
		Email:    email,
		AuthTime: authTime.Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses a token and returns its claims. Any failure is reported as
// CodeUnauthenticated.
func (t *Tokens) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, Errorf(CodeUnauthenticated, "invalid session token: %v", err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return nil, Errorf(CodeUnauthenticated, "invalid session token")
	}
	return claims, nil
}
