package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the cookie carrying the signed session token.
const CookieName = "salary_session"

// ErrInvalidToken is returned for tokens that fail signature, expiry or
// claim checks.
var ErrInvalidToken = errors.New("invalid session token")

// TokenService signs and verifies session tokens (HS256 JWT carrying the
// session ID).
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService returns a TokenService. Tokens expire after ttl.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL reports how long issued tokens stay valid.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for session id.
func (s *TokenService) Issue(id string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"session_id": id,
		"iat":        now.Unix(),
		"exp":        now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Claims is the verified content of a session token.
type Claims struct {
	SessionID string
	IssuedAt  time.Time
}

// Verify checks tokenStr and returns its claims.
func (s *TokenService) Verify(tokenStr string) (Claims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	id, _ := claims["session_id"].(string)
	if id == "" {
		return Claims{}, fmt.Errorf("%w: missing session_id", ErrInvalidToken)
	}
	out := Claims{SessionID: id}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	return out, nil
}

// Parse verifies tokenStr and returns the session ID it carries.
func (s *TokenService) Parse(tokenStr string) (string, error) {
	c, err := s.Verify(tokenStr)
	return c.SessionID, err
}

// Stale reports whether c is past half its lifetime and should be
// re-issued. A token without iat is always stale.
func (s *TokenService) Stale(c Claims) bool {
	if c.IssuedAt.IsZero() {
		return true
	}
	return !s.now().Before(c.IssuedAt.Add(s.ttl / 2))
}

// NewID returns a random 128-bit session ID, hex encoded.
func NewID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
	return hex.EncodeToString(b[:])
}
