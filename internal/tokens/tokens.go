// Package tokens issues and validates the signed bearer tokens that carry a
// user's identity between requests, and tracks explicit revocations so a
// logout takes effect before the token expires.
package tokens

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stencild/stencild/internal/config"
)

// ErrInvalidToken covers every validation failure: malformed encoding,
// signature mismatch, expiry and revocation. Callers must not distinguish
// between them.
var ErrInvalidToken = errors.New("invalid token")

// RevocationStore is the shared set of revoked token texts. Entries carry a
// TTL matching the token's remaining lifetime so the set does not grow
// without bound.
type RevocationStore interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Service issues HS256-signed access tokens bound to a subject identifier.
// One secret signs; previously rotated secrets are still accepted for
// verification until their tokens expire.
type Service struct {
	signSecret    []byte
	verifySecrets [][]byte
	ttl           time.Duration
	revoked       RevocationStore
}

func NewService(cfg config.JWTConfig, store RevocationStore) *Service {
	verify := [][]byte{[]byte(cfg.Secret)}
	for _, s := range cfg.PreviousSecrets {
		verify = append(verify, []byte(s))
	}
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		signSecret:    []byte(cfg.Secret),
		verifySecrets: verify,
		ttl:           ttl,
		revoked:       store,
	}
}

// Issue creates a signed access token for the given subject identifier.
func (s *Service) Issue(subjectID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subjectID,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString(s.signSecret)
}

// Validate returns the embedded subject identifier when the token is
// well-formed, signed by a known secret, unexpired and not revoked. It fails
// closed: every token fault maps to ErrInvalidToken, and a revocation-store
// failure denies rather than allows.
func (s *Service) Validate(ctx context.Context, raw string) (string, error) {
	var parsed *jwt.Token
	for _, secret := range s.verifySecrets {
		p, err := jwt.Parse(raw,
			func(t *jwt.Token) (interface{}, error) { return secret, nil },
			jwt.WithValidMethods([]string{"HS256"}))
		if err == nil && p.Valid {
			parsed = p
			break
		}
	}
	if parsed == nil {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidToken
	}
	revoked, err := s.revoked.IsRevoked(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("revocation check: %w", err)
	}
	if revoked {
		return "", ErrInvalidToken
	}
	return sub, nil
}

// Revoke adds the raw token text to the revocation store. Revoking twice has
// the same effect as once; an already-expired token is a no-op.
func (s *Service) Revoke(ctx context.Context, raw string) error {
	ttl := s.ttl
	if exp, err := parseExp(raw); err == nil {
		ttl = time.Until(exp)
		if ttl <= 0 {
			return nil
		}
	}
	return s.revoked.Revoke(ctx, raw, ttl)
}

// TTL returns the configured validity window.
func (s *Service) TTL() time.Duration { return s.ttl }

// parseExp decodes the token payload and returns the exp claim. This is a
// payload-only parse (no signature verification), used solely to compute the
// remaining TTL for a revocation entry.
func parseExp(raw string) (time.Time, error) {
	parts := strings.Split(raw, ".")
	if len(parts) < 2 {
		return time.Time{}, fmt.Errorf("invalid token")
	}
	b, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return time.Time{}, err
	}
	var claims struct {
		Exp float64 `json:"exp"`
	}
	if err := json.Unmarshal(b, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.Exp == 0 {
		return time.Time{}, fmt.Errorf("exp claim not present")
	}
	return time.Unix(int64(claims.Exp), 0), nil
}
