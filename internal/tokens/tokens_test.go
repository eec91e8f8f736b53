package tokens

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stencild/stencild/internal/config"
)

func testService(secret string, previous ...string) *Service {
	return NewService(config.JWTConfig{
		Secret:          secret,
		PreviousSecrets: previous,
		AccessTokenTTL:  24 * time.Hour,
	}, NewMemoryRevocations())
}

func TestIssueValidate_RoundTrip(t *testing.T) {
	svc := testService("test-secret-32-bytes-should-be-long")
	tok, err := svc.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	sub, err := svc.Validate(context.Background(), tok)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if sub != "user-123" {
		t.Fatalf("unexpected subject: got=%q want=%q", sub, "user-123")
	}
}

func TestValidate_WrongSecretFails(t *testing.T) {
	issuer := testService("secret-one-32-bytes-xxxxxxxxxxxxxxxx")
	verifier := testService("different-secret-xxxxxxxxxxxxxxxxxxx")
	tok, err := issuer.Issue("u3")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := verifier.Validate(context.Background(), tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidate_ExpiredToken(t *testing.T) {
	secret := "expiry-test-secret-32-bytes-xxxxxxx"
	svc := testService(secret)
	// sign a token whose exp is already in the past
	claims := jwt.MapClaims{
		"sub": "u2",
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
		"exp": time.Now().Add(-1 * time.Hour).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	if _, err := svc.Validate(context.Background(), tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestValidate_Malformed(t *testing.T) {
	svc := testService("malformed-test-secret-32-bytes-xxxx")
	for _, raw := range []string{"", "not.a.jwt", "garbage"} {
		if _, err := svc.Validate(context.Background(), raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", raw, err)
		}
	}
}

// Rejected when alg=none (unsigned token)
func TestValidate_AlgNoneRejected(t *testing.T) {
	svc := testService("alg-none-test-secret-32-bytes-xxxxx")
	headerEnc := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payloadEnc := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"u-none","exp":9999999999}`))
	tok := headerEnc + "." + payloadEnc + "."
	if _, err := svc.Validate(context.Background(), tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected alg=none token to be rejected, got %v", err)
	}
}

// Tampering with payload must fail signature verification
func TestValidate_TamperedPayload(t *testing.T) {
	svc := testService("tamper-test-secret-32-bytes-xxxxxxx")
	tok, err := svc.Issue("user-t")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token parts")
	}
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(strings.Replace(string(payloadBytes), "user-t", "attacker", 1)))
	tampered := strings.Join(parts, ".")
	if _, err := svc.Validate(context.Background(), tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected tampered token to be rejected, got %v", err)
	}
}

func TestRevoke_RejectsBeforeExpiry(t *testing.T) {
	svc := testService("revoke-test-secret-32-bytes-xxxxxxx")
	tok, err := svc.Issue("user-r")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	ctx := context.Background()
	if err := svc.Revoke(ctx, tok); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	if _, err := svc.Validate(ctx, tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected revoked token to be invalid, got %v", err)
	}
	// revoking twice has the same effect as once
	if err := svc.Revoke(ctx, tok); err != nil {
		t.Fatalf("second Revoke error: %v", err)
	}
	if _, err := svc.Validate(ctx, tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected token to stay invalid, got %v", err)
	}
}

func TestValidate_AcceptsRotatedSecret(t *testing.T) {
	old := testService("old-signing-secret-32-bytes-xxxxxxx")
	rotated := testService("new-signing-secret-32-bytes-xxxxxxx", "old-signing-secret-32-bytes-xxxxxxx")

	tok, err := old.Issue("user-rot")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	sub, err := rotated.Validate(context.Background(), tok)
	if err != nil {
		t.Fatalf("expected token signed with previous secret to validate: %v", err)
	}
	if sub != "user-rot" {
		t.Fatalf("unexpected subject: %q", sub)
	}
}

// failing revocation store must deny, never allow
type failingStore struct{}

func (failingStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	return fmt.Errorf("store down")
}
func (failingStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	return false, fmt.Errorf("store down")
}

func TestValidate_StoreFailureFailsClosed(t *testing.T) {
	svc := NewService(config.JWTConfig{Secret: "closed-test-secret-32-bytes-xxxxxxx"}, failingStore{})
	tok, err := svc.Issue("user-c")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := svc.Validate(context.Background(), tok); err == nil {
		t.Fatalf("expected validation to fail when revocation store is unavailable")
	}
}

func TestMemoryRevocations_ExpiryAndConcurrency(t *testing.T) {
	store := NewMemoryRevocations()
	ctx := context.Background()

	if err := store.Revoke(ctx, "short-lived", 10*time.Millisecond); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	if ok, _ := store.IsRevoked(ctx, "short-lived"); !ok {
		t.Fatalf("expected token to be revoked")
	}
	time.Sleep(20 * time.Millisecond)
	if ok, _ := store.IsRevoked(ctx, "short-lived"); ok {
		t.Fatalf("expected entry to lapse with the token expiry")
	}

	// concurrent revoke + membership checks must not race or lose updates
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok := fmt.Sprintf("tok-%d", i)
			if err := store.Revoke(ctx, tok, time.Minute); err != nil {
				t.Errorf("Revoke error: %v", err)
			}
			if ok, err := store.IsRevoked(ctx, tok); err != nil || !ok {
				t.Errorf("expected tok-%d revoked, ok=%v err=%v", i, ok, err)
			}
		}(i)
	}
	wg.Wait()
}
