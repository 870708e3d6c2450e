package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	codec := NewCodec("test-secret", time.Hour)
	claims := IdentityClaims{
		UserID:    uuid.New(),
		Email:     "alice@example.com",
		Role:      "CUSTOMER",
		FirstName: "Alice",
		LastName:  "Example",
	}

	token, err := codec.Issue(claims)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	got, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if got.UserID != claims.UserID {
		t.Fatalf("expected user id %s, got %s", claims.UserID, got.UserID)
	}
	if got.Email != claims.Email || got.Role != claims.Role {
		t.Fatalf("expected claims to round-trip, got email=%q role=%q", got.Email, got.Role)
	}
	if got.ExpiresAt == nil {
		t.Fatal("expected an expiry to be set")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewCodec("secret-a", time.Hour)
	verifier := NewCodec("secret-b", time.Hour)

	token, err := issuer.Issue(IdentityClaims{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := verifier.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	codec := NewCodec("test-secret", time.Hour)
	if _, err := codec.Verify("not.a.token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyReportsExpiry(t *testing.T) {
	codec := NewCodec("test-secret", time.Minute)
	issuedAt := time.Now()
	codec.now = func() time.Time { return issuedAt }

	token, err := codec.Issue(IdentityClaims{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	// Move the clock past the TTL plus the default leeway.
	codec.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	if _, err := codec.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}
