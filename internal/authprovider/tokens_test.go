package authprovider

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"

	"marketBack/internal/models"
)

func TestTokenManagerRoundTrip(t *testing.T) {
	tm, err := NewTokenManager("test-signing-key-123456")
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	token, exp, err := tm.Issue(Identity{UserID: "u-1", Email: "a@b.kz", Role: models.RoleAdvertiser, Username: "seller"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry should be in the future, got %v", exp)
	}

	id, err := tm.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.UserID != "u-1" || id.Role != models.RoleAdvertiser || id.Username != "seller" {
		t.Fatalf("unexpected identity %#v", id)
	}
}

func TestTokenManagerExpired(t *testing.T) {
	tm, _ := NewTokenManager("test-signing-key-123456")
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := tm.Issue(Identity{UserID: "u-1"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := tm.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if sub, err := tm.Subject(token); err != nil || sub != "u-1" {
		t.Fatalf("Subject should read expired tokens, got %q %v", sub, err)
	}
}

func TestTokenManagerRejectsOtherKeysAndAlgorithms(t *testing.T) {
	tm, _ := NewTokenManager("test-signing-key-123456")
	other, _ := NewTokenManager("another-signing-key-0000")
	token, _, _ := other.Issue(Identity{UserID: "u-1"}, time.Hour)
	if _, err := tm.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign key, got %v", err)
	}

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.StandardClaims{
		Subject:   "u-1",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	signed, err := hs512.SignedString([]byte("test-signing-key-123456"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := tm.Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for HS512, got %v", err)
	}

	if _, err := NewTokenManager(""); err == nil {
		t.Fatalf("empty signing key must be rejected")
	}
}
