package auth

import (
	"errors"
	"testing"
)

func TestResetTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateResetToken("user-1", secret)
	if err != nil {
		t.Fatal(err)
	}
	userID, err := VerifyResetToken(token, secret)
	if err != nil {
		t.Fatal(err)
	}
	if userID != "user-1" {
		t.Fatalf("subject = %q, want user-1", userID)
	}
}

func TestResetTokenWrongSecret(t *testing.T) {
	token, err := GenerateResetToken("user-1", []byte("secret-a"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := VerifyResetToken(token, []byte("secret-b")); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestResetTokenGarbage(t *testing.T) {
	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := VerifyResetToken(token, []byte("secret")); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestResetTokenRequiresConfig(t *testing.T) {
	if _, err := GenerateResetToken("", []byte("secret")); err == nil {
		t.Fatal("empty user id should be rejected")
	}
	if _, err := GenerateResetToken("user-1", nil); err == nil {
		t.Fatal("missing secret should be rejected")
	}
}
