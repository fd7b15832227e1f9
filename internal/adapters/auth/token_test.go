package auth

import (
	"testing"
	"time"
)

func TestJWT_IssueAndVerify(t *testing.T) {
	issuer := NewJWTIssuer("test-secret")
	verifier := NewJWTVerifier("test-secret")

	token, err := issuer.Issue("user-1", "user@example.com", []string{"user", "admin"}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	userID, roles, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %s", userID)
	}
	if len(roles) != 2 || roles[1] != "admin" {
		t.Fatalf("unexpected roles: %v", roles)
	}
}

func TestJWT_WrongSecret(t *testing.T) {
	issuer := NewJWTIssuer("secret-a")
	verifier := NewJWTVerifier("secret-b")

	token, err := issuer.Issue("user-1", "user@example.com", nil, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, _, err := verifier.Verify(token); err == nil {
		t.Fatal("expected verification to fail with wrong secret")
	}
}

func TestJWT_Expired(t *testing.T) {
	issuer := NewJWTIssuer("test-secret")
	verifier := NewJWTVerifier("test-secret")

	token, err := issuer.Issue("user-1", "user@example.com", nil, -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, _, err := verifier.Verify(token); err == nil {
		t.Fatal("expected verification to fail for expired token")
	}
}
