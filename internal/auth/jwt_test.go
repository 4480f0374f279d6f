package auth

import (
	"testing"
	"time"

	"call-insights/internal/config"
)

func TestIssueAndVerify(t *testing.T) {
	m, err := NewManager(config.AuthConfig{
		JWTSecret:   "secret",
		JWTIssuer:   "issuer",
		JWTAudience: "aud",
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.Issue(now, "user-1", "operator", 15*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tok == "" {
		t.Fatal("expected token string")
	}

	claims, err := m.Verify(tok, now.Add(1*time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != "operator" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret"})
	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.Issue(now, "u", "r", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(tok, now.Add(2*time.Hour)); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuerM, _ := NewManager(config.AuthConfig{JWTSecret: "secret-a"})
	verifierM, _ := NewManager(config.AuthConfig{JWTSecret: "secret-b"})

	now := time.Unix(1700000000, 0).UTC()
	tok, err := issuerM.Issue(now, "u", "r", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifierM.Verify(tok, now); err == nil {
		t.Fatal("expected signature error")
	}
}
