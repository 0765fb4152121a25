package auth

import (
	"testing"
	"time"
)

func TestExtractToken(t *testing.T) {
	token, err := ExtractToken("Bearer abc123")
	if err != nil || token != "abc123" {
		t.Errorf("Expected token 'abc123', got %q (err: %v)", token, err)
	}

	if _, err := ExtractToken(""); err == nil {
		t.Error("Expected error for empty header")
	}
	if _, err := ExtractToken("abc123"); err == nil {
		t.Error("Expected error for missing scheme")
	}
	if _, err := ExtractToken("Basic abc123"); err == nil {
		t.Error("Expected error for wrong scheme")
	}
	if _, err := ExtractToken("Bearer "); err == nil {
		t.Error("Expected error for empty token")
	}

	// Scheme matching is case-insensitive
	token, err = ExtractToken("bearer xyz")
	if err != nil || token != "xyz" {
		t.Errorf("Expected case-insensitive scheme, got %q (err: %v)", token, err)
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	verifier, err := NewJWTVerifier("secret123", time.Hour)
	if err != nil {
		t.Fatalf("Failed to create verifier: %v", err)
	}

	token, err := verifier.GenerateToken("user-42")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	userID, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if userID != "user-42" {
		t.Errorf("Expected 'user-42', got %q", userID)
	}

	// The same credential always maps to the same user
	again, err := verifier.Verify(token)
	if err != nil || again != userID {
		t.Errorf("Expected deterministic verification, got %q (err: %v)", again, err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer, _ := NewJWTVerifier("secret-a", time.Hour)
	verifier, _ := NewJWTVerifier("secret-b", time.Hour)

	token, err := issuer.GenerateToken("user-1")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := verifier.Verify(token); err == nil {
		t.Error("Expected rejection for token signed with different secret")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	verifier, _ := NewJWTVerifier("secret123", time.Hour)
	verifier.TokenExpiry = -time.Minute

	token, err := verifier.GenerateToken("user-1")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := verifier.Verify(token); err == nil {
		t.Error("Expected rejection for expired token")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	verifier, _ := NewJWTVerifier("secret123", time.Hour)

	if _, err := verifier.Verify("not-a-jwt"); err == nil {
		t.Error("Expected rejection for malformed token")
	}
}

func TestNewJWTVerifierRequiresSecret(t *testing.T) {
	if _, err := NewJWTVerifier("", time.Hour); err == nil {
		t.Error("Expected error for empty secret")
	}
}
