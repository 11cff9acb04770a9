package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewAccessTokenClaims(t *testing.T) {
	at, err := NewAccessToken("secret", 42, "ram@example.com", "farmer", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if time.Until(at.Exp) <= 0 {
		t.Fatal("expiry must be in the future")
	}

	tok, err := jwt.Parse(at.Token, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !tok.Valid {
		t.Fatalf("parse: %v", err)
	}
	claims := tok.Claims.(jwt.MapClaims)
	if claims["sub"].(float64) != 42 || claims["email"] != "ram@example.com" || claims["role"] != "farmer" {
		t.Fatalf("unexpected claims: %v", claims)
	}
	if claims["jti"] == "" {
		t.Fatal("expected a jti claim")
	}

	if _, err := jwt.Parse(at.Token, func(*jwt.Token) (interface{}, error) {
		return []byte("wrong"), nil
	}); err == nil {
		t.Fatal("token must not verify with the wrong secret")
	}
}

func TestRefreshTokens(t *testing.T) {
	a, err := NewRefreshToken(7)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	b, err := NewRefreshToken(7)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if a.Raw == b.Raw {
		t.Fatal("refresh tokens must be unique")
	}
	if HashRefreshRaw(a.Raw) != HashRefreshRaw(a.Raw) {
		t.Fatal("hash must be deterministic")
	}
	if HashRefreshRaw(a.Raw) == HashRefreshRaw(b.Raw) {
		t.Fatal("distinct tokens must hash differently")
	}
	if time.Until(a.Exp) < 6*24*time.Hour {
		t.Fatalf("unexpected expiry: %v", a.Exp)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("longenough", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(hash, "longenough") {
		t.Fatal("correct password must verify")
	}
	if VerifyPassword(hash, "wrong-password") {
		t.Fatal("wrong password must not verify")
	}
}
