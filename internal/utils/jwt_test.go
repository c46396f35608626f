package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignAndParseJWT(t *testing.T) {
	token, err := SignJWT("secret", "user-1", "trainer", "t@example.com", 60)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := ParseJWT("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != "trainer" || claims.Email != "t@example.com" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseJWT_WrongSecret(t *testing.T) {
	token, err := SignJWT("secret", "user-1", "client", "c@example.com", 60)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseJWT("other", token); err == nil {
		t.Fatal("expected error with wrong secret")
	}
}

func TestParseJWT_RejectsOtherSigningMethods(t *testing.T) {
	claims := Claims{
		UserID: "user-1",
		Role:   "client",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ParseJWT("secret", token); err == nil {
		t.Fatal("expected HS512 token to be rejected")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "hunter22") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "hunter23") {
		t.Error("wrong password accepted")
	}
}
