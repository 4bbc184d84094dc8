package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "password123" {
		t.Fatal("hash must not equal plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("password123")); err != nil {
		t.Errorf("hash does not verify: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("wrong")); err == nil {
		t.Error("wrong password must not verify")
	}
}

func TestIssueToken_Claims(t *testing.T) {
	svc := NewService(nil, nil, "test-secret")
	u := &User{ID: "user-1", Email: "john.doe@acme.com", TenantID: "tenant-1"}

	signed, err := svc.issueToken(u)
	if err != nil {
		t.Fatalf("issueToken error: %v", err)
	}

	token, err := jwt.Parse(signed, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("token does not parse: %v", err)
	}

	claims := token.Claims.(jwt.MapClaims)
	if claims["sub"] != "user-1" {
		t.Errorf("sub = %v, want user-1", claims["sub"])
	}
	if claims["tenantId"] != "tenant-1" {
		t.Errorf("tenantId = %v, want tenant-1", claims["tenantId"])
	}
	if claims["email"] != "john.doe@acme.com" {
		t.Errorf("email = %v, want john.doe@acme.com", claims["email"])
	}
}
