package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestRequireAuth_InjectsIdentity(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"sub":      "user-1",
		"tenantId": "tenant-1",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	var gotUser, gotTenant string
	handler := RequireAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		gotUser, gotTenant, ok = Identity(r.Context())
		if !ok {
			t.Error("expected identity in context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUser != "user-1" || gotTenant != "tenant-1" {
		t.Errorf("identity = (%q, %q), want (user-1, tenant-1)", gotUser, gotTenant)
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	valid := jwt.MapClaims{
		"sub":      "user-1",
		"tenantId": "tenant-1",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed header", "Token abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + signToken(t, valid, "other-secret")},
		{"expired", "Bearer " + signToken(t, jwt.MapClaims{
			"sub": "user-1", "tenantId": "tenant-1", "exp": time.Now().Add(-time.Hour).Unix(),
		}, testSecret)},
		{"missing tenant claim", "Bearer " + signToken(t, jwt.MapClaims{
			"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix(),
		}, testSecret)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler must not run")
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}
