package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JaimeStill/prombank/pkg/auth"
)

const secret = "0123456789abcdef0123456789abcdef"

func sign(t *testing.T, key string, method jwt.SigningMethod, c jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, c).SignedString([]byte(key))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "user-1",
		"email": "user@example.com",
		"iss":   "prombank",
		"aud":   "prombank-api",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func TestHMACVerify(t *testing.T) {
	v := auth.NewHMAC(secret, "prombank", "prombank-api")

	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	wrongAud := validClaims()
	wrongAud["aud"] = "other"

	noExp := validClaims()
	delete(noExp, "exp")

	noSub := validClaims()
	delete(noSub, "sub")

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"valid", sign(t, secret, jwt.SigningMethodHS256, validClaims()), false},
		{"hs512", sign(t, secret, jwt.SigningMethodHS512, validClaims()), false},
		{"wrong secret", sign(t, strings.Repeat("x", 32), jwt.SigningMethodHS256, validClaims()), true},
		{"expired", sign(t, secret, jwt.SigningMethodHS256, expired), true},
		{"wrong audience", sign(t, secret, jwt.SigningMethodHS256, wrongAud), true},
		{"missing expiry", sign(t, secret, jwt.SigningMethodHS256, noExp), true},
		{"missing subject", sign(t, secret, jwt.SigningMethodHS256, noSub), true},
		{"garbage", "not.a.token", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := v.Verify(context.Background(), tt.token)
			if tt.wantErr {
				if !errors.Is(err, auth.ErrInvalidToken) {
					t.Errorf("err = %v, want ErrInvalidToken", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify error: %v", err)
			}
			if id.Subject != "user-1" || id.Email != "user@example.com" {
				t.Errorf("unexpected identity %+v", id)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := auth.NewHMAC(secret, "", "")

	var seen *auth.Identity
	h := auth.Middleware(v, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer " + sign(t, secret, jwt.SigningMethodHS256, validClaims()), http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/prompts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized {
				if rec.Header().Get("WWW-Authenticate") == "" {
					t.Error("missing WWW-Authenticate header")
				}
				return
			}
			if seen == nil || seen.Subject != "user-1" {
				t.Errorf("identity not propagated: %+v", seen)
			}
		})
	}
}

func TestConfigFinalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     auth.Config
		wantErr bool
	}{
		{"disabled", auth.Config{}, false},
		{"hmac short secret", auth.Config{Enabled: true, Secret: "short"}, true},
		{"hmac ok", auth.Config{Enabled: true, Secret: secret}, false},
		{"oidc missing issuer", auth.Config{Enabled: true, Mode: auth.ModeOIDC}, true},
		{"unknown mode", auth.Config{Enabled: true, Mode: "saml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_AUTH_ENABLED", "true")
		t.Setenv("TEST_AUTH_SECRET", secret)

		cfg := auth.Config{}
		if err := cfg.Finalize(&auth.Env{Enabled: "TEST_AUTH_ENABLED", Secret: "TEST_AUTH_SECRET"}); err != nil {
			t.Fatalf("finalize: %v", err)
		}
		if !cfg.Enabled || cfg.Mode != auth.ModeHMAC || cfg.Secret != secret {
			t.Errorf("unexpected config %+v", cfg)
		}
	})
}

func TestNewSelectsMode(t *testing.T) {
	v, err := auth.New(context.Background(), &auth.Config{Mode: auth.ModeHMAC, Secret: secret})
	if err != nil || v == nil {
		t.Fatalf("New(hmac) = %v, %v", v, err)
	}

	if _, err := auth.New(context.Background(), &auth.Config{Mode: "saml"}); err == nil {
		t.Error("expected error for unsupported mode")
	}
}
