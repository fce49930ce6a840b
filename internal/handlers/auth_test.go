package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/k597/AlertsWebApi/internal/api"
	"github.com/k597/AlertsWebApi/internal/middleware"
	"github.com/k597/AlertsWebApi/internal/testhelpers"
)

func newTestJWT(t *testing.T) *middleware.JWTAuthMiddleware {
	t.Helper()
	hash, err := middleware.HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	return middleware.NewJWTAuthMiddleware(&middleware.JWTAuthConfig{
		Enabled:           true,
		AdminUsername:     "admin",
		AdminPasswordHash: hash,
		JWTSecret:         "handler-test-secret",
		JWTExpiryHours:    2,
	})
}

func authMux(jwtAuth *middleware.JWTAuthMiddleware) *http.ServeMux {
	mux := http.NewServeMux()
	NewAuthHandler(jwtAuth).SetupRoutes(mux)
	return mux
}

func TestAuthRoutes_WrongMethod(t *testing.T) {
	mux := authMux(nil)

	tests := []struct {
		method, path string
	}{
		{http.MethodGet, "/auth/login"},
		{http.MethodDelete, "/auth/login"},
		{http.MethodPost, "/auth/verify"},
		{http.MethodPut, "/auth/verify"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want 405", w.Code)
			}
		})
	}
}

func TestLogin_MalformedBody(t *testing.T) {
	testhelpers.NewHTTPTestContext(t, http.MethodPost, "/auth/login", bytes.NewBufferString("{user")).
		Execute(authMux(nil)).
		AssertStatus(http.StatusBadRequest).
		AssertBodyContains("malformed JSON")
}

func TestLogin_MissingCredentials(t *testing.T) {
	tests := []struct {
		name      string
		body      map[string]string
		wantField string
	}{
		{"no username", map[string]string{"password": "pw"}, "username"},
		{"no password", map[string]string{"username": "admin"}, "password"},
		{"blank username", map[string]string{"username": "", "password": "pw"}, "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp api.ErrorResponse
			testhelpers.NewHTTPTestContext(t, http.MethodPost, "/auth/login", nil).
				WithJSONBody(tt.body).
				Execute(authMux(nil)).
				AssertStatus(http.StatusUnprocessableEntity).
				DecodeJSON(&resp)

			if resp.Details[tt.wantField] != "is required" {
				t.Errorf("details = %v, want %s required", resp.Details, tt.wantField)
			}
		})
	}
}

func TestLogin_Success(t *testing.T) {
	jwtAuth := newTestJWT(t)

	var resp LoginResponse
	testhelpers.NewHTTPTestContext(t, http.MethodPost, "/auth/login", nil).
		WithJSONBody(LoginRequest{Username: "admin", Password: "s3cret"}).
		Execute(authMux(jwtAuth)).
		AssertStatus(http.StatusOK).
		DecodeJSON(&resp)

	if resp.Username != "admin" {
		t.Errorf("Username = %q, want admin", resp.Username)
	}
	// two hour expiry, less the time the request took
	if resp.ExpiresIn < 2*60*60-5 || resp.ExpiresIn > 2*60*60 {
		t.Errorf("ExpiresIn = %d, want about 7200", resp.ExpiresIn)
	}
	if resp.ExpiresAt.IsZero() {
		t.Error("ExpiresAt not set")
	}
	claims, err := jwtAuth.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.Username != "admin" {
		t.Errorf("claims.Username = %q", claims.Username)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	testhelpers.NewHTTPTestContext(t, http.MethodPost, "/auth/login", nil).
		WithJSONBody(LoginRequest{Username: "admin", Password: "nope"}).
		Execute(authMux(newTestJWT(t))).
		AssertStatus(http.StatusUnauthorized).
		AssertBodyContains("Invalid username or password")
}

func TestVerify(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		testhelpers.NewHTTPTestContext(t, http.MethodGet, "/auth/verify", nil).
			Execute(authMux(nil)).
			AssertStatus(http.StatusUnauthorized).
			AssertBodyContains("Not authenticated")
	})

	t.Run("authenticated", func(t *testing.T) {
		var resp VerifyResponse
		testhelpers.NewHTTPTestContext(t, http.MethodGet, "/auth/verify", nil).
			WithUser("admin").
			Execute(authMux(nil)).
			AssertStatus(http.StatusOK).
			DecodeJSON(&resp)

		if !resp.Valid || resp.Username != "admin" {
			t.Errorf("verify = %+v", resp)
		}
	})
}

func TestVerify_ThroughMiddleware(t *testing.T) {
	jwtAuth := newTestJWT(t)
	token, _, err := jwtAuth.GenerateToken("admin")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	var resp VerifyResponse
	testhelpers.NewHTTPTestContext(t, http.MethodGet, "/auth/verify", nil).
		WithBearerToken(token).
		Execute(jwtAuth.Wrap(authMux(jwtAuth))).
		AssertStatus(http.StatusOK).
		DecodeJSON(&resp)

	if resp.Username != "admin" {
		t.Errorf("Username = %q, want admin", resp.Username)
	}
}
