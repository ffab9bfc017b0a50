package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/constants"
	"github.com/authgate/authgate/internal/utils"
)

// fakeRevocations is a RevocationChecker backed by a set of revoked jtis.
type fakeRevocations struct {
	revoked map[string]bool
	err     error
}

func (f *fakeRevocations) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.revoked[jti], nil
}

func newTestProvider(t *testing.T, revocations auth.RevocationChecker) (*auth.JWTAuthProvider, *auth.JWTService) {
	t.Helper()

	service := auth.NewJWTService(&config.JWTSettings{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessExpiry:  "15m",
		RefreshExpiry: "7d",
		Issuer:        "test-issuer",
	})
	return auth.NewJWTAuthProvider(service, revocations), service
}

func TestJWTAuthProviderAuthenticate(t *testing.T) {
	provider, service := newTestProvider(t, &fakeRevocations{revoked: map[string]bool{}})

	token, _, err := service.GenerateAccessToken(42, "user@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	req := httptest.NewRequest("GET", "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	claims, err := provider.Authenticate(req)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	if claims.UserID != 42 {
		t.Errorf("Authenticate() UserID = %d, want 42", claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("Authenticate() Email = %s, want user@example.com", claims.Email)
	}
}

func TestJWTAuthProviderRejectsMissingToken(t *testing.T) {
	provider, _ := newTestProvider(t, &fakeRevocations{revoked: map[string]bool{}})

	req := httptest.NewRequest("GET", "/api/users/me", nil)

	if _, err := provider.Authenticate(req); err == nil {
		t.Error("Authenticate() accepted request without credentials")
	}
}

func TestJWTAuthProviderIgnoresRefreshCookie(t *testing.T) {
	provider, service := newTestProvider(t, &fakeRevocations{revoked: map[string]bool{}})

	token, _, err := service.GenerateRefreshToken(42, "user@example.com")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	// A browser request carrying only the refresh token cookie has no usable
	// credentials and gets the missing-credentials error, not invalid-token
	req := httptest.NewRequest("GET", "/api/users/me", nil)
	req.AddCookie(&http.Cookie{Name: constants.RefreshTokenCookie, Value: token})

	if _, err := provider.Authenticate(req); !errors.Is(err, utils.ErrUnauthorized) {
		t.Errorf("Authenticate() error = %v, want ErrUnauthorized", err)
	}
}

func TestJWTAuthProviderRejectsRefreshToken(t *testing.T) {
	provider, service := newTestProvider(t, &fakeRevocations{revoked: map[string]bool{}})

	// Refresh tokens must not authenticate API requests
	token, _, err := service.GenerateRefreshToken(42, "user@example.com")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	req := httptest.NewRequest("GET", "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	if _, err := provider.Authenticate(req); err == nil {
		t.Error("Authenticate() accepted a refresh token")
	}
}

func TestJWTAuthProviderRejectsRevokedToken(t *testing.T) {
	revocations := &fakeRevocations{revoked: map[string]bool{}}
	provider, service := newTestProvider(t, revocations)

	token, jti, err := service.GenerateAccessToken(42, "user@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	req := httptest.NewRequest("GET", "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	// Token verifies before revocation
	if _, err := provider.Authenticate(req); err != nil {
		t.Fatalf("Authenticate() error before revocation = %v", err)
	}

	// The same signature-valid token must be refused after revocation
	revocations.revoked[jti] = true
	if _, err := provider.Authenticate(req); err == nil {
		t.Error("Authenticate() accepted a revoked token")
	}
}

func TestJWTAuthProviderPropagatesRevocationCheckFailure(t *testing.T) {
	revocations := &fakeRevocations{err: errors.New("store unavailable")}
	provider, service := newTestProvider(t, revocations)

	token, _, err := service.GenerateAccessToken(42, "user@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	req := httptest.NewRequest("GET", "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	// If revocation status cannot be determined, the request must not pass
	if _, err := provider.Authenticate(req); err == nil {
		t.Error("Authenticate() accepted a token with undeterminable revocation status")
	}
}

func TestAuthMiddleware(t *testing.T) {
	provider, service := newTestProvider(t, &fakeRevocations{revoked: map[string]bool{}})

	token, jti, err := service.GenerateAccessToken(42, "user@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	var gotUserID int64
	var gotJTI string
	handler := auth.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = auth.GetUserID(r)
		gotJTI, _ = auth.GetTokenJTI(r)
		w.WriteHeader(http.StatusOK)
	}), provider)

	req := httptest.NewRequest("GET", "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("middleware status = %d, want 200", rec.Code)
	}
	if gotUserID != 42 {
		t.Errorf("context user ID = %d, want 42", gotUserID)
	}
	if gotJTI != jti {
		t.Errorf("context jti = %s, want %s", gotJTI, jti)
	}
}

func TestAuthMiddlewareRevokedTokenResponse(t *testing.T) {
	revocations := &fakeRevocations{revoked: map[string]bool{}}
	provider, service := newTestProvider(t, revocations)

	token, jti, err := service.GenerateAccessToken(42, "user@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	revocations.revoked[jti] = true

	handler := auth.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached with a revoked token")
	}), provider)

	req := httptest.NewRequest("GET", "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("middleware status = %d, want 401", rec.Code)
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Error.Code != "token_revoked" {
		t.Errorf("error code = %s, want token_revoked", body.Error.Code)
	}
}

func TestAuthMiddlewareUnauthenticated(t *testing.T) {
	provider, _ := newTestProvider(t, &fakeRevocations{revoked: map[string]bool{}})

	handler := auth.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached without credentials")
	}), provider)

	req := httptest.NewRequest("GET", "/api/users/me", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("middleware status = %d, want 401", rec.Code)
	}
}
