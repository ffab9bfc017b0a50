package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/cache"
	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/email"
	"github.com/authgate/authgate/internal/handlers"
	"github.com/authgate/authgate/internal/service"
)

// newTestServer builds a server with routes configured but no database or
// Redis behind it. Only routes that never reach a repository are exercised.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.AppConfig{
		App: config.AppSettings{
			Environment: "testing",
			Name:        "authgate",
			Version:     "test",
		},
		JWT: config.JWTSettings{
			AccessSecret:  "test-access-secret",
			RefreshSecret: "test-refresh-secret",
			AccessExpiry:  "15m",
			RefreshExpiry: "7d",
			Issuer:        "test-issuer",
		},
		CORS: config.CORSSettings{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}

	jwtService := auth.NewJWTService(&cfg.JWT)
	passwordCfg := auth.DefaultPasswordConfig()
	revocationService := service.NewTokenRevocationService(nil, cache.NewNoopRevocationCache())
	authService := service.NewAuthService(
		nil, nil, nil,
		revocationService,
		jwtService,
		passwordCfg,
		email.NewSender(&cfg.Email),
		&cfg.Email,
	)

	s := &Server{
		Config: cfg,
		authProviders: &AuthProviders{
			JWTService:  jwtService,
			PasswordCfg: passwordCfg,
		},
		svcs: &services{
			authService:       authService,
			revocationService: revocationService,
		},
		Handlers: &Handlers{
			AuthHandler:   handlers.NewAuthHandler(authService, jwtService),
			UserHandler:   handlers.NewUserHandler(authService),
			HealthHandler: handlers.NewHealthHandler(nil, nil),
		},
	}

	s.SetupRoutes()
	return s
}

func TestVersionRoute(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	rec := httptest.NewRecorder()
	s.GetRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"test"`)
	assert.Contains(t, rec.Body.String(), `"environment":"testing"`)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/users/me"},
		{http.MethodPost, "/api/auth/logout-all"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			rec := httptest.NewRecorder()
			s.GetRouter().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRefreshWithoutTokenIsUnauthorized(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.GetRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterRejectsInvalidBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.GetRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/does-not-exist", nil)
	rec := httptest.NewRecorder()
	s.GetRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflightAllowedOrigin(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.GetRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORSDeniesUnknownOrigin(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec := httptest.NewRecorder()
	s.GetRouter().ServeHTTP(rec, req)

	// The request still succeeds, it just carries no CORS grant.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGetAllowedOriginsPrefersEnvironment(t *testing.T) {
	s := newTestServer(t)

	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")

	origins := s.getAllowedOrigins()
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, origins)
}

func TestGetAllowedOriginsFallsBackToConfig(t *testing.T) {
	s := newTestServer(t)

	t.Setenv("ALLOWED_ORIGINS", "")

	origins := s.getAllowedOrigins()
	assert.Equal(t, []string{"http://localhost:3000"}, origins)
}
