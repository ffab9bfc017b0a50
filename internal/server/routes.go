// Package server provides the HTTP server implementation for the AuthGate
// service. It handles routing, middleware configuration, and server lifecycle
// management.
//
// The package follows a structured approach to route organization, with clear
// grouping based on functionality and proper protection of authenticated
// routes. CORS and other security headers are carefully configured to provide
// secure access while enabling legitimate API usage.
package server

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/authgate/authgate/internal/middleware"
	"github.com/authgate/authgate/internal/utils"
)

// SetupRoutes configures the routes for the application.
// It creates a router hierarchy with middleware and grouped routes
// according to functionality for organized API structure.
//
// The configured routes include:
// - Health check and version endpoints (unprotected)
// - Registration, login, and email verification endpoints
// - Password reset endpoints
// - Token lifecycle endpoints (refresh, revoke, logout)
// - User profile endpoints (protected)
//
// Route protection is handled through middleware for authenticated endpoints.
func (s *Server) SetupRoutes() {
	// Create router
	r := chi.NewRouter()

	// Get allowed origins from environment or use configured values
	allowedOrigins := s.getAllowedOrigins()

	// Custom CORS middleware that applies to all routes
	// This ensures CORS headers are applied properly and consistently
	r.Use(corsMiddleware(allowedOrigins))

	// Base middleware
	r.Use(middleware.RequestLogging())
	r.Use(middleware.Recovery())
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders())

	// Health check and version routes (unprotected)
	r.Group(func(r chi.Router) {
		r.Get("/health", s.Handlers.HealthHandler.Health)

		r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
			utils.JSON(w, http.StatusOK, map[string]string{
				"version":     s.Config.App.Version,
				"environment": s.Config.App.Environment,
			})
		})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Authentication routes
		r.Route("/auth", func(r chi.Router) {
			// Public auth endpoints
			r.Group(func(r chi.Router) {
				r.Post("/register", s.Handlers.AuthHandler.Register)
				r.Post("/login", s.Handlers.AuthHandler.Login)
				r.Post("/verify-email", s.Handlers.AuthHandler.VerifyEmail)
				r.Post("/forgot-password", s.Handlers.AuthHandler.ForgotPassword)
				r.Post("/reset-password", s.Handlers.AuthHandler.ResetPassword)

				// Token lifecycle. These authenticate by the submitted token
				// itself rather than an Authorization header so that clients
				// holding only a refresh token can still use them.
				r.Post("/refresh", s.Handlers.AuthHandler.RefreshToken)
				r.Post("/revoke", s.Handlers.AuthHandler.RevokeToken)
				r.Post("/logout", s.Handlers.AuthHandler.Logout)
			})

			// Protected auth endpoints
			r.Group(func(r chi.Router) {
				r.Use(middleware.JWTAuth(s.authProviders.JWTService, s.svcs.revocationService))
				// security feature to log out all sessions
				r.Post("/logout-all", s.Handlers.AuthHandler.LogoutAll)
			})
		})

		// User routes (all protected)
		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.JWTAuth(s.authProviders.JWTService, s.svcs.revocationService))
			r.Use(chimiddleware.NoCache)

			r.Get("/me", s.Handlers.UserHandler.CurrentUser)
		})
	})

	s.router = r
}

// GetRouter returns the router for the server.
//
// Returns:
//   - The chi.Router implementation used by the server
//
// This method is primarily used for testing and for
// integrating the router with other components.
func (s *Server) GetRouter() chi.Router {
	return s.router
}

// corsMiddleware creates a custom CORS middleware with the specified allowed origins.
// It handles Cross-Origin Resource Sharing to allow browsers to safely access the API
// from different domains while protecting against unauthorized cross-origin requests.
//
// Parameters:
//   - allowedOrigins: A list of origins that are allowed to access the API
//
// Returns:
//   - A middleware function that adds CORS headers to responses
//
// The middleware checks incoming requests against the allowed origins list,
// adds appropriate CORS headers to responses, and handles OPTIONS preflight requests.
// It supports credentials mode so the refresh token cookie survives
// cross-origin requests from allowed origins.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// Check if the request's origin is in our allowed list
			for _, allowedOrigin := range allowedOrigins {
				if allowedOrigin == "*" || allowedOrigin == origin {
					// Set CORS headers for all responses, not just OPTIONS
					w.Header().Set("Access-Control-Allow-Origin", origin)

					// These headers are essential for credentials mode
					w.Header().Set("Access-Control-Allow-Credentials", "true")

					// For non-OPTIONS requests, just set these headers and continue
					if r.Method != "OPTIONS" {
						next.ServeHTTP(w, r)
						return
					}

					// Handle OPTIONS preflight requests
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token, X-Request-ID")
					w.Header().Set("Access-Control-Max-Age", "300")

					// Respond to preflight request
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}

			// If origin is not allowed, continue without setting CORS headers
			next.ServeHTTP(w, r)
		})
	}
}

// getAllowedOrigins determines the allowed CORS origins for the server.
// The ALLOWED_ORIGINS environment variable takes precedence, followed by the
// cors.allowed_origins configuration value.
//
// Returns:
//   - A slice of strings representing allowed origins for CORS
func (s *Server) getAllowedOrigins() []string {
	// Check if ALLOWED_ORIGINS is set in environment
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")

	// If ALLOWED_ORIGINS is set, use it
	if allowedOriginsEnv != "" {
		// Split by comma and trim spaces
		origins := strings.Split(allowedOriginsEnv, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		log.Info().Strs("allowed_origins", origins).Msg("Using CORS allowed origins from environment")
		return origins
	}

	if len(s.Config.CORS.AllowedOrigins) > 0 {
		log.Info().Strs("allowed_origins", s.Config.CORS.AllowedOrigins).Msg("Using CORS allowed origins from configuration")
		return s.Config.CORS.AllowedOrigins
	}

	// Fall back to localhost development origins
	defaultOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	log.Info().Strs("allowed_origins", defaultOrigins).Msg("Using default CORS allowed origins")
	return defaultOrigins
}
