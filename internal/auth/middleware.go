// Package auth provides authentication and authorization functionality for the API.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/authgate/authgate/internal/constants"
	"github.com/authgate/authgate/internal/utils"
)

// ContextKey is a custom type for context keys to prevent collisions.
// Using a custom type instead of string or int provides type safety for context values.
type ContextKey string

// Context keys for storing authenticated user information and request metadata.
const (
	// UserIDContextKey is the context key for storing the authenticated user ID.
	UserIDContextKey ContextKey = constants.UserIDContextKey

	// EmailContextKey is the context key for storing the authenticated user's email.
	EmailContextKey ContextKey = constants.EmailContextKey

	// TokenJTIContextKey is the context key for storing the jti of the token
	// that authenticated the request. Handlers use it to revoke the current
	// token on logout.
	TokenJTIContextKey ContextKey = constants.TokenJTIContextKey

	// RequestIDContextKey is the context key for storing the unique request ID.
	RequestIDContextKey ContextKey = constants.RequestIDContextKey
)

// AuthProvider defines methods for different authentication mechanisms.
// This interface allows for pluggable authentication strategies.
type AuthProvider interface {
	// Authenticate checks the request and returns the token claims if valid.
	// It extracts credentials from the request, validates them, and confirms
	// the token has not been revoked.
	//
	// Parameters:
	//   - r: The HTTP request containing authentication credentials
	//
	// Returns:
	//   - claims: The validated token claims
	//   - error: An error if authentication fails, nil if successful
	Authenticate(r *http.Request) (*CustomClaims, error)
}

// JWTAuthProvider implements JWT-based authentication with revocation checks.
// It extracts and validates JWT access tokens from requests, then confirms
// the token's jti has not been revoked before accepting it.
type JWTAuthProvider struct {
	jwtService  JWTValidator
	revocations RevocationChecker
}

// NewJWTAuthProvider creates a new JWTAuthProvider.
//
// Parameters:
//   - jwtService: A service that can validate JWT tokens
//   - revocations: The revocation lookup consulted for every validated token
//
// Returns:
//   - A properly initialized JWTAuthProvider
func NewJWTAuthProvider(jwtService JWTValidator, revocations RevocationChecker) *JWTAuthProvider {
	return &JWTAuthProvider{
		jwtService:  jwtService,
		revocations: revocations,
	}
}

// Authenticate implements the AuthProvider interface for JWT authentication.
// It extracts the JWT access token from the Authorization header,
// validates it, and rejects tokens whose jti appears in the revocation store.
// A signature-valid, unexpired token is still refused if it was revoked.
//
// Parameters:
//   - r: The HTTP request to authenticate
//
// Returns:
//   - claims: The validated token claims
//   - error: An error if authentication fails, nil if successful
func (p *JWTAuthProvider) Authenticate(r *http.Request) (*CustomClaims, error) {
	// Extract the token from the Authorization header. The refresh token
	// cookie is deliberately not consulted here: it carries a refresh
	// token, which can never authenticate an API request.
	authHeader := r.Header.Get(constants.HeaderAuthorization)
	if authHeader == "" {
		return nil, utils.ErrUnauthorized
	}

	// Check if the header has the correct format (Bearer token)
	if !strings.HasPrefix(authHeader, constants.BearerTokenPrefix) {
		return nil, utils.ErrUnauthorized
	}

	// Extract the token by removing the "Bearer " prefix
	token := strings.TrimPrefix(authHeader, constants.BearerTokenPrefix)

	// Validate the token and extract claims
	claims, err := p.jwtService.ValidateToken(token, constants.TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	// A valid signature is not enough: the token may have been revoked
	if p.revocations != nil {
		revoked, err := p.revocations.IsTokenRevoked(r.Context(), claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, utils.NewRevokedTokenError()
		}
	}

	return claims, nil
}

// AuthMiddleware wraps an HTTP handler with authentication.
// It tries each provided authentication provider and only allows the request
// to proceed if at least one authentication method succeeds.
//
// Parameters:
//   - next: The HTTP handler to call if authentication succeeds
//   - providers: One or more authentication providers to try
//
// Returns:
//   - An HTTP handler that enforces authentication
func AuthMiddleware(next http.Handler, providers ...AuthProvider) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Generate a request ID if not already present for request tracking
		requestID := r.Header.Get(constants.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
			r.Header.Set(constants.HeaderXRequestID, requestID)
		}

		// Add request ID to the context
		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)

		// Try each authentication provider until one succeeds
		var lastErr error
		for _, provider := range providers {
			claims, err := provider.Authenticate(r)
			if err == nil {
				// Authentication successful
				// Add user information to the context for use by handlers
				ctx = context.WithValue(ctx, UserIDContextKey, claims.UserID)
				ctx = context.WithValue(ctx, EmailContextKey, claims.Email)
				ctx = context.WithValue(ctx, TokenJTIContextKey, claims.ID)

				// Log the authentication event
				log.Info().
					Int64("user_id", claims.UserID).
					Str("request_id", requestID).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("User authenticated")

				// Call the next handler with the updated context
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			lastErr = err
		}

		// If we get here, all authentication methods failed
		log.Info().
			Err(lastErr).
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Authentication failed")

		// Handle different authentication errors with appropriate responses
		var appErr *utils.AppError
		if errors.As(lastErr, &appErr) {
			utils.ErrorFromAppError(w, appErr)
		} else if errors.Is(lastErr, utils.ErrUnauthorized) {
			utils.Unauthorized(w, constants.MsgAuthRequired)
		} else if errors.Is(lastErr, utils.ErrExpiredToken) {
			utils.Error(w, constants.StatusUnauthorized, constants.CodeTokenExpired, constants.MsgTokenExpired, nil)
		} else if errors.Is(lastErr, utils.ErrRevokedToken) {
			utils.Error(w, constants.StatusUnauthorized, constants.CodeTokenRevoked, constants.MsgTokenRevoked, nil)
		} else {
			utils.Error(w, constants.StatusUnauthorized, constants.CodeUnauthorized, constants.MsgAuthRequired, nil)
		}
	})
}

// RequireAuth is a middleware that requires authentication.
// It returns a middleware function that can be used in HTTP routers.
//
// Parameters:
//   - providers: One or more authentication providers to try
//
// Returns:
//   - A middleware function that requires authentication
func RequireAuth(providers ...AuthProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return AuthMiddleware(next, providers...)
	}
}

// GetUserID extracts the user ID from the request context.
// It returns the user ID and a boolean indicating if it was found.
//
// Parameters:
//   - r: The HTTP request containing the context
//
// Returns:
//   - The user ID if present
//   - A boolean indicating if the user ID was found
func GetUserID(r *http.Request) (int64, bool) {
	userID, ok := r.Context().Value(UserIDContextKey).(int64)
	return userID, ok
}

// GetEmail extracts the email from the request context.
// It returns the email and a boolean indicating if it was found.
//
// Parameters:
//   - r: The HTTP request containing the context
//
// Returns:
//   - The email if present
//   - A boolean indicating if the email was found
func GetEmail(r *http.Request) (string, bool) {
	email, ok := r.Context().Value(EmailContextKey).(string)
	return email, ok
}

// GetTokenJTI extracts the authenticated token's jti from the request context.
// It returns the jti and a boolean indicating if it was found.
//
// Parameters:
//   - r: The HTTP request containing the context
//
// Returns:
//   - The jti if present
//   - A boolean indicating if the jti was found
func GetTokenJTI(r *http.Request) (string, bool) {
	jti, ok := r.Context().Value(TokenJTIContextKey).(string)
	return jti, ok
}

// GetRequestID extracts the request ID from the request context.
// It returns the request ID and a boolean indicating if it was found.
//
// Parameters:
//   - r: The HTTP request containing the context
//
// Returns:
//   - The request ID if present
//   - A boolean indicating if the request ID was found
func GetRequestID(r *http.Request) (string, bool) {
	requestID, ok := r.Context().Value(RequestIDContextKey).(string)
	return requestID, ok
}

// IsAuthenticated checks if the request is authenticated.
// It returns true if a user ID is present in the context.
//
// Parameters:
//   - r: The HTTP request to check
//
// Returns:
//   - A boolean indicating if the request is authenticated
func IsAuthenticated(r *http.Request) bool {
	_, ok := GetUserID(r)
	return ok
}
