// Package constants provides shared constant values used throughout the application.
//
// The general_const.go file defines general-purpose constants related to routing
// and context keys. These constants ensure consistent API patterns and URL
// structure throughout the application.
package constants

// Base Routes define the root URL paths for different parts of the API.
const (
	// APIBasePath is the root path prefix for all API endpoints.
	APIBasePath = "/api"

	// HealthPath is the endpoint for health checks and system status.
	HealthPath = "/health"
)

// Context Keys define the names under which authenticated request data is stored.
const (
	// UserIDContextKey stores the authenticated user's identifier.
	UserIDContextKey = "user_id"

	// EmailContextKey stores the authenticated user's email address.
	EmailContextKey = "email"

	// TokenJTIContextKey stores the jti of the token that authenticated the request.
	TokenJTIContextKey = "token_jti"

	// RequestIDContextKey stores the unique request identifier.
	RequestIDContextKey = "request_id"
)

// Cache Keys define the key layout used in the revocation cache.
const (
	// RevokedKeyPrefix prefixes every revocation-cache entry; the full key is
	// "revoked:<jti>".
	RevokedKeyPrefix = "revoked:"
)
