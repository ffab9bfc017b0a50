package auth

import (
	"context"

	"github.com/authgate/authgate/internal/config"
)

// JWTValidator defines the interface for JWT validation
type JWTValidator interface {
	// ValidateToken validates a JWT token of the expected type and returns its claims if valid
	ValidateToken(tokenString string, expectedType string) (*CustomClaims, error)

	// DecodeToken parses a token without verifying it, for revocation bookkeeping
	DecodeToken(tokenString string) (*CustomClaims, error)

	// GetConfig returns the JWT settings configuration
	GetConfig() *config.JWTSettings
}

// RevocationChecker reports whether a token identifier has been revoked.
// Implementations consult the cache fast path first and fall back to the
// durable tombstone store on a miss.
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}
