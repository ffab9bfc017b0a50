// Package middleware provides HTTP middleware shared across routes.
package middleware

import (
	"net/http"

	"github.com/authgate/authgate/internal/auth"
)

// JWTAuth requires a valid, unrevoked access token. The revocation checker
// is consulted on every request so a tombstoned JTI is refused before its
// natural expiry.
func JWTAuth(jwtService auth.JWTValidator, revocations auth.RevocationChecker) func(http.Handler) http.Handler {
	provider := auth.NewJWTAuthProvider(jwtService, revocations)
	return auth.RequireAuth(provider)
}
