// Package models provides data structures and operations for the application.
// This file contains models related to token lifecycle management: outstanding
// refresh tokens and the revocation tombstones that outlive them. Refresh
// tokens are stored hashed and keyed by their jti so that individual tokens
// can be rotated or revoked without touching the rest of a user's sessions.
package models

import (
	"time"

	"github.com/authgate/authgate/internal/constants"
)

// RefreshToken represents an outstanding refresh token.
// One row exists per refresh token that has been issued and not yet rotated,
// revoked, or expired. The raw token string is never stored, only its hash.
type RefreshToken struct {
	// ID is the unique identifier for this record
	ID int64 `json:"id" db:"token_id"`

	// UserID references the user who owns this token
	UserID int64 `json:"user_id" db:"user_id"`

	// JTI is the unique identifier claim embedded in the signed token.
	// It is the handle used for rotation and revocation.
	JTI string `json:"jti" db:"jti"`

	// TokenHash is the SHA-256 hash of the raw refresh token
	TokenHash string `json:"-" db:"token_hash"`

	// ExpiresAt defines when this token stops verifying
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`

	// CreatedAt records when this token was issued
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the database table name for the RefreshToken model.
func (rt *RefreshToken) TableName() string {
	return constants.TableRefreshTokens
}

// NewRefreshToken creates a new RefreshToken with the given parameters.
//
// Parameters:
//   - userID: The ID of the user who owns this token
//   - jti: The unique identifier claim of the signed token
//   - tokenHash: The SHA-256 hash of the raw token
//   - expiresAt: When the token stops verifying
//
// Returns:
//   - A new RefreshToken pointer with all fields populated
func NewRefreshToken(userID int64, jti, tokenHash string, expiresAt time.Time) *RefreshToken {
	return &RefreshToken{
		UserID:    userID,
		JTI:       jti,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
}

// IsExpired checks if the refresh token has expired.
func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// RevokedToken represents a revocation tombstone.
// A tombstone is written whenever a token is invalidated before its natural
// expiry: on logout, on refresh-token rotation, or on explicit revocation.
// The durable tombstone log is the source of truth for revocation checks;
// the cache in front of it is only an optimization.
type RevokedToken struct {
	// ID is the unique identifier for this record
	ID int64 `json:"id" db:"revoked_id"`

	// JTI is the identifier claim of the revoked token
	JTI string `json:"jti" db:"jti"`

	// UserID references the user the revoked token belonged to
	UserID int64 `json:"user_id" db:"user_id"`

	// Reason records why the token was revoked ("logout", "refresh")
	Reason string `json:"reason" db:"reason"`

	// ExpiresAt mirrors the revoked token's expiry so that tombstones for
	// long-dead tokens can eventually be swept
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`

	// RevokedAt records when the revocation happened
	RevokedAt time.Time `json:"revoked_at" db:"revoked_at"`
}

// TableName returns the database table name for the RevokedToken model.
func (rt *RevokedToken) TableName() string {
	return constants.TableRevokedTokens
}

// NewRevokedToken creates a new tombstone for the given token identifier.
//
// Parameters:
//   - jti: The identifier claim of the token being revoked
//   - userID: The ID of the user the token belonged to
//   - reason: Why the token was revoked
//   - expiresAt: The revoked token's natural expiry
//
// Returns:
//   - A new RevokedToken pointer with all fields populated
func NewRevokedToken(jti string, userID int64, reason string, expiresAt time.Time) *RevokedToken {
	return &RevokedToken{
		JTI:       jti,
		UserID:    userID,
		Reason:    reason,
		ExpiresAt: expiresAt,
		RevokedAt: time.Now(),
	}
}

// RefreshRequest represents a token refresh submission.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RevokeRequest represents an explicit token revocation submission.
type RevokeRequest struct {
	Token string `json:"token" validate:"required"`
}

// TokenResponse is the payload returned whenever a token pair is issued.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}
