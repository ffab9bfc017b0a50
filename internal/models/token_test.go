package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/authgate/authgate/internal/constants"
	"github.com/authgate/authgate/internal/models"
)

func TestNewRefreshToken(t *testing.T) {
	userID := int64(100)
	jti := "0b54ad6e-3f9b-4a0e-9d51-71bb1c7e9000"
	tokenHash := "abc123"
	expiresAt := time.Now().Add(7 * 24 * time.Hour)

	now := time.Now()
	token := models.NewRefreshToken(userID, jti, tokenHash, expiresAt)

	assert.NotNil(t, token, "NewRefreshToken should return a non-nil RefreshToken")
	assert.Equal(t, userID, token.UserID, "RefreshToken should have the provided user ID")
	assert.Equal(t, jti, token.JTI, "RefreshToken should have the provided jti")
	assert.Equal(t, tokenHash, token.TokenHash, "RefreshToken should have the provided token hash")
	assert.Equal(t, expiresAt, token.ExpiresAt, "RefreshToken should have the provided expiry")
	assert.WithinDuration(t, now, token.CreatedAt, time.Second, "CreatedAt should be set to current time")
}

func TestRefreshToken_TableName(t *testing.T) {
	token := &models.RefreshToken{}
	assert.Equal(t, constants.TableRefreshTokens, token.TableName(), "TableName should return the correct database table name")
}

func TestRefreshToken_IsExpired(t *testing.T) {
	testCases := []struct {
		name            string
		expiresAt       time.Time
		shouldBeExpired bool
	}{
		{"Future expiry", time.Now().Add(time.Hour), false},
		{"Past expiry", time.Now().Add(-time.Hour), true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			token := &models.RefreshToken{ExpiresAt: tc.expiresAt}
			assert.Equal(t, tc.shouldBeExpired, token.IsExpired(), "IsExpired should correctly determine if the token has expired")
		})
	}
}

func TestNewRevokedToken(t *testing.T) {
	jti := "0b54ad6e-3f9b-4a0e-9d51-71bb1c7e9000"
	userID := int64(100)
	expiresAt := time.Now().Add(time.Hour)

	now := time.Now()
	tombstone := models.NewRevokedToken(jti, userID, constants.RevocationReasonLogout, expiresAt)

	assert.NotNil(t, tombstone, "NewRevokedToken should return a non-nil RevokedToken")
	assert.Equal(t, jti, tombstone.JTI, "RevokedToken should have the provided jti")
	assert.Equal(t, userID, tombstone.UserID, "RevokedToken should have the provided user ID")
	assert.Equal(t, constants.RevocationReasonLogout, tombstone.Reason, "RevokedToken should have the provided reason")
	assert.Equal(t, expiresAt, tombstone.ExpiresAt, "RevokedToken should mirror the token's expiry")
	assert.WithinDuration(t, now, tombstone.RevokedAt, time.Second, "RevokedAt should be set to current time")
}

func TestRevokedToken_TableName(t *testing.T) {
	tombstone := &models.RevokedToken{}
	assert.Equal(t, constants.TableRevokedTokens, tombstone.TableName(), "TableName should return the correct database table name")
}
