package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/constants"
	"github.com/authgate/authgate/internal/utils"
)

// JWT errors
var (
	ErrInvalidToken         = errors.New("invalid token")
	ErrExpiredToken         = errors.New("token has expired")
	ErrInvalidSigningMethod = errors.New("invalid signing method")
	ErrInvalidTokenClaims   = errors.New("invalid token claims")
)

// expirySpecPattern matches duration specifications like "15m", "7d", "3600s".
var expirySpecPattern = regexp.MustCompile(`^(\d+)([smhd])$`)

// CustomClaims represents the claims in a JWT token
type CustomClaims struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"token_type"` // "access" or "refresh"
	jwt.RegisteredClaims
}

// TokenPair bundles the access and refresh tokens issued together for a user.
// The two tokens carry distinct jtis and are signed with different secrets.
type TokenPair struct {
	AccessToken      string
	AccessJTI        string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshJTI       string
	RefreshExpiresAt time.Time
}

// JWTService provides JWT token generation and validation functionality
type JWTService struct {
	Config *config.JWTSettings
}

// NewJWTService creates a new JWTService instance
func NewJWTService(config *config.JWTSettings) *JWTService {
	return &JWTService{
		Config: config,
	}
}

// GetConfig returns the JWT settings, falling back to defaults when unset
func (s *JWTService) GetConfig() *config.JWTSettings {
	if s.Config == nil {
		return &config.JWTSettings{
			AccessExpiry:  constants.DefaultAccessTokenExpiry,
			RefreshExpiry: constants.DefaultRefreshTokenExpiry,
			Issuer:        constants.DefaultJWTIssuer,
		}
	}
	return s.Config
}

// AccessTokenDuration returns the configured access token lifetime
func (s *JWTService) AccessTokenDuration() time.Duration {
	return time.Duration(GetTokenExpiration(s.GetConfig().AccessExpiry)) * time.Second
}

// RefreshTokenDuration returns the configured refresh token lifetime
func (s *JWTService) RefreshTokenDuration() time.Duration {
	return time.Duration(GetTokenExpiration(s.GetConfig().RefreshExpiry)) * time.Second
}

// GenerateAccessToken generates a new JWT access token for a user
func (s *JWTService) GenerateAccessToken(userID int64, email string) (string, string, error) {
	return s.generateToken(userID, email, constants.TokenTypeAccess, s.GetConfig().AccessSecret, s.AccessTokenDuration())
}

// GenerateRefreshToken generates a new JWT refresh token for a user
func (s *JWTService) GenerateRefreshToken(userID int64, email string) (string, string, error) {
	return s.generateToken(userID, email, constants.TokenTypeRefresh, s.GetConfig().RefreshSecret, s.RefreshTokenDuration())
}

// GenerateTokenPair issues a fresh access/refresh pair for a user.
// The two tokens are signed concurrently; if either signing fails the whole
// pair is discarded.
func (s *JWTService) GenerateTokenPair(userID int64, email string) (*TokenPair, error) {
	now := time.Now()
	pair := &TokenPair{
		AccessExpiresAt:  now.Add(s.AccessTokenDuration()),
		RefreshExpiresAt: now.Add(s.RefreshTokenDuration()),
	}

	var wg sync.WaitGroup
	var accessErr, refreshErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		pair.AccessToken, pair.AccessJTI, accessErr = s.GenerateAccessToken(userID, email)
	}()
	go func() {
		defer wg.Done()
		pair.RefreshToken, pair.RefreshJTI, refreshErr = s.GenerateRefreshToken(userID, email)
	}()
	wg.Wait()

	if accessErr != nil {
		return nil, accessErr
	}
	if refreshErr != nil {
		return nil, refreshErr
	}

	return pair, nil
}

// generateToken creates a new JWT token with the provided parameters
func (s *JWTService) generateToken(userID int64, email, tokenType, secret string, expiry time.Duration) (string, string, error) {
	// Generate a unique token ID
	jwtID := uuid.New().String()

	// Create claims with user information and expiry time
	now := time.Now()
	claims := CustomClaims{
		UserID:    userID,
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.GetConfig().Issuer,
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			NotBefore: jwt.NewNumericDate(now),
			ID:        jwtID,
		},
	}

	// Create the token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	// Sign the token with the secret key
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, jwtID, nil
}

// ValidateToken validates a JWT token and returns its claims if valid.
// The expected type selects the verification secret, so an access token can
// never pass as a refresh token and vice versa.
func (s *JWTService) ValidateToken(tokenString string, expectedType string) (*CustomClaims, error) {
	secret := s.GetConfig().AccessSecret
	if expectedType == constants.TokenTypeRefresh {
		secret = s.GetConfig().RefreshSecret
	}

	// Parse the token
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return []byte(secret), nil
	})

	// Handle parsing errors
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, utils.NewExpiredTokenError()
		}
		return nil, utils.NewInvalidTokenError()
	}

	// Check if the token is valid
	if !token.Valid {
		return nil, utils.NewInvalidTokenError()
	}

	// Extract and validate the claims
	claims, ok := token.Claims.(*CustomClaims)
	if !ok {
		return nil, utils.NewInvalidTokenError()
	}

	// Validate the token type claim
	if claims.TokenType != expectedType {
		return nil, utils.NewInvalidTokenError()
	}

	return claims, nil
}

// VerifyAccessToken validates an access token and returns its claims
func (s *JWTService) VerifyAccessToken(tokenString string) (*CustomClaims, error) {
	return s.ValidateToken(tokenString, constants.TokenTypeAccess)
}

// VerifyRefreshToken validates a refresh token and returns its claims
func (s *JWTService) VerifyRefreshToken(tokenString string) (*CustomClaims, error) {
	return s.ValidateToken(tokenString, constants.TokenTypeRefresh)
}

// DecodeToken parses a token without verifying its signature or expiry.
// This is used for revocation, where the jti and expiry are needed even when
// the token no longer validates.
func (s *JWTService) DecodeToken(tokenString string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrInvalidTokenClaims
	}

	if claims.ID == "" {
		return nil, ErrInvalidTokenClaims
	}

	return claims, nil
}

// GetTokenExpiration converts a duration specification ("15m", "7d", "3600s")
// into seconds. Specifications that don't match the expected format fall back
// to the default of 900 seconds.
func GetTokenExpiration(spec string) int64 {
	matches := expirySpecPattern.FindStringSubmatch(spec)
	if matches == nil {
		return constants.DefaultTokenExpirationSeconds
	}

	value, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return constants.DefaultTokenExpirationSeconds
	}

	switch matches[2] {
	case "s":
		return value
	case "m":
		return value * 60
	case "h":
		return value * 3600
	case "d":
		return value * 86400
	}

	return constants.DefaultTokenExpirationSeconds
}
