package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/constants"
	"github.com/authgate/authgate/internal/email"
	"github.com/authgate/authgate/internal/models"
	"github.com/authgate/authgate/internal/repository"
	"github.com/authgate/authgate/internal/utils"
)

// AuthService handles registration, login, email verification, password
// reset and the refresh token lifecycle.
type AuthService struct {
	userRepo    repository.UserRepository
	refreshRepo repository.RefreshTokenRepository
	resetRepo   repository.PasswordResetRepository
	revocation  *TokenRevocationService
	jwtService  *auth.JWTService
	passwordCfg *auth.PasswordConfig
	emailSender email.EmailSender
	emailCfg    *config.EmailSettings
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo repository.UserRepository,
	refreshRepo repository.RefreshTokenRepository,
	resetRepo repository.PasswordResetRepository,
	revocation *TokenRevocationService,
	jwtService *auth.JWTService,
	passwordCfg *auth.PasswordConfig,
	emailSender email.EmailSender,
	emailCfg *config.EmailSettings,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		refreshRepo: refreshRepo,
		resetRepo:   resetRepo,
		revocation:  revocation,
		jwtService:  jwtService,
		passwordCfg: passwordCfg,
		emailSender: emailSender,
		emailCfg:    emailCfg,
	}
}

// RegisterUser creates a new user account.
//
// When email verification is enabled the account starts unverified and a
// verification link is emailed; the email failing to send does not undo
// the registration, since the verification flow can be retried. When
// verification is disabled accounts are usable immediately.
func (s *AuthService) RegisterUser(ctx context.Context, reg *models.UserRegistration) (*models.User, error) {
	// Check if email already exists
	exists, err := s.userRepo.ExistsByEmail(ctx, reg.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, utils.NewDuplicateError("User", constants.ColumnEmail, reg.Email)
	}

	// Hash the password
	passwordHash, salt, err := auth.HashPassword(reg.Password, s.passwordCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(reg.Name, reg.Email)
	user.PasswordHash = passwordHash
	user.Salt = salt

	var verificationToken string
	if s.emailCfg.VerificationEnabled {
		verificationToken, err = auth.GenerateSecureToken(constants.VerificationTokenBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to generate verification token: %w", err)
		}
		expiresAt := time.Now().Add(constants.EmailVerificationTokenTTL)
		user.VerificationTokenHash = auth.HashToken(verificationToken)
		user.VerificationExpiresAt = &expiresAt
	} else {
		user.EmailVerified = true
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.emailCfg.VerificationEnabled {
		if err := s.emailSender.SendVerification(ctx, user.Email, user.Name, verificationToken); err != nil {
			log.Error().Err(err).Int64(constants.ColumnUserID, user.ID).Msg("Failed to send verification email")
		}
	}

	utils.LogAuth("register_success", fmt.Sprintf("%d", user.ID), user.Email, true, "")

	return user.Sanitize(), nil
}

// AuthenticateUser verifies credentials and issues a token pair.
//
// Every failure path that depends on what the caller knows about the
// account returns the same invalid-credentials error: unknown email,
// wrong password and unverified email are indistinguishable to a client.
func (s *AuthService) AuthenticateUser(ctx context.Context, creds *models.UserCredentials) (*models.User, *auth.TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, creds.Email)
	if err != nil {
		if utils.IsNotFoundError(err) {
			utils.LogAuth("login_failed", "0", creds.Email, false, "user not found")
			return nil, nil, utils.NewInvalidCredentialsError()
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	match, err := auth.VerifyPassword(creds.Password, user.PasswordHash, user.Salt, s.passwordCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		utils.LogAuth("login_failed", fmt.Sprintf("%d", user.ID), user.Email, false, "invalid password")
		return nil, nil, utils.NewInvalidCredentialsError()
	}

	if s.emailCfg.VerificationEnabled && !user.EmailVerified {
		utils.LogAuth("login_failed", fmt.Sprintf("%d", user.ID), user.Email, false, "email not verified")
		return nil, nil, utils.NewUnverifiedEmailError()
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	utils.LogAuth("login_success", fmt.Sprintf("%d", user.ID), user.Email, true, "")

	return user.Sanitize(), pair, nil
}

// VerifyEmail marks an account as verified using the emailed token.
// Unknown and expired tokens produce the same error.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.userRepo.GetByVerificationTokenHash(ctx, auth.HashToken(token))
	if err != nil {
		if utils.IsNotFoundError(err) {
			return utils.NewBadRequestError(constants.MsgVerificationTokenInvalid)
		}
		return fmt.Errorf("failed to look up verification token: %w", err)
	}

	if user.VerificationExpiresAt == nil || time.Now().After(*user.VerificationExpiresAt) {
		return utils.NewBadRequestError(constants.MsgVerificationTokenInvalid)
	}

	if err := s.userRepo.MarkEmailVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	utils.LogAuth("email_verified", fmt.Sprintf("%d", user.ID), user.Email, true, "")

	return nil
}

// ForgotPassword starts the password reset flow. It always succeeds from
// the caller's perspective: whether the email exists is never revealed,
// and a delivery failure is logged rather than returned.
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if utils.IsNotFoundError(err) {
			log.Debug().Str(constants.ColumnEmail, emailAddr).Msg("Password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, err := auth.GenerateSecureToken(constants.VerificationTokenBytes)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	resetToken := &models.PasswordResetToken{
		TokenHash: auth.HashToken(token),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(constants.PasswordResetTokenTTL),
		CreatedAt: time.Now(),
	}
	if err := s.resetRepo.Create(ctx, resetToken); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.emailSender.SendPasswordReset(ctx, user.Email, user.Name, token); err != nil {
		log.Error().Err(err).Int64(constants.ColumnUserID, user.ID).Msg("Failed to send password reset email")
	}

	utils.LogAuth("password_reset_requested", fmt.Sprintf("%d", user.ID), user.Email, true, "")

	return nil
}

// ResetPassword sets a new password using an emailed reset token. All
// refresh tokens for the account are deleted afterwards so stolen
// sessions don't survive the reset. Unknown and expired tokens produce
// the same error.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	tokenHash := auth.HashToken(token)

	resetToken, err := s.resetRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if utils.IsNotFoundError(err) {
			return utils.NewBadRequestError(constants.MsgResetTokenInvalid)
		}
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	if time.Now().After(resetToken.ExpiresAt) {
		return utils.NewBadRequestError(constants.MsgResetTokenInvalid)
	}

	passwordHash, salt, err := auth.HashPassword(newPassword, s.passwordCfg)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, resetToken.UserID, passwordHash, salt); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	// The token is single-use, and any other outstanding reset links die with it
	if err := s.resetRepo.DeleteByUserID(ctx, resetToken.UserID); err != nil {
		log.Warn().Err(err).Int64(constants.ColumnUserID, resetToken.UserID).Msg("Failed to delete reset tokens after password change")
	}

	if _, err := s.refreshRepo.DeleteByUserID(ctx, resetToken.UserID); err != nil {
		log.Warn().Err(err).Int64(constants.ColumnUserID, resetToken.UserID).Msg("Failed to delete refresh tokens after password change")
	}

	utils.LogAuth("password_reset", fmt.Sprintf("%d", resetToken.UserID), "", true, "")

	return nil
}

// RefreshTokens rotates a refresh token: the presented token is validated,
// checked against both revocation stores and the refresh token table, then
// revoked and replaced with a fresh pair. A refresh token works exactly
// once; replaying one after rotation is refused by its tombstone.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.jwtService.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revocation.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check revocation status: %w", err)
	}
	if revoked {
		utils.LogAuth("refresh_failed", fmt.Sprintf("%d", claims.UserID), claims.Email, false, "token revoked")
		return nil, utils.NewRevokedTokenError()
	}

	// The token must still be on record; a valid signature alone is not
	// enough. A missing row means the token was never issued, already
	// rotated, or already revoked.
	stored, err := s.refreshRepo.GetByJTI(ctx, claims.ID)
	if err != nil {
		if utils.IsNotFoundError(err) {
			utils.LogAuth("refresh_failed", fmt.Sprintf("%d", claims.UserID), claims.Email, false, "token not on record")
			return nil, utils.NewInvalidTokenError()
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	if stored.TokenHash != auth.HashToken(refreshToken) {
		utils.LogAuth("refresh_failed", fmt.Sprintf("%d", claims.UserID), claims.Email, false, "token hash mismatch")
		return nil, utils.NewInvalidTokenError()
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Retire the old token before the new pair is handed out
	if err := s.revocation.RevokeJTI(ctx, claims.ID, stored.UserID, stored.ExpiresAt, constants.RevocationReasonRefresh); err != nil {
		return nil, err
	}

	// The delete doubles as the rotation lock: of two concurrent refreshes
	// of the same token, only the one that removes the row gets a new pair.
	if err := s.refreshRepo.DeleteByJTI(ctx, claims.ID); err != nil {
		if utils.IsNotFoundError(err) {
			utils.LogAuth("refresh_failed", fmt.Sprintf("%d", claims.UserID), claims.Email, false, "concurrent rotation")
			return nil, utils.NewInvalidTokenError()
		}
		return nil, fmt.Errorf("failed to delete rotated refresh token: %w", err)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	utils.LogAuth("refresh_success", fmt.Sprintf("%d", user.ID), user.Email, true, "")

	return pair, nil
}

// Logout revokes the presented refresh token and removes it from the
// refresh token table. The token is decoded without expiry validation so
// an already-expired token can still be logged out cleanly.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwtService.DecodeToken(refreshToken)
	if err != nil {
		return utils.NewInvalidTokenError()
	}

	expiresAt := time.Now()
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	if err := s.revocation.RevokeJTI(ctx, claims.ID, claims.UserID, expiresAt, constants.RevocationReasonLogout); err != nil {
		return err
	}

	if err := s.refreshRepo.DeleteByJTI(ctx, claims.ID); err != nil && !utils.IsNotFoundError(err) {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}

	utils.LogAuth("logout", fmt.Sprintf("%d", claims.UserID), claims.Email, true, "")

	return nil
}

// RevokeToken tombstones an arbitrary token by value. Works for both
// access and refresh tokens; the signature is not re-verified since
// revoking a token can only narrow what it is good for. Revoking a
// refresh token whose session is no longer on record is a NotFoundError.
func (s *AuthService) RevokeToken(ctx context.Context, token string) error {
	claims, err := s.jwtService.DecodeToken(token)
	if err != nil {
		return utils.NewInvalidTokenError()
	}

	expiresAt := time.Now()
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	// Revoking a refresh token targets its stored session, so an unknown
	// jti is reported to the caller rather than silently tombstoned.
	// Access tokens have no stored row and are tombstoned directly.
	if claims.TokenType == constants.TokenTypeRefresh {
		stored, err := s.refreshRepo.GetByJTI(ctx, claims.ID)
		if err != nil {
			if utils.IsNotFoundError(err) {
				return utils.NewNotFoundError("Token", claims.ID)
			}
			return fmt.Errorf("failed to look up refresh token: %w", err)
		}

		if err := s.revocation.RevokeJTI(ctx, claims.ID, stored.UserID, stored.ExpiresAt, constants.RevocationReasonLogout); err != nil {
			return err
		}

		if err := s.refreshRepo.DeleteByJTI(ctx, claims.ID); err != nil && !utils.IsNotFoundError(err) {
			return fmt.Errorf("failed to delete refresh token: %w", err)
		}

		return nil
	}

	return s.revocation.RevokeJTI(ctx, claims.ID, claims.UserID, expiresAt, constants.RevocationReasonLogout)
}

// LogoutAll deletes every refresh token belonging to a user, ending all of
// their sessions. Outstanding access tokens run out on their own expiry.
func (s *AuthService) LogoutAll(ctx context.Context, userID int64) (int64, error) {
	count, err := s.refreshRepo.DeleteByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete refresh tokens: %w", err)
	}

	utils.LogAuth("logout_all", fmt.Sprintf("%d", userID), "", true, "")

	return count, nil
}

// GetUserByID returns a sanitized user for profile endpoints.
func (s *AuthService) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Sanitize(), nil
}

// issueTokenPair generates a fresh access/refresh pair for the user and
// stores the hash of the refresh token.
func (s *AuthService) issueTokenPair(ctx context.Context, user *models.User) (*auth.TokenPair, error) {
	pair, err := s.jwtService.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token pair: %w", err)
	}

	stored := models.NewRefreshToken(user.ID, pair.RefreshJTI, auth.HashToken(pair.RefreshToken), pair.RefreshExpiresAt)
	if err := s.refreshRepo.Create(ctx, stored); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return pair, nil
}
