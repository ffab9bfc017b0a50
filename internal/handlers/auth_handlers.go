// Package handlers implements the HTTP endpoints of the API.
package handlers

import (
	"net/http"
	"time"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/constants"
	"github.com/authgate/authgate/internal/models"
	"github.com/authgate/authgate/internal/service"
	"github.com/authgate/authgate/internal/utils"
)

// AuthHandler handles authentication-related routes.
type AuthHandler struct {
	authService *service.AuthService
	jwtService  *auth.JWTService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, jwtService *auth.JWTService) *AuthHandler {
	if authService == nil {
		panic("authService cannot be nil")
	}
	if jwtService == nil {
		panic("jwtService cannot be nil")
	}
	return &AuthHandler{
		authService: authService,
		jwtService:  jwtService,
	}
}

// Register handles user registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var reg models.UserRegistration
	if err := utils.DecodeAndValidate(r, &reg); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	user, err := h.authService.RegisterUser(r.Context(), &reg)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusCreated, user)
}

// Login handles user authentication. The refresh token travels both in the
// response body and in an HTTP-only cookie so browser and non-browser
// clients can both use the API.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds models.UserCredentials
	if err := utils.DecodeAndValidate(r, &creds); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	user, pair, err := h.authService.AuthenticateUser(r.Context(), &creds)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	h.setRefreshCookie(w, r, pair.RefreshToken)

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"user":   user,
		"tokens": h.tokenResponse(pair),
	})
}

// VerifyEmail confirms an email address using the emailed token.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyEmailRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	if err := h.authService.VerifyEmail(r.Context(), req.Token); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"message": "Email verified successfully",
	})
}

// ForgotPassword starts the password reset flow. The response is the same
// whether or not the email is registered.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	if err := h.authService.ForgotPassword(r.Context(), req.Email); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"message": constants.MsgResetEmailSent,
	})
}

// ResetPassword sets a new password using an emailed reset token.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"message": "Password has been reset",
	})
}

// RefreshToken rotates a refresh token. The token is taken from the
// request body when present, otherwise from the cookie.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	refreshToken := h.refreshTokenFromRequest(r)
	if refreshToken == "" {
		utils.Unauthorized(w, "Refresh token not found")
		return
	}

	pair, err := h.authService.RefreshTokens(r.Context(), refreshToken)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	h.setRefreshCookie(w, r, pair.RefreshToken)

	utils.JSON(w, http.StatusOK, h.tokenResponse(pair))
}

// RevokeToken tombstones a token presented by value.
func (h *AuthHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	var req models.RevokeRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	if err := h.authService.RevokeToken(r.Context(), req.Token); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"message": "Token revoked",
	})
}

// Logout revokes the current refresh token and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if refreshToken := h.refreshTokenFromRequest(r); refreshToken != "" {
		if err := h.authService.Logout(r.Context(), refreshToken); err != nil {
			utils.ErrorFromAppError(w, utils.ParseError(err))
			return
		}
	}

	h.clearRefreshCookie(w, r)

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"message": "Successfully logged out",
	})
}

// LogoutAll ends every session belonging to the authenticated user.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r)
	if !ok {
		utils.Unauthorized(w, constants.MsgAuthRequired)
		return
	}

	count, err := h.authService.LogoutAll(r.Context(), userID)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	h.clearRefreshCookie(w, r)

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"message":          "Successfully logged out of all sessions",
		"sessions_revoked": count,
	})
}

// tokenResponse builds the standard token payload from a pair.
func (h *AuthHandler) tokenResponse(pair *auth.TokenPair) *models.TokenResponse {
	return &models.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(h.jwtService.AccessTokenDuration().Seconds()),
	}
}

// refreshTokenFromRequest reads the refresh token from the JSON body,
// falling back to the HTTP-only cookie.
func (h *AuthHandler) refreshTokenFromRequest(r *http.Request) string {
	var req models.RefreshRequest
	if err := utils.DecodeAndValidate(r, &req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	if cookie, err := r.Cookie(constants.RefreshTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, r *http.Request, token string) {
	refreshExpiry := h.jwtService.RefreshTokenDuration()
	http.SetCookie(w, &http.Cookie{
		Name:     constants.RefreshTokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(refreshExpiry.Seconds()),
		Expires:  time.Now().Add(refreshExpiry),
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.RefreshTokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}
