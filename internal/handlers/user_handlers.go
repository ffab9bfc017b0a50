package handlers

import (
	"net/http"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/constants"
	"github.com/authgate/authgate/internal/service"
	"github.com/authgate/authgate/internal/utils"
)

// UserHandler handles user profile routes.
type UserHandler struct {
	authService *service.AuthService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *service.AuthService) *UserHandler {
	if authService == nil {
		panic("authService cannot be nil")
	}
	return &UserHandler{authService: authService}
}

// CurrentUser returns the authenticated user's profile.
func (h *UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r)
	if !ok {
		utils.Unauthorized(w, constants.MsgAuthRequired)
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, user)
}
