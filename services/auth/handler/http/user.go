package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/piresc/otpgate/internal/pkg/logger"
	"github.com/piresc/otpgate/internal/pkg/models"
	"github.com/piresc/otpgate/internal/utils"
	"github.com/piresc/otpgate/services/auth"
)

// UserHandler serves the authenticated caller's own account
type UserHandler struct {
	authUC auth.AuthUC
}

// NewUserHandler creates a new user handler
func NewUserHandler(authUC auth.AuthUC) *UserHandler {
	return &UserHandler{
		authUC: authUC,
	}
}

// GetMe returns the current user
func (h *UserHandler) GetMe(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return utils.UnauthorizedResponse(c, "Invalid or missing token")
	}

	user, err := h.authUC.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return utils.NotFoundResponse(c, "User not found")
		}
		logger.ErrorCtx(c.Request().Context(), "Failed to retrieve user",
			logger.String("user_id", userID),
			logger.Err(err))
		return utils.InternalServerErrorResponse(c, "Failed to retrieve user")
	}

	return utils.SuccessResponse(c, http.StatusOK, "User retrieved successfully", user)
}

// SetPassword sets the current user's password
func (h *UserHandler) SetPassword(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return utils.UnauthorizedResponse(c, "Invalid or missing token")
	}

	var req models.SetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return utils.BadRequestResponse(c, utils.ValidationMessage(err))
	}

	if err := h.authUC.SetPassword(c.Request().Context(), userID, req.Password); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return utils.NotFoundResponse(c, "User not found")
		}
		logger.ErrorCtx(c.Request().Context(), "Failed to set password",
			logger.String("user_id", userID),
			logger.Err(err))
		return utils.InternalServerErrorResponse(c, "Failed to set password")
	}

	return utils.SuccessResponse(c, http.StatusOK, "Password updated successfully", nil)
}
