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

// AuthHandler handles OTP and password login requests
type AuthHandler struct {
	authUC auth.AuthUC
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authUC auth.AuthUC) *AuthHandler {
	return &AuthHandler{
		authUC: authUC,
	}
}

// GenerateOTP handles OTP generation requests
func (h *AuthHandler) GenerateOTP(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request payload")
	}
	req.MSISDN = utils.SanitizeMSISDN(req.MSISDN)
	if err := c.Validate(&req); err != nil {
		return utils.BadRequestResponse(c, utils.ValidationMessage(err))
	}

	if err := h.authUC.GenerateOTP(c.Request().Context(), req.MSISDN); err != nil {
		if errors.Is(err, auth.ErrDeliveryFailed) {
			return utils.ErrorResponseHandler(c, http.StatusBadGateway, "Failed to deliver OTP")
		}
		logger.ErrorCtx(c.Request().Context(), "Failed to generate OTP",
			logger.String("msisdn", req.MSISDN),
			logger.Err(err))
		return utils.InternalServerErrorResponse(c, "Failed to generate OTP")
	}

	return utils.SuccessResponse(c, http.StatusOK, "OTP sent successfully", nil)
}

// VerifyOTP handles OTP verification requests
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req models.VerifyRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request payload")
	}
	req.MSISDN = utils.SanitizeMSISDN(req.MSISDN)
	if err := c.Validate(&req); err != nil {
		return utils.BadRequestResponse(c, utils.ValidationMessage(err))
	}

	resp, err := h.authUC.VerifyOTP(c.Request().Context(), req.MSISDN, req.OTP)
	if err != nil {
		status := verifyErrorStatus(err)
		if status == http.StatusInternalServerError {
			logger.ErrorCtx(c.Request().Context(), "Failed to verify OTP",
				logger.String("msisdn", req.MSISDN),
				logger.Err(err))
			return utils.InternalServerErrorResponse(c, "Failed to verify OTP")
		}
		return utils.ErrorResponseHandler(c, status, err.Error())
	}

	return utils.SuccessResponse(c, http.StatusOK, "OTP verified successfully", resp)
}

// verifyErrorStatus maps each verification outcome to its own status code
func verifyErrorStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrOTPNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrOTPExpired):
		return http.StatusGone
	case errors.Is(err, auth.ErrOTPAlreadyUsed):
		return http.StatusConflict
	case errors.Is(err, auth.ErrOTPMismatch):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Login handles MSISDN and password login requests
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.PasswordLoginRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request payload")
	}
	req.MSISDN = utils.SanitizeMSISDN(req.MSISDN)
	if err := c.Validate(&req); err != nil {
		return utils.BadRequestResponse(c, utils.ValidationMessage(err))
	}

	resp, err := h.authUC.LoginWithPassword(c.Request().Context(), req.MSISDN, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return utils.UnauthorizedResponse(c, "Invalid phone number or password")
		}
		logger.ErrorCtx(c.Request().Context(), "Failed to log in with password",
			logger.String("msisdn", req.MSISDN),
			logger.Err(err))
		return utils.InternalServerErrorResponse(c, "Failed to log in")
	}

	return utils.SuccessResponse(c, http.StatusOK, "Login successful", resp)
}
