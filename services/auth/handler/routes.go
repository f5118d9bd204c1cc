package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/piresc/otpgate/internal/pkg/middleware"
	"github.com/piresc/otpgate/internal/pkg/models"
	"github.com/piresc/otpgate/services/auth/handler/http"
)

// Handler coordinates the HTTP handlers of the auth service
type Handler struct {
	authHandler *http.AuthHandler
	userHandler *http.UserHandler
	cfg         *models.Config
}

// NewHandler creates and initializes all handlers
func NewHandler(
	authHandler *http.AuthHandler,
	userHandler *http.UserHandler,
	cfg *models.Config,
) *Handler {
	return &Handler{
		authHandler: authHandler,
		userHandler: userHandler,
		cfg:         cfg,
	}
}

// RegisterRoutes registers the public auth routes and the JWT protected user routes
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Public routes
	authGroup := e.Group("/auth")
	authGroup.POST("/otp/generate", h.authHandler.GenerateOTP)
	authGroup.POST("/otp/verify", h.authHandler.VerifyOTP)
	authGroup.POST("/login", h.authHandler.Login)

	// Protected routes
	protected := e.Group("", middleware.JWTAuthMiddleware(h.cfg.JWT))
	userGroup := protected.Group("/users")
	userGroup.GET("/me", h.userHandler.GetMe)
	userGroup.PUT("/me/password", h.userHandler.SetPassword)
}
