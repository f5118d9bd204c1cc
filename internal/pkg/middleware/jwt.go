package middleware

import (
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	jwtpkg "github.com/piresc/otpgate/internal/pkg/jwt"
	"github.com/piresc/otpgate/internal/pkg/models"
	"github.com/piresc/otpgate/internal/pkg/requestcontext"
	"github.com/piresc/otpgate/internal/utils"
)

const claimsContextKey = "claims"

// JWTAuthMiddleware authenticates bearer tokens and exposes the claims as
// "claims", "user_id" and "role" on the echo context
func JWTAuthMiddleware(config models.JWTConfig) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: claimsContextKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return jwtpkg.ValidateToken(auth, config.Secret)
		},
		SuccessHandler: func(c echo.Context) {
			if claims, ok := c.Get(claimsContextKey).(*jwtpkg.Claims); ok {
				c.Set("user_id", claims.UserID.String())
				c.Set("role", claims.Role)
				SetUserID(c, claims.UserID.String())
				req := c.Request()
				c.SetRequest(req.WithContext(requestcontext.WithUserID(req.Context(), claims.UserID.String())))
			}
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return utils.UnauthorizedResponse(c, "Invalid or missing token")
		},
	})
}

// ClaimsFromContext returns the claims stored by JWTAuthMiddleware
func ClaimsFromContext(c echo.Context) (*jwtpkg.Claims, bool) {
	claims, ok := c.Get(claimsContextKey).(*jwtpkg.Claims)
	return claims, ok
}
