package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/piresc/otpgate/internal/pkg/requestcontext"
)

// RequestIDMiddleware adds a unique request ID to each request and its context
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			c.Response().Header().Set(echo.HeaderXRequestID, requestID)
			c.Set("request_id", requestID)
			req := c.Request()
			c.SetRequest(req.WithContext(requestcontext.WithRequestID(req.Context(), requestID)))

			return next(c)
		}
	}
}
