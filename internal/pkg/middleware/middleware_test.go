package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	jwtpkg "github.com/piresc/otpgate/internal/pkg/jwt"
	"github.com/piresc/otpgate/internal/pkg/logger"
	"github.com/piresc/otpgate/internal/pkg/models"
	"github.com/piresc/otpgate/internal/pkg/requestcontext"
)

func TestRequestIDMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(RequestIDMiddleware())
	e.GET("/", func(c echo.Context) error {
		assert.Equal(t, c.Get("request_id"), requestcontext.RequestID(c.Request().Context()))
		return c.String(http.StatusOK, c.Get("request_id").(string))
	})

	t.Run("generates id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		id := rec.Header().Get(echo.HeaderXRequestID)
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
		assert.Equal(t, id, rec.Body.String())
	})

	t.Run("keeps incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderXRequestID, "req-123")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, "req-123", rec.Header().Get(echo.HeaderXRequestID))
		assert.Equal(t, "req-123", rec.Body.String())
	})
}

func TestPanicRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	zl := logger.NewFromZap(zap.New(core), "middleware-test")

	e := echo.New()
	e.Use(PanicRecoveryMiddleware(zl))
	e.GET("/boom", func(c echo.Context) error {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Panic recovered during request processing", logs.All()[0].Message)

	assert.Panics(t, func() { PanicRecoveryMiddleware(nil) })
}

func TestNewRelicMiddleware_NilAppPassThrough(t *testing.T) {
	e := echo.New()
	e.Use(NewRelicMiddleware(nil))
	e.GET("/", func(c echo.Context) error {
		AddAttribute(c, "k", "v")
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestJWTAuthMiddleware(t *testing.T) {
	cfg := models.JWTConfig{Secret: "mw-secret", Expiration: 30, Issuer: "otpgate"}
	user := &models.User{ID: uuid.New(), MSISDN: "+15551234567", Role: models.RoleUser}

	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			return c.NoContent(http.StatusTeapot)
		}
		assert.Equal(t, claims.UserID.String(), c.Get("user_id"))
		assert.Equal(t, claims.Role, c.Get("role"))
		assert.Equal(t, claims.UserID.String(), requestcontext.UserID(c.Request().Context()))
		return c.String(http.StatusOK, claims.MSISDN)
	}, JWTAuthMiddleware(cfg))

	valid, _, err := jwtpkg.GenerateToken(user, cfg, time.Now())
	require.NoError(t, err)
	expired, _, err := jwtpkg.GenerateToken(user, cfg, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	testCases := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "valid", header: "Bearer " + valid, wantStatus: http.StatusOK, wantBody: "+15551234567"},
		{name: "missing", header: "", wantStatus: http.StatusUnauthorized, wantBody: "Invalid or missing token"},
		{name: "expired", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized, wantBody: "Invalid or missing token"},
		{name: "garbage", header: "Bearer not-a-token", wantStatus: http.StatusUnauthorized, wantBody: "Invalid or missing token"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.wantBody)
		})
	}
}
