package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"touchline/backend/internal/handler"
	"touchline/backend/internal/logger"
	"touchline/backend/internal/service"
)

// AuthCookieName is the name of the authentication cookie.
const AuthCookieName = "touchline_auth"

// RequestLoggerMiddleware logs HTTP requests using logger.
func RequestLoggerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status

			log := logger.Debug
			result := "ok"
			switch {
			case status >= 500:
				log, result = logger.Error, "failed"
			case status >= 400:
				log, result = logger.Warn, "failed"
			}
			log("http request",
				"module", "http",
				"action", "request",
				"resource", "http",
				"result", result,
				"method", req.Method,
				"path", req.URL.Path,
				"status_code", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_ip", c.RealIP(),
				"user_agent", req.UserAgent(),
			)

			return nil
		}
	}
}

// NewGuards builds the route guards handlers register against.
func NewGuards(auth service.AuthService) handler.Guards {
	return handler.Guards{
		Optional: OptionalAuthMiddleware(auth),
		Editor:   JWTAuthMiddleware(auth, service.RoleEditor),
		Admin:    JWTAuthMiddleware(auth, service.RoleAdmin),
	}
}

// JWTAuthMiddleware rejects requests without a valid token carrying at least minRole.
// It checks both Authorization header (for API calls) and Cookie (for browser requests).
func JWTAuthMiddleware(auth service.AuthService, minRole string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				logAuthFailure(c, "auth missing", nil)
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "missing authentication",
				})
			}

			p, err := auth.Verify(token)
			if err != nil {
				logAuthFailure(c, "auth invalid", err)
				if errors.Is(err, service.ErrAuthUnavailable) {
					return c.JSON(http.StatusServiceUnavailable, map[string]string{
						"error": "authentication is not configured",
					})
				}
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "invalid token",
				})
			}

			if !p.HasRole(minRole) {
				logAuthFailure(c, "auth forbidden", nil)
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": "insufficient role",
				})
			}

			c.Set(handler.PrincipalKey, p)
			return next(c)
		}
	}
}

// OptionalAuthMiddleware records the caller when a valid token is present.
// Requests without one, or with a bad one, continue anonymously.
func OptionalAuthMiddleware(auth service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token := bearerToken(c); token != "" {
				if p, err := auth.Verify(token); err == nil {
					c.Set(handler.PrincipalKey, p)
				}
			}
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	if cookie, err := c.Cookie(AuthCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

func logAuthFailure(c echo.Context, msg string, err error) {
	args := []any{
		"module", "http",
		"action", "request",
		"resource", "auth",
		"result", "failed",
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
		"remote_ip", c.RealIP(),
	}
	if err != nil {
		args = append(args, "error", err)
	}
	logger.Warn(msg, args...)
}
