package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
)

// HeaderAPIKey is the header clients authenticate with
const HeaderAPIKey = "X-API-Key"

// APIKey enforces static API key auth on every request. An empty configured
// key disables the check (local development). Probe and metrics endpoints
// stay open.
func APIKey(key string, logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if key == "" {
				return next(c)
			}

			path := c.Request().URL.Path
			if strings.HasPrefix(path, "/api/v1/health") || path == "/metrics" {
				return next(c)
			}

			provided := c.Request().Header.Get(HeaderAPIKey)
			if provided == "" {
				logger.WithContext(c.Request().Context()).WithFields(map[string]any{
					"remote_ip": c.RealIP(),
					"path":      c.Path(),
				}).Warn("Request without API key")
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing API key")
			}

			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				logger.WithContext(c.Request().Context()).WithFields(map[string]any{
					"remote_ip": c.RealIP(),
					"path":      c.Path(),
				}).Warn("Request with invalid API key")
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid API key")
			}

			return next(c)
		}
	}
}
