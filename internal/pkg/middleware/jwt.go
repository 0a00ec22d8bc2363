package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	jwtpkg "github.com/echoatlas/tracemap/internal/pkg/jwt"
	"github.com/echoatlas/tracemap/internal/pkg/models"
)

// UserIDKey is the echo context key the authenticated user id is stored under
const UserIDKey = "user_id"

// JWTAuth validates the Bearer token on write endpoints and stores the
// authenticated user id on the request context
func JWTAuth(cfg models.JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is required")
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			}

			claims, err := jwtpkg.ValidateToken(parts[1], cfg.Secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			if userID, ok := (*claims)["user_id"].(string); ok {
				c.Set(UserIDKey, userID)
			}

			return next(c)
		}
	}
}
