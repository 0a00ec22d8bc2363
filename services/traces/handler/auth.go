package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/echoatlas/tracemap/internal/pkg/jwt"
)

// DevTokenRequest identifies the pipeline user a token is issued for
type DevTokenRequest struct {
	UserID string `json:"user_id"`
}

// DevTokenResponse carries an issued upload token
type DevTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// DevToken issues an upload token. Registered outside production only;
// production tokens come from the identity service.
func (h *TracesHandler) DevToken(c echo.Context) error {
	var req DevTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id must be a UUID")
	}

	token, expiresAt, err := jwt.GenerateToken(userID, h.cfg)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue token")
	}

	return c.JSON(http.StatusOK, DevTokenResponse{Token: token, ExpiresAt: expiresAt})
}
