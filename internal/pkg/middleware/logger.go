package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/echoatlas/tracemap/internal/pkg/logger"
)

// RequestLogger logs one structured line per completed request
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := logrus.Fields{
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"status":     c.Response().Status,
				"latency_ms": time.Since(start).Milliseconds(),
				"client_ip":  c.RealIP(),
			}

			if c.Response().Status >= 500 {
				logger.Error("request failed", fields)
			} else {
				logger.Info("request completed", fields)
			}

			return nil
		}
	}
}
