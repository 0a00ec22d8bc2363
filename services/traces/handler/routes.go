package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/echoatlas/tracemap/internal/pkg/middleware"
	"github.com/echoatlas/tracemap/internal/pkg/models"
	"github.com/echoatlas/tracemap/services/traces"
	wshandler "github.com/echoatlas/tracemap/services/traces/handler/websocket"
)

// TracesHandler exposes the viewport query engine over HTTP and WebSocket
type TracesHandler struct {
	cfg       *models.Config
	traceUC   traces.TraceUC
	wsHandler *wshandler.ViewportHandler
}

// NewTracesHandler creates a new trace handler instance
func NewTracesHandler(cfg *models.Config, traceUC traces.TraceUC) *TracesHandler {
	return &TracesHandler{
		cfg:       cfg,
		traceUC:   traceUC,
		wsHandler: wshandler.NewViewportHandler(cfg, traceUC),
	}
}

// RegisterRoutes registers the trace service routes
func (h *TracesHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/traces", h.CreateTrace, middleware.JWTAuth(h.cfg.JWT))
	e.GET("/traces/viewport", h.ViewportTraces)
	e.GET("/ws/viewport", h.wsHandler.Handle)

	if h.cfg.App.Environment != "production" {
		e.POST("/auth/dev-token", h.DevToken)
	}
}
