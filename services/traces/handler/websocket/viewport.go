package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/echoatlas/tracemap/internal/pkg/constants"
	"github.com/echoatlas/tracemap/internal/pkg/logger"
	"github.com/echoatlas/tracemap/internal/pkg/models"
	wsmanager "github.com/echoatlas/tracemap/internal/pkg/websocket"
	"github.com/echoatlas/tracemap/services/traces"
	"github.com/echoatlas/tracemap/services/traces/usecase"
)

// ViewportHandler serves renderer sessions: viewport-changed events stream
// in, trace lists are pushed back only when the rendered set changes
type ViewportHandler struct {
	cfg     *models.Config
	traceUC traces.TraceUC
	manager *wsmanager.Manager
}

// NewViewportHandler creates a new viewport session handler
func NewViewportHandler(cfg *models.Config, traceUC traces.TraceUC) *ViewportHandler {
	return &ViewportHandler{
		cfg:     cfg,
		traceUC: traceUC,
		manager: wsmanager.NewManager(cfg.JWT),
	}
}

// Handle upgrades the connection and runs the session loop
func (h *ViewportHandler) Handle(c echo.Context) error {
	return h.manager.HandleConnection(c, h.serveSession)
}

// session wraps a connection with a write lock; the gate pushes results from
// its own goroutine while the read loop may answer pings
type session struct {
	mu sync.Mutex
	ws *gorillaws.Conn
}

func (s *session) send(event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.WriteJSON(models.WSMessage{Event: event, Data: payload})
}

func (s *session) sendError(code, message string) {
	if err := s.send(constants.EventError, models.WSErrorMessage{Code: code, Message: message}); err != nil {
		logger.Debug("failed to send websocket error", logrus.Fields{"error": err})
	}
}

// serveSession runs one renderer session. The gate and its diff cache live
// exactly as long as the connection.
func (h *ViewportHandler) serveSession(userID string, ws *gorillaws.Conn) error {
	sess := &session{ws: ws}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	settle := time.Duration(h.cfg.Engine.DebounceMs) * time.Millisecond
	gate := usecase.NewViewportGate(ctx, h.traceUC, settle, func(records []models.TraceRecord) {
		if err := sess.send(constants.EventTraceList, records); err != nil {
			logger.Debug("failed to push trace list", logrus.Fields{
				"user_id": userID,
				"error":   err,
			})
		}
	})
	defer gate.Close()

	logger.Info("viewport session started", logrus.Fields{"user_id": userID})

	for {
		var msg models.WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			logger.Info("viewport session closed", logrus.Fields{"user_id": userID})
			return nil
		}

		switch msg.Event {
		case constants.EventViewportUpdate:
			var req models.WSViewportRequest
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				sess.sendError("invalid_viewport", "viewport payload could not be parsed")
				continue
			}
			viewport := req.Viewport()
			if err := viewport.Validate(); err != nil {
				sess.sendError("invalid_viewport", err.Error())
				continue
			}
			gate.Observe(viewport)

		case constants.EventPing:
			if err := sess.send(constants.EventPong, struct{}{}); err != nil {
				return nil
			}

		default:
			sess.sendError("unknown_event", "unsupported event: "+msg.Event)
		}
	}
}
