package constants

// WebSocket event types
const (
	// Common events
	EventError = "error"
	EventPing  = "ping"
	EventPong  = "pong"

	// Renderer events
	EventViewportUpdate = "viewport"
	EventTraceList      = "traces"
)
