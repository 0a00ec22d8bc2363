package models

import "encoding/json"

// WSMessage represents a WebSocket message structure
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WSErrorMessage represents an error message sent over WebSocket
type WSErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WSViewportRequest is the renderer's viewport-changed event payload
type WSViewportRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	LatDelta  float64 `json:"lat_delta"`
	LonDelta  float64 `json:"lon_delta"`
}

// Viewport converts the wire payload to a Viewport
func (r WSViewportRequest) Viewport() Viewport {
	return Viewport{
		Center: Coordinate{Latitude: r.Latitude, Longitude: r.Longitude},
		Span:   Span{LatDelta: r.LatDelta, LonDelta: r.LonDelta},
	}
}
