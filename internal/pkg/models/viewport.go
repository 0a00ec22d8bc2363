package models

import (
	"fmt"
	"math"
)

// Coordinate represents a point on the coordinate plane
type Coordinate struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// Valid reports whether the coordinate lies within valid ranges
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// Span represents the extent of a viewport in degrees
type Span struct {
	LatDelta float64 `json:"lat_delta"`
	LonDelta float64 `json:"lon_delta"`
}

// Max returns the larger of the two deltas
func (s Span) Max() float64 {
	return math.Max(s.LatDelta, s.LonDelta)
}

// Viewport represents the visible map region as a center plus a span
type Viewport struct {
	Center Coordinate `json:"center"`
	Span   Span       `json:"span"`
}

// Validate rejects viewports with non-positive spans or out-of-range centers.
// Callers are expected to clamp before handing a viewport to the engine.
func (v Viewport) Validate() error {
	if v.Span.LatDelta <= 0 || v.Span.LonDelta <= 0 {
		return fmt.Errorf("viewport span must be positive, got (%f, %f)", v.Span.LatDelta, v.Span.LonDelta)
	}
	if !v.Center.Valid() {
		return fmt.Errorf("viewport center out of range: (%f, %f)", v.Center.Latitude, v.Center.Longitude)
	}
	return nil
}

// BoundingBox returns the viewport's bounding box clamped to valid
// coordinate ranges
func (v Viewport) BoundingBox() BoundingBox {
	return BoundingBox{
		MinLat: math.Max(v.Center.Latitude-v.Span.LatDelta/2, -90),
		MaxLat: math.Min(v.Center.Latitude+v.Span.LatDelta/2, 90),
		MinLon: math.Max(v.Center.Longitude-v.Span.LonDelta/2, -180),
		MaxLon: math.Min(v.Center.Longitude+v.Span.LonDelta/2, 180),
	}
}

// BoundingBox represents a clamped rectangular region
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether the coordinate lies within the box, boundaries
// included
func (b BoundingBox) Contains(c Coordinate) bool {
	return c.Latitude >= b.MinLat && c.Latitude <= b.MaxLat &&
		c.Longitude >= b.MinLon && c.Longitude <= b.MaxLon
}
