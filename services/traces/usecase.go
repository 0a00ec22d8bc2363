package traces

import (
	"context"

	"github.com/echoatlas/tracemap/internal/pkg/models"
)

// TraceUC defines the interface for trace business logic operations
type TraceUC interface {
	// FetchViewport returns the deduplicated, bbox-exact records visible in
	// the viewport, newest first. Empty is a valid, non-error outcome.
	FetchViewport(ctx context.Context, viewport models.Viewport) ([]models.TraceRecord, error)

	// CreateTrace persists an already-validated record with its geohash
	// computed at the fixed write precision
	CreateTrace(ctx context.Context, trace *models.TraceRecord) error
}
