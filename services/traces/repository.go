package traces

import (
	"context"

	"github.com/echoatlas/tracemap/internal/pkg/models"
)

// TraceRepo defines the trace repository interface. The backing store only
// supports simple field-range queries, so all spatial lookups go through
// geohash prefix ranges.
type TraceRepo interface {
	// QueryGeohashRange returns up to limit records whose geohash starts
	// with prefix, newest first
	QueryGeohashRange(ctx context.Context, prefix string, limit int) ([]models.TraceRecord, error)

	// RecentTraces returns the most recent records globally, newest first
	RecentTraces(ctx context.Context, limit int) ([]models.TraceRecord, error)

	// CreateTrace inserts a new record, assigning its id
	CreateTrace(ctx context.Context, trace *models.TraceRecord) error
}
