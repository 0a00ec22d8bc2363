package traces

import (
	"context"

	"github.com/echoatlas/tracemap/internal/pkg/models"
)

// TraceGW defines the trace gateways interface
type TraceGW interface {
	PublishTraceCreated(ctx context.Context, trace models.TraceRecord) error
}
