package gateway

import (
	"context"
	"fmt"

	"github.com/echoatlas/tracemap/internal/pkg/constants"
	"github.com/echoatlas/tracemap/internal/pkg/models"
	"github.com/echoatlas/tracemap/internal/pkg/nats"
)

// TracesGW implements the trace gateways interface over NATS
type TracesGW struct {
	producer *nats.Producer
}

// NewTracesGW creates a new trace gateway instance
func NewTracesGW(client *nats.Client) *TracesGW {
	return &TracesGW{producer: nats.NewProducer(client)}
}

// PublishTraceCreated announces a newly persisted trace to downstream media
// pipelines
func (gw *TracesGW) PublishTraceCreated(ctx context.Context, trace models.TraceRecord) error {
	if err := gw.producer.Publish(constants.SubjectTraceCreated, trace); err != nil {
		return fmt.Errorf("failed to publish trace created event: %w", err)
	}
	return nil
}
