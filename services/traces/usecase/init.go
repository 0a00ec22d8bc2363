package usecase

import (
	"github.com/echoatlas/tracemap/internal/pkg/models"
	"github.com/echoatlas/tracemap/services/traces"
)

// TracesUC implements the trace usecase interface
type TracesUC struct {
	cfg       *models.Config
	traceRepo traces.TraceRepo
	traceGW   traces.TraceGW
}

// NewTracesUC creates a new trace usecase instance
func NewTracesUC(cfg *models.Config, traceRepo traces.TraceRepo, traceGW traces.TraceGW) *TracesUC {
	return &TracesUC{
		cfg:       cfg,
		traceRepo: traceRepo,
		traceGW:   traceGW,
	}
}
