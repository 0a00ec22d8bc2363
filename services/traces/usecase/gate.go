package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/echoatlas/tracemap/internal/pkg/logger"
	"github.com/echoatlas/tracemap/internal/pkg/models"
	"github.com/echoatlas/tracemap/services/traces"
)

// ViewportGate coalesces camera-movement events into one fetch cycle per
// settling period and suppresses redundant cycles. One gate per renderer
// session; it owns the session's diff cache and is safe for concurrent use.
type ViewportGate struct {
	ctx    context.Context
	uc     traces.TraceUC
	settle time.Duration
	sink   func([]models.TraceRecord)

	mu      sync.Mutex
	timer   *time.Timer
	pending models.Viewport
	lastKey string
	seq     uint64
	diff    *ResultDiff
	closed  bool
}

// NewViewportGate creates a gate that pushes changed result lists to sink.
// The context bounds all fetch cycles of the session.
func NewViewportGate(ctx context.Context, uc traces.TraceUC, settle time.Duration, sink func([]models.TraceRecord)) *ViewportGate {
	return &ViewportGate{
		ctx:    ctx,
		uc:     uc,
		settle: settle,
		sink:   sink,
		diff:   NewResultDiff(),
	}
}

// Observe records a viewport-changed event. Only the last event of a burst
// within the settling window triggers a fetch cycle (trailing debounce).
func (g *ViewportGate) Observe(viewport models.Viewport) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	g.pending = viewport
	if g.timer != nil {
		g.timer.Stop()
	}
	g.timer = time.AfterFunc(g.settle, g.fire)
}

// Close stops the gate; pending and in-flight cycles are dropped
func (g *ViewportGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.closed = true
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

// fire runs when a burst settles. Sub-jitter movement is skipped by
// comparing the quantized viewport key against the most recently completed
// cycle's key; a cycle superseded while its queries were in flight has its
// results discarded.
func (g *ViewportGate) fire() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	viewport := g.pending
	key := quantizeViewport(viewport)
	if key == g.lastKey {
		g.mu.Unlock()
		return
	}
	g.seq++
	seq := g.seq
	g.mu.Unlock()

	records, err := g.uc.FetchViewport(g.ctx, viewport)
	if err != nil {
		logger.Warn("viewport fetch cycle failed", logrus.Fields{"error": err})
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || seq != g.seq {
		// A newer cycle was issued while this one was in flight.
		return
	}
	g.lastKey = key
	if !g.diff.Changed(records) {
		return
	}
	g.sink(records)
}

// quantizeViewport rounds the viewport to 3 decimal degrees, so sub-jitter
// camera noise maps to the same fetch key
func quantizeViewport(viewport models.Viewport) string {
	return fmt.Sprintf("%.3f:%.3f:%.3f:%.3f",
		viewport.Center.Latitude,
		viewport.Center.Longitude,
		viewport.Span.LatDelta,
		viewport.Span.LonDelta,
	)
}
