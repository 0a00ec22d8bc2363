package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoatlas/tracemap/internal/pkg/models"
)

// scriptedUC lets gate tests control what each fetch cycle returns and when
// it returns.
type scriptedUC struct {
	mu    sync.Mutex
	calls []models.Viewport
	fn    func(call int, viewport models.Viewport) ([]models.TraceRecord, error)
}

func (s *scriptedUC) FetchViewport(ctx context.Context, viewport models.Viewport) ([]models.TraceRecord, error) {
	s.mu.Lock()
	s.calls = append(s.calls, viewport)
	call := len(s.calls)
	fn := s.fn
	s.mu.Unlock()
	return fn(call, viewport)
}

func (s *scriptedUC) CreateTrace(ctx context.Context, trace *models.TraceRecord) error {
	return nil
}

func (s *scriptedUC) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *scriptedUC) lastCall() models.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

type recordingSink struct {
	mu     sync.Mutex
	pushes [][]models.TraceRecord
}

func (r *recordingSink) push(records []models.TraceRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = append(r.pushes, records)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pushes)
}

func someRecords(n int) []models.TraceRecord {
	records := make([]models.TraceRecord, n)
	for i := range records {
		records[i] = models.TraceRecord{ID: uuid.New()}
	}
	return records
}

const gateSettle = 30 * time.Millisecond

func TestViewportGate_CoalescesBurst(t *testing.T) {
	uc := &scriptedUC{fn: func(call int, viewport models.Viewport) ([]models.TraceRecord, error) {
		return someRecords(2), nil
	}}
	sink := &recordingSink{}
	gate := NewViewportGate(context.Background(), uc, gateSettle, sink.push)
	defer gate.Close()

	// A pan burst: many events inside one settling window.
	for i := 0; i < 10; i++ {
		gate.Observe(viewportAt(float64(i), 0, 1, 1))
		time.Sleep(time.Millisecond)
	}

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, uc.callCount(), "burst coalesces into one cycle")
	assert.Equal(t, 9.0, uc.lastCall().Center.Latitude, "the cycle sees the final viewport")
}

func TestViewportGate_SkipsSubJitterMovement(t *testing.T) {
	uc := &scriptedUC{fn: func(call int, viewport models.Viewport) ([]models.TraceRecord, error) {
		return someRecords(1), nil
	}}
	sink := &recordingSink{}
	gate := NewViewportGate(context.Background(), uc, gateSettle, sink.push)
	defer gate.Close()

	gate.Observe(viewportAt(10, 10, 1, 1))
	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)

	// Camera noise below the quantization step lands on the same key.
	gate.Observe(viewportAt(10.0001, 10.0002, 1, 1))
	time.Sleep(4 * gateSettle)

	assert.Equal(t, 1, uc.callCount(), "sub-jitter movement does not refetch")
	assert.Equal(t, 1, sink.count())
}

func TestViewportGate_SuppressesUnchangedResults(t *testing.T) {
	stable := someRecords(3)
	uc := &scriptedUC{fn: func(call int, viewport models.Viewport) ([]models.TraceRecord, error) {
		return stable, nil
	}}
	sink := &recordingSink{}
	gate := NewViewportGate(context.Background(), uc, gateSettle, sink.push)
	defer gate.Close()

	gate.Observe(viewportAt(10, 10, 1, 1))
	require.Eventually(t, func() bool { return uc.callCount() == 1 }, time.Second, 5*time.Millisecond)

	// A genuinely different viewport that happens to see the same records.
	gate.Observe(viewportAt(10.01, 10.01, 1, 1))
	require.Eventually(t, func() bool { return uc.callCount() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(2 * gateSettle)

	assert.Equal(t, 1, sink.count(), "identical result set is pushed once")
}

func TestViewportGate_DiscardsSupersededCycle(t *testing.T) {
	release := make(chan struct{})
	staleRecords := someRecords(2)
	freshRecords := someRecords(2)

	uc := &scriptedUC{fn: func(call int, viewport models.Viewport) ([]models.TraceRecord, error) {
		if call == 1 {
			<-release
			return staleRecords, nil
		}
		return freshRecords, nil
	}}
	sink := &recordingSink{}
	gate := NewViewportGate(context.Background(), uc, gateSettle, sink.push)
	defer gate.Close()

	gate.Observe(viewportAt(10, 10, 1, 1))
	require.Eventually(t, func() bool { return uc.callCount() == 1 }, time.Second, 5*time.Millisecond)

	// The first cycle is still in flight when the camera moves on.
	gate.Observe(viewportAt(20, 20, 1, 1))
	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)

	close(release)
	time.Sleep(2 * gateSettle)

	require.Equal(t, 1, sink.count(), "stale cycle results are discarded")
	assert.Equal(t, freshRecords[0].ID, sink.pushes[0][0].ID)
}

func TestViewportGate_ObserveAfterCloseIsNoop(t *testing.T) {
	uc := &scriptedUC{fn: func(call int, viewport models.Viewport) ([]models.TraceRecord, error) {
		return someRecords(1), nil
	}}
	sink := &recordingSink{}
	gate := NewViewportGate(context.Background(), uc, gateSettle, sink.push)

	gate.Close()
	gate.Observe(viewportAt(10, 10, 1, 1))
	time.Sleep(3 * gateSettle)

	assert.Equal(t, 0, uc.callCount())
	assert.Equal(t, 0, sink.count())
}
