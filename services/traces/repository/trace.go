package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/echoatlas/tracemap/internal/pkg/constants"
	"github.com/echoatlas/tracemap/internal/pkg/geohash"
	"github.com/echoatlas/tracemap/internal/pkg/logger"
	"github.com/echoatlas/tracemap/internal/pkg/models"
)

// traceRow is the typed decode boundary for store documents. Rows that fail
// validation are skipped and counted, never propagated.
type traceRow struct {
	ID        uuid.UUID        `db:"id"`
	Name      string           `db:"name"`
	Latitude  float64          `db:"latitude"`
	Longitude float64          `db:"longitude"`
	Geohash   string           `db:"geohash"`
	MediaRefs models.MediaRefs `db:"media_refs"`
	CreatedAt time.Time        `db:"created_at"`
}

// decode validates the row and converts it to a TraceRecord
func (row traceRow) decode() (models.TraceRecord, error) {
	coordinate := models.Coordinate{Latitude: row.Latitude, Longitude: row.Longitude}
	if !coordinate.Valid() {
		return models.TraceRecord{}, fmt.Errorf("coordinate out of range: (%f, %f)", row.Latitude, row.Longitude)
	}
	if row.Geohash == "" {
		return models.TraceRecord{}, fmt.Errorf("missing geohash")
	}
	return models.TraceRecord{
		ID:         row.ID,
		Name:       row.Name,
		Coordinate: coordinate,
		Geohash:    row.Geohash,
		MediaRefs:  row.MediaRefs,
		CreatedAt:  row.CreatedAt,
	}, nil
}

// QueryGeohashRange retrieves up to limit records whose geohash starts with
// prefix, newest first. The range bound makes the store's string comparison
// behave as a prefix query: prefix <= geohash < prefix+sentinel.
func (r *TracesRepo) QueryGeohashRange(ctx context.Context, prefix string, limit int) ([]models.TraceRecord, error) {
	cacheKey := fmt.Sprintf(constants.KeyCellQuery, prefix, limit)
	if records, ok := r.cachedRecords(ctx, cacheKey); ok {
		return records, nil
	}

	query := `
		SELECT id, name, latitude, longitude, geohash, media_refs, created_at
		FROM traces
		WHERE geohash >= $1 AND geohash < $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	var rows []traceRow
	err := r.db.SelectContext(ctx, &rows, query, prefix, geohash.PrefixUpperBound(prefix), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cell %s: %w", prefix, err)
	}

	records := r.decodeRows(rows)
	r.storeRecords(ctx, cacheKey, records)
	return records, nil
}

// RecentTraces retrieves the most recent records globally, newest first
func (r *TracesRepo) RecentTraces(ctx context.Context, limit int) ([]models.TraceRecord, error) {
	cacheKey := fmt.Sprintf(constants.KeyGlobalSample, limit)
	if records, ok := r.cachedRecords(ctx, cacheKey); ok {
		return records, nil
	}

	query := `
		SELECT id, name, latitude, longitude, geohash, media_refs, created_at
		FROM traces
		ORDER BY created_at DESC
		LIMIT $1
	`

	var rows []traceRow
	err := r.db.SelectContext(ctx, &rows, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent traces: %w", err)
	}

	records := r.decodeRows(rows)
	r.storeRecords(ctx, cacheKey, records)
	return records, nil
}

// CreateTrace inserts a new record, assigning its id and timestamp
func (r *TracesRepo) CreateTrace(ctx context.Context, trace *models.TraceRecord) error {
	if trace.ID == uuid.Nil {
		trace.ID = uuid.New()
	}
	if trace.CreatedAt.IsZero() {
		trace.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO traces (id, name, latitude, longitude, geohash, media_refs, created_at)
		VALUES (:id, :name, :latitude, :longitude, :geohash, :media_refs, :created_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, trace); err != nil {
		return fmt.Errorf("failed to insert trace: %w", err)
	}

	return nil
}

// DecodeFailures returns how many store rows were skipped by the decode
// boundary since startup
func (r *TracesRepo) DecodeFailures() uint64 {
	return atomic.LoadUint64(&r.decodeFailures)
}

func (r *TracesRepo) decodeRows(rows []traceRow) []models.TraceRecord {
	records := make([]models.TraceRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.decode()
		if err != nil {
			atomic.AddUint64(&r.decodeFailures, 1)
			logger.Warn("skipping undecodable trace row", logrus.Fields{
				"trace_id": row.ID,
				"error":    err,
			})
			continue
		}
		records = append(records, record)
	}
	return records
}

func (r *TracesRepo) cachedRecords(ctx context.Context, key string) ([]models.TraceRecord, bool) {
	if r.cache == nil {
		return nil, false
	}

	payload, err := r.cache.Get(ctx, key)
	if err != nil {
		// Misses and cache errors both fall through to the store.
		return nil, false
	}

	var records []models.TraceRecord
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		logger.Warn("dropping corrupt cell cache entry", logrus.Fields{"key": key, "error": err})
		if delErr := r.cache.Delete(ctx, key); delErr != nil {
			logger.Debug("failed to drop cell cache entry", logrus.Fields{"key": key, "error": delErr})
		}
		return nil, false
	}
	return records, true
}

func (r *TracesRepo) storeRecords(ctx context.Context, key string, records []models.TraceRecord) {
	if r.cache == nil {
		return
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, payload, r.cacheTTL); err != nil {
		logger.Debug("failed to cache cell query", logrus.Fields{"key": key, "error": err})
	}
}
