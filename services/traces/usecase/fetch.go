package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/echoatlas/tracemap/internal/pkg/geohash"
	"github.com/echoatlas/tracemap/internal/pkg/logger"
	"github.com/echoatlas/tracemap/internal/pkg/models"
)

// FetchViewport runs one fetch cycle: plan the cover set, fan out one range
// query per prefix, merge by identity, filter to the exact bounding box and
// sort by recency. A sparse region yields an empty, non-error result.
func (uc *TracesUC) FetchViewport(ctx context.Context, viewport models.Viewport) ([]models.TraceRecord, error) {
	if err := viewport.Validate(); err != nil {
		return nil, fmt.Errorf("invalid viewport: %w", err)
	}

	caps := chooseFetchCaps(viewport.Span)
	precision := choosePrecision(viewport, caps.maxPrefixes)
	prefixes := coverBoundingBox(viewport, precision, caps.maxPrefixes)
	box := viewport.BoundingBox()

	merged := uc.fanOut(ctx, prefixes, caps.perCellLimit)
	records := filterToBox(merged.Records(), box)

	// Fallback ladder: neighbor cells around the center first, then one
	// global recency sample for world-scale viewports. Still-empty results
	// are valid; sparse regions exist.
	if len(records) == 0 {
		// The cover walk may have coarsened below the planned precision;
		// the probe follows the precision actually queried.
		probePrecision := precision
		if len(prefixes) > 0 {
			probePrecision = len(prefixes[0])
		}
		probe := uc.fanOut(ctx, neighborPrefixes(viewport.Center, probePrecision), caps.perCellLimit)
		records = filterToBox(probe.Records(), box)
	}
	if len(records) == 0 && viewport.Span.Max() >= uc.cfg.Engine.WorldSpanDegrees {
		sample, err := uc.traceRepo.RecentTraces(ctx, uc.cfg.Engine.GlobalSampleLimit)
		if err != nil {
			logger.Warn("global sample query failed", logrus.Fields{"error": err})
		} else {
			// Deliberately unfiltered: a zoomed-out map with no cell hits
			// still shows the freshest contributions.
			records = sample
		}
	}

	sortByRecency(records)
	return records, nil
}

// fanOut issues one range query per prefix concurrently and merges the
// results by record id. A failed cell contributes nothing and never fails
// the cycle.
func (uc *TracesUC) fanOut(ctx context.Context, prefixes []string, perCellLimit int) models.FetchResult {
	result := models.FetchResult{}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		failed int
	)
	for _, prefix := range prefixes {
		wg.Add(1)
		go func(prefix string) {
			defer wg.Done()

			records, err := uc.traceRepo.QueryGeohashRange(ctx, prefix, perCellLimit)
			if err != nil {
				logger.Warn("cell query failed", logrus.Fields{
					"prefix": prefix,
					"error":  err,
				})
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}

			mu.Lock()
			result.Merge(records)
			mu.Unlock()
		}(prefix)
	}
	wg.Wait()

	if len(prefixes) > 0 && failed == len(prefixes) {
		logger.Warn("all cell queries failed for cycle", logrus.Fields{"cells": len(prefixes)})
	}

	return result
}

// filterToBox keeps only records whose coordinate lies within the exact
// bounding box. Cell queries return a superset: cells straddle the viewport
// boundary.
func filterToBox(records []models.TraceRecord, box models.BoundingBox) []models.TraceRecord {
	filtered := records[:0]
	for _, record := range records {
		if box.Contains(record.Coordinate) {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

// sortByRecency orders newest first so the freshest contributions survive
// cell cap truncation. Ties break on id for deterministic output.
func sortByRecency(records []models.TraceRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID.String() < records[j].ID.String()
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}

// CreateTrace indexes and persists a new record, then announces it to the
// media pipelines. The geohash is computed here, once, at the fixed write
// precision; readers treat it as an index key only.
func (uc *TracesUC) CreateTrace(ctx context.Context, trace *models.TraceRecord) error {
	if !trace.Coordinate.Valid() {
		return fmt.Errorf("coordinate out of range: (%f, %f)", trace.Latitude, trace.Longitude)
	}

	trace.Geohash = geohash.Encode(trace.Latitude, trace.Longitude, geohash.WritePrecision)

	if err := uc.traceRepo.CreateTrace(ctx, trace); err != nil {
		return fmt.Errorf("failed to create trace: %w", err)
	}

	if err := uc.traceGW.PublishTraceCreated(ctx, *trace); err != nil {
		// The record is persisted; a missed event must not fail the upload.
		logger.Warn("failed to publish trace created event", logrus.Fields{
			"trace_id": trace.ID,
			"error":    err,
		})
	}

	return nil
}
