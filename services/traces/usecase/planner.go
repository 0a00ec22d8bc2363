package usecase

import (
	"math"

	"github.com/echoatlas/tracemap/internal/pkg/geohash"
	"github.com/echoatlas/tracemap/internal/pkg/models"
)

// Query precision bounds. Prefixes never exceed the write precision, and the
// floor guarantees the coarsening retry loop in coverBoundingBox terminates.
const (
	minQueryPrecision = 3
	maxQueryPrecision = 7

	// latCosFloor bounds the cosine correction so the cover walk stays
	// bounded near the poles
	latCosFloor = 0.3
)

// fetchCaps bounds a fetch cycle: how many cell prefixes may be queried and
// how many records each cell query may return.
type fetchCaps struct {
	maxPrefixes  int
	perCellLimit int
}

// chooseFetchCaps maps the viewport span to fan-out caps. The prefix cap
// tightens and the per-cell cap loosens as the user zooms in, so even a
// world-scale viewport surfaces a hint of data without flooding the store.
func chooseFetchCaps(span models.Span) fetchCaps {
	switch maxSpan := span.Max(); {
	case maxSpan >= 40:
		return fetchCaps{maxPrefixes: 16, perCellLimit: 3}
	case maxSpan >= 15:
		return fetchCaps{maxPrefixes: 16, perCellLimit: 5}
	case maxSpan >= 5:
		return fetchCaps{maxPrefixes: 12, perCellLimit: 10}
	case maxSpan >= 1:
		return fetchCaps{maxPrefixes: 10, perCellLimit: 25}
	default:
		return fetchCaps{maxPrefixes: 8, perCellLimit: 50}
	}
}

// choosePrecision returns the finest query precision whose analytic cell
// count estimate fits the prefix cap. Monotone in the viewport span for a
// fixed cap: larger spans select coarser precisions.
func choosePrecision(viewport models.Viewport, maxPrefixes int) int {
	for precision := maxQueryPrecision; precision > minQueryPrecision; precision-- {
		if estimateCellCount(viewport, precision) <= maxPrefixes {
			return precision
		}
	}
	return minQueryPrecision
}

// estimateCellCount estimates how many cells of the given precision cover
// the viewport, without materializing the cover set. Heuristic only; it may
// overcount relative to coverBoundingBox but agrees qualitatively.
func estimateCellCount(viewport models.Viewport, precision int) int {
	box := viewport.BoundingBox()
	latHeight, lonWidth := geohash.CellSize(precision)
	lonStep := correctedLonStep(lonWidth, viewport.Center.Latitude)

	latCells := int(math.Ceil((box.MaxLat - box.MinLat) / latHeight))
	lonCells := int(math.Ceil((box.MaxLon - box.MinLon) / lonStep))
	if latCells < 1 {
		latCells = 1
	}
	if lonCells < 1 {
		lonCells = 1
	}
	return latCells * lonCells
}

// correctedLonStep shrinks the longitudinal walk step by cos(latitude),
// floored at latCosFloor. Oversampling a row can only produce duplicate
// prefixes, which the cover set dedupes; stepping wider than a cell would
// skip columns and leave gaps in the cover.
func correctedLonStep(lonWidth, latitude float64) float64 {
	return lonWidth * math.Max(math.Cos(latitude*math.Pi/180), latCosFloor)
}

// coverBoundingBox enumerates the geohash prefixes covering the viewport at
// the requested precision, capped to maxPrefixes. When the cap is exceeded
// it retries at the next coarser precision, down to the floor; at the floor
// the set is truncated rather than queried unboundedly.
func coverBoundingBox(viewport models.Viewport, precision, maxPrefixes int) []string {
	box := viewport.BoundingBox()

	for p := precision; p >= minQueryPrecision; p-- {
		prefixes, complete := coverAtPrecision(box, p, maxPrefixes)
		if complete {
			return prefixes
		}
		if p == minQueryPrecision {
			// Floor reached; accept the truncated cover.
			return prefixes
		}
	}
	return nil
}

// coverAtPrecision walks the box in cell-height and corrected cell-width
// steps, collecting unique prefixes. Returns complete=false once collecting
// would exceed the cap; the partial set holds exactly maxPrefixes entries.
func coverAtPrecision(box models.BoundingBox, precision, maxPrefixes int) (prefixes []string, complete bool) {
	latHeight, lonWidth := geohash.CellSize(precision)
	seen := make(map[string]struct{})

	lat := box.MinLat
	for {
		sampleLat := math.Min(lat, box.MaxLat)
		lonStep := correctedLonStep(lonWidth, sampleLat)

		lon := box.MinLon
		for {
			sampleLon := math.Min(lon, box.MaxLon)
			prefix := geohash.Encode(sampleLat, sampleLon, precision)
			if _, dup := seen[prefix]; !dup {
				if len(prefixes) >= maxPrefixes {
					return prefixes, false
				}
				seen[prefix] = struct{}{}
				prefixes = append(prefixes, prefix)
			}
			if sampleLon >= box.MaxLon {
				break
			}
			lon += lonStep
		}

		if sampleLat >= box.MaxLat {
			break
		}
		lat += latHeight
	}

	return prefixes, true
}

// neighborPrefixes returns the prefixes of the cell containing the center
// and its 8 compass neighbors, approximated by offsetting the center one
// cell step in each direction and re-encoding. Imprecise near cell
// boundaries and at high latitudes; used only as a sparse-result fallback.
func neighborPrefixes(center models.Coordinate, precision int) []string {
	latHeight, lonWidth := geohash.CellSize(precision)
	seen := make(map[string]struct{})
	prefixes := make([]string, 0, 9)

	for dLat := -1; dLat <= 1; dLat++ {
		for dLon := -1; dLon <= 1; dLon++ {
			lat := center.Latitude + float64(dLat)*latHeight
			lon := center.Longitude + float64(dLon)*lonWidth

			if lat > 90 {
				lat = 90
			}
			if lat < -90 {
				lat = -90
			}
			if lon > 180 {
				lon -= 360
			}
			if lon < -180 {
				lon += 360
			}

			prefix := geohash.Encode(lat, lon, precision)
			if _, dup := seen[prefix]; dup {
				continue
			}
			seen[prefix] = struct{}{}
			prefixes = append(prefixes, prefix)
		}
	}

	return prefixes
}
