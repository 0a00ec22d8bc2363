// Package geohash implements the base-32 geohash coding scheme used to index
// trace records. Records are written at a fixed precision so that string
// range queries on the geohash field behave as prefix queries over cells.
package geohash

import (
	"math"
	"strings"
)

// Base-32 geohash alphabet. Excludes a, i, l and o.
const alphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

const (
	// MaxPrecision is the longest geohash this codec produces.
	MaxPrecision = 12

	// WritePrecision is the fixed precision all trace records are indexed
	// at. Writers and readers must agree on this value: queries at a finer
	// precision never match a stored geohash.
	WritePrecision = 8

	// RangeSentinel sorts after every alphabet symbol, so
	// prefix <= geohash < prefix+RangeSentinel bounds a range query to
	// exactly the records whose geohash starts with prefix.
	RangeSentinel = "~"
)

// Box is the rectangular cell covered by a geohash.
type Box struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Contains reports whether the coordinate lies inside the box.
func (b Box) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Encode returns the geohash of a coordinate at the given precision using
// interleaved longitude/latitude bisection, 5 bits per output symbol.
// Coordinates are expected to already be within valid ranges; precision is
// clamped to [1, MaxPrecision].
func Encode(lat, lon float64, precision int) string {
	if precision < 1 {
		precision = 1
	}
	if precision > MaxPrecision {
		precision = MaxPrecision
	}

	latMin, latMax := -90.0, 90.0
	lonMin, lonMax := -180.0, 180.0

	var sb strings.Builder
	sb.Grow(precision)

	bit := 0
	ch := 0
	even := true // even bits subdivide longitude
	for sb.Len() < precision {
		if even {
			mid := (lonMin + lonMax) / 2
			if lon >= mid {
				ch |= 1 << (4 - bit)
				lonMin = mid
			} else {
				lonMax = mid
			}
		} else {
			mid := (latMin + latMax) / 2
			if lat >= mid {
				ch |= 1 << (4 - bit)
				latMin = mid
			} else {
				latMax = mid
			}
		}
		even = !even

		bit++
		if bit == 5 {
			sb.WriteByte(alphabet[ch])
			bit = 0
			ch = 0
		}
	}

	return sb.String()
}

// Decode returns the center of the cell identified by the geohash.
func Decode(hash string) (lat, lon float64) {
	box := Bounds(hash)
	return (box.MinLat + box.MaxLat) / 2, (box.MinLon + box.MaxLon) / 2
}

// Bounds returns the cell rectangle identified by the geohash. Symbols
// outside the alphabet are ignored.
func Bounds(hash string) Box {
	latMin, latMax := -90.0, 90.0
	lonMin, lonMax := -180.0, 180.0

	even := true
	for i := 0; i < len(hash); i++ {
		idx := strings.IndexByte(alphabet, hash[i])
		if idx < 0 {
			continue
		}
		for mask := 16; mask > 0; mask >>= 1 {
			if even {
				mid := (lonMin + lonMax) / 2
				if idx&mask != 0 {
					lonMin = mid
				} else {
					lonMax = mid
				}
			} else {
				mid := (latMin + latMax) / 2
				if idx&mask != 0 {
					latMin = mid
				} else {
					latMax = mid
				}
			}
			even = !even
		}
	}

	return Box{MinLat: latMin, MaxLat: latMax, MinLon: lonMin, MaxLon: lonMax}
}

// CellSize returns the cell height in degrees of latitude and the cell width
// in degrees of longitude at the equator for a precision, derived from the
// bit allocation: longitude gets ceil(5p/2) bits, latitude floor(5p/2).
func CellSize(precision int) (latHeight, lonWidth float64) {
	if precision < 1 {
		precision = 1
	}
	if precision > MaxPrecision {
		precision = MaxPrecision
	}
	bits := 5 * precision
	lonBits := (bits + 1) / 2
	latBits := bits / 2
	return math.Ldexp(180, -latBits), math.Ldexp(360, -lonBits)
}

// PrefixUpperBound returns the exclusive upper bound for a range query over
// all geohashes starting with prefix.
func PrefixUpperBound(prefix string) string {
	return prefix + RangeSentinel
}
