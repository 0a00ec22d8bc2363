package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MediaRefs holds the opaque media URLs attached to a trace. Stored as JSONB.
type MediaRefs []string

// Value implements driver.Valuer for JSONB storage
func (m MediaRefs) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB storage
func (m *MediaRefs) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported media_refs type %T", src)
	}
}

// TraceRecord represents a geotagged media record on the map. Records are
// created once by the upload pipeline and are immutable afterwards; the
// geohash is computed at write time and used only as an index key.
type TraceRecord struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Coordinate `json:"coordinate"`
	Geohash    string    `json:"geohash" db:"geohash"`
	MediaRefs  MediaRefs `json:"media_refs" db:"media_refs"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// FetchResult accumulates records by identity while per-cell query results
// are merged. Transient; never persisted.
type FetchResult map[uuid.UUID]TraceRecord

// Merge inserts all records, last writer wins
func (fr FetchResult) Merge(records []TraceRecord) {
	for _, record := range records {
		fr[record.ID] = record
	}
}

// Records returns the merged records in unspecified order
func (fr FetchResult) Records() []TraceRecord {
	records := make([]TraceRecord, 0, len(fr))
	for _, record := range fr {
		records = append(records, record)
	}
	return records
}
