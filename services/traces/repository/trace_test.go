package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoatlas/tracemap/internal/pkg/models"
)

func validRow() traceRow {
	return traceRow{
		ID:        uuid.New(),
		Name:      "morning market",
		Latitude:  -6.175392,
		Longitude: 106.827153,
		Geohash:   "qqguygv1",
		MediaRefs: models.MediaRefs{"https://media.example/market.m4a"},
		CreatedAt: time.Date(2025, 6, 1, 7, 30, 0, 0, time.UTC),
	}
}

func TestTraceRowDecode(t *testing.T) {
	row := validRow()

	record, err := row.decode()

	require.NoError(t, err)
	assert.Equal(t, row.ID, record.ID)
	assert.Equal(t, row.Name, record.Name)
	assert.Equal(t, row.Latitude, record.Latitude)
	assert.Equal(t, row.Longitude, record.Longitude)
	assert.Equal(t, row.Geohash, record.Geohash)
	assert.Equal(t, row.MediaRefs, record.MediaRefs)
	assert.Equal(t, row.CreatedAt, record.CreatedAt)
}

func TestTraceRowDecode_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*traceRow)
	}{
		{"latitude out of range", func(r *traceRow) { r.Latitude = 91 }},
		{"longitude out of range", func(r *traceRow) { r.Longitude = -181 }},
		{"missing geohash", func(r *traceRow) { r.Geohash = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			tt.mutate(&row)

			_, err := row.decode()
			assert.Error(t, err)
		})
	}
}

func TestDecodeRows_SkipsAndCounts(t *testing.T) {
	repo := &TracesRepo{}

	good := validRow()
	bad := validRow()
	bad.Latitude = 120

	records := repo.decodeRows([]traceRow{good, bad, good})

	// One malformed document degrades only itself.
	assert.Len(t, records, 2)
	assert.Equal(t, uint64(1), repo.DecodeFailures())
}

func TestMediaRefsScan(t *testing.T) {
	var refs models.MediaRefs
	require.NoError(t, refs.Scan([]byte(`["https://media.example/a", "https://media.example/b"]`)))
	assert.Equal(t, models.MediaRefs{"https://media.example/a", "https://media.example/b"}, refs)

	require.NoError(t, refs.Scan(nil))
	assert.Empty(t, refs)
}
