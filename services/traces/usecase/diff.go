package usecase

import (
	"github.com/google/uuid"

	"github.com/echoatlas/tracemap/internal/pkg/models"
)

// ResultDiff holds the identity set of the currently rendered records and
// suppresses render updates whose id set is unchanged, regardless of order.
// Intentionally coarse: it only prevents flicker from redundant fetches; the
// renderer does its own add/remove reconciliation against the full list.
//
// Not safe for concurrent use; the owning gate serializes access.
type ResultDiff struct {
	ids map[uuid.UUID]struct{}
}

// NewResultDiff creates a diff cache with an empty rendered set
func NewResultDiff() *ResultDiff {
	return &ResultDiff{ids: make(map[uuid.UUID]struct{})}
}

// Changed compares the new result's identity set with the rendered set. On
// change it replaces the stored set and returns true; otherwise the update
// should be suppressed.
func (d *ResultDiff) Changed(records []models.TraceRecord) bool {
	if len(records) == len(d.ids) {
		same := true
		for _, record := range records {
			if _, ok := d.ids[record.ID]; !ok {
				same = false
				break
			}
		}
		if same {
			return false
		}
	}

	ids := make(map[uuid.UUID]struct{}, len(records))
	for _, record := range records {
		ids[record.ID] = struct{}{}
	}
	d.ids = ids
	return true
}
