// Package changedetect implements Change Detection (C10): building the
// delta-extraction filter from a table's watermark.
package changedetect

import (
	"fmt"
	"time"

	"github.com/brightloom/icebridge/server/parquetio"
	"github.com/brightloom/icebridge/server/watermark"
)

// WatermarkType selects how the last watermark value is rendered into a
// filter predicate.
type WatermarkType string

const (
	Timestamp WatermarkType = "timestamp"
	Integer   WatermarkType = "integer"
)

// Plan is the extraction filter built from a table's watermark: Filter is
// empty for a full initial load (no prior watermark).
type Plan struct {
	Column string
	Filter string // e.g. "order_date > '2026-01-31T00:00:00Z'", or "" for full load
}

// BuildPlan builds the half-open `column > last_value` filter from the
// last-observed watermark, or no filter when w is nil (first sync).
// Duplicate emission on exact ties is intentional — strict `>` is never
// widened to `>=` — and is resolved downstream by the merge strategy.
func BuildPlan(w *watermark.Watermark, column string, watermarkType WatermarkType) Plan {
	if w == nil {
		return Plan{Column: column, Filter: ""}
	}

	switch watermarkType {
	case Integer:
		if w.LastSyncID == nil {
			return Plan{Column: column, Filter: ""}
		}
		return Plan{Column: column, Filter: fmt.Sprintf("%s > %d", column, *w.LastSyncID)}
	default:
		if w.LastSyncTimestamp == nil {
			return Plan{Column: column, Filter: ""}
		}
		return Plan{Column: column, Filter: fmt.Sprintf("%s > '%s'", column, w.LastSyncTimestamp.UTC().Format(time.RFC3339Nano))}
	}
}

// ObserveHighWater scans the extracted rows and returns the highest
// watermark-column value seen, matching the extractor-reports-max(column)
// contract. Returns (nil, nil) for an empty extraction.
func ObserveHighWater(rows []parquetio.Row, column string, watermarkType WatermarkType) (*time.Time, *int64, error) {
	if len(rows) == 0 {
		return nil, nil, nil
	}

	switch watermarkType {
	case Integer:
		var maxID int64
		found := false
		for _, row := range rows {
			v, ok := asInt64(row[column])
			if !ok {
				continue
			}
			if !found || v > maxID {
				maxID = v
				found = true
			}
		}
		if !found {
			return nil, nil, nil
		}
		return nil, &maxID, nil
	default:
		var maxTs time.Time
		found := false
		for _, row := range rows {
			v, ok := row[column].(time.Time)
			if !ok {
				continue
			}
			if !found || v.After(maxTs) {
				maxTs = v
				found = true
			}
		}
		if !found {
			return nil, nil, nil
		}
		return &maxTs, nil, nil
	}
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int32:
		return int64(t), true
	case int:
		return int64(t), true
	}
	return 0, false
}
