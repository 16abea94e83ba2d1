// Package sync implements the Incremental Sync Coordinator (C12): the
// per-table run that reads a watermark, extracts the delta, appends it
// to the Iceberg table, merges it into a relational destination when
// configured, and persists the new watermark — only on success.
package sync

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/brightloom/icebridge/pkg/errors"
	"github.com/brightloom/icebridge/server/changedetect"
	"github.com/brightloom/icebridge/server/relational"
	"github.com/brightloom/icebridge/server/tablewriter"
	"github.com/brightloom/icebridge/server/transfer"
	"github.com/brightloom/icebridge/server/watermark"
)

var ErrSyncFailed = errors.MustNewCode("sync.run_failed")

// RunResult reports what one coordinator run did.
type RunResult struct {
	RowsExtracted int
	Inserted      int
	Updated       int
	NewSnapshotID *int64 // nil when the run was a no-op (empty delta)
}

// Coordinator drives one table's Unsynced/Syncing/Synced(W) state machine.
type Coordinator struct {
	writer     *tablewriter.Writer
	watermarks *watermark.Store
	sourceConn *relational.Connection
	destConn   *relational.Connection
	logger     zerolog.Logger
}

// New returns a Coordinator. destConn may be nil when the destination is
// the Iceberg table itself rather than a relational target — C11's merge
// only runs when destConn is non-nil.
func New(writer *tablewriter.Writer, watermarks *watermark.Store, sourceConn, destConn *relational.Connection, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		writer:     writer,
		watermarks: watermarks,
		sourceConn: sourceConn,
		destConn:   destConn,
		logger:     logger.With().Str("component", "sync").Logger(),
	}
}

// Run executes one sync cycle for icebergTable against its incremental
// transfer configuration. A failure at any step leaves the watermark at
// its prior value — Syncing never persists Synced(W') until the append
// has actually committed, so a crash between commit and persist is
// recovered by the next run safely re-extracting and upsert-deduping the
// same rows (the watermark still names the prior boundary).
func (c *Coordinator) Run(ctx context.Context, icebergTable string, cfg transfer.Incremental) (RunResult, error) {
	w, err := c.watermarks.Get(icebergTable)
	if err != nil {
		return RunResult{}, err
	}

	watermarkType := changedetect.Timestamp
	if cfg.WatermarkType == transfer.WatermarkInteger {
		watermarkType = changedetect.Integer
	}
	plan := changedetect.BuildPlan(w, cfg.WatermarkColumn, watermarkType)

	rows, err := relational.Extract(ctx, c.sourceConn, icebergTable, plan.Filter)
	if err != nil {
		return RunResult{}, err
	}

	if len(rows) == 0 {
		c.logger.Info().Str("table", icebergTable).Msg("no new rows, watermark unchanged")
		return RunResult{}, nil
	}

	appendResult, err := c.writer.Append(icebergTable, rows)
	if err != nil {
		return RunResult{}, err
	}

	var inserted, updated int
	if c.destConn != nil {
		apply := relational.Upsert
		if cfg.MergeStrategy == transfer.MergeAppend {
			apply = relational.Append
		}
		merged, err := apply(ctx, c.destConn, icebergTable, cfg.PrimaryKeyColumn, rows)
		if err != nil {
			return RunResult{}, err
		}
		inserted, updated = merged.Inserted, merged.Updated
	}

	ts, id, err := changedetect.ObserveHighWater(rows, cfg.WatermarkColumn, watermarkType)
	if err != nil {
		return RunResult{}, err
	}

	newSnapshotID := appendResult.NewSnapshotID
	if err := c.watermarks.Set(icebergTable, watermark.Watermark{
		LastSyncTimestamp:   ts,
		LastSyncID:          id,
		LastIcebergSnapshot: &newSnapshotID,
		RowCount:            int64(len(rows)),
	}); err != nil {
		return RunResult{}, errors.New(ErrSyncFailed, "append committed but watermark persist failed", err).AddContext("table", icebergTable)
	}

	c.logger.Info().Str("table", icebergTable).Int("rows", len(rows)).Int64("snapshot_id", newSnapshotID).Msg("sync run complete")

	return RunResult{
		RowsExtracted: len(rows),
		Inserted:      inserted,
		Updated:       updated,
		NewSnapshotID: &newSnapshotID,
	}, nil
}
