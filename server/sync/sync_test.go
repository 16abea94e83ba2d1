package sync

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightloom/icebridge/server/catalogfs"
	iceschema "github.com/brightloom/icebridge/server/iceberg"
	"github.com/brightloom/icebridge/server/relational"
	"github.com/brightloom/icebridge/server/tablewriter"
	"github.com/brightloom/icebridge/server/transfer"
	"github.com/brightloom/icebridge/server/watermark"
)

func testSchema(t *testing.T) *iceschema.IcebergSchema {
	t.Helper()
	intType, err := iceschema.ParseTypeString("int")
	require.NoError(t, err)
	stringType, err := iceschema.ParseTypeString("string")
	require.NoError(t, err)
	return iceschema.BuildSchema([]iceschema.FieldSpec{
		{Name: "order_id", Type: intType, Required: true},
		{Name: "customer", Type: stringType, Required: false},
	})
}

func setupCoordinator(t *testing.T) (*Coordinator, *relational.Connection, *tablewriter.Writer, *catalogfs.Catalog) {
	t.Helper()
	catalog := catalogfs.New(t.TempDir(), zerolog.Nop())
	writer := tablewriter.New(catalog, zerolog.Nop())

	conn, err := relational.Open("sqlite://file::memory:?cache=shared&_busy_timeout=5000")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_, err = conn.DB.ExecContext(context.Background(),
		`CREATE TABLE orders (order_id INTEGER PRIMARY KEY, customer TEXT)`)
	require.NoError(t, err)

	store, err := watermark.New(t.TempDir())
	require.NoError(t, err)

	coordinator := New(writer, store, conn, nil, zerolog.Nop())
	return coordinator, conn, writer, catalog
}

func TestRunNoOpWhenSourceHasNoRows(t *testing.T) {
	coordinator, _, writer, catalog := setupCoordinator(t)
	schema := testSchema(t)
	_, err := writer.WriteTable("sales_iceberg", schema, nil)
	require.NoError(t, err)

	cfg := transfer.Incremental{
		PrimaryKeyColumn: "order_id",
		WatermarkColumn:  "order_id",
		MergeStrategy:    transfer.MergeUpsert,
		WatermarkType:    transfer.WatermarkInteger,
	}

	res, err := coordinator.Run(context.Background(), "sales_iceberg", cfg)
	require.NoError(t, err)
	assert.Nil(t, res.NewSnapshotID)
	assert.Equal(t, 0, res.RowsExtracted)

	loaded, err := catalog.LoadTable("sales_iceberg")
	require.NoError(t, err)
	assert.Len(t, loaded.Snapshots, 1)
}

func TestRunExtractsAppendsAndAdvancesWatermark(t *testing.T) {
	coordinator, conn, writer, catalog := setupCoordinator(t)
	schema := testSchema(t)
	_, err := writer.WriteTable("sales_iceberg", schema, nil)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = conn.DB.ExecContext(ctx, `INSERT INTO orders (order_id, customer) VALUES (1, 'alice'), (2, 'bob')`)
	require.NoError(t, err)

	cfg := transfer.Incremental{
		PrimaryKeyColumn: "order_id",
		WatermarkColumn:  "order_id",
		MergeStrategy:    transfer.MergeUpsert,
		WatermarkType:    transfer.WatermarkInteger,
	}

	res, err := coordinator.Run(ctx, "sales_iceberg", cfg)
	require.NoError(t, err)
	require.NotNil(t, res.NewSnapshotID)
	assert.Equal(t, 2, res.RowsExtracted)

	loaded, err := catalog.LoadTable("sales_iceberg")
	require.NoError(t, err)
	require.Len(t, loaded.Snapshots, 2)

	w, err := coordinator.watermarks.Get("sales_iceberg")
	require.NoError(t, err)
	require.NotNil(t, w)
	require.NotNil(t, w.LastSyncID)
	assert.Equal(t, int64(2), *w.LastSyncID)

	_, err = conn.DB.ExecContext(ctx, `INSERT INTO orders (order_id, customer) VALUES (3, 'carol')`)
	require.NoError(t, err)

	res2, err := coordinator.Run(ctx, "sales_iceberg", cfg)
	require.NoError(t, err)
	require.NotNil(t, res2.NewSnapshotID)
	assert.Equal(t, 1, res2.RowsExtracted)
	assert.NotEqual(t, *res.NewSnapshotID, *res2.NewSnapshotID)

	loaded2, err := catalog.LoadTable("sales_iceberg")
	require.NoError(t, err)
	assert.Len(t, loaded2.Snapshots, 3)
}

func TestRunMergesIntoRelationalDestination(t *testing.T) {
	catalog := catalogfs.New(t.TempDir(), zerolog.Nop())
	writer := tablewriter.New(catalog, zerolog.Nop())
	schema := testSchema(t)
	_, err := writer.WriteTable("sales_iceberg", schema, nil)
	require.NoError(t, err)

	srcConn, err := relational.Open("sqlite://file:icebridge_sync_source?mode=memory&cache=shared")
	require.NoError(t, err)
	defer srcConn.Close()
	ctx := context.Background()
	_, err = srcConn.DB.ExecContext(ctx, `CREATE TABLE sales_iceberg (order_id INTEGER PRIMARY KEY, customer TEXT)`)
	require.NoError(t, err)
	_, err = srcConn.DB.ExecContext(ctx, `INSERT INTO sales_iceberg (order_id, customer) VALUES (1, 'alice')`)
	require.NoError(t, err)

	destConn, err := relational.Open("sqlite://file:icebridge_sync_dest?mode=memory&cache=shared")
	require.NoError(t, err)
	defer destConn.Close()
	_, err = destConn.DB.ExecContext(ctx, `CREATE TABLE sales_iceberg (order_id INTEGER PRIMARY KEY, customer TEXT)`)
	require.NoError(t, err)

	store, err := watermark.New(t.TempDir())
	require.NoError(t, err)
	coordinator := New(writer, store, srcConn, destConn, zerolog.Nop())

	cfg := transfer.Incremental{
		PrimaryKeyColumn: "order_id",
		WatermarkColumn:  "order_id",
		MergeStrategy:    transfer.MergeUpsert,
		WatermarkType:    transfer.WatermarkInteger,
	}

	res, err := coordinator.Run(ctx, "sales_iceberg", cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 0, res.Updated)

	got, err := relational.Extract(ctx, destConn, "sales_iceberg", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0]["customer"])
}
