package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSQLToSQL(t *testing.T) {
	doc := []byte(`
transfer_type: sql_to_sql
source:
  connection: sqlite:///src.db
  table: orders
destination:
  connection: sqlite:///dst.db
  table: orders
`)
	cfg, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, SQLToSQL, cfg.TransferType)
	assert.Equal(t, "orders", cfg.Source.Table)
	assert.Equal(t, "orders", cfg.Destination.Table)
}

func TestParseMissingFieldReportsFieldName(t *testing.T) {
	doc := []byte(`
transfer_type: sql_to_sql
source:
  connection: sqlite:///src.db
`)
	_, err := Parse(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source.table")
}

func TestParseIncrementalDefaultsMergeAndWatermarkType(t *testing.T) {
	doc := []byte(`
transfer_type: sql_to_iceberg_incremental
source:
  connection: sqlite:///src.db
  table: sales
destination:
  iceberg:
    table_name: sales_iceberg
    incremental:
      primary_key_column: order_id
      watermark_column: order_date
`)
	cfg, err := Parse(doc)
	require.NoError(t, err)
	require.NotNil(t, cfg.Destination.Incremental)
	assert.Equal(t, MergeUpsert, cfg.Destination.Incremental.MergeStrategy)
	assert.Equal(t, WatermarkTimestamp, cfg.Destination.Incremental.WatermarkType)
}

func TestParseIncrementalMissingPrimaryKeyFails(t *testing.T) {
	doc := []byte(`
transfer_type: sql_to_iceberg_incremental
source:
  connection: sqlite:///src.db
  table: sales
destination:
  iceberg:
    table_name: sales_iceberg
    incremental:
      watermark_column: order_date
`)
	_, err := Parse(doc)
	assert.Error(t, err)
}

func TestParseRowLimitMustBePositive(t *testing.T) {
	doc := []byte(`
transfer_type: sql_to_sql
row_limit: -5
source:
  connection: sqlite:///src.db
  table: orders
destination:
  connection: sqlite:///dst.db
  table: orders
`)
	_, err := Parse(doc)
	assert.Error(t, err)
}

func TestParseWhereClauseRejectsInjection(t *testing.T) {
	doc := []byte(`
transfer_type: sql_to_sql
where_clause: "1=1; DROP TABLE orders;--"
source:
  connection: sqlite:///src.db
  table: orders
destination:
  connection: sqlite:///dst.db
  table: orders
`)
	_, err := Parse(doc)
	assert.Error(t, err)
}

func TestParseUnrecognizedTransferType(t *testing.T) {
	doc := []byte(`transfer_type: not_a_real_type`)
	_, err := Parse(doc)
	assert.Error(t, err)
}
