package parquetio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/iceberg-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	iceschema "github.com/brightloom/icebridge/server/iceberg"
)

func sampleSchema(t *testing.T) *iceschema.IcebergSchema {
	t.Helper()
	intType, err := iceschema.ParseTypeString("int")
	require.NoError(t, err)
	stringType, err := iceschema.ParseTypeString("string")
	require.NoError(t, err)
	doubleType, err := iceschema.ParseTypeString("double")
	require.NoError(t, err)

	return iceschema.BuildSchema([]iceschema.FieldSpec{
		{Name: "id", Type: intType, Required: true},
		{Name: "name", Type: stringType, Required: false},
		{Name: "amount", Type: doubleType, Required: true},
	})
}

func TestBuildGroupNodeAssignsFieldIDs(t *testing.T) {
	schema := sampleSchema(t)
	group, plans, err := buildGroupNode(schema)
	require.NoError(t, err)
	require.NotNil(t, group)
	require.Len(t, plans, 3)

	assert.Equal(t, "id", plans[0].field.Name)
	assert.Equal(t, 1, plans[0].field.ID)
	assert.Equal(t, "amount", plans[2].field.Name)
	assert.Equal(t, 3, plans[2].field.ID)
}

func TestWriterWritesRowsAndReportsMetadata(t *testing.T) {
	schema := sampleSchema(t)
	path := filepath.Join(t.TempDir(), "data-1.parquet")

	w, err := NewWriter(path, schema, WithRowGroupSize(2))
	require.NoError(t, err)

	rows := []Row{
		{"id": int32(1), "name": "Alice", "amount": 99.99},
		{"id": int32(2), "name": "Bob", "amount": 149.50},
		{"id": int32(3), "name": nil, "amount": 0.0},
	}
	for _, r := range rows {
		require.NoError(t, w.WriteRow(r))
	}

	meta, err := w.Close()
	require.NoError(t, err)
	assert.Equal(t, int64(3), meta.RecordCount)
	assert.Equal(t, path, meta.Path)
	assert.Greater(t, meta.SizeBytes, int64(0))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, meta.SizeBytes, info.Size())
}

func TestReadRowsRoundTripsWrittenData(t *testing.T) {
	schema := sampleSchema(t)
	path := filepath.Join(t.TempDir(), "data-1.parquet")

	w, err := NewWriter(path, schema, WithRowGroupSize(2))
	require.NoError(t, err)

	rows := []Row{
		{"id": int32(1), "name": "Alice", "amount": 99.99},
		{"id": int32(2), "name": "Bob", "amount": 149.50},
		{"id": int32(3), "name": nil, "amount": 0.0},
	}
	for _, r := range rows {
		require.NoError(t, w.WriteRow(r))
	}
	_, err = w.Close()
	require.NoError(t, err)

	got, err := ReadRows(path, schema)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, int32(1), got[0]["id"])
	assert.Equal(t, "Alice", got[0]["name"])
	assert.InDelta(t, 99.99, got[0]["amount"], 0.0001)
	assert.Nil(t, got[2]["name"])
}

func TestReadRowsRoundTripsRequiredColumns(t *testing.T) {
	intType, err := iceschema.ParseTypeString("int")
	require.NoError(t, err)
	doubleType, err := iceschema.ParseTypeString("double")
	require.NoError(t, err)

	// All columns required: a required column has max definition level 0,
	// the same value an optional column uses to mean "absent" — this
	// schema has no optional column to fall back on, so a reader that
	// conflates the two would zero out every row, including the
	// zero-valued one.
	schema := iceschema.BuildSchema([]iceschema.FieldSpec{
		{Name: "id", Type: intType, Required: true},
		{Name: "amount", Type: doubleType, Required: true},
	})
	path := filepath.Join(t.TempDir(), "required.parquet")

	w, err := NewWriter(path, schema, WithRowGroupSize(2))
	require.NoError(t, err)

	rows := []Row{
		{"id": int32(1), "amount": 99.99},
		{"id": int32(0), "amount": 0.0},
		{"id": int32(3), "amount": 149.50},
	}
	for _, r := range rows {
		require.NoError(t, w.WriteRow(r))
	}
	_, err = w.Close()
	require.NoError(t, err)

	got, err := ReadRows(path, schema)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, int32(1), got[0]["id"])
	assert.Equal(t, int32(0), got[1]["id"])
	assert.InDelta(t, 0.0, got[1]["amount"], 0.0001)
	assert.Equal(t, int32(3), got[2]["id"])
	assert.InDelta(t, 149.50, got[2]["amount"], 0.0001)
}

func TestReadRowsRoundTripsInt32AndInt64BackedDecimals(t *testing.T) {
	decimal92, err := iceschema.ParseTypeString("decimal(9,2)")
	require.NoError(t, err)
	decimal184, err := iceschema.ParseTypeString("decimal(18,4)")
	require.NoError(t, err)

	schema := iceschema.BuildSchema([]iceschema.FieldSpec{
		{Name: "unit_price", Type: decimal92, Required: true},
		{Name: "total", Type: decimal184, Required: true},
	})
	path := filepath.Join(t.TempDir(), "decimals.parquet")

	w, err := NewWriter(path, schema)
	require.NoError(t, err)

	unitPrice := decimal.RequireFromString("1234567.89")
	total := decimal.RequireFromString("99999999999999.1234")
	require.NoError(t, w.WriteRow(Row{"unit_price": unitPrice, "total": total}))
	_, err = w.Close()
	require.NoError(t, err)

	got, err := ReadRows(path, schema)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.True(t, unitPrice.Equal(got[0]["unit_price"].(decimal.Decimal)), "unit_price: want %s got %s", unitPrice, got[0]["unit_price"])
	assert.True(t, total.Equal(got[0]["total"].(decimal.Decimal)), "total: want %s got %s", total, got[0]["total"])
}

func TestWriterRejectsUnsupportedIcebergType(t *testing.T) {
	listType := &iceberg.ListType{
		ElementID:       1,
		Element:         iceberg.PrimitiveTypes.String,
		ElementRequired: true,
	}

	schema := iceschema.BuildSchema([]iceschema.FieldSpec{
		{Name: "tags", Type: listType, Required: false},
	})
	_, err := NewWriter(filepath.Join(t.TempDir(), "x.parquet"), schema)
	assert.Error(t, err)
}
