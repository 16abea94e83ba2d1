package reader

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightloom/icebridge/server/catalogfs"
	iceschema "github.com/brightloom/icebridge/server/iceberg"
	"github.com/brightloom/icebridge/server/parquetio"
	"github.com/brightloom/icebridge/server/tablewriter"
)

func testSchema(t *testing.T) *iceschema.IcebergSchema {
	t.Helper()
	intType, err := iceschema.ParseTypeString("int")
	require.NoError(t, err)
	stringType, err := iceschema.ParseTypeString("string")
	require.NoError(t, err)
	return iceschema.BuildSchema([]iceschema.FieldSpec{
		{Name: "id", Type: intType, Required: true},
		{Name: "name", Type: stringType, Required: false},
	})
}

func TestReadTableReturnsWrittenRows(t *testing.T) {
	catalog := catalogfs.New(t.TempDir(), zerolog.Nop())
	tw := tablewriter.New(catalog, zerolog.Nop())

	schema := testSchema(t)
	rows := []parquetio.Row{
		{"id": int32(1), "name": "Alice"},
		{"id": int32(2), "name": "Bob"},
	}
	_, err := tw.WriteTable("people", schema, rows)
	require.NoError(t, err)

	r := New(catalog, zerolog.Nop())
	got, err := r.ReadTable("people")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int32(1), got[0]["id"])
	assert.Equal(t, "Alice", got[0]["name"])
}

func TestReadTableMissingReturnsError(t *testing.T) {
	catalog := catalogfs.New(t.TempDir(), zerolog.Nop())
	r := New(catalog, zerolog.Nop())

	_, err := r.ReadTable("absent")
	assert.Error(t, err)
}

func TestReadSnapshotTimeTravel(t *testing.T) {
	catalog := catalogfs.New(t.TempDir(), zerolog.Nop())
	tw := tablewriter.New(catalog, zerolog.Nop())

	schema := testSchema(t)
	res1, err := tw.WriteTable("people", schema, []parquetio.Row{{"id": int32(1), "name": "Alice"}})
	require.NoError(t, err)

	res2, err := tw.Append("people", []parquetio.Row{{"id": int32(2), "name": "Bob"}})
	require.NoError(t, err)

	r := New(catalog, zerolog.Nop())

	rowsAtFirst, err := r.ReadSnapshot("people", res1.NewSnapshotID)
	require.NoError(t, err)
	assert.Len(t, rowsAtFirst, 1)

	rowsAtSecond, err := r.ReadSnapshot("people", res2.NewSnapshotID)
	require.NoError(t, err)
	assert.Len(t, rowsAtSecond, 2)

	rowsCurrent, err := r.ReadTable("people")
	require.NoError(t, err)
	assert.Len(t, rowsCurrent, 2)
}
