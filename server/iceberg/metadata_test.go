package iceberg

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *IcebergSchema {
	return BuildSchema([]FieldSpec{
		{Name: "id", Type: mustType("int"), Required: true},
		{Name: "name", Type: mustType("string"), Required: false},
		{Name: "amount", Type: mustType("double"), Required: true},
	})
}

func mustType(s string) IcebergType {
	t, err := ParseTypeString(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCreateInitialPopulatesSnapshot(t *testing.T) {
	schema := testSchema()
	m := CreateInitial(schema, "/warehouse/t", "snap-1.avro", 42)

	require.NotNil(t, m.CurrentSnapshotID)
	assert.Equal(t, int64(42), *m.CurrentSnapshotID)
	assert.Len(t, m.Snapshots, 1)
	assert.Equal(t, 3, m.LastColumnID)
	assert.Equal(t, 2, m.FormatVersion)
	assert.NotEmpty(t, m.TableUUID)
}

func TestAddSnapshotPreservesHistory(t *testing.T) {
	schema := testSchema()
	m1 := CreateInitial(schema, "/warehouse/t", "snap-1.avro", 1)
	m2 := AddSnapshot(m1, 2, "snap-2.avro")

	assert.Len(t, m2.Snapshots, 2)
	assert.Equal(t, int64(2), *m2.CurrentSnapshotID)
	assert.Equal(t, m1.TableUUID, m2.TableUUID)
	assert.Equal(t, m1.Location, m2.Location)
	// original untouched
	assert.Len(t, m1.Snapshots, 1)
}

func TestTableMetadataJSONRoundTrip(t *testing.T) {
	schema := testSchema()
	m := CreateInitial(schema, "/warehouse/t", "snap-1.avro", 7)

	raw, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"format-version":2`)
	assert.Contains(t, string(raw), `"table-uuid"`)
	assert.Contains(t, string(raw), `"current-snapshot-id":7`)

	var decoded TableMetadata
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, m.TableUUID, decoded.TableUUID)
	assert.Equal(t, m.LastColumnID, decoded.LastColumnID)

	decodedSchema, err := decoded.CurrentSchema()
	require.NoError(t, err)
	assert.Equal(t, schema.Fields(), decodedSchema.Fields())
}

func TestEmptyTableNullSnapshotID(t *testing.T) {
	var m TableMetadata
	raw, err := json.Marshal(&m)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"current-snapshot-id":null`)
}

func TestNewSnapshotIDUnique(t *testing.T) {
	a := NewSnapshotID()
	b := NewSnapshotID()
	assert.NotEqual(t, a, b)
	assert.GreaterOrEqual(t, a, int64(0))
	assert.GreaterOrEqual(t, b, int64(0))
}
