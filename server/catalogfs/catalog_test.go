package catalogfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	iceschema "github.com/brightloom/icebridge/server/iceberg"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	return New(t.TempDir(), zerolog.Nop())
}

func testSchema(t *testing.T) *iceschema.IcebergSchema {
	t.Helper()
	intType, err := iceschema.ParseTypeString("int")
	require.NoError(t, err)
	return iceschema.BuildSchema([]iceschema.FieldSpec{{Name: "id", Type: intType, Required: true}})
}

func TestInitializeCreatesLayout(t *testing.T) {
	c := testCatalog(t)
	path, err := c.Initialize("orders")
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(path, "metadata"))
	assert.DirExists(t, filepath.Join(path, "data"))
}

func TestCommitAndLoadTable(t *testing.T) {
	c := testCatalog(t)
	_, err := c.Initialize("orders")
	require.NoError(t, err)

	schema := testSchema(t)
	m1 := iceschema.CreateInitial(schema, c.TablePath("orders"), "snap-1.avro", 1)

	v, err := c.Commit("orders", m1)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	hint, err := os.ReadFile(filepath.Join(c.metadataDir("orders"), versionHintName))
	require.NoError(t, err)
	assert.Equal(t, "1", string(hint))
	assert.FileExists(t, filepath.Join(c.metadataDir("orders"), "v1.metadata.json"))

	loaded, err := c.LoadTable("orders")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, m1.TableUUID, loaded.TableUUID)
	require.NotNil(t, loaded.CurrentSnapshotID)
	assert.Equal(t, int64(1), *loaded.CurrentSnapshotID)
}

func TestCommitAdvancesVersion(t *testing.T) {
	c := testCatalog(t)
	_, err := c.Initialize("orders")
	require.NoError(t, err)

	schema := testSchema(t)
	m1 := iceschema.CreateInitial(schema, c.TablePath("orders"), "snap-1.avro", 1)
	_, err = c.Commit("orders", m1)
	require.NoError(t, err)

	m2 := iceschema.AddSnapshot(m1, 2, "snap-2.avro")
	v2, err := c.Commit("orders", m2)
	require.NoError(t, err)
	assert.Equal(t, 2, v2)

	assert.FileExists(t, filepath.Join(c.metadataDir("orders"), "v1.metadata.json"))
	assert.FileExists(t, filepath.Join(c.metadataDir("orders"), "v2.metadata.json"))

	hint, err := os.ReadFile(filepath.Join(c.metadataDir("orders"), versionHintName))
	require.NoError(t, err)
	assert.Equal(t, "2", string(hint))
}

func TestLoadTableAbsentReturnsNil(t *testing.T) {
	c := testCatalog(t)
	_, err := c.Initialize("orders")
	require.NoError(t, err)

	loaded, err := c.LoadTable("orders")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLoadTableCorruptHintLogsAndReturnsNil(t *testing.T) {
	c := testCatalog(t)
	_, err := c.Initialize("orders")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(c.metadataDir("orders"), versionHintName), []byte("not-a-number"), filePermissions))

	loaded, err := c.LoadTable("orders")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
