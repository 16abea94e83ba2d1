package avroio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightloom/icebridge/server/parquetio"
)

func TestWriteAndReadManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m1.avro")
	dataFiles := []parquetio.DataFileMetadata{
		{Path: "data/f1.parquet", SizeBytes: 1024, RecordCount: 3, PartitionVals: map[string]string{}},
		{Path: "data/f2.parquet", SizeBytes: 2048, RecordCount: 1, PartitionVals: map[string]string{}},
	}

	require.NoError(t, WriteManifest(path, 42, dataFiles))

	got, err := ReadManifest(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "data/f1.parquet", got[0].Path)
	assert.Equal(t, int64(3), got[0].RecordCount)
	assert.Equal(t, int64(2048), got[1].SizeBytes)
}

func TestWriteManifestEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.avro")
	require.NoError(t, WriteManifest(path, 1, nil))

	got, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}
