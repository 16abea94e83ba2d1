package avroio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadManifestListRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap-1.avro")
	entries := []ManifestSummary{
		{
			ManifestPath:       "metadata/m1.avro",
			ManifestLength:     512,
			AddedFilesCount:    1,
			ExistingFilesCount: 0,
			DeletedFilesCount:  0,
			AddedRowsCount:     3,
		},
	}

	require.NoError(t, WriteManifestList(path, entries))

	got, err := ReadManifestList(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "metadata/m1.avro", got[0].ManifestPath)
	assert.Equal(t, int64(3), got[0].AddedRowsCount)
}
