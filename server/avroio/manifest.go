// Package avroio implements the Manifest Writer (C4) and Manifest-List
// Writer (C5): Avro files whose field schemas carry Iceberg field-ID
// annotations, so a compliant reader (DuckDB, PyIceberg, Spark) can match
// columns by ID rather than name.
package avroio

import (
	"os"

	"github.com/hamba/avro/v2"
	"github.com/hamba/avro/v2/ocf"

	"github.com/brightloom/icebridge/pkg/errors"
	"github.com/brightloom/icebridge/server/parquetio"
)

var ErrIOFailed = errors.MustNewCode("avroio.io_failed")

// ManifestEntryStatus mirrors the Iceberg manifest entry status enum.
type ManifestEntryStatus int32

const (
	StatusExisting ManifestEntryStatus = 0
	StatusAdded    ManifestEntryStatus = 1
	StatusDeleted  ManifestEntryStatus = 2
)

const manifestEntrySchemaJSON = `{
	"type": "record",
	"name": "manifest_entry",
	"fields": [
		{"name": "status", "type": "int", "field-id": 0},
		{"name": "snapshot_id", "type": "long", "field-id": 1},
		{"name": "data_file", "type": {
			"type": "record",
			"name": "r2",
			"fields": [
				{"name": "file_path", "type": "string", "field-id": 100},
				{"name": "file_format", "type": "string", "field-id": 101},
				{"name": "partition", "type": {"type": "map", "values": "string"}, "field-id": 102},
				{"name": "record_count", "type": "long", "field-id": 103},
				{"name": "file_size_in_bytes", "type": "long", "field-id": 104}
			]
		}, "field-id": 2}
	]
}`

// manifestEntrySchema is parsed once at init to fail fast on a malformed
// schema literal; WriteManifest/ReadManifest pass the JSON text directly
// to ocf.NewEncoder/NewDecoder, which parse it again internally.
var manifestEntrySchema = avro.MustParse(manifestEntrySchemaJSON)

// manifestEntryRecord is the Go-side shape the avro encoder serializes
// against manifestEntrySchema.
type manifestEntryRecord struct {
	Status     int32          `avro:"status"`
	SnapshotID int64          `avro:"snapshot_id"`
	DataFile   dataFileRecord `avro:"data_file"`
}

type dataFileRecord struct {
	FilePath        string            `avro:"file_path"`
	FileFormat      string            `avro:"file_format"`
	Partition       map[string]string `avro:"partition"`
	RecordCount     int64             `avro:"record_count"`
	FileSizeInBytes int64             `avro:"file_size_in_bytes"`
}

// WriteManifest writes a single-record-per-data-file Avro manifest at path,
// one entry per file in dataFiles, all carrying status ADDED. The output
// is uncompressed Avro (ocf.Null codec) per the spec.
func WriteManifest(path string, snapshotID int64, dataFiles []parquetio.DataFileMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.New(ErrIOFailed, "failed to create manifest file", err).AddContext("path", path)
	}
	defer f.Close()

	enc, err := ocf.NewEncoder(manifestEntrySchemaJSON, f, ocf.WithCodec(ocf.Null))
	if err != nil {
		return errors.New(ErrIOFailed, "failed to create manifest encoder", err)
	}
	defer enc.Close()

	for _, df := range dataFiles {
		partition := df.PartitionVals
		if partition == nil {
			partition = map[string]string{}
		}
		rec := manifestEntryRecord{
			Status:     int32(StatusAdded),
			SnapshotID: snapshotID,
			DataFile: dataFileRecord{
				FilePath:        df.Path,
				FileFormat:      "PARQUET",
				Partition:       partition,
				RecordCount:     df.RecordCount,
				FileSizeInBytes: df.SizeBytes,
			},
		}
		if err := enc.Encode(rec); err != nil {
			return errors.New(ErrIOFailed, "failed to encode manifest entry", err).AddContext("path", df.Path)
		}
	}

	if err := enc.Flush(); err != nil {
		return errors.New(ErrIOFailed, "failed to flush manifest file", err)
	}
	return nil
}

// ReadManifest reads back the data files listed in a manifest, used by the
// Iceberg Reader (C15).
func ReadManifest(path string) ([]parquetio.DataFileMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(ErrIOFailed, "failed to open manifest file", err).AddContext("path", path)
	}
	defer f.Close()

	dec, err := ocf.NewDecoder(f)
	if err != nil {
		return nil, errors.New(ErrIOFailed, "failed to create manifest decoder", err)
	}

	var out []parquetio.DataFileMetadata
	for dec.HasNext() {
		var rec manifestEntryRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, errors.New(ErrIOFailed, "failed to decode manifest entry", err)
		}
		out = append(out, parquetio.DataFileMetadata{
			Path:          rec.DataFile.FilePath,
			SizeBytes:     rec.DataFile.FileSizeInBytes,
			RecordCount:   rec.DataFile.RecordCount,
			PartitionVals: rec.DataFile.Partition,
		})
	}
	return out, nil
}
