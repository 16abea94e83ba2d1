package avroio

import (
	"os"

	"github.com/hamba/avro/v2"
	"github.com/hamba/avro/v2/ocf"

	"github.com/brightloom/icebridge/pkg/errors"
)

const manifestFileSchemaJSON = `{
	"type": "record",
	"name": "manifest_file",
	"fields": [
		{"name": "manifest_path", "type": "string", "field-id": 500},
		{"name": "manifest_length", "type": "long", "field-id": 501},
		{"name": "partition_spec_id", "type": "int", "field-id": 502},
		{"name": "added_files_count", "type": "int", "field-id": 512},
		{"name": "existing_files_count", "type": "int", "field-id": 513},
		{"name": "deleted_files_count", "type": "int", "field-id": 514},
		{"name": "added_rows_count", "type": "long", "field-id": 504},
		{"name": "existing_rows_count", "type": "long", "field-id": 505},
		{"name": "deleted_rows_count", "type": "long", "field-id": 506}
	]
}`

var manifestFileSchema = avro.MustParse(manifestFileSchemaJSON)

// ManifestSummary is one entry in a manifest-list: the manifest this
// snapshot references plus its file/row counts.
type ManifestSummary struct {
	ManifestPath       string // table-relative
	ManifestLength     int64
	AddedFilesCount    int32
	ExistingFilesCount int32
	DeletedFilesCount  int32
	AddedRowsCount     int64
	ExistingRowsCount  int64
	DeletedRowsCount   int64
}

type manifestFileRecord struct {
	ManifestPath       string `avro:"manifest_path"`
	ManifestLength     int64  `avro:"manifest_length"`
	PartitionSpecID    int32  `avro:"partition_spec_id"`
	AddedFilesCount    int32  `avro:"added_files_count"`
	ExistingFilesCount int32  `avro:"existing_files_count"`
	DeletedFilesCount  int32  `avro:"deleted_files_count"`
	AddedRowsCount     int64  `avro:"added_rows_count"`
	ExistingRowsCount  int64  `avro:"existing_rows_count"`
	DeletedRowsCount   int64  `avro:"deleted_rows_count"`
}

// WriteManifestList writes a single Avro file at path listing the given
// manifests for one snapshot, each with partition_spec_id fixed at 0 (the
// only partition spec this project produces).
func WriteManifestList(path string, manifests []ManifestSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.New(ErrIOFailed, "failed to create manifest-list file", err).AddContext("path", path)
	}
	defer f.Close()

	enc, err := ocf.NewEncoder(manifestFileSchemaJSON, f, ocf.WithCodec(ocf.Null))
	if err != nil {
		return errors.New(ErrIOFailed, "failed to create manifest-list encoder", err)
	}
	defer enc.Close()

	for _, m := range manifests {
		rec := manifestFileRecord{
			ManifestPath:       m.ManifestPath,
			ManifestLength:     m.ManifestLength,
			PartitionSpecID:    0,
			AddedFilesCount:    m.AddedFilesCount,
			ExistingFilesCount: m.ExistingFilesCount,
			DeletedFilesCount:  m.DeletedFilesCount,
			AddedRowsCount:     m.AddedRowsCount,
			ExistingRowsCount:  m.ExistingRowsCount,
			DeletedRowsCount:   m.DeletedRowsCount,
		}
		if err := enc.Encode(rec); err != nil {
			return errors.New(ErrIOFailed, "failed to encode manifest-list entry", err).AddContext("manifest", m.ManifestPath)
		}
	}

	if err := enc.Flush(); err != nil {
		return errors.New(ErrIOFailed, "failed to flush manifest-list file", err)
	}
	return nil
}

// ReadManifestList reads back the manifest summaries referenced by a
// snapshot's manifest-list, used by the Iceberg Reader (C15).
func ReadManifestList(path string) ([]ManifestSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(ErrIOFailed, "failed to open manifest-list file", err).AddContext("path", path)
	}
	defer f.Close()

	dec, err := ocf.NewDecoder(f)
	if err != nil {
		return nil, errors.New(ErrIOFailed, "failed to create manifest-list decoder", err)
	}

	var out []ManifestSummary
	for dec.HasNext() {
		var rec manifestFileRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, errors.New(ErrIOFailed, "failed to decode manifest-list entry", err)
		}
		out = append(out, ManifestSummary{
			ManifestPath:       rec.ManifestPath,
			ManifestLength:     rec.ManifestLength,
			AddedFilesCount:    rec.AddedFilesCount,
			ExistingFilesCount: rec.ExistingFilesCount,
			DeletedFilesCount:  rec.DeletedFilesCount,
			AddedRowsCount:     rec.AddedRowsCount,
			ExistingRowsCount:  rec.ExistingRowsCount,
			DeletedRowsCount:   rec.DeletedRowsCount,
		})
	}
	return out, nil
}
