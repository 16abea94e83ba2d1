// Package tablewriter implements the Table Writer/Appender (C8): the
// orchestration point that drives C1/C2 (schema), C3 (Parquet), C4/C5
// (Avro manifests), C6 (metadata), and C7 (catalog commit) to perform a
// full table write or an incremental append.
package tablewriter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/brightloom/icebridge/pkg/errors"
	"github.com/brightloom/icebridge/server/avroio"
	"github.com/brightloom/icebridge/server/catalogfs"
	iceschema "github.com/brightloom/icebridge/server/iceberg"
	"github.com/brightloom/icebridge/server/parquetio"
)

var (
	ErrTableNotFound = errors.MustNewCode("tablewriter.table_not_found")
	ErrWriteFailed   = errors.MustNewCode("tablewriter.write_failed")
)

// AppendResult reports the outcome of an append (or the initial write).
type AppendResult struct {
	NewSnapshotID int64
	RowsAppended  int
	DataFileCount int
}

// Writer orchestrates the core pipeline for one warehouse.
type Writer struct {
	catalog *catalogfs.Catalog
	logger  zerolog.Logger
}

// New returns a Writer backed by catalog.
func New(catalog *catalogfs.Catalog, logger zerolog.Logger) *Writer {
	return &Writer{catalog: catalog, logger: logger.With().Str("component", "tablewriter").Logger()}
}

// WriteTable performs initial creation (or full overwrite) of a table: it
// initializes the catalog layout, writes one data file, one manifest, one
// manifest-list, builds the initial metadata, and commits.
func (w *Writer) WriteTable(name string, schema *iceschema.IcebergSchema, rows []parquetio.Row) (AppendResult, error) {
	tablePath, err := w.catalog.Initialize(name)
	if err != nil {
		return AppendResult{}, err
	}

	snapshotID := iceschema.NewSnapshotID()

	dataFile, err := w.writeDataFile(tablePath, schema, rows)
	if err != nil {
		return AppendResult{}, err
	}

	_, manifestSummary, err := w.writeManifest(tablePath, snapshotID, []parquetio.DataFileMetadata{dataFile})
	if err != nil {
		return AppendResult{}, err
	}

	manifestListRelPath, err := w.writeManifestList(tablePath, snapshotID, []avroio.ManifestSummary{manifestSummary})
	if err != nil {
		return AppendResult{}, err
	}

	metadata := iceschema.CreateInitial(schema, tablePath, manifestListRelPath, snapshotID)
	if _, err := w.catalog.Commit(name, metadata); err != nil {
		return AppendResult{}, err
	}

	w.logger.Info().Str("table", name).Int64("snapshot_id", snapshotID).Int("rows", len(rows)).Msg("wrote table")

	return AppendResult{
		NewSnapshotID: snapshotID,
		RowsAppended:  len(rows),
		DataFileCount: 1,
	}, nil
}

// Append loads the current metadata, rejects if the table does not
// exist, writes one new data file and a manifest scoped to just this
// snapshot, writes a new manifest-list, and commits a new TableMetadata
// snapshot. Prior snapshots' manifests remain addressable via their own
// manifest-lists.
func (w *Writer) Append(name string, rows []parquetio.Row) (AppendResult, error) {
	existing, err := w.catalog.LoadTable(name)
	if err != nil {
		return AppendResult{}, err
	}
	if existing == nil {
		return AppendResult{}, errors.New(ErrTableNotFound, "table does not exist", nil).AddContext("table", name)
	}
	if len(rows) == 0 {
		// An empty delta is a no-op: no new data file, no new manifest, no
		// new snapshot, version-hint unchanged.
		var current int64
		if existing.CurrentSnapshotID != nil {
			current = *existing.CurrentSnapshotID
		}
		return AppendResult{NewSnapshotID: current, RowsAppended: 0, DataFileCount: 0}, nil
	}

	schema, err := existing.CurrentSchema()
	if err != nil {
		return AppendResult{}, err
	}

	tablePath := w.catalog.TablePath(name)
	snapshotID := iceschema.NewSnapshotID()

	priorManifests, err := w.priorManifests(tablePath, existing)
	if err != nil {
		return AppendResult{}, err
	}

	dataFile, err := w.writeDataFile(tablePath, schema, rows)
	if err != nil {
		return AppendResult{}, err
	}

	_, manifestSummary, err := w.writeManifest(tablePath, snapshotID, []parquetio.DataFileMetadata{dataFile})
	if err != nil {
		return AppendResult{}, err
	}

	// A snapshot's manifest-list is cumulative: it carries forward every
	// manifest still live from the previous snapshot plus the one just
	// written, so a read of the new snapshot sees old and new rows alike.
	manifests := append(priorManifests, manifestSummary)
	manifestListRelPath, err := w.writeManifestList(tablePath, snapshotID, manifests)
	if err != nil {
		return AppendResult{}, err
	}

	metadata := iceschema.AddSnapshot(existing, snapshotID, manifestListRelPath)
	if _, err := w.catalog.Commit(name, metadata); err != nil {
		return AppendResult{}, err
	}

	w.logger.Info().Str("table", name).Int64("snapshot_id", snapshotID).Int("rows", len(rows)).Msg("appended to table")

	return AppendResult{
		NewSnapshotID: snapshotID,
		RowsAppended:  len(rows),
		DataFileCount: 1,
	}, nil
}

func (w *Writer) writeDataFile(tablePath string, schema *iceschema.IcebergSchema, rows []parquetio.Row) (parquetio.DataFileMetadata, error) {
	dataFileName := fmt.Sprintf("%s.parquet", uuid.NewString())
	dataFilePath := filepath.Join(tablePath, "data", dataFileName)

	pw, err := parquetio.NewWriter(dataFilePath, schema)
	if err != nil {
		return parquetio.DataFileMetadata{}, err
	}
	for _, row := range rows {
		if err := pw.WriteRow(row); err != nil {
			return parquetio.DataFileMetadata{}, err
		}
	}
	dataFile, err := pw.Close()
	if err != nil {
		return parquetio.DataFileMetadata{}, err
	}
	// record_count/size_bytes come from the closed file; the manifest
	// only needs a table-relative path, matching all other stored paths.
	dataFile.Path = filepath.Join("data", dataFileName)
	return dataFile, nil
}

func (w *Writer) writeManifest(tablePath string, snapshotID int64, dataFiles []parquetio.DataFileMetadata) (string, avroio.ManifestSummary, error) {
	manifestName := fmt.Sprintf("%s.avro", uuid.NewString())
	manifestPath := filepath.Join(tablePath, "metadata", manifestName)

	if err := avroio.WriteManifest(manifestPath, snapshotID, dataFiles); err != nil {
		return "", avroio.ManifestSummary{}, err
	}

	info, err := statSize(manifestPath)
	if err != nil {
		return "", avroio.ManifestSummary{}, err
	}

	var addedRows int64
	for _, df := range dataFiles {
		addedRows += df.RecordCount
	}

	relPath := filepath.Join("metadata", manifestName)
	summary := avroio.ManifestSummary{
		ManifestPath:    relPath,
		ManifestLength:  info,
		AddedFilesCount: int32(len(dataFiles)),
		AddedRowsCount:  addedRows,
	}
	return relPath, summary, nil
}

func (w *Writer) writeManifestList(tablePath string, snapshotID int64, manifests []avroio.ManifestSummary) (string, error) {
	listName := fmt.Sprintf("snap-%d-%s.avro", snapshotID, uuid.NewString())
	listPath := filepath.Join(tablePath, "metadata", listName)

	if err := avroio.WriteManifestList(listPath, manifests); err != nil {
		return "", err
	}
	return filepath.Join("metadata", listName), nil
}

// priorManifests returns the manifest summaries referenced by the table's
// current snapshot, to carry forward into the next one. A table with no
// committed snapshot yet (freshly initialized, never written) has none.
func (w *Writer) priorManifests(tablePath string, existing *iceschema.TableMetadata) ([]avroio.ManifestSummary, error) {
	snapshot := existing.CurrentSnapshot()
	if snapshot == nil {
		return nil, nil
	}
	return avroio.ReadManifestList(filepath.Join(tablePath, snapshot.ManifestList))
}

func statSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, errors.New(ErrWriteFailed, "failed to stat written file", err).AddContext("path", path)
	}
	return info.Size(), nil
}
