package parquetio

import (
	"math/big"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	pqfile "github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/iceberg-go"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightloom/icebridge/pkg/errors"
	iceschema "github.com/brightloom/icebridge/server/iceberg"
)

var ErrIOFailed = errors.MustNewCode("parquetio.io_failed")

// DefaultRowGroupSize is the row-group flush threshold used when the
// caller does not override it.
const DefaultRowGroupSize = 1000

// Row is one record keyed by column name. Values must be convertible to
// the column's Iceberg type: bool, int32/int64, float32/float64, string,
// []byte, uuid.UUID, time.Time (date/timestamp), decimal.Decimal, or nil
// for an optional column.
type Row map[string]any

// DataFileMetadata describes a closed data file, as recorded in a
// manifest entry.
type DataFileMetadata struct {
	Path          string
	SizeBytes     int64
	RecordCount   int64
	PartitionVals map[string]string
}

// Writer buffers rows in memory and emits Parquet row groups on flush,
// annotating every column with its Iceberg field-ID.
type Writer struct {
	path         string
	rowGroupSize int
	schema       *iceschema.IcebergSchema
	plans        []columnPlan

	file    *os.File
	pw      *pqfile.Writer
	buf     []Row
	written int64
	closed  bool
}

// Option configures a Writer.
type Option func(*Writer)

// WithRowGroupSize overrides DefaultRowGroupSize.
func WithRowGroupSize(n int) Option {
	return func(w *Writer) { w.rowGroupSize = n }
}

// NewWriter opens a Parquet file at path for the given schema.
func NewWriter(path string, schema *iceschema.IcebergSchema, opts ...Option) (*Writer, error) {
	group, plans, err := buildGroupNode(schema)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, errors.New(ErrIOFailed, "failed to create parquet file", err).AddContext("path", path)
	}

	props := parquet.NewWriterProperties(
		parquet.WithVersion(parquet.V2_LATEST),
		parquet.WithCompression(compress.Codecs.Snappy),
	)

	pw := pqfile.NewParquetWriter(f, group, pqfile.WithWriterProps(props))

	w := &Writer{
		path:         path,
		rowGroupSize: DefaultRowGroupSize,
		schema:       schema,
		plans:        plans,
		file:         f,
		pw:           pw,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// WriteRow buffers a single row, flushing a row group if the buffer has
// reached the configured row-group size. Back-pressure: a caller that
// outpaces the flush simply blocks inside this call while the group is
// written to disk.
func (w *Writer) WriteRow(row Row) error {
	if w.closed {
		return errors.New(ErrIOFailed, "write to closed parquet writer", nil).AddContext("path", w.path)
	}
	w.buf = append(w.buf, row)
	if len(w.buf) >= w.rowGroupSize {
		return w.flush()
	}
	return nil
}

func (w *Writer) flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	rgw := w.pw.AppendBufferedRowGroup()
	for i, plan := range w.plans {
		cw, err := rgw.Column(i)
		if err != nil {
			return errors.New(ErrIOFailed, "failed to open column writer", err).AddContext("field", plan.field.Name)
		}
		if err := writeColumnBatch(cw, plan, w.buf); err != nil {
			return err
		}
	}
	if err := rgw.Close(); err != nil {
		return errors.New(ErrIOFailed, "failed to close row group", err)
	}
	w.written += int64(len(w.buf))
	w.buf = w.buf[:0]
	return nil
}

// Close flushes any buffered rows, finalizes the file, and returns its
// DataFileMetadata. After Close, the Writer must not be reused.
func (w *Writer) Close() (DataFileMetadata, error) {
	if w.closed {
		return DataFileMetadata{}, errors.New(ErrIOFailed, "parquet writer already closed", nil)
	}
	w.closed = true

	if err := w.flush(); err != nil {
		w.file.Close()
		return DataFileMetadata{}, err
	}
	if err := w.pw.FlushWithFooter(); err != nil {
		w.file.Close()
		return DataFileMetadata{}, errors.New(ErrIOFailed, "failed to flush parquet footer", err)
	}
	if err := w.pw.Close(); err != nil {
		w.file.Close()
		return DataFileMetadata{}, errors.New(ErrIOFailed, "failed to close parquet writer", err)
	}
	if err := w.file.Close(); err != nil {
		return DataFileMetadata{}, errors.New(ErrIOFailed, "failed to close parquet file", err)
	}

	info, err := os.Stat(w.path)
	if err != nil {
		return DataFileMetadata{}, errors.New(ErrIOFailed, "failed to stat closed parquet file", err)
	}

	return DataFileMetadata{
		Path:        w.path,
		SizeBytes:   info.Size(),
		RecordCount: w.written,
	}, nil
}

// writeColumnBatch converts the buffered rows' values for one column into
// a typed batch and writes it through the column's chunk writer.
func writeColumnBatch(cw pqfile.ColumnChunkWriter, plan columnPlan, rows []Row) error {
	name := plan.field.Name
	n := len(rows)
	defLevels := make([]int16, n)
	for i, row := range rows {
		if row[name] != nil {
			defLevels[i] = 1
		}
	}

	switch typed := cw.(type) {
	case *pqfile.BooleanColumnChunkWriter:
		vals := make([]bool, 0, n)
		for _, row := range rows {
			if v, ok := row[name].(bool); ok {
				vals = append(vals, v)
			}
		}
		_, err := typed.WriteBatch(vals, defLevels, nil)
		return wrapWriteErr(err, name)

	case *pqfile.Int32ColumnChunkWriter:
		vals := make([]int32, 0, n)
		for _, row := range rows {
			v, err := toInt32(row[name], plan.field)
			if err != nil {
				return err
			}
			if row[name] != nil {
				vals = append(vals, v)
			}
		}
		_, err := typed.WriteBatch(vals, defLevels, nil)
		return wrapWriteErr(err, name)

	case *pqfile.Int64ColumnChunkWriter:
		vals := make([]int64, 0, n)
		for _, row := range rows {
			v, err := toInt64(row[name], plan.field)
			if err != nil {
				return err
			}
			if row[name] != nil {
				vals = append(vals, v)
			}
		}
		_, err := typed.WriteBatch(vals, defLevels, nil)
		return wrapWriteErr(err, name)

	case *pqfile.Float32ColumnChunkWriter:
		vals := make([]float32, 0, n)
		for _, row := range rows {
			if v, ok := row[name].(float32); ok {
				vals = append(vals, v)
			}
		}
		_, err := typed.WriteBatch(vals, defLevels, nil)
		return wrapWriteErr(err, name)

	case *pqfile.Float64ColumnChunkWriter:
		vals := make([]float64, 0, n)
		for _, row := range rows {
			if v, ok := row[name].(float64); ok {
				vals = append(vals, v)
			}
		}
		_, err := typed.WriteBatch(vals, defLevels, nil)
		return wrapWriteErr(err, name)

	case *pqfile.ByteArrayColumnChunkWriter:
		vals := make([]parquet.ByteArray, 0, n)
		for _, row := range rows {
			b, err := toByteArray(row[name])
			if err != nil {
				return err
			}
			if row[name] != nil {
				vals = append(vals, b)
			}
		}
		_, err := typed.WriteBatch(vals, defLevels, nil)
		return wrapWriteErr(err, name)

	case *pqfile.FixedLenByteArrayColumnChunkWriter:
		vals := make([]parquet.FixedLenByteArray, 0, n)
		for _, row := range rows {
			b, err := toFixedLenByteArray(row[name], plan.field)
			if err != nil {
				return err
			}
			if row[name] != nil {
				vals = append(vals, b)
			}
		}
		_, err := typed.WriteBatch(vals, defLevels, nil)
		return wrapWriteErr(err, name)

	default:
		return errors.New(ErrIOFailed, "unsupported column chunk writer type", nil).AddContext("field", name)
	}
}

func wrapWriteErr(err error, field string) error {
	if err == nil {
		return nil
	}
	return errors.New(ErrIOFailed, "failed to write column batch", err).AddContext("field", field)
}

func toInt32(v any, f iceschema.IcebergField) (int32, error) {
	if v == nil {
		return 0, nil
	}
	switch t := v.(type) {
	case int32:
		return t, nil
	case int64:
		return int32(t), nil
	case int:
		return int32(t), nil
	case time.Time:
		if _, ok := f.Type.(iceberg.DateType); ok {
			days := t.UTC().Unix() / 86400
			return int32(days), nil
		}
	case decimal.Decimal:
		if dt, ok := f.Type.(iceberg.DecimalType); ok {
			return int32(decimalToScaledInt(t, dt)), nil
		}
	case float64:
		if dt, ok := f.Type.(iceberg.DecimalType); ok {
			return int32(decimalToScaledInt(decimal.NewFromFloat(t), dt)), nil
		}
	}
	return 0, errors.New(ErrIOFailed, "value not convertible to int32", nil).AddContext("field", f.Name)
}

func toInt64(v any, f iceschema.IcebergField) (int64, error) {
	if v == nil {
		return 0, nil
	}
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case time.Time:
		return t.UTC().UnixMicro(), nil
	case decimal.Decimal:
		if dt, ok := f.Type.(iceberg.DecimalType); ok {
			return decimalToScaledInt(t, dt), nil
		}
	case float64:
		if dt, ok := f.Type.(iceberg.DecimalType); ok {
			return decimalToScaledInt(decimal.NewFromFloat(t), dt), nil
		}
	}
	return 0, errors.New(ErrIOFailed, "value not convertible to int64", nil).AddContext("field", f.Name)
}

// decimalToScaledInt rescales d to dt's declared scale and returns the
// unscaled integer, the encoding INT32/INT64-backed decimal columns use.
func decimalToScaledInt(d decimal.Decimal, dt iceberg.DecimalType) int64 {
	return d.Shift(int32(dt.Scale())).BigInt().Int64()
}

func toByteArray(v any) (parquet.ByteArray, error) {
	if v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case string:
		return parquet.ByteArray(t), nil
	case []byte:
		return parquet.ByteArray(t), nil
	}
	return nil, errors.New(ErrIOFailed, "value not convertible to byte array", nil)
}

func toFixedLenByteArray(v any, f iceschema.IcebergField) (parquet.FixedLenByteArray, error) {
	if v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case uuid.UUID:
		b := t
		return parquet.FixedLenByteArray(b[:]), nil
	case []byte:
		return parquet.FixedLenByteArray(t), nil
	case decimal.Decimal:
		if dt, ok := f.Type.(iceberg.DecimalType); ok {
			return decimalToFixed(t, dt), nil
		}
	}
	return nil, errors.New(ErrIOFailed, "value not convertible to fixed-length byte array", nil).AddContext("field", f.Name)
}

// decimalToFixed encodes a decimal as a two's-complement big-endian
// unscaled integer of the byte length the decimal's precision requires.
func decimalToFixed(d decimal.Decimal, dt iceberg.DecimalType) parquet.FixedLenByteArray {
	_, length := decimalParquetEncoding(dt.Precision())
	scaled := d.Shift(int32(dt.Scale())).BigInt()

	if scaled.Sign() < 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(length*8))
		scaled = new(big.Int).Add(scaled, mod)
	}

	out := make([]byte, length)
	scaled.FillBytes(out)
	return parquet.FixedLenByteArray(out)
}
