package parquetio

import (
	"math/big"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/parquet"
	pqfile "github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/iceberg-go"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightloom/icebridge/pkg/errors"
	iceschema "github.com/brightloom/icebridge/server/iceberg"
)

// ReadRows reads every row group of the Parquet file at path back into
// Row values, matching columns by declaration order against schema — the
// same order buildGroupNode used to assign each column its Iceberg
// field-ID, so the column actually read is the column the field-ID names
// rather than whatever a name happens to collide with.
func ReadRows(path string, schema *iceschema.IcebergSchema) ([]Row, error) {
	_, plans, err := buildGroupNode(schema)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(ErrIOFailed, "failed to open parquet file", err).AddContext("path", path)
	}
	defer f.Close()

	pr, err := pqfile.NewParquetReader(f)
	if err != nil {
		return nil, errors.New(ErrIOFailed, "failed to open parquet reader", err).AddContext("path", path)
	}
	defer pr.Close()

	var rows []Row
	for rg := 0; rg < pr.NumRowGroups(); rg++ {
		rgr := pr.RowGroup(rg)
		numRows := rgr.NumRows()
		if numRows == 0 {
			continue
		}

		cols := make([][]any, len(plans))
		for i, plan := range plans {
			cr, err := rgr.Column(i)
			if err != nil {
				return nil, errors.New(ErrIOFailed, "failed to open column reader", err).AddContext("field", plan.field.Name)
			}
			values, err := readColumn(cr, plan, numRows)
			if err != nil {
				return nil, err
			}
			cols[i] = values
		}

		for r := int64(0); r < numRows; r++ {
			row := make(Row, len(plans))
			for i, plan := range plans {
				row[plan.field.Name] = cols[i][r]
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func readColumn(cr pqfile.ColumnChunkReader, plan columnPlan, numRows int64) ([]any, error) {
	name := plan.field.Name
	defLevels := make([]int16, numRows)

	switch typed := cr.(type) {
	case *pqfile.BooleanColumnChunkReader:
		vals := make([]bool, numRows)
		_, _, err := typed.ReadBatch(numRows, vals, defLevels, nil)
		if err != nil {
			return nil, wrapReadErr(err, name)
		}
		return fillColumn(plan.field, defLevels, numRows, func(i int) any { return vals[i] }), nil

	case *pqfile.Int32ColumnChunkReader:
		vals := make([]int32, numRows)
		_, _, err := typed.ReadBatch(numRows, vals, defLevels, nil)
		if err != nil {
			return nil, wrapReadErr(err, name)
		}
		return fillColumn(plan.field, defLevels, numRows, func(i int) any { return fromInt32(vals[i], plan.field) }), nil

	case *pqfile.Int64ColumnChunkReader:
		vals := make([]int64, numRows)
		_, _, err := typed.ReadBatch(numRows, vals, defLevels, nil)
		if err != nil {
			return nil, wrapReadErr(err, name)
		}
		return fillColumn(plan.field, defLevels, numRows, func(i int) any { return fromInt64(vals[i], plan.field) }), nil

	case *pqfile.Float32ColumnChunkReader:
		vals := make([]float32, numRows)
		_, _, err := typed.ReadBatch(numRows, vals, defLevels, nil)
		if err != nil {
			return nil, wrapReadErr(err, name)
		}
		return fillColumn(plan.field, defLevels, numRows, func(i int) any { return vals[i] }), nil

	case *pqfile.Float64ColumnChunkReader:
		vals := make([]float64, numRows)
		_, _, err := typed.ReadBatch(numRows, vals, defLevels, nil)
		if err != nil {
			return nil, wrapReadErr(err, name)
		}
		return fillColumn(plan.field, defLevels, numRows, func(i int) any { return vals[i] }), nil

	case *pqfile.ByteArrayColumnChunkReader:
		vals := make([]parquet.ByteArray, numRows)
		_, _, err := typed.ReadBatch(numRows, vals, defLevels, nil)
		if err != nil {
			return nil, wrapReadErr(err, name)
		}
		return fillColumn(plan.field, defLevels, numRows, func(i int) any { return fromByteArray(vals[i], plan.field) }), nil

	case *pqfile.FixedLenByteArrayColumnChunkReader:
		vals := make([]parquet.FixedLenByteArray, numRows)
		_, _, err := typed.ReadBatch(numRows, vals, defLevels, nil)
		if err != nil {
			return nil, wrapReadErr(err, name)
		}
		return fillColumn(plan.field, defLevels, numRows, func(i int) any { return fromFixedLenByteArray(vals[i], plan.field) }), nil

	default:
		return nil, errors.New(ErrIOFailed, "unsupported column chunk reader type", nil).AddContext("field", name)
	}
}

// fillColumn maps a column's read-back values to one any per row. A
// REQUIRED column has max definition level 0, so ReadBatch reports every
// row's def level as 0 regardless of whether a value is present — that
// same 0 is what an OPTIONAL column uses to mean "absent". So a required
// column's values, which ReadBatch always packs one-per-row with none
// skipped, are read off directly by row index; only an optional column's
// def levels are interpreted as a presence bitmap against the packed
// vals slice.
func fillColumn(field iceschema.IcebergField, defLevels []int16, numRows int64, at func(int) any) []any {
	out := make([]any, numRows)
	if field.Required {
		for i := range out {
			out[i] = at(i)
		}
		return out
	}
	defined := 0
	for i, d := range defLevels {
		if d == 0 {
			out[i] = nil
			continue
		}
		out[i] = at(defined)
		defined++
	}
	return out
}

func wrapReadErr(err error, field string) error {
	return errors.New(ErrIOFailed, "failed to read column batch", err).AddContext("field", field)
}

func fromInt32(v int32, f iceschema.IcebergField) any {
	switch t := f.Type.(type) {
	case iceberg.DateType:
		return time.Unix(int64(v)*86400, 0).UTC()
	case iceberg.DecimalType:
		return scaledIntToDecimal(int64(v), t)
	}
	return v
}

func fromInt64(v int64, f iceschema.IcebergField) any {
	switch t := f.Type.(type) {
	case iceberg.TimestampType, iceberg.TimestampTzType:
		return time.UnixMicro(v).UTC()
	case iceberg.DecimalType:
		return scaledIntToDecimal(v, t)
	}
	return v
}

// scaledIntToDecimal inverts decimalToScaledInt: v is the unscaled integer
// an INT32/INT64-backed decimal column stores, rescaled by dt's scale.
func scaledIntToDecimal(v int64, dt iceberg.DecimalType) decimal.Decimal {
	return decimal.New(v, -int32(dt.Scale()))
}

func fromByteArray(v parquet.ByteArray, f iceschema.IcebergField) any {
	if _, ok := f.Type.(iceberg.StringType); ok {
		return string(v)
	}
	return []byte(v)
}

func fromFixedLenByteArray(v parquet.FixedLenByteArray, f iceschema.IcebergField) any {
	switch t := f.Type.(type) {
	case iceberg.UUIDType:
		id, err := uuid.FromBytes(v)
		if err != nil {
			return []byte(v)
		}
		return id
	case iceberg.DecimalType:
		return fixedToDecimal([]byte(v), t)
	}
	return []byte(v)
}

// fixedToDecimal inverts decimalToFixed: interprets the bytes as a
// two's-complement big-endian unscaled integer and rescales it.
func fixedToDecimal(b []byte, dt iceberg.DecimalType) decimal.Decimal {
	unscaled := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8))
		unscaled = new(big.Int).Sub(unscaled, mod)
	}
	return decimal.NewFromBigInt(unscaled, -int32(dt.Scale()))
}
