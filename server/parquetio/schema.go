// Package parquetio implements the Parquet Writer (C3): buffering rows in
// memory and flushing them as row groups of an Iceberg-compatible Parquet
// file, with every primitive column node carrying its Iceberg field-ID.
package parquetio

import (
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/parquet"
	pqschema "github.com/apache/arrow-go/v18/parquet/schema"
	"github.com/apache/iceberg-go"
	iceschema "github.com/brightloom/icebridge/server/iceberg"
	"github.com/brightloom/icebridge/pkg/errors"
)

var ErrUnsupportedType = errors.MustNewCode("parquetio.unsupported_type")

// columnPlan pairs a physical column-node builder with the conversion logic
// needed to turn a Go row value into the typed batch WriteBatch expects.
type columnPlan struct {
	field    iceschema.IcebergField
	physical parquet.Type
}

// buildGroupNode translates an IcebergSchema into the low-level Parquet
// schema.GroupNode, annotating every leaf with its Iceberg field-ID via
// NewPrimitiveNodeLogical/NewPrimitiveNodeConverted's fieldID parameter —
// the same API the Iceberg spec requires readers match columns on.
func buildGroupNode(schema *iceschema.IcebergSchema) (*pqschema.GroupNode, []columnPlan, error) {
	fields := schema.Fields()
	nodes := make(pqschema.FieldList, len(fields))
	plans := make([]columnPlan, len(fields))

	for i, f := range fields {
		node, physical, err := buildPrimitiveNode(f)
		if err != nil {
			return nil, nil, err
		}
		nodes[i] = node
		plans[i] = columnPlan{field: f, physical: physical}
	}

	group := pqschema.MustGroup(pqschema.NewGroupNode("schema", parquet.Repetitions.Required, nodes, -1))
	return group, plans, nil
}

func repetitionOf(required bool) parquet.Repetition {
	if required {
		return parquet.Repetitions.Required
	}
	return parquet.Repetitions.Optional
}

// decimalParquetEncoding chooses the physical representation for a decimal
// of the given precision, per the spec's physical type table.
func decimalParquetEncoding(precision int) (parquet.Type, int) {
	switch {
	case precision <= 9:
		return parquet.Types.Int32, 0
	case precision <= 18:
		return parquet.Types.Int64, 0
	default:
		length := int(math.Ceil(float64(precision) * math.Log2(10) / 8))
		return parquet.Types.FixedLenByteArray, length
	}
}

func buildPrimitiveNode(f iceschema.IcebergField) (pqschema.Node, parquet.Type, error) {
	rep := repetitionOf(f.Required)
	id := f.ID

	switch t := f.Type.(type) {
	case iceberg.BooleanType:
		n, err := pqschema.NewPrimitiveNode(f.Name, rep, parquet.Types.Boolean, -1, id)
		return n, parquet.Types.Boolean, err
	case iceberg.Int32Type:
		n, err := pqschema.NewPrimitiveNode(f.Name, rep, parquet.Types.Int32, -1, id)
		return n, parquet.Types.Int32, err
	case iceberg.Int64Type:
		n, err := pqschema.NewPrimitiveNode(f.Name, rep, parquet.Types.Int64, -1, id)
		return n, parquet.Types.Int64, err
	case iceberg.Float32Type:
		n, err := pqschema.NewPrimitiveNode(f.Name, rep, parquet.Types.Float, -1, id)
		return n, parquet.Types.Float, err
	case iceberg.Float64Type:
		n, err := pqschema.NewPrimitiveNode(f.Name, rep, parquet.Types.Double, -1, id)
		return n, parquet.Types.Double, err
	case iceberg.StringType:
		n, err := pqschema.NewPrimitiveNodeConverted(f.Name, rep, parquet.Types.ByteArray, pqschema.ConvertedTypes.UTF8, 0, 0, 0, id)
		return n, parquet.Types.ByteArray, err
	case iceberg.BinaryType:
		n, err := pqschema.NewPrimitiveNode(f.Name, rep, parquet.Types.ByteArray, -1, id)
		return n, parquet.Types.ByteArray, err
	case iceberg.UUIDType:
		n, err := pqschema.NewPrimitiveNodeLogical(f.Name, rep, pqschema.UUIDLogicalType{}, parquet.Types.FixedLenByteArray, 16, id)
		return n, parquet.Types.FixedLenByteArray, err
	case iceberg.DateType:
		n, err := pqschema.NewPrimitiveNodeLogical(f.Name, rep, pqschema.DateLogicalType{}, parquet.Types.Int32, 0, id)
		return n, parquet.Types.Int32, err
	case iceberg.TimestampType:
		n, err := pqschema.NewPrimitiveNodeLogical(f.Name, rep, pqschema.NewTimestampLogicalType(false, pqschema.TimeUnitMicros), parquet.Types.Int64, 0, id)
		return n, parquet.Types.Int64, err
	case iceberg.TimestampTzType:
		n, err := pqschema.NewPrimitiveNodeLogical(f.Name, rep, pqschema.NewTimestampLogicalType(true, pqschema.TimeUnitMicros), parquet.Types.Int64, 0, id)
		return n, parquet.Types.Int64, err
	case iceberg.DecimalType:
		physical, length := decimalParquetEncoding(t.Precision())
		logical := pqschema.NewDecimalLogicalType(int32(t.Precision()), int32(t.Scale()))
		n, err := pqschema.NewPrimitiveNodeLogical(f.Name, rep, logical, physical, length, id)
		return n, physical, err
	case iceberg.FixedType:
		n, err := pqschema.NewPrimitiveNode(f.Name, rep, parquet.Types.FixedLenByteArray, t.Len(), id)
		return n, parquet.Types.FixedLenByteArray, err
	default:
		return nil, parquet.Types.ByteArray, errors.New(ErrUnsupportedType, "iceberg type has no parquet physical mapping", nil).
			AddContext("field", f.Name).
			AddContext("type", fmt.Sprintf("%T", f.Type))
	}
}
