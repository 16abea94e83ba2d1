// Package iceberg implements the data model and the C1/C2/C6 components:
// mapping relational column descriptors to Iceberg types, building schemas
// with stable field-IDs, and constructing/evolving table metadata.
package iceberg

import (
	"github.com/apache/iceberg-go"
)

// IcebergType is represented directly by the real Iceberg type system
// (iceberg.Type), so that every downstream consumer — the Parquet writer,
// the Avro manifest writer, the metadata builder — works against the same
// vocabulary a real Iceberg reader would recognize.
type IcebergType = iceberg.Type

// IcebergField mirrors iceberg.NestedField; kept as a distinct name in this
// package's public API so callers don't need to import apache/iceberg-go
// themselves for the common case.
type IcebergField = iceberg.NestedField

// IcebergSchema mirrors iceberg.Schema.
type IcebergSchema = iceberg.Schema

// ColumnDescriptor is the relational source's description of a single
// column, the input to the Type Mapper (C1).
type ColumnDescriptor struct {
	Name          string
	SourceType    string // driver/vendor-specific type name, lowercased
	Precision     int    // meaningful for decimal/numeric types
	Scale         int    // meaningful for decimal/numeric types
	Nullable      bool
	WithTimeZone  bool // meaningful for timestamp types
}

// FieldSpec is the Schema Builder's input: a mapped type plus the column
// name and nullability, in source declaration order.
type FieldSpec struct {
	Name     string
	Type     IcebergType
	Required bool
}
