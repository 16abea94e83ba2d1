package iceberg

import (
	"strings"

	"github.com/apache/iceberg-go"
	"github.com/brightloom/icebridge/pkg/errors"
)

var ErrUnsupportedType = errors.MustNewCode("iceberg.unsupported_type")

// MapColumnType maps a relational column descriptor to an Iceberg type.
// The mapping is total over the supported set: an unrecognized SourceType
// fails with ErrUnsupportedType rather than falling through to string.
func MapColumnType(col ColumnDescriptor) (IcebergType, error) {
	t := strings.ToLower(strings.TrimSpace(col.SourceType))

	switch t {
	case "bit", "boolean", "bool":
		return iceberg.PrimitiveTypes.Bool, nil

	// Integers of 32 bits or narrower map to int.
	case "tinyint", "smallint", "int8", "int16", "int2", "int4", "integer", "int", "int32", "serial":
		return iceberg.PrimitiveTypes.Int32, nil

	// 64-bit integers map to long.
	case "bigint", "int64", "bigserial", "long":
		return iceberg.PrimitiveTypes.Int64, nil

	case "real", "float", "float4", "float32", "single":
		return iceberg.PrimitiveTypes.Float32, nil

	case "double", "double precision", "float8", "float64":
		return iceberg.PrimitiveTypes.Float64, nil

	case "money":
		return iceberg.DecimalTypeOf(19, 4), nil
	case "smallmoney":
		return iceberg.DecimalTypeOf(10, 4), nil

	case "decimal", "numeric":
		if col.Precision <= 0 {
			return nil, errors.New(ErrUnsupportedType, "decimal/numeric column missing precision", nil).
				AddContext("column", col.Name)
		}
		return iceberg.DecimalTypeOf(col.Precision, col.Scale), nil

	case "char", "varchar", "nchar", "nvarchar", "text", "ntext", "clob", "longtext", "mediumtext", "tinytext", "string":
		return iceberg.PrimitiveTypes.String, nil

	case "binary", "varbinary", "blob", "bytea", "longblob", "image", "bytes":
		return iceberg.PrimitiveTypes.Binary, nil

	case "uuid", "uniqueidentifier", "guid":
		return iceberg.PrimitiveTypes.UUID, nil

	case "date":
		return iceberg.PrimitiveTypes.Date, nil

	case "datetime", "datetime2", "smalldatetime", "timestamp", "timestamp without time zone":
		return iceberg.PrimitiveTypes.Timestamp, nil

	case "timestamptz", "timestamp with time zone", "datetimeoffset":
		return iceberg.PrimitiveTypes.TimestampTz, nil

	// Explicitly unsupported: XML, variant/union, UDT, table-valued,
	// opaque driver-internal timestamp kinds.
	case "xml", "variant", "sql_variant", "union", "udt", "user-defined",
		"table", "table type", "table-valued", "cursor", "hierarchyid", "rowversion", "timestamp_internal":
		return nil, errors.New(ErrUnsupportedType, "source type has no Iceberg equivalent", nil).
			AddContext("column", col.Name).
			AddContext("source_type", col.SourceType)

	default:
		return nil, errors.New(ErrUnsupportedType, "unrecognized source column type", nil).
			AddContext("column", col.Name).
			AddContext("source_type", col.SourceType)
	}
}
