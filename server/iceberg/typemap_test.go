package iceberg

import (
	"testing"

	"github.com/apache/iceberg-go"
	"github.com/brightloom/icebridge/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapColumnTypeExhaustive(t *testing.T) {
	cases := []struct {
		desc     ColumnDescriptor
		expected IcebergType
	}{
		{ColumnDescriptor{SourceType: "bool"}, iceberg.PrimitiveTypes.Bool},
		{ColumnDescriptor{SourceType: "smallint"}, iceberg.PrimitiveTypes.Int32},
		{ColumnDescriptor{SourceType: "bigint"}, iceberg.PrimitiveTypes.Int64},
		{ColumnDescriptor{SourceType: "real"}, iceberg.PrimitiveTypes.Float32},
		{ColumnDescriptor{SourceType: "double"}, iceberg.PrimitiveTypes.Float64},
		{ColumnDescriptor{SourceType: "varchar"}, iceberg.PrimitiveTypes.String},
		{ColumnDescriptor{SourceType: "varbinary"}, iceberg.PrimitiveTypes.Binary},
		{ColumnDescriptor{SourceType: "uuid"}, iceberg.PrimitiveTypes.UUID},
		{ColumnDescriptor{SourceType: "date"}, iceberg.PrimitiveTypes.Date},
		{ColumnDescriptor{SourceType: "datetime"}, iceberg.PrimitiveTypes.Timestamp},
		{ColumnDescriptor{SourceType: "timestamptz"}, iceberg.PrimitiveTypes.TimestampTz},
	}

	for _, c := range cases {
		got, err := MapColumnType(c.desc)
		require.NoError(t, err, c.desc.SourceType)
		assert.Equal(t, c.expected, got, c.desc.SourceType)
	}
}

func TestMapColumnTypeDecimal(t *testing.T) {
	got, err := MapColumnType(ColumnDescriptor{SourceType: "decimal", Precision: 18, Scale: 4})
	require.NoError(t, err)
	assert.Equal(t, iceberg.DecimalTypeOf(18, 4), got)
}

func TestMapColumnTypeCurrency(t *testing.T) {
	money, err := MapColumnType(ColumnDescriptor{SourceType: "money"})
	require.NoError(t, err)
	assert.Equal(t, iceberg.DecimalTypeOf(19, 4), money)

	smallmoney, err := MapColumnType(ColumnDescriptor{SourceType: "smallmoney"})
	require.NoError(t, err)
	assert.Equal(t, iceberg.DecimalTypeOf(10, 4), smallmoney)
}

func TestMapColumnTypeUnsupported(t *testing.T) {
	for _, src := range []string{"xml", "variant", "udt", "table-valued", "rowversion", "something_unknown"} {
		_, err := MapColumnType(ColumnDescriptor{SourceType: src})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedType), src)
	}
}

func TestMapColumnTypeDecimalMissingPrecision(t *testing.T) {
	_, err := MapColumnType(ColumnDescriptor{SourceType: "decimal"})
	require.Error(t, err)
}
