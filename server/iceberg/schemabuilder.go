package iceberg

import (
	"github.com/apache/iceberg-go"
)

// BuildSchema assigns sequential, stable field-IDs (1..N) in declaration
// order to the given field specs and returns the resulting schema. It
// never reorders or deduplicates fields: the i-th input spec becomes the
// field with ID i.
func BuildSchema(specs []FieldSpec) *IcebergSchema {
	fields := make([]iceberg.NestedField, len(specs))
	for i, spec := range specs {
		fields[i] = iceberg.NestedField{
			ID:       i + 1,
			Name:     spec.Name,
			Type:     spec.Type,
			Required: spec.Required,
		}
	}
	return iceberg.NewSchema(0, fields...)
}

// LastColumnID returns the highest field-ID in the schema, which table
// metadata records as last_column_id.
func LastColumnID(schema *IcebergSchema) int {
	max := 0
	for _, f := range schema.Fields() {
		if f.ID > max {
			max = f.ID
		}
	}
	return max
}
