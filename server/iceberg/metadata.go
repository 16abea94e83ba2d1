package iceberg

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/apache/iceberg-go"
	"github.com/google/uuid"
)

// Snapshot is a single committed point in a table's history.
type Snapshot struct {
	SnapshotID   int64  `json:"snapshot-id"`
	TimestampMs  int64  `json:"timestamp-ms"`
	ManifestList string `json:"manifest-list"` // table-relative path
}

// fieldDoc is the JSON shape of a single schema field, hyphenated per the
// Iceberg v2 spec.
type fieldDoc struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Type     string `json:"type"`
}

// schemaDoc is the JSON shape of one entry in TableMetadata.Schemas. This
// project's Type Mapper (C1) only ever produces primitive Iceberg types, so
// the type column renders as its canonical Iceberg string form (e.g. "long",
// "decimal(18,4)", "fixed[16]") rather than a nested struct/list/map object.
type schemaDoc struct {
	SchemaID int        `json:"schema-id"`
	Fields   []fieldDoc `json:"fields"`
}

func toSchemaDoc(schemaID int, schema *IcebergSchema) schemaDoc {
	fields := make([]fieldDoc, 0, len(schema.Fields()))
	for _, f := range schema.Fields() {
		fields = append(fields, fieldDoc{
			ID:       f.ID,
			Name:     f.Name,
			Required: f.Required,
			Type:     f.Type.String(),
		})
	}
	return schemaDoc{SchemaID: schemaID, Fields: fields}
}

func (d schemaDoc) toSchema() (*IcebergSchema, error) {
	fields := make([]iceberg.NestedField, 0, len(d.Fields))
	for _, f := range d.Fields {
		t, err := ParseTypeString(f.Type)
		if err != nil {
			return nil, fmt.Errorf("schema field %q: %w", f.Name, err)
		}
		fields = append(fields, iceberg.NestedField{
			ID:       f.ID,
			Name:     f.Name,
			Type:     t,
			Required: f.Required,
		})
	}
	return iceberg.NewSchema(d.SchemaID, fields...), nil
}

var fixedPattern = regexp.MustCompile(`^fixed\[(\d+)\]$`)
var decimalPattern = regexp.MustCompile(`^decimal\((\d+),\s*(\d+)\)$`)

// ParseTypeString parses a canonical Iceberg primitive type string (as
// produced by iceberg.Type.String()) back into an IcebergType. Only the
// primitive/decimal/fixed vocabulary the Type Mapper (C1) can produce is
// supported; list/map/struct are out of scope.
func ParseTypeString(s string) (IcebergType, error) {
	switch s {
	case "boolean":
		return iceberg.PrimitiveTypes.Bool, nil
	case "int":
		return iceberg.PrimitiveTypes.Int32, nil
	case "long":
		return iceberg.PrimitiveTypes.Int64, nil
	case "float":
		return iceberg.PrimitiveTypes.Float32, nil
	case "double":
		return iceberg.PrimitiveTypes.Float64, nil
	case "string":
		return iceberg.PrimitiveTypes.String, nil
	case "binary":
		return iceberg.PrimitiveTypes.Binary, nil
	case "uuid":
		return iceberg.PrimitiveTypes.UUID, nil
	case "date":
		return iceberg.PrimitiveTypes.Date, nil
	case "time":
		return iceberg.PrimitiveTypes.Time, nil
	case "timestamp":
		return iceberg.PrimitiveTypes.Timestamp, nil
	case "timestamptz":
		return iceberg.PrimitiveTypes.TimestampTz, nil
	}

	if m := fixedPattern.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return iceberg.FixedTypeOf(n), nil
	}
	if m := decimalPattern.FindStringSubmatch(s); m != nil {
		p, _ := strconv.Atoi(m[1])
		sc, _ := strconv.Atoi(m[2])
		return iceberg.DecimalTypeOf(p, sc), nil
	}

	return nil, fmt.Errorf("unrecognized iceberg type string %q", s)
}

// TableMetadata is the root v{N}.metadata.json document, Iceberg v2 shape.
type TableMetadata struct {
	FormatVersion     int         `json:"format-version"`
	TableUUID         string      `json:"table-uuid"`
	Location          string      `json:"location"`
	LastUpdatedMs     int64       `json:"last-updated-ms"`
	LastColumnID      int         `json:"last-column-id"`
	Schemas           []schemaDoc `json:"schemas"`
	CurrentSchemaID   int         `json:"current-schema-id"`
	PartitionSpecs    []any       `json:"partition-specs"`
	DefaultSpecID     int         `json:"default-spec-id"`
	LastPartitionID   int         `json:"last-partition-id"`
	Snapshots         []Snapshot  `json:"snapshots"`
	CurrentSnapshotID *int64      `json:"current-snapshot-id"`

	schema *IcebergSchema // cached decoded current schema
}

// CreateInitial builds the first TableMetadata for a freshly created table,
// with a single schema and a single snapshot pointing at manifestListPath.
func CreateInitial(schema *IcebergSchema, location, manifestListPath string, snapshotID int64) *TableMetadata {
	now := time.Now().UnixMilli()
	sid := snapshotID

	return &TableMetadata{
		FormatVersion:   2,
		TableUUID:       uuid.NewString(),
		Location:        location,
		LastUpdatedMs:   now,
		LastColumnID:    LastColumnID(schema),
		Schemas:         []schemaDoc{toSchemaDoc(0, schema)},
		CurrentSchemaID: 0,
		PartitionSpecs:  []any{defaultPartitionSpec()},
		DefaultSpecID:   0,
		LastPartitionID: 0,
		Snapshots: []Snapshot{{
			SnapshotID:   snapshotID,
			TimestampMs:  now,
			ManifestList: manifestListPath,
		}},
		CurrentSnapshotID: &sid,
		schema:            schema,
	}
}

// AddSnapshot returns a new TableMetadata with newSnapshotID appended to the
// snapshot history and promoted to current. Schema, UUID, and location are
// carried over verbatim; no prior snapshot is ever dropped.
func AddSnapshot(existing *TableMetadata, newSnapshotID int64, manifestListPath string) *TableMetadata {
	now := time.Now().UnixMilli()
	sid := newSnapshotID

	snapshots := make([]Snapshot, len(existing.Snapshots), len(existing.Snapshots)+1)
	copy(snapshots, existing.Snapshots)
	snapshots = append(snapshots, Snapshot{
		SnapshotID:   newSnapshotID,
		TimestampMs:  now,
		ManifestList: manifestListPath,
	})

	next := *existing
	next.Snapshots = snapshots
	next.CurrentSnapshotID = &sid
	next.LastUpdatedMs = now
	return &next
}

// CurrentSchema decodes and returns the schema registered for
// CurrentSchemaID, caching the result.
func (m *TableMetadata) CurrentSchema() (*IcebergSchema, error) {
	if m.schema != nil {
		return m.schema, nil
	}
	for _, s := range m.Schemas {
		if s.SchemaID == m.CurrentSchemaID {
			schema, err := s.toSchema()
			if err != nil {
				return nil, err
			}
			m.schema = schema
			return schema, nil
		}
	}
	return nil, fmt.Errorf("no schema registered for current-schema-id %d", m.CurrentSchemaID)
}

// SnapshotByID returns the snapshot with the given id, or nil if absent.
func (m *TableMetadata) SnapshotByID(id int64) *Snapshot {
	for i := range m.Snapshots {
		if m.Snapshots[i].SnapshotID == id {
			return &m.Snapshots[i]
		}
	}
	return nil
}

// CurrentSnapshot returns the snapshot identified by CurrentSnapshotID, or
// nil for an empty table with no committed data.
func (m *TableMetadata) CurrentSnapshot() *Snapshot {
	if m.CurrentSnapshotID == nil {
		return nil
	}
	return m.SnapshotByID(*m.CurrentSnapshotID)
}

// MarshalJSON and UnmarshalJSON use an alias to avoid infinite recursion
// while still round-tripping the unexported schema cache correctly: the
// cache is simply dropped on marshal and lazily rebuilt on first
// CurrentSchema() call after unmarshal.
func (m *TableMetadata) MarshalJSON() ([]byte, error) {
	type alias TableMetadata
	return json.Marshal((*alias)(m))
}

func (m *TableMetadata) UnmarshalJSON(data []byte) error {
	type alias TableMetadata
	a := (*alias)(m)
	if err := json.Unmarshal(data, a); err != nil {
		return err
	}
	m.schema = nil
	return nil
}

// defaultPartitionSpec is the unpartitioned spec (spec-id 0, no fields),
// the only partition spec this project produces.
func defaultPartitionSpec() map[string]any {
	return map[string]any{
		"spec-id": 0,
		"fields":  []any{},
	}
}
