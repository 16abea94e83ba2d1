// Package transfer implements Transfer Configuration (C14): parsing and
// validating the `{transfer_type, source, destination, ...}` document
// that describes one data movement.
package transfer

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/brightloom/icebridge/pkg/errors"
)

var (
	ErrConfigParseFailed = errors.MustNewCode("transfer.config_parse_failed")
	ErrConfigInvalid     = errors.MustNewCode("transfer.config_invalid")
)

// Type is the recognized transfer_type discriminator.
type Type string

const (
	SQLToSQL                Type = "sql_to_sql"
	SQLToParquet            Type = "sql_to_parquet"
	ParquetToSQL            Type = "parquet_to_sql"
	SQLToIceberg            Type = "sql_to_iceberg"
	IcebergToSQL            Type = "iceberg_to_sql"
	SQLToIcebergIncremental Type = "sql_to_iceberg_incremental"
)

// MergeStrategy selects how an incremental sync applies rows to the
// destination.
type MergeStrategy string

const (
	MergeUpsert MergeStrategy = "upsert"
	MergeAppend MergeStrategy = "append"
)

// WatermarkType selects how the last-synced watermark value is compared.
type WatermarkType string

const (
	WatermarkTimestamp WatermarkType = "timestamp"
	WatermarkInteger   WatermarkType = "integer"
)

// Incremental holds the additional fields sql_to_iceberg_incremental
// requires on its destination.iceberg block.
type Incremental struct {
	PrimaryKeyColumn string
	WatermarkColumn  string
	MergeStrategy    MergeStrategy
	WatermarkType    WatermarkType
}

// Source describes where rows are read from.
type Source struct {
	Connection  string
	Table       string
	ParquetPath string
	IcebergName string
}

// Destination describes where rows are written to.
type Destination struct {
	Connection  string
	Table       string
	ParquetPath string
	IcebergName string
	Incremental *Incremental
}

// Config is one validated transfer description.
type Config struct {
	TransferType Type
	Source       Source
	Destination  Destination
	RowLimit     *int
	WhereClause  string
}

var sqlInjectionMarkers = []string{
	";--", "DROP", "DELETE", "TRUNCATE", "ALTER", "CREATE", "EXEC", "EXECUTE", "XP_",
}

// Parse reads a YAML transfer document, sniffs transfer_type to decide
// which fields are required, and returns a validated Config. YAML is
// decoded generically first, then round-tripped through JSON so gjson
// can query the polymorphic destination.iceberg/incremental shape before
// a single required field is asserted — the conventional approach for a
// discriminated-union document whose required fields depend on another
// field's value.
func Parse(yamlDoc []byte) (*Config, error) {
	var generic any
	if err := yaml.Unmarshal(yamlDoc, &generic); err != nil {
		return nil, errors.New(ErrConfigParseFailed, "failed to parse transfer yaml", err)
	}
	jsonDoc, err := json.Marshal(normalizeForJSON(generic))
	if err != nil {
		return nil, errors.New(ErrConfigParseFailed, "failed to normalize transfer document", err)
	}
	root := gjson.ParseBytes(jsonDoc)

	transferType := Type(root.Get("transfer_type").String())
	cfg := &Config{TransferType: transferType}

	if v := root.Get("row_limit"); v.Exists() {
		n := int(v.Int())
		if n <= 0 || !v.IsNumber() {
			return nil, invalidField("row_limit", "must be a positive integer")
		}
		cfg.RowLimit = &n
	}
	if v := root.Get("where_clause"); v.Exists() {
		clause := v.String()
		if err := validateWhereClause(clause); err != nil {
			return nil, err
		}
		cfg.WhereClause = clause
	}

	cfg.Source = Source{
		Connection:  root.Get("source.connection").String(),
		Table:       root.Get("source.table").String(),
		ParquetPath: root.Get("source.parquet_path").String(),
		IcebergName: root.Get("source.iceberg.table_name").String(),
	}
	cfg.Destination = Destination{
		Connection:  root.Get("destination.connection").String(),
		Table:       root.Get("destination.table").String(),
		ParquetPath: root.Get("destination.parquet_path").String(),
		IcebergName: root.Get("destination.iceberg.table_name").String(),
	}

	if incr := root.Get("destination.iceberg.incremental"); incr.Exists() {
		mergeStrategy := MergeStrategy(incr.Get("merge_strategy").String())
		if mergeStrategy == "" {
			mergeStrategy = MergeUpsert
		}
		watermarkType := WatermarkType(incr.Get("watermark_type").String())
		if watermarkType == "" {
			watermarkType = WatermarkTimestamp
		}
		cfg.Destination.Incremental = &Incremental{
			PrimaryKeyColumn: incr.Get("primary_key_column").String(),
			WatermarkColumn:  incr.Get("watermark_column").String(),
			MergeStrategy:    mergeStrategy,
			WatermarkType:    watermarkType,
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports a precise field name for every missing or
// wrong-typed field the recognized transfer_type requires.
func (c *Config) Validate() error {
	switch c.TransferType {
	case SQLToSQL:
		return requireAll(
			field{"source.connection", c.Source.Connection},
			field{"source.table", c.Source.Table},
			field{"destination.connection", c.Destination.Connection},
			field{"destination.table", c.Destination.Table},
		)
	case SQLToParquet:
		return requireAll(
			field{"source.connection", c.Source.Connection},
			field{"source.table", c.Source.Table},
			field{"destination.parquet_path", c.Destination.ParquetPath},
		)
	case ParquetToSQL:
		return requireAll(
			field{"source.parquet_path", c.Source.ParquetPath},
			field{"destination.connection", c.Destination.Connection},
			field{"destination.table", c.Destination.Table},
		)
	case SQLToIceberg:
		return requireAll(
			field{"source.connection", c.Source.Connection},
			field{"source.table", c.Source.Table},
			field{"destination.iceberg.table_name", c.Destination.IcebergName},
		)
	case IcebergToSQL:
		return requireAll(
			field{"source.iceberg.table_name", c.Source.IcebergName},
			field{"destination.connection", c.Destination.Connection},
			field{"destination.table", c.Destination.Table},
		)
	case SQLToIcebergIncremental:
		if err := requireAll(
			field{"source.connection", c.Source.Connection},
			field{"source.table", c.Source.Table},
			field{"destination.iceberg.table_name", c.Destination.IcebergName},
		); err != nil {
			return err
		}
		if c.Destination.Incremental == nil {
			return invalidField("destination.iceberg.incremental", "is required")
		}
		return requireAll(
			field{"destination.iceberg.incremental.primary_key_column", c.Destination.Incremental.PrimaryKeyColumn},
			field{"destination.iceberg.incremental.watermark_column", c.Destination.Incremental.WatermarkColumn},
		)
	default:
		return invalidField("transfer_type", "unrecognized value "+string(c.TransferType))
	}
}

type field struct {
	name  string
	value string
}

func requireAll(fields ...field) error {
	for _, f := range fields {
		if f.value == "" {
			return invalidField(f.name, "is required")
		}
	}
	return nil
}

func invalidField(name, reason string) error {
	return errors.New(ErrConfigInvalid, "invalid transfer configuration field", nil).
		AddContext("field", name).AddContext("reason", reason)
}

func validateWhereClause(clause string) error {
	upper := strings.ToUpper(clause)
	for _, marker := range sqlInjectionMarkers {
		if strings.Contains(upper, marker) {
			return invalidField("where_clause", "contains disallowed keyword "+marker)
		}
	}
	return nil
}

// normalizeForJSON walks a yaml.v3-decoded document so json.Marshal never
// chokes on a map nested under a sequence.
func normalizeForJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeForJSON(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeForJSON(val)
		}
		return out
	default:
		return v
	}
}
