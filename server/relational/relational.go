// Package relational implements the Relational Connector (C13):
// database/sql-based extraction and loading over sqlite and DuckDB, plus
// the Merge Strategies (C11) that apply an extracted rowset to a target
// table.
package relational

import (
	"context"
	"database/sql"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/brightloom/icebridge/pkg/errors"
	iceschema "github.com/brightloom/icebridge/server/iceberg"
	"github.com/brightloom/icebridge/server/parquetio"
)

var ErrConnectionFailed = errors.MustNewCode("relational.connection_failed")

// Connection wraps a bun.DB over either sqlite or DuckDB, selected by the
// connection string's scheme.
type Connection struct {
	DB     *bun.DB
	Driver string
}

// Open dials a connection string of the form "sqlite://path/to.db" or
// "duckdb://path/to.db" (a bare path defaults to sqlite, matching the
// teacher's own sqlite-by-default catalog convention).
func Open(connectionString string) (*Connection, error) {
	driver, dsn := splitScheme(connectionString)

	switch driver {
	case "duckdb":
		sqldb, err := sql.Open("duckdb", dsn)
		if err != nil {
			return nil, errors.New(ErrConnectionFailed, "failed to open duckdb connection", err).AddContext("dsn", dsn)
		}
		// bun's sqlite dialect covers the parts of DuckDB's SQL surface
		// this connector needs (standard SELECT/INSERT/parameter binding);
		// DuckDB has no bun dialect of its own in the pack.
		return &Connection{DB: bun.NewDB(sqldb, sqlitedialect.New()), Driver: "duckdb"}, nil
	default:
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		sqldb, err := sql.Open("sqlite3", dsn+sep+"_foreign_keys=on")
		if err != nil {
			return nil, errors.New(ErrConnectionFailed, "failed to open sqlite connection", err).AddContext("dsn", dsn)
		}
		return &Connection{DB: bun.NewDB(sqldb, sqlitedialect.New()), Driver: "sqlite"}, nil
	}
}

func splitScheme(connectionString string) (driver, dsn string) {
	if rest, ok := strings.CutPrefix(connectionString, "duckdb://"); ok {
		return "duckdb", rest
	}
	if rest, ok := strings.CutPrefix(connectionString, "sqlite://"); ok {
		return "sqlite", rest
	}
	return "sqlite", connectionString
}

// Close closes the underlying database handle.
func (c *Connection) Close() error {
	return c.DB.Close()
}

// Extract runs "SELECT * FROM table [WHERE predicate]" and returns every
// matching row as a name→typed-value map, per the Extractor contract.
func Extract(ctx context.Context, conn *Connection, table string, predicate string) ([]parquetio.Row, error) {
	query := "SELECT * FROM " + table
	if predicate != "" {
		query += " WHERE " + predicate
	}

	rows, err := conn.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.New(ErrConnectionFailed, "failed to extract rows", err).AddContext("table", table)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.New(ErrConnectionFailed, "failed to read result columns", err).AddContext("table", table)
	}

	var out []parquetio.Row
	for rows.Next() {
		scanTargets := make([]any, len(cols))
		scanPtrs := make([]any, len(cols))
		for i := range scanTargets {
			scanPtrs[i] = &scanTargets[i]
		}
		if err := rows.Scan(scanPtrs...); err != nil {
			return nil, errors.New(ErrConnectionFailed, "failed to scan row", err).AddContext("table", table)
		}

		row := make(parquetio.Row, len(cols))
		for i, name := range cols {
			row[name] = scanTargets[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New(ErrConnectionFailed, "error iterating extracted rows", err).AddContext("table", table)
	}
	return out, nil
}

// Load bulk-inserts rows into targetTable, one INSERT per row sharing the
// stream's column names, per the Loader contract. Used for append-only
// full or initial loads; incremental merges go through Upsert/Append in
// merge.go instead.
func Load(ctx context.Context, conn *Connection, targetTable string, rows []parquetio.Row) (int, error) {
	inserted := 0
	for _, row := range rows {
		if err := insertRow(ctx, conn, targetTable, row); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func insertRow(ctx context.Context, conn *Connection, table string, row parquetio.Row) error {
	cols, vals, placeholders := columnsValuesPlaceholders(row)
	query := "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(placeholders, ", ") + ")"
	_, err := conn.DB.ExecContext(ctx, query, vals...)
	if err != nil {
		return errors.New(ErrConnectionFailed, "failed to insert row", err).AddContext("table", table)
	}
	return nil
}

func columnsValuesPlaceholders(row parquetio.Row) (cols []string, vals []any, placeholders []string) {
	for name, v := range row {
		cols = append(cols, name)
		vals = append(vals, v)
		placeholders = append(placeholders, "?")
	}
	return cols, vals, placeholders
}

// InferSchema runs a zero-row query against table to read back the
// driver's column type metadata, then maps each column through C1's
// MapColumnType to build the Iceberg schema a sql_to_iceberg or
// sql_to_parquet transfer writes against.
func InferSchema(ctx context.Context, conn *Connection, table string) (*iceschema.IcebergSchema, error) {
	rows, err := conn.DB.QueryContext(ctx, "SELECT * FROM "+table+" WHERE 0 = 1")
	if err != nil {
		return nil, errors.New(ErrConnectionFailed, "failed to query column types", err).AddContext("table", table)
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, errors.New(ErrConnectionFailed, "failed to read column types", err).AddContext("table", table)
	}

	specs := make([]iceschema.FieldSpec, 0, len(colTypes))
	for _, ct := range colTypes {
		nullable, _ := ct.Nullable()
		precision, scale, _ := ct.DecimalSize()
		descriptor := iceschema.ColumnDescriptor{
			Name:       ct.Name(),
			SourceType: ct.DatabaseTypeName(),
			Precision:  int(precision),
			Scale:      int(scale),
			Nullable:   nullable,
		}
		mapped, err := iceschema.MapColumnType(descriptor)
		if err != nil {
			return nil, err
		}
		specs = append(specs, iceschema.FieldSpec{Name: ct.Name(), Type: mapped, Required: !nullable})
	}
	return iceschema.BuildSchema(specs), nil
}
