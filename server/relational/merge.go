package relational

import (
	"context"
	"strings"

	"github.com/brightloom/icebridge/pkg/errors"
	"github.com/brightloom/icebridge/server/parquetio"
)

// MergeResult reports how many rows a merge strategy inserted or updated.
type MergeResult struct {
	Inserted int
	Updated  int
}

// Upsert applies rows to targetTable: a row whose primaryKeyColumn value
// already exists in the target has its non-key columns updated; otherwise
// it is inserted. Deterministic regardless of target row ordering, since
// each row is resolved independently by primary-key lookup rather than by
// a batched diff.
func Upsert(ctx context.Context, conn *Connection, targetTable, primaryKeyColumn string, rows []parquetio.Row) (MergeResult, error) {
	var result MergeResult
	for _, row := range rows {
		exists, err := rowExists(ctx, conn, targetTable, primaryKeyColumn, row[primaryKeyColumn])
		if err != nil {
			return result, err
		}
		if exists {
			if err := updateRow(ctx, conn, targetTable, primaryKeyColumn, row); err != nil {
				return result, err
			}
			result.Updated++
		} else {
			if err := insertRow(ctx, conn, targetTable, row); err != nil {
				return result, err
			}
			result.Inserted++
		}
	}
	return result, nil
}

// Append inserts only rows whose primaryKeyColumn value is absent from
// the target; it never updates an existing row.
func Append(ctx context.Context, conn *Connection, targetTable, primaryKeyColumn string, rows []parquetio.Row) (MergeResult, error) {
	var result MergeResult
	for _, row := range rows {
		exists, err := rowExists(ctx, conn, targetTable, primaryKeyColumn, row[primaryKeyColumn])
		if err != nil {
			return result, err
		}
		if exists {
			continue
		}
		if err := insertRow(ctx, conn, targetTable, row); err != nil {
			return result, err
		}
		result.Inserted++
	}
	return result, nil
}

func rowExists(ctx context.Context, conn *Connection, table, primaryKeyColumn string, pkValue any) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM " + table + " WHERE " + primaryKeyColumn + " = ?"
	if err := conn.DB.QueryRowContext(ctx, query, pkValue).Scan(&count); err != nil {
		return false, errors.New(ErrConnectionFailed, "failed to check row existence", err).AddContext("table", table)
	}
	return count > 0, nil
}

func updateRow(ctx context.Context, conn *Connection, table, primaryKeyColumn string, row parquetio.Row) error {
	var setClauses []string
	var vals []any
	for name, v := range row {
		if name == primaryKeyColumn {
			continue
		}
		setClauses = append(setClauses, name+" = ?")
		vals = append(vals, v)
	}
	if len(setClauses) == 0 {
		return nil
	}
	vals = append(vals, row[primaryKeyColumn])

	query := "UPDATE " + table + " SET " + strings.Join(setClauses, ", ") + " WHERE " + primaryKeyColumn + " = ?"
	if _, err := conn.DB.ExecContext(ctx, query, vals...); err != nil {
		return errors.New(ErrConnectionFailed, "failed to update row", err).AddContext("table", table)
	}
	return nil
}
