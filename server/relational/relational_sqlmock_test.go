package relational

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// connFromMock wraps a sqlmock-backed *sql.DB the same way Open wraps a
// real driver, for exercising error paths Extract/Upsert take on a driver
// failure without needing a real database.
func connFromMock(t *testing.T) (*Connection, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Connection{DB: bun.NewDB(db, sqlitedialect.New()), Driver: "sqlite"}, mock
}

func TestExtractPropagatesDriverError(t *testing.T) {
	conn, mock := connFromMock(t)
	mock.ExpectQuery(`SELECT \* FROM orders`).WillReturnError(assert.AnError)

	_, err := Extract(context.Background(), conn, "orders", "")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRowExistsPropagatesDriverError(t *testing.T) {
	conn, mock := connFromMock(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM orders WHERE id = \?`).
		WithArgs(1).
		WillReturnError(assert.AnError)

	_, err := rowExists(context.Background(), conn, "orders", "id", 1)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
