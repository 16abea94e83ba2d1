package relational

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightloom/icebridge/server/parquetio"
)

func testConn(t *testing.T) *Connection {
	t.Helper()
	conn, err := Open("sqlite://file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	_, err = conn.DB.ExecContext(context.Background(), `CREATE TABLE orders (id INTEGER PRIMARY KEY, name TEXT, amount REAL)`)
	require.NoError(t, err)
	return conn
}

func TestOpenSelectsDriverByScheme(t *testing.T) {
	conn, err := Open("duckdb://:memory:")
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, "duckdb", conn.Driver)

	conn2, err := Open("/tmp/some.db")
	require.NoError(t, err)
	defer conn2.Close()
	assert.Equal(t, "sqlite", conn2.Driver)
}

func TestLoadThenExtractRoundTrips(t *testing.T) {
	conn := testConn(t)
	ctx := context.Background()

	rows := []parquetio.Row{
		{"id": int64(1), "name": "Alice", "amount": 10.5},
		{"id": int64(2), "name": "Bob", "amount": 20.0},
	}
	n, err := Load(ctx, conn, "orders", rows)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := Extract(ctx, conn, "orders", "")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestExtractAppliesPredicate(t *testing.T) {
	conn := testConn(t)
	ctx := context.Background()

	_, err := Load(ctx, conn, "orders", []parquetio.Row{
		{"id": int64(1), "name": "Alice", "amount": 10.5},
		{"id": int64(2), "name": "Bob", "amount": 20.0},
	})
	require.NoError(t, err)

	got, err := Extract(ctx, conn, "orders", "id > 1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bob", got[0]["name"])
}

func TestUpsertInsertsAndUpdates(t *testing.T) {
	conn := testConn(t)
	ctx := context.Background()

	res1, err := Upsert(ctx, conn, "orders", "id", []parquetio.Row{
		{"id": int64(1), "name": "Alice", "amount": 10.5},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res1.Inserted)
	assert.Equal(t, 0, res1.Updated)

	res2, err := Upsert(ctx, conn, "orders", "id", []parquetio.Row{
		{"id": int64(1), "name": "Alice", "amount": 99.0},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res2.Inserted)
	assert.Equal(t, 1, res2.Updated)

	got, err := Extract(ctx, conn, "orders", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 99.0, got[0]["amount"], 0.0001)
}

func TestUpsertIdempotentAcrossTwoApplications(t *testing.T) {
	conn := testConn(t)
	ctx := context.Background()
	rows := []parquetio.Row{
		{"id": int64(1), "name": "Alice", "amount": 10.5},
		{"id": int64(2), "name": "Bob", "amount": 20.0},
	}

	_, err := Upsert(ctx, conn, "orders", "id", rows)
	require.NoError(t, err)
	_, err = Upsert(ctx, conn, "orders", "id", rows)
	require.NoError(t, err)

	got, err := Extract(ctx, conn, "orders", "")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestAppendNeverUpdatesExisting(t *testing.T) {
	conn := testConn(t)
	ctx := context.Background()

	_, err := Upsert(ctx, conn, "orders", "id", []parquetio.Row{
		{"id": int64(1), "name": "Alice", "amount": 10.5},
	})
	require.NoError(t, err)

	res, err := Append(ctx, conn, "orders", "id", []parquetio.Row{
		{"id": int64(1), "name": "Alice-Changed", "amount": 999.0},
		{"id": int64(2), "name": "Bob", "amount": 20.0},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)

	got, err := Extract(ctx, conn, "orders", "id = 1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Alice", got[0]["name"])
}
