package changedetect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightloom/icebridge/server/parquetio"
	"github.com/brightloom/icebridge/server/watermark"
)

func TestBuildPlanNoWatermarkIsFullLoad(t *testing.T) {
	p := BuildPlan(nil, "order_date", Timestamp)
	assert.Equal(t, "", p.Filter)
	assert.Equal(t, "order_date", p.Column)
}

func TestBuildPlanTimestampWatermark(t *testing.T) {
	ts := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	p := BuildPlan(&watermark.Watermark{LastSyncTimestamp: &ts}, "order_date", Timestamp)
	assert.Equal(t, "order_date > '2026-01-31T00:00:00Z'", p.Filter)
}

func TestBuildPlanIntegerWatermark(t *testing.T) {
	id := int64(100)
	p := BuildPlan(&watermark.Watermark{LastSyncID: &id}, "order_id", Integer)
	assert.Equal(t, "order_id > 100", p.Filter)
}

func TestObserveHighWaterTimestamp(t *testing.T) {
	jan := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)
	rows := []parquetio.Row{
		{"order_date": jan},
		{"order_date": feb},
	}
	ts, id, err := ObserveHighWater(rows, "order_date", Timestamp)
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.True(t, feb.Equal(*ts))
	assert.Nil(t, id)
}

func TestObserveHighWaterEmptyIsNil(t *testing.T) {
	ts, id, err := ObserveHighWater(nil, "order_date", Timestamp)
	require.NoError(t, err)
	assert.Nil(t, ts)
	assert.Nil(t, id)
}
