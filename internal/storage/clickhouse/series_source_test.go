package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-replay-lab/internal/domain"
	"options-replay-lab/internal/storage"
)

func testBars(start time.Time, n int) []domain.Sample {
	out := make([]domain.Sample, n)
	for i := range out {
		price := 100.0 + float64(i)
		out[i] = domain.Sample{
			Time:  start.Add(time.Duration(i) * time.Minute),
			Open:  price,
			High:  price + 1,
			Low:   price - 1,
			Close: price + 0.5,
		}
	}
	return out
}

func TestSeriesSource_InsertAndLoad(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	src := NewSeriesSource(conn)
	ctx := context.Background()
	start := time.Date(2024, 1, 15, 9, 15, 0, 0, time.UTC)

	require.NoError(t, src.InsertBars(ctx, "NIFTY24JAN21500CE", testBars(start, 5)))

	got, err := src.LoadSeries(ctx, "NIFTY24JAN21500CE")
	require.NoError(t, err)
	require.Len(t, got, 5)

	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Time.Before(got[i-1].Time), "bars out of order at %d", i)
	}
	assert.Equal(t, 100.0, got[0].Open)
	assert.Equal(t, 100.5, got[0].Close)
	assert.True(t, got[0].Time.Equal(start))
}

func TestSeriesSource_MissingContract(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	src := NewSeriesSource(conn)

	_, err := src.LoadSeries(context.Background(), "NO_SUCH_SCRIP")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSeriesSource_InvalidInput(t *testing.T) {
	src := NewSeriesSource(nil)

	_, err := src.LoadSeries(context.Background(), "")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	assert.ErrorIs(t, src.InsertBars(context.Background(), "", nil), storage.ErrInvalidInput)
}

func TestSeriesSource_ContractsIsolated(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	src := NewSeriesSource(conn)
	ctx := context.Background()
	start := time.Date(2024, 1, 15, 9, 15, 0, 0, time.UTC)

	require.NoError(t, src.InsertBars(ctx, "SCRIP_A", testBars(start, 3)))
	require.NoError(t, src.InsertBars(ctx, "SCRIP_B", testBars(start, 7)))

	a, err := src.LoadSeries(ctx, "SCRIP_A")
	require.NoError(t, err)
	assert.Len(t, a, 3)

	b, err := src.LoadSeries(ctx, "SCRIP_B")
	require.NoError(t, err)
	assert.Len(t, b, 7)
}
