package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func point(sec int64, v float64) Point {
	return Point{Series: DefaultSeries, Field: FieldTemperature, Value: v, Time: time.Unix(sec, 0)}
}

func window(start, end int64) RangeQuery {
	return RangeQuery{
		Series: DefaultSeries,
		Field:  FieldTemperature,
		Start:  time.Unix(start, 0).UTC(),
		End:    time.Unix(end, 0).UTC(),
	}
}

func TestMemory_QueryRangeIsInclusive(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for _, sec := range []int64{89, 90, 100, 110, 111} {
		require.NoError(t, m.WritePoint(ctx, point(sec, float64(sec))))
	}

	recs, err := m.QueryRange(ctx, window(90, 110))
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, int64(90), recs[0].Time.Unix())
	assert.Equal(t, int64(100), recs[1].Time.Unix())
	assert.Equal(t, int64(110), recs[2].Time.Unix())
}

func TestMemory_SameTimeOverwrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.WritePoint(ctx, point(100, 20)))
	require.NoError(t, m.WritePoint(ctx, point(100, 21)))

	assert.Equal(t, 1, m.Len(DefaultSeries, FieldTemperature))
	recs, err := m.QueryRange(ctx, window(100, 100))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 21.0, recs[0].Value)
}

func TestMemory_KeepsOrderForOutOfOrderWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for _, sec := range []int64{105, 95, 100} {
		require.NoError(t, m.WritePoint(ctx, point(sec, 1)))
	}

	recs, err := m.QueryRange(ctx, window(0, 200))
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.True(t, recs[0].Time.Before(recs[1].Time))
	assert.True(t, recs[1].Time.Before(recs[2].Time))
}

func TestMemory_TruncatesToSeconds(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	p := point(100, 1)
	p.Time = p.Time.Add(700 * time.Millisecond)
	require.NoError(t, m.WritePoint(ctx, p))

	recs, err := m.QueryRange(ctx, window(100, 100))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, time.Unix(100, 0).UTC(), recs[0].Time)
}

func TestMemory_SeriesAreIsolated(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	other := point(100, 5)
	other.Series = "humidity_esp"
	require.NoError(t, m.WritePoint(ctx, other))

	recs, err := m.QueryRange(ctx, window(0, 200))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestMemory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMemory()

	assert.ErrorIs(t, m.WritePoint(ctx, point(1, 1)), context.Canceled)
	_, err := m.QueryRange(ctx, window(0, 1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Options{Backend: "cassandra"})
	assert.ErrorIs(t, err, ErrUnsupportedBackend)
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), Options{Backend: BackendMemory})
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &Memory{}, s)
}
