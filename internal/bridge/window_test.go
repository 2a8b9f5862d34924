package bridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vikerian/dashboarder-go/internal/store"
)

func rec(sec int64, v float64) store.Record {
	return store.Record{Time: time.Unix(sec, 0).UTC(), Value: v}
}

func TestNewWindow_Bounds(t *testing.T) {
	w := NewWindow(100, DefaultWindowRadius)

	assert.Equal(t, int64(100), w.Target.Unix())
	assert.Equal(t, int64(90), w.Start.Unix())
	assert.Equal(t, int64(110), w.End.Unix())
	assert.Equal(t, time.UTC, w.Start.Location())

	assert.True(t, w.Contains(time.Unix(90, 0)))
	assert.True(t, w.Contains(time.Unix(110, 0)))
	assert.False(t, w.Contains(time.Unix(89, 0)))
	assert.False(t, w.Contains(time.Unix(111, 0)))
}

func TestWindow_Query(t *testing.T) {
	q := NewWindow(1000, DefaultWindowRadius).Query(store.DefaultSeries, store.FieldTemperature)

	assert.Equal(t, store.DefaultSeries, q.Series)
	assert.Equal(t, store.FieldTemperature, q.Field)
	assert.Equal(t, int64(990), q.Start.Unix())
	assert.Equal(t, int64(1010), q.End.Unix())
	assert.True(t, q.Contains(time.Unix(1010, 0)))
}

func TestSelectRecord_Exact(t *testing.T) {
	records := []store.Record{rec(95, 1), rec(100, 2), rec(105, 3)}

	got, ok := SelectRecord(records, NewWindow(100, DefaultWindowRadius), MatchExact)
	require.True(t, ok)
	assert.Equal(t, 2.0, got.Value)

	_, ok = SelectRecord(records, NewWindow(101, DefaultWindowRadius), MatchExact)
	assert.False(t, ok)
}

func TestSelectRecord_Nearest(t *testing.T) {
	records := []store.Record{rec(95, 1), rec(100, 2), rec(105, 3)}

	got, ok := SelectRecord(records, NewWindow(104, DefaultWindowRadius), MatchNearest)
	require.True(t, ok)
	assert.Equal(t, 3.0, got.Value)

	// Shoda vzdálenosti: vyhrává dřívější záznam.
	tie := []store.Record{rec(104, 4), rec(100, 2)}
	got, ok = SelectRecord(tie, NewWindow(102, DefaultWindowRadius), MatchNearest)
	require.True(t, ok)
	assert.Equal(t, 2.0, got.Value)
}

func TestSelectRecord_IgnoresRecordsOutsideWindow(t *testing.T) {
	records := []store.Record{rec(80, 1), rec(130, 2)}

	_, ok := SelectRecord(records, NewWindow(100, DefaultWindowRadius), MatchNearest)
	assert.False(t, ok)
}

func TestParseMatchPolicy(t *testing.T) {
	p, err := ParseMatchPolicy("exact")
	require.NoError(t, err)
	assert.Equal(t, MatchExact, p)

	p, err = ParseMatchPolicy("nearest")
	require.NoError(t, err)
	assert.Equal(t, MatchNearest, p)

	_, err = ParseMatchPolicy("closest")
	assert.Error(t, err)
}
