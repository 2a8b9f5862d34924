package store

import (
	"context"
	"sort"
	"sync"
)

// Memory je backend v paměti. Slouží pro lokální vývoj (STORE_BACKEND=memory)
// a pro testy. Data se ztratí s koncem procesu.
type Memory struct {
	mu     sync.RWMutex
	points map[string][]Record // klíč: "series/field", hodnoty seřazené podle času
}

// NewMemory vytvoří prázdný backend.
func NewMemory() *Memory {
	return &Memory{points: make(map[string][]Record)}
}

func seriesKey(series, field string) string {
	return series + "/" + field
}

// WritePoint vloží bod a udrží řadu seřazenou. Bod se stejným časem
// přepíše starou hodnotu, stejně jako to dělá InfluxDB.
func (m *Memory) WritePoint(ctx context.Context, p Point) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rec := Record{Time: truncate(p.Time), Value: p.Value}
	key := seriesKey(p.Series, p.Field)

	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.points[key]
	i := sort.Search(len(recs), func(i int) bool { return !recs[i].Time.Before(rec.Time) })
	if i < len(recs) && recs[i].Time.Equal(rec.Time) {
		recs[i] = rec
		return nil
	}
	recs = append(recs, Record{})
	copy(recs[i+1:], recs[i:])
	recs[i] = rec
	m.points[key] = recs
	return nil
}

// QueryRange vrátí kopii bodů v [Start, End].
func (m *Memory) QueryRange(ctx context.Context, q RangeQuery) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	recs := m.points[seriesKey(q.Series, q.Field)]
	start := sort.Search(len(recs), func(i int) bool { return !recs[i].Time.Before(q.Start) })

	out := make([]Record, 0)
	for _, r := range recs[start:] {
		if r.Time.After(q.End) {
			break
		}
		out = append(out, r)
	}
	return out, nil
}

// Len vrací počet bodů v řadě (pro testy a debug).
func (m *Memory) Len(series, field string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points[seriesKey(series, field)])
}

// Close nic nedělá, paměť uvolní GC.
func (m *Memory) Close() {}
