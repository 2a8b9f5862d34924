// Package store zapouzdřuje práci s časovou řadou měření.
// Zbytek aplikace neví, jestli data leží v TimescaleDB, InfluxDB nebo v paměti,
// jen volá WritePoint a QueryRange.
package store

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultSeries je název řady, pod kterou ukládáme všechny teploty.
	DefaultSeries = "temperature_esp"
	// FieldTemperature je jediné pole každého bodu.
	FieldTemperature = "temperature"
)

// ErrUnsupportedBackend vrací Open pro neznámý STORE_BACKEND.
var ErrUnsupportedBackend = errors.New("nepodporovaný backend úložiště")

// Point je jeden zapisovaný bod časové řady.
type Point struct {
	Series string
	Field  string
	Value  float64
	// Time má přesnost na sekundy, vše pod sekundou backend zahodí.
	Time time.Time
}

// Record je uložený bod vrácený z dotazu.
type Record struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// RangeQuery popisuje dotaz na řadu/pole v uzavřeném intervalu [Start, End].
type RangeQuery struct {
	Series string
	Field  string
	Start  time.Time
	End    time.Time
}

// Contains říká, jestli t leží v intervalu dotazu (obě meze včetně).
func (q RangeQuery) Contains(t time.Time) bool {
	return !t.Before(q.Start) && !t.After(q.End)
}

// Writer zapisuje body.
type Writer interface {
	WritePoint(ctx context.Context, p Point) error
}

// RangeQuerier vrací body v časovém okně.
type RangeQuerier interface {
	QueryRange(ctx context.Context, q RangeQuery) ([]Record, error)
}

// Store je kompletní backend: zápis, dotaz a uvolnění spojení.
type Store interface {
	Writer
	RangeQuerier
	Close()
}

// truncate zarovná čas na celé sekundy v UTC (WritePrecision.S).
func truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
