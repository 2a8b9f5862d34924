package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vikerian/dashboarder-go/internal/store"
)

// IngestOutcome popisuje, co se se zprávou stalo.
type IngestOutcome int

const (
	IngestStored IngestOutcome = iota
	IngestDuplicate
	IngestRejected
	IngestWriteFailed
)

func (o IngestOutcome) String() string {
	switch o {
	case IngestStored:
		return "stored"
	case IngestDuplicate:
		return "duplicate"
	case IngestRejected:
		return "rejected"
	case IngestWriteFailed:
		return "write_failed"
	default:
		return fmt.Sprintf("IngestOutcome(%d)", int(o))
	}
}

// Ingester filtruje duplicity a ukládá unikátní měření.
type Ingester struct {
	writer  store.Writer
	state   *DedupState
	series  string
	timeout time.Duration
	logger  *slog.Logger
}

// IngesterOption upravuje Ingester při konstrukci.
type IngesterOption func(*Ingester)

// WithIngestSeries změní název řady (default store.DefaultSeries).
func WithIngestSeries(series string) IngesterOption {
	return func(i *Ingester) { i.series = series }
}

// WithWriteTimeout omezí délku zápisu. 0 = bez limitu.
func WithWriteTimeout(d time.Duration) IngesterOption {
	return func(i *Ingester) { i.timeout = d }
}

// NewIngester vytvoří handler. state je vlastněný tímto Ingesterem,
// nil znamená prázdný stav.
func NewIngester(w store.Writer, state *DedupState, logger *slog.Logger, opts ...IngesterOption) *Ingester {
	if state == nil {
		state = NewDedupState()
	}
	i := &Ingester{
		writer: w,
		state:  state,
		series: store.DefaultSeries,
		logger: logger,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Handle zpracuje jednu zprávu z měřicího topicu.
func (i *Ingester) Handle(ctx context.Context, fields map[string]any) IngestOutcome {
	m, err := measurementFromFields(fields)
	if err != nil {
		i.logger.Warn("Měření odmítnuto", "důvod", err)
		return IngestRejected
	}

	if !i.state.Accepts(m) {
		i.logger.Info("Duplicitní měření, neukládám", "timestamp", m.Timestamp, "temperature", m.Temperature)
		return IngestDuplicate
	}

	writeCtx, cancel := withTimeout(ctx, i.timeout)
	defer cancel()

	p := store.Point{
		Series: i.series,
		Field:  store.FieldTemperature,
		Value:  m.Temperature,
		Time:   m.Time(),
	}
	if err := i.writer.WritePoint(writeCtx, p); err != nil {
		// Stav neměníme, stejné měření projde při dalším odeslání.
		i.logger.Error("Chyba při ukládání měření", "timestamp", m.Timestamp, "error", err)
		return IngestWriteFailed
	}

	i.state.Remember(m)
	i.logger.Info("Měření uloženo", "timestamp", m.Timestamp, "temperature", m.Temperature)
	return IngestStored
}

// Teplota se kontroluje jako první, chybějící teplota má přednost před chybějícím časem.
func measurementFromFields(fields map[string]any) (Measurement, error) {
	temp, err := floatField(fields, "temperature")
	if err != nil {
		return Measurement{}, err
	}
	ts, err := intField(fields, "timestamp")
	if err != nil {
		return Measurement{}, err
	}
	return Measurement{Timestamp: ts, Temperature: temp}, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
