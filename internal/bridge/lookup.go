package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vikerian/dashboarder-go/internal/store"
)

// Publisher posílá odpovědi zpět do transportu.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// LookupOutcome popisuje výsledek zpracování requestu.
type LookupOutcome int

const (
	LookupFound LookupOutcome = iota
	LookupNotFound
	LookupIgnored
)

func (o LookupOutcome) String() string {
	switch o {
	case LookupFound:
		return "found"
	case LookupNotFound:
		return "not_found"
	case LookupIgnored:
		return "ignored"
	default:
		return fmt.Sprintf("LookupOutcome(%d)", int(o))
	}
}

// Lookup odpovídá na dotazy "get_measurement".
type Lookup struct {
	querier       store.RangeQuerier
	publisher     Publisher
	responseTopic string
	series        string
	radius        time.Duration
	policy        MatchPolicy
	timeout       time.Duration
	logger        *slog.Logger
}

// LookupOption upravuje Lookup při konstrukci.
type LookupOption func(*Lookup)

func WithLookupSeries(series string) LookupOption {
	return func(l *Lookup) { l.series = series }
}

func WithMatchPolicy(p MatchPolicy) LookupOption {
	return func(l *Lookup) { l.policy = p }
}

func WithWindowRadius(d time.Duration) LookupOption {
	return func(l *Lookup) { l.radius = d }
}

// WithQueryTimeout omezí délku dotazu. Timeout se chová jako "nenalezeno".
func WithQueryTimeout(d time.Duration) LookupOption {
	return func(l *Lookup) { l.timeout = d }
}

// NewLookup vytvoří handler, který odpovídá na responseTopic.
func NewLookup(q store.RangeQuerier, pub Publisher, responseTopic string, logger *slog.Logger, opts ...LookupOption) *Lookup {
	l := &Lookup{
		querier:       q,
		publisher:     pub,
		responseTopic: responseTopic,
		series:        store.DefaultSeries,
		radius:        DefaultWindowRadius,
		policy:        MatchExact,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Handle zpracuje jeden request. Na validní request pošle právě jednu
// odpověď, nevalidní request tiše zahodí.
func (l *Lookup) Handle(ctx context.Context, fields map[string]any) LookupOutcome {
	action, _ := fields["action"].(string)
	rawTS := fields["timestamp"]
	requestID, idErr := stringField(fields, "request_id")
	if action != ActionGetMeasurement || !truthy(rawTS) || idErr != nil {
		l.logger.Debug("Neplatný request, ignoruji", "action", action)
		return LookupIgnored
	}

	rec, found := l.find(ctx, fields)
	if !found {
		l.respond(ctx, requestID, NotFoundResponse{
			RequestID: requestID,
			Error:     ErrMeasurementNotFound,
			Timestamp: rawTS,
		})
		return LookupNotFound
	}

	l.respond(ctx, requestID, FoundResponse{
		RequestID:   requestID,
		Timestamp:   rec.Time.Unix(),
		Temperature: rec.Value,
	})
	return LookupFound
}

// find vrací false i při chybě dotazu; chyba se jen zaloguje.
func (l *Lookup) find(ctx context.Context, fields map[string]any) (store.Record, bool) {
	ts, err := intField(fields, "timestamp")
	if err != nil {
		l.logger.Error("Neplatný timestamp v requestu", "error", err)
		return store.Record{}, false
	}

	w := NewWindow(ts, l.radius)
	queryCtx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	records, err := l.querier.QueryRange(queryCtx, w.Query(l.series, store.FieldTemperature))
	if err != nil {
		l.logger.Error("Chyba dotazu do úložiště", "timestamp", ts,
			"start", w.Start, "end", w.End, "error", err)
		return store.Record{}, false
	}

	rec, ok := SelectRecord(records, w, l.policy)
	if !ok {
		l.logger.Info("Měření nenalezeno", "timestamp", ts, "candidates", len(records), "policy", l.policy)
	}
	return rec, ok
}

func (l *Lookup) respond(ctx context.Context, requestID string, resp any) {
	payload, err := json.Marshal(resp)
	if err != nil {
		l.logger.Error("Nelze serializovat odpověď", "request_id", requestID, "error", err)
		return
	}
	if err := l.publisher.Publish(ctx, l.responseTopic, payload); err != nil {
		l.logger.Error("Chyba při publikaci odpovědi", "request_id", requestID, "error", err)
		return
	}
	l.logger.Info("Odpověď odeslána", "request_id", requestID, "topic", l.responseTopic)
}
