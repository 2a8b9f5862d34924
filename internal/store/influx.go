package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// InfluxConfig drží přístupové údaje k InfluxDB 2.x.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Influx ukládá body do InfluxDB přes oficiálního klienta.
// Zápis je blokující (WriteAPIBlocking), aby chyba zápisu došla až k volajícímu.
type Influx struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
	query  api.QueryAPI
	bucket string
}

// NewInflux vytvoří klienta s přesností na sekundy a ověří, že server žije.
func NewInflux(ctx context.Context, cfg InfluxConfig) (*Influx, error) {
	opts := influxdb2.DefaultOptions().SetPrecision(time.Second)
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)

	ok, err := client.Ping(ctx)
	if err != nil || !ok {
		client.Close()
		if err == nil {
			err = fmt.Errorf("ping %s selhal", cfg.URL)
		}
		return nil, fmt.Errorf("InfluxDB není dostupná: %w", err)
	}

	return &Influx{
		client: client,
		write:  client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		query:  client.QueryAPI(cfg.Org),
		bucket: cfg.Bucket,
	}, nil
}

// WritePoint zapíše bod s jediným polem.
func (i *Influx) WritePoint(ctx context.Context, p Point) error {
	pt := influxdb2.NewPoint(p.Series, nil, map[string]interface{}{p.Field: p.Value}, truncate(p.Time))
	if err := i.write.WritePoint(ctx, pt); err != nil {
		return fmt.Errorf("chyba zápisu do InfluxDB: %w", err)
	}
	return nil
}

// QueryRange spustí Flux dotaz nad oknem a posbírá záznamy ze všech tabulek.
func (i *Influx) QueryRange(ctx context.Context, q RangeQuery) ([]Record, error) {
	result, err := i.query.Query(ctx, BuildFluxQuery(i.bucket, q))
	if err != nil {
		return nil, fmt.Errorf("chyba dotazu do InfluxDB: %w", err)
	}
	defer result.Close()

	var records []Record
	for result.Next() {
		rec := result.Record()
		v, ok := toFloat(rec.Value())
		if !ok {
			continue
		}
		records = append(records, Record{Time: rec.Time().UTC(), Value: v})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("chyba čtení výsledku z InfluxDB: %w", err)
	}
	return records, nil
}

// Close ukončí HTTP klienta.
func (i *Influx) Close() {
	i.client.Close()
}

// BuildFluxQuery přeloží RangeQuery do Fluxu. Flux range() má stop exkluzivní,
// proto posouváme horní mez o sekundu, aby okno zůstalo uzavřené.
func BuildFluxQuery(bucket string, q RangeQuery) string {
	start := q.Start.UTC().Format(time.RFC3339)
	stop := q.End.UTC().Add(time.Second).Format(time.RFC3339)

	var b strings.Builder
	fmt.Fprintf(&b, "from(bucket: %s)\n", strconv.Quote(bucket))
	fmt.Fprintf(&b, "  |> range(start: time(v: %s), stop: time(v: %s))\n", strconv.Quote(start), strconv.Quote(stop))
	fmt.Fprintf(&b, "  |> filter(fn: (r) => r[\"_measurement\"] == %s)\n", strconv.Quote(q.Series))
	fmt.Fprintf(&b, "  |> filter(fn: (r) => r[\"_field\"] == %s)\n", strconv.Quote(q.Field))
	return b.String()
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
