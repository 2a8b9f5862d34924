package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxConn je podmnožina *pgxpool.Pool, kterou potřebujeme.
// V testech ji nahradí pgxmock.
type pgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS measurements (
		time   TIMESTAMPTZ      NOT NULL,
		series TEXT             NOT NULL,
		field  TEXT             NOT NULL,
		value  DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (series, field, time)
	)
`

// Bod se stejným časem přepíše původní hodnotu (chování InfluxDB).
const insertSQL = `
	INSERT INTO measurements (time, series, field, value)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (series, field, time) DO UPDATE SET value = EXCLUDED.value
`

const rangeSQL = `
	SELECT time, value
	FROM measurements
	WHERE series = $1 AND field = $2 AND time >= $3 AND time <= $4
	ORDER BY time ASC
`

// Timescale ukládá body do TimescaleDB (Postgres) přes pgxpool.
type Timescale struct {
	db pgxConn
}

// NewTimescale otevře pool, ověří spojení a založí tabulku, pokud chybí.
// Převod na hypertable (create_hypertable) je věc provozu, ne této služby.
func NewTimescale(ctx context.Context, url string) (*Timescale, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("chyba konfigurace DB: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("DB není dostupná: %w", err)
	}

	ts := newTimescale(pool)
	if err := ts.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return ts, nil
}

func newTimescale(db pgxConn) *Timescale {
	return &Timescale{db: db}
}

// EnsureSchema založí tabulku measurements.
func (t *Timescale) EnsureSchema(ctx context.Context) error {
	if _, err := t.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("chyba vytvoření tabulky measurements: %w", err)
	}
	return nil
}

// WritePoint vloží jeden bod.
func (t *Timescale) WritePoint(ctx context.Context, p Point) error {
	_, err := t.db.Exec(ctx, insertSQL, truncate(p.Time), p.Series, p.Field, p.Value)
	if err != nil {
		return fmt.Errorf("chyba insertu do PG: %w", err)
	}
	return nil
}

// QueryRange vrátí body řady v uzavřeném intervalu, seřazené podle času.
func (t *Timescale) QueryRange(ctx context.Context, q RangeQuery) ([]Record, error) {
	rows, err := t.db.Query(ctx, rangeSQL, q.Series, q.Field, q.Start.UTC(), q.End.UTC())
	if err != nil {
		return nil, fmt.Errorf("chyba dotazu na rozsah: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, 21)
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Time, &r.Value); err != nil {
			return nil, fmt.Errorf("chyba čtení řádku: %w", err)
		}
		r.Time = r.Time.UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("chyba iterace výsledků: %w", err)
	}
	return records, nil
}

// Close vrátí spojení do poolu a zavře ho.
func (t *Timescale) Close() {
	t.db.Close()
}
