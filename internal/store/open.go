package store

import (
	"context"
	"fmt"
)

const (
	BackendTimescale = "timescale"
	BackendInflux    = "influxdb"
	BackendMemory    = "memory"
)

// Options vybírá a parametrizuje backend.
type Options struct {
	Backend     string
	PostgresURL string
	Influx      InfluxConfig
}

// Open vytvoří backend podle Options.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendTimescale:
		return NewTimescale(ctx, opts.PostgresURL)
	case BackendInflux:
		return NewInflux(ctx, opts.Influx)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, opts.Backend)
	}
}
