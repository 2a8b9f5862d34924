package main

import (
	"io"
	"log/slog"
)

// newLogger vytvoří JSON logger (standard pro kontejnery).
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
