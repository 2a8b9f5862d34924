package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vikerian/dashboarder-go/internal/store"
)

// latestReader čte poslední hodnotu z hot cache.
type latestReader interface {
	Latest(ctx context.Context, series string) (store.Record, bool, error)
}

// latestDTO je odpověď GET /latest.
type latestDTO struct {
	Series      string  `json:"series"`
	Timestamp   int64   `json:"timestamp"`
	Temperature float64 `json:"temperature"`
}

// historyPoint je jeden bod odpovědi GET /history.
type historyPoint struct {
	Timestamp   int64   `json:"timestamp"`
	Temperature float64 `json:"temperature"`
}

const (
	defaultHistoryRange = 24 * time.Hour
	// maxHistorySpan omezuje velikost jednoho dotazu na historii.
	maxHistorySpan = 7 * 24 * time.Hour
)

var errBadHistoryRange = errors.New("neplatný rozsah historie")

// historyWindow přečte interval z query parametrů. Buď start a end
// (epoch sekundy, obě meze včetně), nebo range (Go duration) končící teď.
func historyWindow(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	q := r.URL.Query()
	startStr, endStr := q.Get("start"), q.Get("end")

	if startStr == "" && endStr == "" {
		rangeStr := q.Get("range")
		dur := defaultHistoryRange
		if rangeStr != "" {
			d, err := time.ParseDuration(rangeStr)
			if err != nil || d <= 0 {
				return time.Time{}, time.Time{}, fmt.Errorf("%w: range=%q", errBadHistoryRange, rangeStr)
			}
			dur = d
		}
		if dur > maxHistorySpan {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: range %s je delší než %s", errBadHistoryRange, dur, maxHistorySpan)
		}
		end := now.UTC().Truncate(time.Second)
		return end.Add(-dur), end, nil
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start=%q", errBadHistoryRange, startStr)
	}
	end, err := strconv.ParseInt(endStr, 10, 64)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end=%q", errBadHistoryRange, endStr)
	}
	if start > end {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start %d je za end %d", errBadHistoryRange, start, end)
	}
	// Porovnání v sekundách, end-start by u extrémních hodnot přeteklo.
	if end-start < 0 || end-start > int64(maxHistorySpan/time.Second) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: interval je delší než %s", errBadHistoryRange, maxHistorySpan)
	}
	return time.Unix(start, 0).UTC(), time.Unix(end, 0).UTC(), nil
}

// newHealthServer vytvoří HTTP server s healthcheckem (pro Docker/K8s),
// endpointem s poslední uloženou hodnotou a historií řady.
// latest může být nil (cache vypnutá), history taky (jen v testech).
func newHealthServer(addr string, latest latestReader, history store.RangeQuerier, series string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /latest", func(w http.ResponseWriter, r *http.Request) {
		if latest == nil {
			http.Error(w, "hot cache je vypnutá", http.StatusServiceUnavailable)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		rec, ok, err := latest.Latest(ctx, series)
		if err != nil {
			logger.Error("Chyba při čtení poslední hodnoty", "error", err)
			http.Error(w, "Interní chyba serveru", http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "zatím žádné měření", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(latestDTO{
			Series:      series,
			Timestamp:   rec.Time.Unix(),
			Temperature: rec.Value,
		}); err != nil {
			logger.Error("Chyba při zápisu JSON odpovědi", "error", err)
		}
	})

	// Historie: /history?start=1700000000&end=1700003600 nebo /history?range=6h
	mux.HandleFunc("GET /history", func(w http.ResponseWriter, r *http.Request) {
		if history == nil {
			http.Error(w, "úložiště není k dispozici", http.StatusServiceUnavailable)
			return
		}

		start, end, err := historyWindow(r, time.Now())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		recs, err := history.QueryRange(ctx, store.RangeQuery{
			Series: series,
			Field:  store.FieldTemperature,
			Start:  start,
			End:    end,
		})
		if err != nil {
			logger.Error("Chyba při načítání historie", "start", start, "end", end, "error", err)
			http.Error(w, "Chyba při načítání dat", http.StatusInternalServerError)
			return
		}

		points := make([]historyPoint, 0, len(recs))
		for _, rec := range recs {
			points = append(points, historyPoint{Timestamp: rec.Time.Unix(), Temperature: rec.Value})
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(points); err != nil {
			logger.Error("Chyba při zápisu JSON odpovědi", "error", err)
		}
	})

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
