package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// LatestCache drží v Valkey poslední přijatou hodnotu řady ("Hot Storage").
// Klíč: "sensor:last:{series}", hash s poli time (unix sekundy) a value.
type LatestCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewLatestCache připojí Valkey a ověří spojení.
// ttl <= 0 znamená bez expirace.
func NewLatestCache(ctx context.Context, addr string, ttl time.Duration) (*LatestCache, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("Valkey není dostupný: %w", err)
	}
	return &LatestCache{rdb: rdb, ttl: ttl}, nil
}

func latestKey(series string) string {
	return fmt.Sprintf("sensor:last:%s", series)
}

// Remember přepíše poslední hodnotu řady.
func (c *LatestCache) Remember(ctx context.Context, p Point) error {
	key := latestKey(p.Series)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"time", truncate(p.Time).Unix(),
			"value", strconv.FormatFloat(p.Value, 'f', -1, 64),
		)
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("chyba update Valkey: %w", err)
	}
	return nil
}

// Latest vrátí poslední hodnotu řady. ok=false, pokud klíč neexistuje
// (nic ještě nepřišlo nebo vypršela expirace).
func (c *LatestCache) Latest(ctx context.Context, series string) (Record, bool, error) {
	vals, err := c.rdb.HGetAll(ctx, latestKey(series)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("čtení z Valkey: %w", err)
	}
	if len(vals) == 0 {
		return Record{}, false, nil
	}

	sec, err := strconv.ParseInt(vals["time"], 10, 64)
	if err != nil {
		return Record{}, false, fmt.Errorf("poškozený čas v %s: %w", latestKey(series), err)
	}
	v, err := strconv.ParseFloat(vals["value"], 64)
	if err != nil {
		return Record{}, false, fmt.Errorf("poškozená hodnota v %s: %w", latestKey(series), err)
	}
	return Record{Time: time.Unix(sec, 0).UTC(), Value: v}, true, nil
}

// Close uzavře klienta.
func (c *LatestCache) Close() error {
	return c.rdb.Close()
}

// Cached obalí backend a po každém úspěšném zápisu aktualizuje LatestCache.
// Chyba Valkey není kritická pro integritu dat (ta jsou v backendu),
// proto ji jen logujeme a zápis hlásíme jako úspěšný.
type Cached struct {
	Store
	cache  *LatestCache
	logger *slog.Logger
}

// WithLatestCache vrátí backend s hot cache.
func WithLatestCache(s Store, cache *LatestCache, logger *slog.Logger) *Cached {
	return &Cached{Store: s, cache: cache, logger: logger}
}

// WritePoint zapíše bod do backendu a potom do cache.
func (c *Cached) WritePoint(ctx context.Context, p Point) error {
	if err := c.Store.WritePoint(ctx, p); err != nil {
		return err
	}
	if err := c.cache.Remember(ctx, p); err != nil {
		c.logger.Warn("Nepodařilo se aktualizovat hot cache", "series", p.Series, "error", err)
	}
	return nil
}

// Latest deleguje na cache.
func (c *Cached) Latest(ctx context.Context, series string) (Record, bool, error) {
	return c.cache.Latest(ctx, series)
}

// Close zavře backend i cache.
func (c *Cached) Close() {
	c.Store.Close()
	if err := c.cache.Close(); err != nil {
		c.logger.Warn("Chyba při zavírání Valkey", "error", err)
	}
}
