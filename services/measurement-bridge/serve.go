package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vikerian/dashboarder-go/internal/bridge"
	"github.com/vikerian/dashboarder-go/internal/config"
	"github.com/vikerian/dashboarder-go/internal/mqttlog"
	"github.com/vikerian/dashboarder-go/internal/store"
	"github.com/vikerian/dashboarder-go/internal/transport"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Spustí bridge: ukládání měření a odpovědi na dotazy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	// 1. Načtení konfigurace
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("konfigurace: %w", err)
	}
	level, _ := config.ParseLevel(cfg.LogLevel) // Validate už úroveň ověřil

	// 2. Logger do stdout. Připojení k MQTT se loguje sem, MQTT logger ještě neexistuje.
	logger := newLogger(os.Stdout, level)

	// 3. Připojení k MQTT
	client := transport.NewClient(mqttOptions(cfg, cfg.MQTTClientID), logger)
	if err := client.Connect(); err != nil {
		logger.Error("Kritická chyba: MQTT connect", "error", err)
		return err
	}

	// 4. Logy zároveň do stdout i do MQTT (logs/measurement-bridge)
	if cfg.LogToMQTT {
		mqttWriter := mqttlog.NewWriter(client.Raw(), serviceName)
		logger = newLogger(io.MultiWriter(os.Stdout, mqttWriter), level)
	}
	slog.SetDefault(logger)

	logger.Info("Spouštím službu Measurement Bridge", "config", cfg)

	// 5. Úložiště (+ volitelná hot cache ve Valkey)
	st, latest, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Kritická chyba: Nelze otevřít úložiště", "backend", cfg.StoreBackend, "error", err)
		client.Disconnect()
		return err
	}
	defer st.Close()
	// Odpojit MQTT dřív, než se zavře úložiště (defer běží v opačném pořadí).
	defer client.Disconnect()

	// 6. Handlery
	policy, err := bridge.ParseMatchPolicy(cfg.MatchPolicy)
	if err != nil {
		return err
	}
	ingester := bridge.NewIngester(st, bridge.NewDedupState(), logger,
		bridge.WithIngestSeries(cfg.Series),
		bridge.WithWriteTimeout(cfg.StoreTimeout),
	)
	// Odpověď se publikuje z callbacku zprávy, na PUBACK tam čekat nejde.
	lookup := bridge.NewLookup(st, client.Detached(), cfg.ResponseTopic, logger,
		bridge.WithLookupSeries(cfg.Series),
		bridge.WithMatchPolicy(policy),
		bridge.WithQueryTimeout(cfg.StoreTimeout),
	)
	dispatcher := bridge.NewDispatcher(bridge.Topics{
		Measurements: cfg.MeasurementTopic,
		Requests:     cfg.RequestTopic,
	}, ingester, lookup, logger)

	// 7. Odběr topiců. Handler dostává kořenový context, při shutdownu doběhne
	// rozpracovaná zpráva s krátkými timeouty úložiště a publikace.
	topics := []string{cfg.MeasurementTopic, cfg.RequestTopic}
	if err := client.Listen(topics, func(topic string, payload []byte) {
		dispatcher.OnMessage(context.WithoutCancel(ctx), topic, payload)
	}); err != nil {
		logger.Error("Kritická chyba: MQTT subscribe", "topics", topics, "error", err)
		return err
	}
	logger.Info("Poslouchám MQTT", "topics", topics, "response_topic", cfg.ResponseTopic)

	// 8. Health server a čekání na signál
	srv := newHealthServer(":"+cfg.HTTPPort, latest, st, cfg.Series, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Health server běží", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Ukončuji službu...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStore otevře backend a, pokud je nastavená VALKEY_ADDR, obalí ho hot cache.
// Bez cache vrací latest == nil, /latest pak odpovídá 503.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.Store, latestReader, error) {
	openCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	defer cancel()

	st, err := store.Open(openCtx, store.Options{
		Backend:     cfg.StoreBackend,
		PostgresURL: cfg.PostgresURL,
		Influx: store.InfluxConfig{
			URL:    cfg.InfluxURL,
			Token:  cfg.InfluxToken,
			Org:    cfg.InfluxOrg,
			Bucket: cfg.InfluxBucket,
		},
	})
	if err != nil {
		return nil, nil, err
	}
	if cfg.ValkeyAddr == "" {
		return st, nil, nil
	}

	cache, err := store.NewLatestCache(openCtx, cfg.ValkeyAddr, cfg.LatestTTL)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("valkey: %w", err)
	}
	cached := store.WithLatestCache(st, cache, logger)
	return cached, cached, nil
}

// mqttOptions převede konfiguraci na parametry transportu.
func mqttOptions(cfg config.Config, clientID string) transport.Options {
	return transport.Options{
		Broker:         cfg.MQTTBroker,
		ClientID:       clientID,
		Username:       cfg.MQTTUsername,
		Password:       cfg.MQTTPassword,
		QoS:            byte(cfg.MQTTQoS),
		PublishTimeout: cfg.PublishTimeout,
	}
}
