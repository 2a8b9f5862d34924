package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/vikerian/dashboarder-go/internal/bridge"
	"github.com/vikerian/dashboarder-go/internal/config"
	"github.com/vikerian/dashboarder-go/internal/transport"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// errNotFound vrací lookup, když bridge odpověděl NotFound.
var errNotFound = errors.New("measurement not found")

func newLookupCmd() *cobra.Command {
	var (
		ts        int64
		requestID string
		wait      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Pošle dotaz na měření a vypíše odpověď",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if requestID == "" {
				requestID = uuid.NewString()
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("konfigurace: %w", err)
			}
			client, err := connectCLI(cfg)
			if err != nil {
				return err
			}
			defer client.Disconnect()

			ctx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()

			resp, err := requestMeasurement(ctx, client, cfg, ts, requestID)
			if err != nil {
				return err
			}
			if err := printResponse(cmd.OutOrStdout(), resp); err != nil {
				return err
			}
			if !resp.Found() {
				return fmt.Errorf("%w: %s", errNotFound, resp.Error)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&ts, "timestamp", 0, "hledaný čas (epoch sekundy)")
	cmd.Flags().StringVar(&requestID, "request-id", "", "id dotazu (výchozí náhodné UUID)")
	cmd.Flags().DurationVar(&wait, "wait", 5*time.Second, "jak dlouho čekat na odpověď")
	_ = cmd.MarkFlagRequired("timestamp")
	return cmd
}

// responseSubscriber je část transportu, kterou potřebuje tazatel.
type responseSubscriber interface {
	bridge.Publisher
	Subscribe(topic string, handler transport.MessageHandler) error
}

// requestMeasurement odešle dotaz a čeká na odpověď se stejným request_id.
func requestMeasurement(ctx context.Context, client responseSubscriber, cfg config.Config, ts int64, requestID string) (bridge.Response, error) {
	corr := bridge.NewCorrelator()
	if err := corr.Expect(requestID); err != nil {
		return bridge.Response{}, err
	}
	defer corr.Cancel(requestID)

	// Odpovědi pro cizí id Deliver tiše zahodí.
	if err := client.Subscribe(cfg.ResponseTopic, func(_ string, payload []byte) {
		corr.Deliver(payload)
	}); err != nil {
		return bridge.Response{}, err
	}

	payload, err := bridge.EncodeLookupRequest(ts, requestID)
	if err != nil {
		return bridge.Response{}, err
	}
	if err := client.Publish(ctx, cfg.RequestTopic, payload); err != nil {
		return bridge.Response{}, fmt.Errorf("publish request: %w", err)
	}

	resp, err := corr.Await(ctx, requestID)
	if err != nil {
		return bridge.Response{}, fmt.Errorf("čekání na odpověď %s: %w", requestID, err)
	}
	return resp, nil
}

func printResponse(w io.Writer, resp bridge.Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// connectCLI připojí jednorázového klienta. ClientID musí být unikátní,
// jinak by broker odpojil běžící službu se stejným id.
func connectCLI(cfg config.Config) (*transport.Client, error) {
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := newLogger(os.Stderr, level)

	clientID := fmt.Sprintf("%s-cli-%s", cfg.MQTTClientID, uuid.NewString()[:8])
	client := transport.NewClient(mqttOptions(cfg, clientID), logger)
	if err := client.Connect(); err != nil {
		return nil, err
	}
	return client, nil
}
