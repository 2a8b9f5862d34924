package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vikerian/dashboarder-go/internal/bridge"
	"github.com/vikerian/dashboarder-go/internal/config"
)

func newPublishCmd() *cobra.Command {
	var (
		ts          int64
		temperature float64
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Odešle jedno měření na měřicí topic (simulace senzoru)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("timestamp") {
				ts = time.Now().Unix()
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

			m := bridge.Measurement{Timestamp: ts, Temperature: temperature}
			return publishMeasurement(cmd.Context(), client, cfg.MeasurementTopic, m)
		},
	}

	cmd.Flags().Int64Var(&ts, "timestamp", 0, "čas měření (epoch sekundy, výchozí teď)")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "naměřená teplota")
	_ = cmd.MarkFlagRequired("temperature")
	return cmd
}

func publishMeasurement(ctx context.Context, pub bridge.Publisher, topic string, m bridge.Measurement) error {
	payload, err := bridge.EncodeMeasurement(m)
	if err != nil {
		return err
	}
	if err := pub.Publish(ctx, topic, payload); err != nil {
		return fmt.Errorf("publish measurement: %w", err)
	}
	return nil
}
