package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vikerian/dashboarder-go/internal/config"
	"github.com/vikerian/dashboarder-go/internal/mqttlog"
)

// newLogsCmd sbírá logy služeb z MQTT (logs/#) do souborů.
func newLogsCmd() *cobra.Command {
	var dir, topic string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Ukládá logy služeb z MQTT do souborů <dir>/<služba>.log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("konfigurace: %w", err)
			}
			level, _ := config.ParseLevel(cfg.LogLevel)
			// Collector loguje jen na stdout, jinak by logoval sám do sebe.
			logger := newLogger(os.Stdout, level)

			collector, err := mqttlog.NewCollector(dir)
			if err != nil {
				return err
			}
			client, err := connectCLI(cfg)
			if err != nil {
				return err
			}
			defer client.Disconnect()

			if err := client.Listen([]string{topic}, func(topic string, payload []byte) {
				if err := collector.Append(topic, payload); err != nil {
					logger.Error("Chyba při zápisu logu", "topic", topic, "error", err)
				}
			}); err != nil {
				return err
			}
			logger.Info("Poslouchám logy", "topic", topic, "dir", dir)

			<-cmd.Context().Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "/var/log/iot-app", "adresář pro soubory s logy")
	cmd.Flags().StringVar(&topic, "topic", "logs/#", "topic s logy služeb")
	return cmd
}
