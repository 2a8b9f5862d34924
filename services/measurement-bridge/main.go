package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const serviceName = "measurement-bridge"

func main() {
	// Graceful Shutdown: SIGINT (Ctrl+C) nebo SIGTERM (Docker stop) zruší context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	root := &cobra.Command{
		Use:   serviceName,
		Short: "Ukládá měření z MQTT do časové řady a odpovídá na dotazy podle času",
		// Bez podpříkazu se spustí služba, stejně jako v Dockeru.
		RunE:          serve.RunE,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(serve, newLookupCmd(), newPublishCmd(), newLogsCmd())
	return root
}
