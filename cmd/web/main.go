// Command web runs the RFQ analysis HTTP service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rfqpulse/internal/app"
	"rfqpulse/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "rfqpulse: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	application, err := app.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return application.Run(ctx)
}
