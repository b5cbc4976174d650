package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ciyex-org/ciyex-platform-sdk/config"
	"github.com/ciyex-org/ciyex-platform-sdk/internal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := internal.Start(ctx, config.GetConfig()); err != nil {
		log.Panicf("failed to start gateway: %v", err)
	}
}
