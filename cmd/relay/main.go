package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/scraper-sky/2d-scene-editor/internal/core/observability/log"
	"github.com/scraper-sky/2d-scene-editor/internal/injector"
	"github.com/scraper-sky/2d-scene-editor/internal/relay"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	config, err := relay.LoadConfig(*configPath)
	if err == nil {
		err = config.ApplyEnv(os.LookupEnv)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "relay:", err)
		os.Exit(2)
	}

	logger := log.New(config.LogLevel)
	defer func() { _ = logger.Sync() }()

	srv, err := injector.InitializeRelay(config, logger)
	if err != nil {
		if errors.Is(err, relay.ErrConfiguration) {
			logger.Error("Relay misconfigured", log.Error(err))
			_ = logger.Sync()
			os.Exit(2)
		}
		logger.Fatal("Failed to create relay", log.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = srv.Run(ctx); err != nil {
		logger.Error("Relay failed", log.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}
