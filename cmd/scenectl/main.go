// Command scenectl applies one natural-language instruction to a scene file
// through the edit relay.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/scraper-sky/2d-scene-editor/internal/core/bridge"
	"github.com/scraper-sky/2d-scene-editor/internal/core/events"
	"github.com/scraper-sky/2d-scene-editor/internal/core/observability/log"
	"github.com/scraper-sky/2d-scene-editor/internal/core/scene/codec"
	"github.com/scraper-sky/2d-scene-editor/internal/injector"
)

func main() {
	var (
		scenePath   = flag.String("scene", "scene.json", "scene document to edit")
		relayURL    = flag.String("relay", bridge.DefaultTransportConfig().Endpoint, "relay push-ai endpoint")
		instruction = flag.String("instruction", "", "what to change")
		outPath     = flag.String("out", "", "where to write the result (default: overwrite -scene)")
		logLevel    = flag.String("log-level", "info", "debug, info, warn, error or fatal")
	)
	flag.Parse()

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "scenectl:", err)
		os.Exit(2)
	}
	if *instruction == "" {
		fmt.Fprintln(os.Stderr, "scenectl: -instruction is required")
		os.Exit(2)
	}
	if *outPath == "" {
		*outPath = *scenePath
	}

	logger := log.New(level)
	defer func() { _ = logger.Sync() }()

	config := bridge.DefaultTransportConfig()
	config.Endpoint = *relayURL
	editor := injector.InitializeEditor(config, logger)
	editor.Events.SubscribeAll(func(e events.Event) error {
		logger.Debug("Scene changed", log.String("kind", string(e.Kind)))
		return nil
	})

	records, err := codec.Load(*scenePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Info("Scene file missing, starting empty", log.String("path", *scenePath))
	case err != nil:
		logger.Fatal("Failed to load scene", log.String("path", *scenePath), log.Error(err))
	default:
		if err = editor.Store.ReplaceAll(records); err != nil {
			logger.Fatal("Scene file is invalid", log.String("path", *scenePath), log.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcome, err := editor.Bridge.Submit(ctx, *instruction)
	if err != nil {
		logger.Error("Edit not applied",
			log.String("status", outcome.Status.String()),
			log.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}

	if err = codec.Save(*outPath, editor.Store); err != nil {
		logger.Fatal("Failed to save scene", log.String("path", *outPath), log.Error(err))
	}
	logger.Info("Edit applied",
		log.Int("entities", outcome.Count),
		log.Bool("discarded_local_edits", outcome.DiscardedLocalEdits),
		log.String("path", *outPath))
}
