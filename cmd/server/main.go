package main

import (
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/cdr2/pan/internal/bridge"
	"github.com/cdr2/pan/internal/bus"
	"github.com/cdr2/pan/internal/config"
	"github.com/cdr2/pan/internal/logging"
	"github.com/cdr2/pan/internal/server"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.New() // Initialize the structured logger

	b := bus.New()

	// Optionally mirror bus traffic onto an in-process watermill channel so
	// watermill-based consumers can attach.
	if cfg.RelayEnabled {
		goChannel := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
		relay := bridge.NewRelay(b, goChannel, slog.Default())
		if err := relay.Forward(cfg.RelayPatterns...); err != nil {
			slog.Error("Failed to start watermill relay", "error", err)
			os.Exit(1)
		}
		defer relay.Close()
	}

	s := server.New(cfg, b)
	slog.Info("Starting SSE hub", "addr", cfg.Addr, "relay", cfg.RelayEnabled)
	s.Start(cfg.Addr)
}
