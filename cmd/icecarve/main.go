package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hurricanerix/icecarve/internal/config"
	"github.com/hurricanerix/icecarve/internal/startup"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	// Load .env before flags so it can supply OPENAI_API_KEY and PORT
	if err := config.LoadEnvFile(config.DefaultEnvFile); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	cfg, err := config.Parse(args, stderr)
	if errors.Is(err, config.ErrShowHelp) || errors.Is(err, config.ErrShowVersion) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger := startup.CreateLogger(cfg)

	logger.Info("Starting icecarve %s...", config.Version)
	logger.Debug("Configuration: addr=%s, session-scope=%s, state-updates=%s, request-timeout=%s, upload-dir=%s",
		cfg.Addr(), cfg.SessionScope, cfg.StateUpdates, cfg.RequestTimeout, cfg.UploadDir)
	logger.Debug("Models: chat=%s, vision=%s, image=%s (%s, %s)",
		cfg.ChatModel, cfg.VisionModel, cfg.ImageModel, cfg.ImageSize, cfg.ImageQuality)

	components, err := startup.InitializeAll(cfg, logger)
	if err != nil {
		logger.Error("Initialization failed: %v", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer startup.Cleanup(components, logger)

	logger.Info("Listening on http://%s", cfg.Addr())

	if err := startup.Run(context.Background(), components.WebServer, logger); err != nil {
		logger.Error("Server error: %v", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}
