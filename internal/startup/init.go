package startup

import (
	"fmt"

	"github.com/hurricanerix/icecarve/internal/config"
	"github.com/hurricanerix/icecarve/internal/conversation"
	"github.com/hurricanerix/icecarve/internal/image"
	"github.com/hurricanerix/icecarve/internal/llm"
	"github.com/hurricanerix/icecarve/internal/logging"
	"github.com/hurricanerix/icecarve/internal/metrics"
	"github.com/hurricanerix/icecarve/internal/sculpture"
	"github.com/hurricanerix/icecarve/internal/studio"
	"github.com/hurricanerix/icecarve/internal/web"
)

// Components holds all initialized application components
type Components struct {
	LLMClient      *llm.Client
	SessionManager *conversation.SessionManager
	Uploads        *image.Uploads
	Metrics        *metrics.Metrics
	Chat           *studio.ChatOrchestrator
	Images         *studio.ImageOrchestrator
	WebServer      *web.Server
	Logger         *logging.Logger
}

// CreateLogger creates a logger with the configured log level
func CreateLogger(cfg *config.Config) *logging.Logger {
	return logging.NewFromString(cfg.LogLevel, nil)
}

// CreateLLMClient creates the model provider client.
// It does NOT contact the provider - use ValidateBaseURL() separately.
func CreateLLMClient(cfg *config.Config) *llm.Client {
	return llm.NewClient(llm.Config{
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		ChatModel:    cfg.ChatModel,
		VisionModel:  cfg.VisionModel,
		ImageModel:   cfg.ImageModel,
		ImageSize:    cfg.ImageSize,
		ImageQuality: cfg.ImageQuality,
	}, cfg.RequestTimeout)
}

// CreateSessionManager creates a session manager for conversation state
func CreateSessionManager(logger *logging.Logger) *conversation.SessionManager {
	return conversation.NewSessionManager(logger)
}

// CreateUploads creates the upload staging area and its directory.
func CreateUploads(cfg *config.Config) (*image.Uploads, error) {
	uploads := image.NewUploads(cfg.UploadDir)
	if err := EnsureUploadDir(uploads); err != nil {
		return nil, err
	}
	return uploads, nil
}

// CreateMetrics creates the metrics registry and binds the session gauge.
func CreateMetrics(sessionManager *conversation.SessionManager) *metrics.Metrics {
	m := metrics.New()
	m.RegisterSessionGauge(sessionManager.Count)
	return m
}

// CreateUpdater returns the sculpture state-update step selected by cfg.
func CreateUpdater(cfg *config.Config) sculpture.Updater {
	if cfg.StateUpdates == config.StateUpdatesMetadata {
		return sculpture.MetadataUpdater{}
	}
	return sculpture.NopUpdater{}
}

// CreateWebServer creates the HTTP server with all dependencies wired
func CreateWebServer(cfg *config.Config, chat *studio.ChatOrchestrator, images *studio.ImageOrchestrator, sessionManager *conversation.SessionManager, uploads *image.Uploads, m *metrics.Metrics, logger *logging.Logger) (*web.Server, error) {
	server, err := web.NewServerWithDeps(cfg.Addr(), web.Deps{
		Chat:           chat,
		Images:         images,
		Sessions:       sessionManager,
		Uploads:        uploads,
		Metrics:        m,
		Logger:         logger,
		Scope:          web.SessionScope(cfg.SessionScope),
		RequestTimeout: cfg.RequestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create web server: %w", err)
	}

	return server, nil
}

// InitializeAll creates and initializes all application components.
// On error, anything already started is shut down.
func InitializeAll(cfg *config.Config, logger *logging.Logger) (*Components, error) {
	logger.Debug("Initializing components")

	if err := ValidateBaseURL(cfg.BaseURL); err != nil {
		return nil, err
	}

	llmClient := CreateLLMClient(cfg)
	logger.Debug("Created model client: endpoint=%s, chat=%s, image=%s", cfg.BaseURL, llmClient.ChatModel(), llmClient.ImageModel())

	uploads, err := CreateUploads(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("Upload directory ready: %s", uploads.Dir())

	sessionManager := CreateSessionManager(logger)
	logger.Debug("Created session manager (scope=%s)", cfg.SessionScope)

	m := CreateMetrics(sessionManager)

	updater := CreateUpdater(cfg)
	logger.Debug("Sculpture state updates: %s", cfg.StateUpdates)

	chat := studio.NewChatOrchestrator(llmClient, updater, m, logger)
	images := studio.NewImageOrchestrator(llmClient, m)

	webServer, err := CreateWebServer(cfg, chat, images, sessionManager, uploads, m, logger)
	if err != nil {
		sessionManager.Shutdown()
		return nil, err
	}
	logger.Debug("Created web server on %s", cfg.Addr())

	return &Components{
		LLMClient:      llmClient,
		SessionManager: sessionManager,
		Uploads:        uploads,
		Metrics:        m,
		Chat:           chat,
		Images:         images,
		WebServer:      webServer,
		Logger:         logger,
	}, nil
}
