package startup

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hurricanerix/icecarve/internal/logging"
	"github.com/hurricanerix/icecarve/internal/web"
)

// Cleanup stops background work owned by components.
// If components is nil, this is a no-op.
func Cleanup(components *Components, logger *logging.Logger) {
	if components == nil {
		return
	}

	if components.SessionManager != nil {
		logger.Debug("Stopping session cleanup")
		components.SessionManager.Shutdown()
	}

	logger.Debug("Cleanup complete")
}

// Run starts the web server and blocks until a shutdown signal is received.
// It handles SIGTERM and SIGINT signals for graceful shutdown.
// Returns nil on clean shutdown, error otherwise.
func Run(ctx context.Context, server *web.Server, logger *logging.Logger) error {
	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The web.Server itself logs "Shutting down..." and "Web server stopped"
	if err := server.ListenAndServe(shutdownCtx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Debug("Shutdown signal handled")
	return nil
}
