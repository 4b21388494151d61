package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/llm-mail-triage/internal/adapters/api"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/di"
	"github.com/mikey/llm-mail-triage/internal/ports"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// runParams are the dependencies injected into run
type runParams struct {
	dig.In

	Logger   *zap.Logger
	Server   *api.Server
	Listener ports.Frontend `name:"source_listener" optional:"true"`
	Sink     core.RecordSink
}

// run is the main application function that gets all dependencies injected
func run(p runParams) error {
	logger := p.Logger
	defer logger.Sync()

	// Sources that receive mail themselves start before the API
	if p.Listener != nil {
		if err := p.Listener.Start(); err != nil {
			logger.Error("Failed to start mail listener", zap.Error(err))
			return err
		}
	}

	if err := p.Server.Start(); err != nil {
		logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	if err := p.Server.Stop(); err != nil {
		logger.Error("Failed to stop HTTP server", zap.Error(err))
	}

	if p.Listener != nil {
		if err := p.Listener.Stop(); err != nil {
			logger.Error("Failed to stop mail listener", zap.Error(err))
		}
	}

	// Stop the sink if needed
	if stopper, ok := p.Sink.(ports.Stopper); ok {
		stopper.Stop()
	}

	logger.Info("Shutdown complete")
	return nil
}
