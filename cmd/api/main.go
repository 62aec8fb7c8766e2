// Package main provides the entry point for the CourseDeck server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/coursedeck/coursedeck-server/internal/di"
	"github.com/coursedeck/coursedeck-server/internal/di/providers"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	injector := di.NewContainer(version)

	if err := di.Bootstrap(context.Background(), injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*providers.LoggerHandle](injector)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	// Services are shut down in reverse dependency order: HTTP server first, logger last.
	if err := injector.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
	}
}
