// Package providers contains dependency injection providers for the CourseDeck server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/coursedeck/coursedeck-server/internal/config"
	"github.com/coursedeck/coursedeck-server/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// LoggerHandle owns the process logger and its rotating file.
type LoggerHandle struct {
	*logger.Logger
}

// Shutdown implements do.Shutdownable.
func (h *LoggerHandle) Shutdown() error {
	return h.Close()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*LoggerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	version := do.MustInvokeNamed[string](i, VersionKey)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
		File: logger.FileConfig{
			Path:       cfg.Logger.File,
			MaxSizeMB:  cfg.Logger.FileMaxSize,
			MaxBackups: cfg.Logger.FileBackups,
			MaxAgeDays: cfg.Logger.FileMaxAge,
			Compress:   true,
		},
	})

	log.Info("Starting CourseDeck Server",
		"version", version,
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Data.BasePath,
	)

	return &LoggerHandle{Logger: log}, nil
}
