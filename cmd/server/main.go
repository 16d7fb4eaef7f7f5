package main

import (
	"context"
	"net/http"

	"github.com/spf13/viper"

	"github.com/StephenDK/Secure-Line/clips"
	"github.com/StephenDK/Secure-Line/internal/config"
	"github.com/StephenDK/Secure-Line/internal/errors"
	"github.com/StephenDK/Secure-Line/internal/httputil"
	"github.com/StephenDK/Secure-Line/internal/log"
	"github.com/StephenDK/Secure-Line/internal/otel"
	"github.com/StephenDK/Secure-Line/internal/workflow"
	"github.com/StephenDK/Secure-Line/relay"
	"github.com/StephenDK/Secure-Line/transport"
)

type Config struct {
	App  config.App      `mapstructure:"app"`
	HTTP httputil.Config `mapstructure:"http"`
	Otel otel.Config     `mapstructure:"otel"`

	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func loadConfig() (*Config, error) {
	return config.Load(&Config{}, func(v *viper.Viper) {
		v.SetDefault("allowed_origins", []string{"*"})

		config.Setup(v, "app")
		otel.Setup(v, "otel")
		httputil.Setup(v, "http")

		v.SetDefault("http.addr", ":3000")
	})
}

func main() {
	config, err := loadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration", err)
	}

	logger, err := log.NewLogger(config.App.LogConfigFile)
	if err != nil {
		log.Fatal("Failed to create logger", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	// Initialize OpenTelemetry
	otelShutdown, err := otel.Init(ctx, &config.Otel, logger)
	if err != nil {
		logger.Fatal("Failed to initialize OTEL provider", log.Error(err))
	}

	logger.Info("Starting Secure-Line server...")

	clipStore := clips.NewStore(clips.DefaultTTL, logger.Module("ClipStore"))

	registry := relay.NewRegistry(logger.Module("Registry"))
	router := relay.NewRouter(registry, clipStore, logger.Module("Router"))
	relayServer := relay.NewServer(
		registry,
		router,
		config.AllowedOrigins,
		logger.Module("Relay"),
	)

	httpRouter := transport.NewRouter(
		clipStore,
		relayServer.HandleWebSocket,
		config.AllowedOrigins,
		logger.Module("HTTP"),
	)
	httpServer := httputil.NewServer(&config.HTTP, httpRouter.Handler())

	go func() {
		logger.Info("Starting HTTP server", log.String("addr", config.HTTP.Addr))
		if err := httpServer.Listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start HTTP server", log.Error(err))
		}
	}()

	// Graceful shutdown
	cleanup := func(ctx context.Context) {
		_ = httpServer.Shutdown(ctx)

		if err := relayServer.Close(); err != nil {
			logger.Error("Error closing relay server", log.Error(err))
		}
		if err := clipStore.Close(); err != nil {
			logger.Error("Error closing clip store", log.Error(err))
		}
		if err := otelShutdown(ctx); err != nil {
			logger.Error("Failed to shutdown OTEL", log.Error(err))
		}
	}
	workflow.WaitGracefulShutdown(ctx, logger.Module("CleanUp"), cleanup, config.App.ShutdownTimeout)
}
