package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rivora/internal/services"
	"github.com/desertthunder/rivora/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv("RIVORA_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}

	backend := services.NewBackendService(config.Backend.URL, config.Backend.AnonKey, &http.Client{Timeout: config.Backend.Timeout()})

	var generator services.Generator
	if config.Webhook.URL != "" {
		generator = services.NewWebhookService(config.Webhook.URL, nil, config.Webhook.Timeout(), config.Webhook.RateLimit)
	}

	apiService := services.NewAPIService(fmt.Sprintf("http://%s", config.Server.Addr()), nil)

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Auth:       backend,
		Generator:  generator,
		API:        apiService,
		Logger:     logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:    "rivora",
		Usage:   "Generate images and videos from prompts and keep them in a gallery",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				shared.SetLogLevel(logger, log.DebugLevel)
			}
			return ctx, nil
		},
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			return
		}
		runner.Close()
		stop()
		logger.Fatalf("application error: %v", err)
	}
}
