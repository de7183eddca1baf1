package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"storefront-be/internal/app"
	"storefront-be/internal/config"
	"storefront-be/internal/logutil"
)

func main() {
	cliApp := &cli.App{
		Name:   "storefront-be",
		Usage:  "Authentication API for the storefront",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Connect to the store, migrate and serve the HTTP API",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Apply pending store migrations and exit",
				Action: migrate,
			},
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("Application failed")
		os.Exit(1)
	}
}

func setup(ctx context.Context) (context.Context, *config.Config, zerolog.Logger) {
	cfg := config.Load()
	logger := logutil.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	log.Logger = logger
	return logutil.WithLogger(ctx, logger), cfg, logger
}

func serve(c *cli.Context) error {
	ctx, cfg, logger := setup(c.Context)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			logger.Error().Err(err).Msg("Failed to close application")
		}
	}()

	return a.Run(ctx)
}

func migrate(c *cli.Context) error {
	ctx, cfg, logger := setup(c.Context)
	return app.Migrate(ctx, cfg, logger)
}
