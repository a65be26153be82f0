package main

import (
	"ColorPredict/internal/app"
	"ColorPredict/internal/shared/config"
	"ColorPredict/internal/shared/logger"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "colorpredict",
		Short:         "ColorPredict verification service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(serveCommand(), migrateCommand(), tokenCommand())
	return rootCmd
}

// setup loads configuration and builds the base logger.
func setup() (*config.Config, zerolog.Logger, error) {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		return nil, zerolog.Nop(), err
	}

	// 2. Initialize Logger
	baseLogger := logger.New(cfg.IsDev())
	baseLogger.Info().
		Str("app_env", cfg.AppEnv).
		Str("storage", cfg.Storage.Driver).
		Str("bot_mode", cfg.Bot.Connection.Mode).
		Msg("Configuration loaded")
	return cfg, baseLogger, nil
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the admin bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, baseLogger, err := setup()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, &baseLogger, app.Options{})
			if err != nil {
				baseLogger.Error().Err(err).Msg("Failed to initialize application")
				return err
			}

			baseLogger.Info().Msg("Application started")
			if err := a.Run(ctx); err != nil {
				baseLogger.Error().Err(err).Msg("Application stopped with error")
				return err
			}
			return nil
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the verification schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, baseLogger, err := setup()
			if err != nil {
				return err
			}
			_, closeRepo, err := app.OpenRepository(cmd.Context(), &cfg.Storage, &baseLogger)
			if err != nil {
				baseLogger.Error().Err(err).Msg("Migration failed")
				return err
			}
			closeRepo()
			baseLogger.Info().Str("storage", cfg.Storage.Driver).Msg("Schema is up to date")
			return nil
		},
	}
}
