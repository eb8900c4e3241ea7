package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cashdesk-backend/internal/config"
	"cashdesk-backend/internal/database"
	"cashdesk-backend/internal/server"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var configFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cashdesk-server",
		Short:         "REST backend for cash desk payments",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "optional config file (yaml, json or env)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Migrate the database and start the HTTP server",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database tables and exit",
			RunE:  runMigrate,
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Insert demo cash desk and employees",
			RunE:  runSeed,
		},
	)
	return root
}

// setup loads the config and installs the process wide logger.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		slog.Error("config could not be loaded", "error", err)
		return nil, nil, err
	}

	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	log := slog.New(handler)
	slog.SetDefault(log)

	return cfg, log, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		return err
	}
	if err := database.Migrate(db); err != nil {
		log.Error("migration failed", "error", err)
		return err
	}
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		return err
	}
	if err := database.Migrate(db); err != nil {
		log.Error("migration failed", "error", err)
		return err
	}
	if err := database.Seed(db); err != nil {
		log.Error("seeding failed", "error", err)
		return err
	}
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		return err
	}
	if err := database.Migrate(db); err != nil {
		log.Error("migration failed", "error", err)
		return err
	}

	app := server.New(server.Deps{
		Config:    cfg,
		DB:        db,
		Logger:    log,
		AccessLog: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "port", cfg.HTTPPort)
		errCh <- app.Listen(":" + cfg.HTTPPort)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server stopped", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("listener returned after shutdown", "error", err)
	}
	return nil
}
