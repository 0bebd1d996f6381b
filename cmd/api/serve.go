package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/suar-net/form-relay/internal/config"
	"github.com/suar-net/form-relay/internal/database"
	"github.com/suar-net/form-relay/internal/handler"
	"github.com/suar-net/form-relay/internal/logging"
	"github.com/suar-net/form-relay/internal/metrics"
	"github.com/suar-net/form-relay/internal/repository"
	"github.com/suar-net/form-relay/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP relay.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)

	if cfg.Relay.EndpointURL == "" {
		logger.Warn().Msg("FORM_ENDPOINT_URL is not set; every submission will fail with a configuration error")
	}

	var db *sql.DB
	if cfg.DB.Enabled() {
		db, err = database.ConnectDB(cfg.DB)
		if err != nil {
			return err
		}
		defer db.Close()
		logger.Info().Msg("Successfully connected to database")

		if cfg.DB.AutoMigrate {
			if err := database.Migrate(db); err != nil {
				return err
			}
			logger.Info().Msg("Database migrations applied")
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	relayService := service.NewRelayService(cfg.Relay, m)
	repo := repository.NewRepository(db)

	deps := handler.RouterDeps{
		Relay:           relayService,
		RelayConfigured: relayService.Configured(),
		AllowedOrigins:  cfg.Admin.AllowedOrigins,
		Metrics:         m,
		Logger:          logger,
	}
	if db != nil {
		deps.DB = db
		deps.Attempts = service.NewAttemptService(repo.Attempt())
	}
	if cfg.Admin.Enabled() && db != nil {
		deps.Auth = service.NewAuthService(cfg.Admin)
	} else if cfg.Admin.Enabled() {
		logger.Warn().Msg("Admin API disabled: it needs DATABASE_URL for the attempt ledger")
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler.SetupRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Server.Port).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("cannot run server on port %s: %w", cfg.Server.Port, err)
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err, ok := <-serverErr:
		if ok {
			return err
		}
		return nil
	case <-stop:
	}

	logger.Info().Msg("Shutting down the server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info().Msg("Server successfully shut down")
	return nil
}
