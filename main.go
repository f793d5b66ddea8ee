package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"runlog/internal/config"
	"runlog/internal/database"
	"runlog/internal/handlers"
	"runlog/internal/metrics"
	"runlog/internal/middleware"
	"runlog/internal/oauth"
	"runlog/internal/strava"
	"runlog/internal/syncer"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set up logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting runlog server",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.DatabasePath,
		"log_level", cfg.LogLevel)

	// Open database
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("Database opened successfully")

	// Create Strava client and sync pipeline
	stravaClient := strava.NewClient(cfg)
	syncRunner := syncer.New(db, stravaClient)
	oauthManager := oauth.NewManager(cfg, db, stravaClient)

	// Create handlers
	oauthHandler := handlers.NewOAuthHandler(oauthManager, cfg)
	syncHandler := handlers.NewSyncHandler(db, stravaClient, syncRunner, cfg)
	activitiesHandler := handlers.NewActivitiesHandler(db, cfg)

	// Set up HTTP routes
	mux := http.NewServeMux()

	// Strava OAuth + sync endpoints
	mux.Handle("GET /api/strava/authorize", middleware.WrapHandler(metrics.EndpointAuthorize, oauthHandler.HandleAuthorize))
	mux.Handle("GET /api/strava/callback", middleware.WrapHandler(metrics.EndpointCallback, oauthHandler.HandleCallback))
	mux.Handle("POST /api/strava/sync", middleware.WrapHandler(metrics.EndpointSync, syncHandler.HandleSync))
	mux.Handle("GET /api/strava/test", middleware.WrapHandler(metrics.EndpointConnectionTest, syncHandler.HandleConnectionTest))

	// Public activity feed
	mux.Handle("GET /api/public/activities", middleware.WrapHandler(metrics.EndpointPublicActivities, activitiesHandler.HandleListPublic))

	// Admin CRUD + maintenance endpoints
	mux.Handle("POST /api/admin/activities", middleware.WrapHandler(metrics.EndpointAdminActivities, activitiesHandler.HandleCreate))
	mux.Handle("PATCH /api/admin/activities/{id}", middleware.WrapHandler(metrics.EndpointAdminActivity, activitiesHandler.HandleUpdate))
	mux.Handle("DELETE /api/admin/activities/{id}", middleware.WrapHandler(metrics.EndpointAdminActivity, activitiesHandler.HandleDelete))
	mux.Handle("POST /api/admin/maintenance/strava-publicize", middleware.WrapHandler(metrics.EndpointPublicize, activitiesHandler.HandlePublicize))

	// Health check endpoint
	mux.Handle("GET /health", middleware.WrapHandler(metrics.EndpointHealth, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start metrics server if enabled
	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())

		metricsAddr := fmt.Sprintf("%s:%d", cfg.MetricsHost, cfg.MetricsPort)
		metricsServer = &http.Server{
			Addr:    metricsAddr,
			Handler: metricsMux,
		}

		go func() {
			logger.Info("Metrics server listening", "addr", metricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Start HTTP server in background
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down gracefully...")

	// Shutdown HTTP servers with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown failed", "error", err)
		}
	}

	logger.Info("Server stopped")
}
