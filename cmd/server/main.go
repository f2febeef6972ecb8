// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/stockrisk/internal/api"
	"github.com/andresuchdata/stockrisk/internal/app"
	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/internal/pipeline"
	"github.com/andresuchdata/stockrisk/internal/repository/postgres"
	"github.com/andresuchdata/stockrisk/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	logger.SetFormat(cfg.Log.Format)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize services
	a := app.New(ctx, cfg, db)

	router := api.NewRouter(&api.Services{Forecast: a.Forecast, Supplier: a.Supplier}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	admin := &http.Server{
		Addr: ":" + cfg.Server.AdminPort,
		Handler: api.NewAdminRouter(&api.Admin{
			Models:   a.Models,
			Runs:     a.Runs,
			Ready:    db.PingContext,
			LoadedAt: a.Registry.LoadedAt.Format(time.RFC3339),
		}),
		ReadTimeout: 5 * time.Second,
	}

	// Start servers in goroutines
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()
	go func() {
		logger.Log.Info().Str("port", cfg.Server.AdminPort).Msg("Starting admin server")
		if err := admin.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start admin server")
		}
	}()

	scheduler := pipeline.NewOrchestrator(a.Refresher, app.PipelineConfig(cfg).Interval)
	go scheduler.Start(ctx)

	// Wait for interrupt signal to gracefully shut down the servers
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")
	cancel()

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := admin.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Admin server forced to shutdown")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
