package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skillenergy/internal/api/v1/router"
	"skillenergy/internal/config"
	"skillenergy/internal/logger"

	"github.com/joho/godotenv"
)

// @title SkillEnergy API
// @version 1.0
// @description SkillEnergy e-learning marketplace API
// @host localhost:8080
// @BasePath /api
// @Schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.

func main() {
	// 1. Load configuration
	envErr := godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		bootstrap := logger.New(os.Getenv("ENV"), "")
		bootstrap.Fatal().Msgf("Error loading config: %v", err)
	}

	logger := logger.New(cfg.Environment, cfg.LogLevel)
	if envErr != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	// 2. Build router (and its backing clients)
	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	r, cleanup, err := router.New(startCtx, cfg, logger)
	cancelStart()
	if err != nil {
		logger.Fatal().Msgf("Failed to build router: %v", err)
	}
	defer cleanup()

	// 3. Create HTTP server. Uploads need a longer write and read window than JSON calls.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	// 4. Start server in a goroutine
	go func() {
		logger.Info().Msgf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Msgf("Listen: %s", err)
		}
	}()

	// 5. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Shutdown signal received, exiting...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
		return
	}
	logger.Info().Msg("Server shut down gracefully")
}
