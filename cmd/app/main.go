package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintrack/internal/api/v1/router"
	"fintrack/internal/config"
	"fintrack/internal/logger"
	"fintrack/internal/secrets"

	_ "fintrack/docs"

	"github.com/joho/godotenv"
)

// @title FinTrack API
// @version 1.0
// @description Personal finance tracker API documentation
// @host localhost:8080
// @BasePath /v1
// @Schemes http https

func main() {
	logger := logger.New()

	// 1. Load configuration
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	// 2. Outside development, sensitive values come from Secret Manager and
	// override whatever the environment carries.
	if !cfg.IsDevelopment() && cfg.GCPProjectID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		mgr, err := secrets.NewManager(ctx, cfg.GCPProjectID, "")
		if err != nil {
			cancel()
			logger.Fatal().Msgf("Failed to create secrets manager: %v", err)
		}
		overrides := map[string]*string{
			"fintrack-jwt-secret":            &cfg.JWTSecret,
			"fintrack-stripe-secret-key":     &cfg.StripeSecretKey,
			"fintrack-stripe-webhook-secret": &cfg.StripeWebhookSecret,
			"fintrack-admin-api-key":         &cfg.AdminAPIKey,
		}
		for name, target := range overrides {
			value, err := mgr.Access(ctx, name)
			if err != nil {
				logger.Warn().Err(err).Str("secret", name).Msg("Secret not available, keeping env value")
				continue
			}
			*target = value
		}
		if err := mgr.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close secrets manager")
		}
		cancel()
	}

	// 3. Build router (and get DB pool)
	r, pool, err := router.New(cfg, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to build router: %v", err)
	}
	defer pool.Close()

	// 4. Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Start server in a goroutine
	go func() {
		logger.Info().Msgf("🚀 Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Msgf("Listen: %s\n", err)
		}
	}()

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Shutdown signal received, exiting...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Msgf("Server forced to shutdown: %v", err)
	}
	logger.Info().Msg("Server shut down gracefully")
}
