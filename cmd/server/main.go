package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/devtrackhq/contrib-monitor/internal/api"
	"github.com/devtrackhq/contrib-monitor/internal/config"
	"github.com/devtrackhq/contrib-monitor/internal/db"
	"github.com/devtrackhq/contrib-monitor/internal/ingest"

	_ "github.com/devtrackhq/contrib-monitor/docs"
)

// @title Contribution Monitor API
// @version 1.0
// @description Git webhook ingestion service: receives push events from GitHub, GitLab and Bitbucket and records contributions against projects.
// @host localhost:8080
// @BasePath /
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})
	logger.SetOutput(os.Stdout)

	// Load configuration with defaults
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	// Validate minimum required config
	if cfg.DBConnectionString == "" {
		logger.Fatal("Missing required configuration (DB_CONNECTION_STRING must be set)")
	}
	if cfg.GitHubWebhookSecret == "" && cfg.GitLabWebhookToken == "" && cfg.BitbucketWebhookSecret == "" {
		logger.Warn("No webhook secrets configured; all deliveries will be rejected")
	}

	// Initialize database
	dbStore, err := db.NewPostgresStore(cfg.DBConnectionString)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}

	// Run migrations with retry logic
	if err := retry(3, 5*time.Second, func() error {
		return dbStore.Migrate()
	}); err != nil {
		logger.Fatalf("Failed to run migrations after retries: %v", err)
	}

	// Initialize services
	ingestService := ingest.NewService(dbStore, logger)
	handler, err := api.NewHandler(ingestService, dbStore, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize handler: %v", err)
	}

	router := api.SetupRouter(handler)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	logger.Info("Server exited properly")
}

// retry retries a function up to a certain number of attempts with a delay between attempts
func retry(attempts int, sleep time.Duration, fn func() error) error {
	if err := fn(); err != nil {
		if attempts--; attempts > 0 {
			time.Sleep(sleep)
			return retry(attempts, sleep, fn)
		}
		return err
	}
	return nil
}
