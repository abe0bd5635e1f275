package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leaseguard/leaseguard-api/internal/assistant"
	"github.com/leaseguard/leaseguard-api/internal/cache"
	"github.com/leaseguard/leaseguard-api/internal/config"
	"github.com/leaseguard/leaseguard-api/internal/db"
	"github.com/leaseguard/leaseguard-api/internal/report"
	"github.com/leaseguard/leaseguard-api/internal/repository"
	"github.com/leaseguard/leaseguard-api/internal/router"
	"github.com/leaseguard/leaseguard-api/internal/services"
	"github.com/leaseguard/leaseguard-api/internal/storage"
	"github.com/leaseguard/leaseguard-api/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := utils.NewLogger(cfg.LogLevel)

	// Initialize database
	database, err := db.NewSQLiteDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	// Object storage for uploaded documents and archived reports
	store, err := storage.NewS3Storage(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage", "error", err)
	}

	docRepo := repository.NewRepository(database)

	assistantClient := assistant.NewHTTPClient(cfg.AssistantAPIKey, cfg.AssistantID, cfg.AssistantBaseURL, logger)

	analysisService, err := services.NewAnalysisService(docRepo, store, assistantClient, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize analysis service", "error", err)
	}

	reportCache := cache.NewMemory(cfg.ReportCacheTTL, cfg.ReportCacheTTL/2)
	defer reportCache.Close()

	renderer := report.NewRenderer(report.Geometry{
		PageWidth:  cfg.PageWidth,
		PageHeight: cfg.PageHeight,
		Margin:     cfg.PageMargin,
		SafeBottom: cfg.SafeBottomMargin,
	}, logger)

	reportService := services.NewReportService(docRepo, store, renderer, reportCache, logger)

	// Setup HTTP router
	handler := router.NewRouter(analysisService, reportService, logger)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// Analysis requests block until the remote job finishes, so the
		// write timeout must outlast the analysis deadline.
		WriteTimeout: cfg.AnalysisTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
