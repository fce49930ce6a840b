package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/k597/AlertsWebApi/internal/alerts/adapters"
	"github.com/k597/AlertsWebApi/internal/config"
	"github.com/k597/AlertsWebApi/internal/database"
	"github.com/k597/AlertsWebApi/internal/enrichment"
	"github.com/k597/AlertsWebApi/internal/feed"
	"github.com/k597/AlertsWebApi/internal/handlers"
	"github.com/k597/AlertsWebApi/internal/jobs"
	"github.com/k597/AlertsWebApi/internal/middleware"
	"github.com/k597/AlertsWebApi/internal/notify"
	"github.com/k597/AlertsWebApi/internal/services"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading it (this is fine if using environment variables): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting alerts API...")

	jwtAuthMiddleware := newJWTAuth(cfg)

	if err := database.Connect(cfg.DatabaseURL, database.ParseLogLevel(cfg.DBLogLevel)); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	repo := database.NewRepository(database.GetDB())

	enrichClient := enrichment.NewClient(enrichment.Config{
		BaseURL:       cfg.EnrichBaseURL,
		Timeout:       cfg.EnrichTimeout,
		RatePerSecond: cfg.EnrichRatePerSecond,
		Burst:         cfg.EnrichBurst,
	})
	blacklistService := services.NewBlacklistService(cfg.BlacklistThreshold, enrichClient)
	log.Printf("Blacklist classifier initialized (threshold %d, enrichment at %s)", cfg.BlacklistThreshold, cfg.EnrichBaseURL)

	alertService := services.NewAlertService(repo, blacklistService)

	if cfg.SlackBotToken != "" && cfg.SlackAlertsChannel != "" {
		alertService.SetNotifier(notify.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackAlertsChannel))
		log.Printf("Slack blacklist notifications ENABLED (channel %s)", cfg.SlackAlertsChannel)
	} else {
		log.Printf("Slack blacklist notifications DISABLED")
	}

	streamHandler := handlers.NewStreamHandler()
	alertService.SetEventPublisher(streamHandler)

	feedClient := feed.NewClient(feed.Config{
		BaseURL: cfg.FeedBaseURL,
		Timeout: cfg.FeedTimeout,
	})
	ingestionService := services.NewIngestionService(feedClient, alertService)
	for _, def := range cfg.Feeds {
		adapter, err := adapters.New(def.Name, def.Shape, def.Path)
		if err != nil {
			log.Fatalf("Failed to configure feed: %v", err)
		}
		ingestionService.RegisterAdapter(adapter, def.DefaultPageSize)
	}

	// Set up HTTP server routes
	mux := http.NewServeMux()
	handlers.NewHTTPHandler(func(ctx context.Context) error {
		return database.Ping(ctx, database.GetDB())
	}).SetupRoutes(mux)
	handlers.NewAuthHandler(jwtAuthMiddleware).SetupRoutes(mux)
	handlers.NewAlertsHandler(alertService, ingestionService).SetupRoutes(mux)
	streamHandler.SetupRoutes(mux)

	corsMiddleware := middleware.NewCORSMiddleware(cfg.CORSAllowedOrigins...)
	handler := middleware.Chain(mux,
		middleware.RequestIDMiddleware,
		corsMiddleware.Wrap,
		jwtAuthMiddleware.Wrap,
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting HTTP server on port %d", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	log.Printf("Health check endpoint: http://localhost:%d/health", cfg.HTTPPort)
	log.Printf("API base URL: http://localhost:%d/api/alerts", cfg.HTTPPort)
	for _, name := range ingestionService.Feeds() {
		log.Printf("Feed %s ingestion endpoint: POST http://localhost:%d/api/alerts/process-external-alerts-%s", name, cfg.HTTPPort, name)
	}

	pollCtx, stopPolling := context.WithCancel(context.Background())
	defer stopPolling()
	if cfg.FeedPollInterval > 0 {
		go jobs.NewFeedPoller(ingestionService).Start(pollCtx, cfg.FeedPollInterval)
		log.Printf("Feed poller started (every %s)", cfg.FeedPollInterval)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("Received shutdown signal, cleaning up...")
	stopPolling()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}
	log.Println("Shutdown complete")
}

// newJWTAuth builds the auth middleware; with AUTH_ENABLED=false it passes every request through
func newJWTAuth(cfg *config.Config) *middleware.JWTAuthMiddleware {
	authConfig := &middleware.JWTAuthConfig{
		Enabled:        cfg.AuthEnabled,
		AdminUsername:  cfg.AdminUsername,
		JWTSecret:      cfg.JWTSecret,
		JWTExpiryHours: cfg.JWTExpiryHours,
		SkipPaths: []string{
			"/health",
			"/metrics",
			"/auth/login",
		},
	}

	if !cfg.AuthEnabled {
		log.Printf("JWT authentication DISABLED (set AUTH_ENABLED=true to require tokens)")
		return middleware.NewJWTAuthMiddleware(authConfig)
	}

	if cfg.AdminPassword == "" {
		log.Fatalf("ADMIN_PASSWORD is not set")
	}
	passwordHash, err := middleware.HashPassword(cfg.AdminPassword)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}
	authConfig.AdminPasswordHash = passwordHash

	log.Printf("JWT authentication enabled for user: %s", cfg.AdminUsername)
	return middleware.NewJWTAuthMiddleware(authConfig)
}
