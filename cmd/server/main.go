package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"speechcheck/internal/config"
	"speechcheck/internal/database"
	"speechcheck/internal/handlers"
	"speechcheck/internal/repository"
	"speechcheck/internal/security"
	"speechcheck/internal/seed"
	"speechcheck/internal/service"
	"speechcheck/internal/speech"
	"speechcheck/internal/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// Tracing and metrics must be installed before services create instruments
	shutdownTelemetry, metricsHandler, err := telemetry.Setup(ctx, telemetry.Config{
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		OTLPInsecure:   cfg.OTLPInsecure,
		MetricsEnabled: cfg.MetricsEnabled,
	})
	if err != nil {
		log.Fatalf("Failed to set up telemetry: %v", err)
	}

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	targetRepo := repository.NewTargetRepository(db)
	recognitionRepo := repository.NewRecognitionRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	// The server still records browser transcriptions without a provider
	var transcriber speech.Transcriber
	googleClient, err := speech.NewGoogleClient(ctx, speech.GoogleConfig{
		Endpoint:        cfg.GoogleSpeechEndpoint,
		APIKey:          cfg.GoogleAPIKey,
		CredentialsFile: cfg.GoogleCredentialsFile,
		Timeout:         cfg.SpeechTimeout,
	})
	if err != nil {
		log.Printf("Warning: Google Speech-to-Text unavailable, audio uploads will fail: %v", err)
	} else {
		transcriber = googleClient
	}

	// Initialize services
	catalogService := service.NewCatalogService(userRepo, targetRepo)
	recognitionService := service.NewRecognitionService(targetRepo, recognitionRepo, transcriber, service.RecognitionOptions{
		Language:    cfg.Recognition.Language,
		Model:       cfg.Recognition.Model,
		Punctuation: cfg.Recognition.Punctuation,
		Enhanced:    cfg.Recognition.Enhanced,
	})
	statsService := service.NewStatsService(statsRepo)
	exportService := service.NewExportService(recognitionRepo, statsService)
	authService, err := service.NewAuthService(cfg.OperatorPasswordHash, cfg.OperatorTokenSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("Failed to configure operator auth: %v", err)
	}
	if !authService.Enabled() {
		log.Println("Warning: OPERATOR_PASSWORD_HASH not set, API is open to anyone who can reach it")
	}

	// Seed the catalog on first start
	if cfg.SeedFile != "" {
		if err := seedCatalog(ctx, catalogService, cfg.SeedFile); err != nil {
			log.Printf("Warning: Failed to seed catalog: %v", err)
		}
	}

	// Initialize handlers
	loginLimiter := security.NewRateLimiter(5, time.Minute)
	defer loginLimiter.Stop()
	middleware := handlers.NewMiddleware(authService, loginLimiter)

	// Setup routes
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, handlers.API{
		Catalog:     handlers.NewCatalogHandler(catalogService),
		Recognition: handlers.NewRecognitionHandler(recognitionService, cfg.UploadMaxSize),
		Results:     handlers.NewResultsHandler(recognitionService, statsService, exportService),
		Auth:        handlers.NewAuthHandler(authService),
		Middleware:  middleware,
	})
	handlers.RegisterStatic(mux, cfg.StaticFilesPath)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	// Wrap with logging middleware
	handler := handlers.Logging(handlers.CORS(mux))

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		// Provider calls can take up to SPEECH_TIMEOUT
		WriteTimeout: cfg.SpeechTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Printf("Error flushing telemetry: %v", err)
	}
}

// seedCatalog loads the item bank into an empty catalog
func seedCatalog(ctx context.Context, catalogService *service.CatalogService, path string) error {
	bank, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	n, err := catalogService.SeedBank(ctx, bank, true)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("Seeded %d target items from %s", n, path)
	}
	return nil
}
