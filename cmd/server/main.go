package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/HelixAutomations/enquiry-timeline/internal/api"
	"github.com/HelixAutomations/enquiry-timeline/internal/auth"
	"github.com/HelixAutomations/enquiry-timeline/internal/config"
	"github.com/HelixAutomations/enquiry-timeline/internal/database"
	"github.com/HelixAutomations/enquiry-timeline/internal/forward"
	"github.com/HelixAutomations/enquiry-timeline/internal/instruction"
	"github.com/HelixAutomations/enquiry-timeline/internal/logging"
	"github.com/HelixAutomations/enquiry-timeline/internal/metrics"
	"github.com/HelixAutomations/enquiry-timeline/internal/orchestrator"
	"github.com/HelixAutomations/enquiry-timeline/internal/server"
	"github.com/HelixAutomations/enquiry-timeline/internal/sources"
	"github.com/HelixAutomations/enquiry-timeline/internal/summarizer"
	"github.com/joho/godotenv"
	"log/slog"
)

func main() {
	// Local development convenience; production sets real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting enquiry timeline service")

	// Connect to the CRM database
	logger.Info("connecting to database")
	dbConfig := database.DefaultConfig()
	dbConfig.URL = cfg.Database.URL
	db, err := database.Connect(context.Background(), dbConfig)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connected")

	// Run pending migrations (non-fatal to allow app to start even if migrations fail)
	if err := database.RunMigrations(db, "./migrations", logger); err != nil {
		logger.Warn("failed to run migrations, continuing anyway", "error", err)
	}

	// Create repositories
	enquiryRepo := database.NewEnquiryRepository(db)
	syncLogRepo := database.NewSyncLogRepository(db)

	// Metrics
	collector, err := metrics.NewHTTPCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}
	syncCollector, err := metrics.NewSyncCollector(collector.Registry())
	if err != nil {
		logger.Error("failed to init sync metrics", "error", err)
		os.Exit(1)
	}

	// Source connectors, one per external collaborator
	timeout := cfg.Services.RequestTimeout
	connectors := []sources.Connector{
		sources.NewPitchConnector(cfg.Services.PitchStoreURL, timeout, logger),
		sources.NewMailboxConnector(cfg.Services.MailboxURL, timeout, logger),
		sources.NewTelephonyConnector(cfg.Services.TelephonyURL, timeout, logger),
	}

	instructionClient := instruction.NewClient(cfg.Services.InstructionURL, timeout, logger)
	forwardClient := forward.NewClient(cfg.Services.MailServiceURL, timeout, logger)

	// Summarizer: OpenAI when a key is configured, rule-based otherwise
	var summaries summarizer.Summarizer
	summarizerConfig := summarizer.ConfigFromEnv()
	if summarizerConfig.APIKey != "" {
		logger.Info("using OpenAI summarizer", "model", summarizerConfig.Model)
		summaries = summarizer.NewOpenAIClient(summarizerConfig, logger)
	} else {
		logger.Warn("OPENAI_API_KEY not set, using rule-based summarizer")
		summaries = summarizer.NewMockSummarizer()
	}

	// Orchestrator owns the per-enquiry timeline sessions
	orch := orchestrator.New(connectors, instructionClient, syncLogRepo, syncCollector, logger, orchestrator.Config{
		SessionTTL: cfg.Session.TTL,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go orch.Run(ctx)

	// Setup HTTP routes
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("/api/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"enquiry-timeline","status":"ready","version":"0.1.0"}`))
	})

	mux.Handle("/metrics", collector.Handler())

	// Load auth configuration
	authConfig := auth.LoadConfigFromEnv()
	logger.Info("auth configured", "jwt_secret_set", authConfig.JWTSecret != "change-this-secret")

	logger.Info("setting up REST API")
	api.SetupRoutes(mux, orch, enquiryRepo, syncLogRepo, forwardClient, summaries, authConfig, logger)

	// Start server
	srv := server.New(cfg.Server, logger, collector.InstrumentHandler(mux))

	go func() {
		logger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("enquiry timeline service started successfully")
	logger.Info("API available", "url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port))

	waitForSignal(logger)

	logger.Info("shutting down")
	cancel()
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
