package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/joho/godotenv"
	"github.com/openfield/crewmarket/api"
	embedded "github.com/openfield/crewmarket/db"
	"github.com/openfield/crewmarket/internal/config"
	"github.com/openfield/crewmarket/internal/db"
	"github.com/openfield/crewmarket/internal/engine"
	"github.com/openfield/crewmarket/internal/jobs"
	"github.com/openfield/crewmarket/internal/repository/sqlite"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	// optional .env for local development
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	api.SetLogger(logger)

	logger.Info("starting crewmarket server", "version", version, "built", buildTime)

	ctx := context.Background()

	// Open database connection and apply migrations
	database, err := db.New(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Migrate(ctx, database, embedded.Migrations); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	repo := sqlite.New(database, logger)

	details, err := engine.NewDetailValidator(embedded.DetailSchemas, "schemas")
	if err != nil {
		log.Fatalf("Failed to load detail schemas: %v", err)
	}

	// Engine services share one event bus
	bus := engine.NewBus(logger)
	jobsSvc := engine.NewJobs(repo, repo, details, bus, logger)
	requestsSvc := engine.NewRequests(repo, repo, bus, logger)
	ratingsSvc := engine.NewRatings(repo, repo, repo, repo, logger)

	// Background worker pool: rating prompts and the stale sweep
	queueRepo := jobs.NewRepository(database)
	handlers := map[string]jobs.Handler{
		jobs.TypeRatingPrompt: jobs.RatingPromptHandler(logger),
		jobs.TypeStaleSweep:   jobs.StaleSweepHandler(repo, repo, logger),
	}
	pool := jobs.NewWorkerPool(queueRepo, handlers, logger, cfg.Worker.Count)
	pool.Start(ctx)
	defer pool.Stop()

	bus.Subscribe(jobs.RatingPromptSubscriber(pool, logger))

	sweeper := jobs.NewSweeper(pool, cfg.Sweep.MaxAge, cfg.Sweep.Interval, logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	handler := api.SetupRoutes(cfg, version, buildTime, api.Services{
		Jobs:     jobsSvc,
		Requests: requestsSvc,
		Ratings:  ratingsSvc,
		Accounts: repo,
		Profiles: repo,
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := database.Close(); err != nil {
		logger.Error("error closing DB", "err", err)
	}

	logger.Info("server exited")
}
