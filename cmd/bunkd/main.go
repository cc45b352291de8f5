// Bunkd - Should-I-bunk decision support for students.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/shouldibunk/bunkd/internal/api"
	"github.com/shouldibunk/bunkd/internal/bus"
	"github.com/shouldibunk/bunkd/internal/cache"
	"github.com/shouldibunk/bunkd/internal/domain"
	"github.com/shouldibunk/bunkd/internal/predict"
	"github.com/shouldibunk/bunkd/internal/repository"
	"github.com/shouldibunk/bunkd/internal/rules"
	"github.com/shouldibunk/bunkd/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("BUNKD_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting bunkd",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for Pro tier via environment
	if os.Getenv("BUNKD_TIER") == "pro" {
		cfg = domain.ProConfig()
		slog.Info("running in Pro tier mode")
	}
	applyEnvOverrides(cfg)

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"model_path", cfg.Predictor.ModelPath,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize Rule Cascade
	cascade, err := rules.NewCascade()
	if err != nil {
		slog.Error("failed to initialize rule cascade", "error", err)
		os.Exit(1)
	}
	defer cascade.Close()

	// Load cascade rules from the database, falling back to the built-in set
	if err := loadCascadeFromDatabase(ctx, repo, cascade); err != nil {
		slog.Error("failed to load cascade rules", "error", err)
		os.Exit(1)
	}
	slog.Info("rule cascade initialized", "rules_count", cascade.RulesCount())

	// Initialize the prediction core. A missing or invalid model artifact is
	// not fatal: the facade runs rule-only until restart.
	facade := predict.New(cfg.Predictor, cascade, cacheImpl, Version)
	slog.Info("prediction core initialized", "engine", facade.State())

	// Initialize async Worker (Pro tier)
	var asyncWorker *worker.Worker
	if cfg.Tier == domain.TierPro || os.Getenv("BUNKD_ASYNC_WORKER") == "true" {
		asyncWorker = worker.NewWorker(busImpl, repo, facade)
		if err := asyncWorker.Start(); err != nil {
			slog.Error("failed to start async worker", "error", err)
		} else {
			slog.Info("async worker started", "topic", domain.TopicPredictionRequested)
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, facade, cascade, cfg.Predictor.MaxBatchSize, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("bunkd is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version, facade.State())

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop async worker first
	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("bunkd shutdown complete")
}

// applyEnvOverrides layers BUNKD_* environment settings over the config.
func applyEnvOverrides(cfg *domain.Config) {
	if v := os.Getenv("BUNKD_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("BUNKD_MODEL_PATH"); v != "" {
		cfg.Predictor.ModelPath = v
	}
	if v := os.Getenv("BUNKD_DB_PATH"); v != "" {
		cfg.Repository.SQLitePath = v
	}
	if v := os.Getenv("BUNKD_POSTGRES_HOST"); v != "" {
		cfg.Repository.PostgresHost = v
	}
	if v := os.Getenv("BUNKD_POSTGRES_PASSWORD"); v != "" {
		cfg.Repository.PostgresPassword = v
	}
	if v := os.Getenv("BUNKD_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("BUNKD_NATS_URL"); v != "" {
		cfg.EventBus.NATSUrl = v
	}
}

// loadCascadeFromDatabase loads operator-authored rules, falling back to the
// built-in cascade when the database holds none.
func loadCascadeFromDatabase(ctx context.Context, repo domain.Repository, cascade *rules.Cascade) error {
	dbRules, err := repo.ListCascadeRules(ctx)
	if err != nil {
		slog.Warn("failed to list cascade rules from database, using built-in set", "error", err)
		return cascade.LoadRules(rules.BuiltinCascade())
	}

	if len(dbRules) > 0 {
		slog.Info("loading cascade rules from database", "count", len(dbRules))
		return cascade.LoadRules(dbRules)
	}

	slog.Info("no cascade rules in database, using built-in set")
	return cascade.LoadRules(rules.BuiltinCascade())
}

func printBanner(cfg *domain.Config, version string, engine predict.State) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║               📚 BUNKD                    ║")
	fmt.Println("  ║     Should-I-Bunk Decision Engine         ║")
	fmt.Println("  ║      Skip smart, not blind.               ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Engine:   %s\n", engine)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /predict           - Evaluate a bunk decision")
	fmt.Println("    POST /batch-predict     - Evaluate up to 100 decisions")
	fmt.Println("    GET  /predictions/{id}  - Get prediction by ID")
	fmt.Println("    GET  /model-info        - Model metadata")
	fmt.Println("    GET  /rules             - List cascade rules")
	fmt.Println("    POST /rules             - Create a cascade rule")
	fmt.Println("    POST /rules/reload      - Hot-reload rules from database")
	fmt.Println("    GET  /health            - Health check")
	fmt.Println()
}
