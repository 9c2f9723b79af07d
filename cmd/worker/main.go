package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"

	"hybridnews/internal/infra/adapter/persistence/postgres"
	searchidx "hybridnews/internal/infra/adapter/search"
	vectoridx "hybridnews/internal/infra/adapter/vector"
	"hybridnews/internal/infra/crawl/site"
	"hybridnews/internal/infra/db"
	"hybridnews/internal/infra/embedding"
	"hybridnews/internal/infra/sentiment"
	workerPkg "hybridnews/internal/infra/worker"
	pkgconfig "hybridnews/internal/pkg/config"
	"hybridnews/internal/usecase/enrich"
	"hybridnews/internal/usecase/fanout"
	"hybridnews/internal/usecase/topic"
)

// waitForMigrations blocks until the articles table is reachable, giving
// the api process (which owns migrations) time to run them first.
func waitForMigrations(logger *slog.Logger, database *sql.DB) {
	const probe = "SELECT 1 FROM articles LIMIT 1"
	for i := 0; i < 10; i++ {
		if _, err := database.Exec(probe); err == nil {
			return
		}
		logger.Info("waiting for migrations, retrying in 3s", slog.Int("attempt", i+1))
		time.Sleep(3 * time.Second)
	}
	logger.Error("migrations did not complete in time")
	os.Exit(1)
}

func main() {
	logger := initLogger()
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerMetrics := workerPkg.NewWorkerMetrics()
	workerMetrics.MustRegister()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.Int("notify_max_concurrent", workerConfig.NotifyMaxConcurrent),
		slog.Duration("crawl_timeout", workerConfig.CrawlTimeout),
		slog.Int("health_port", workerConfig.HealthPort))

	enrichCfg := loadEnrichConfig(logger)
	topicCfg := loadTopicConfig(logger)

	healthAddr := fmtAddr(workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	enrichSvc, scheduler := wireDomain(logger, database, enrichCfg, topicCfg.concurrency)

	metricsServer := startMetricsServer(ctx, logger, scheduler)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	runTickers(ctx, logger, enrichSvc, scheduler, enrichCfg, topicCfg, healthServer)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down worker...")
	cancel()
}

func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return logger
}

func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	waitForMigrations(logger, database)
	return database
}

func fmtAddr(port int) string {
	return fmt.Sprintf(":%d", port)
}

// enrichConfig holds the Enrichment Pipeline tick cadence (default every
// 30s, batch size default 20), loaded independently of the legacy
// daily-crawl WorkerConfig since the two lanes have unrelated cadences.
type enrichConfig struct {
	interval  time.Duration
	batchSize int
}

func loadEnrichConfig(logger *slog.Logger) enrichConfig {
	result := pkgconfig.LoadEnvDuration("ENRICH_INTERVAL", 30*time.Second, func(d time.Duration) error {
		return pkgconfig.ValidatePositiveDuration(d)
	})
	interval := result.Value.(time.Duration)
	for _, w := range result.Warnings {
		logger.Warn("enrich config fallback", slog.String("warning", w))
	}

	batchResult := pkgconfig.LoadEnvInt("ENRICH_BATCH_SIZE", enrich.DefaultBatchSize, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 500)
	})
	batchSize := batchResult.Value.(int)
	for _, w := range batchResult.Warnings {
		logger.Warn("enrich config fallback", slog.String("warning", w))
	}

	return enrichConfig{interval: interval, batchSize: batchSize}
}

// topicSchedulerConfig holds the Topic Scheduler tick cadence (default
// every 2h, minimum 5m) and per-tick concurrency cap.
type topicSchedulerConfig struct {
	intervalMinutes int
	concurrency     int
}

func loadTopicConfig(logger *slog.Logger) topicSchedulerConfig {
	result := pkgconfig.LoadEnvInt("TOPIC_SCHEDULE_MINUTES", topic.DefaultIntervalMinutes, func(v int) error {
		return pkgconfig.ValidateIntRange(v, topic.MinRescheduleMinutes, 24*60)
	})
	minutes := result.Value.(int)
	for _, w := range result.Warnings {
		logger.Warn("topic scheduler config fallback", slog.String("warning", w))
	}

	concResult := pkgconfig.LoadEnvInt("TOPIC_CONCURRENCY", topic.DefaultConcurrency, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 50)
	})
	concurrency := concResult.Value.(int)
	for _, w := range concResult.Warnings {
		logger.Warn("topic scheduler config fallback", slog.String("warning", w))
	}

	return topicSchedulerConfig{intervalMinutes: minutes, concurrency: concurrency}
}

// wireDomain constructs the Postgres repositories, the Qdrant/Meilisearch
// adapters, the embedding/sentiment providers and Store Fanout, then the
// Enrichment Pipeline and Topic Scheduler that run on this process's cron
// ticks.
func wireDomain(logger *slog.Logger, database *sql.DB, enrichCfg enrichConfig, topicConcurrency int) (*enrich.Service, *topic.Scheduler) {
	articles := postgres.NewArticleRepo(database)
	topics := postgres.NewTopicRepo(database)

	embedder := embedding.New(mustEnv(logger, "OPENAI_API_KEY"))
	sentimentProvider := sentiment.New(mustEnv(logger, "ANTHROPIC_API_KEY"))

	qdrantCfg := vectoridx.Config{
		Host:       pkgStrFromEnv("QDRANT_HOST", "localhost"),
		Port:       pkgIntFromEnv("QDRANT_PORT", 6334),
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     pkgBoolFromEnv("QDRANT_TLS", false),
		Collection: pkgStrFromEnv("QDRANT_COLLECTION", "articles"),
		Dimension:  embedding.Dimension,
	}
	vectorIndex, err := vectoridx.New(qdrantCfg)
	if err != nil {
		logger.Error("failed to dial qdrant", slog.Any("error", err))
		os.Exit(1)
	}
	if err := vectorIndex.EnsureCollection(context.Background()); err != nil {
		logger.Error("failed to ensure qdrant collection", slog.Any("error", err))
		os.Exit(1)
	}

	lexicalIndex := searchidx.New(searchidx.Config{
		Host:      pkgStrFromEnv("MEILISEARCH_HOST", "http://localhost:7700"),
		APIKey:    os.Getenv("MEILISEARCH_API_KEY"),
		IndexName: pkgStrFromEnv("MEILISEARCH_INDEX", "articles"),
	})
	if err := lexicalIndex.EnsureAttributes(context.Background()); err != nil {
		logger.Error("failed to configure meilisearch attributes", slog.Any("error", err))
		os.Exit(1)
	}

	fan := fanout.NewService(articles, lexicalIndex, vectorIndex, embedder)

	enrichSvc := enrich.NewService(articles, fan, embedder, sentimentProvider, enrichCfg.batchSize)

	httpClient := createWebScraperHTTPClient()
	registry, err := site.LoadRegistry(pkgStrFromEnv("SITES_CONFIG_PATH", "configs/sites.yaml"), httpClient)
	if err != nil {
		logger.Error("failed to load site registry", slog.Any("error", err))
		os.Exit(1)
	}
	scheduler := topic.NewScheduler(topics, articles, registry, fan, topicConcurrency)

	return enrichSvc, scheduler
}

func mustEnv(logger *slog.Logger, key string) string {
	v := os.Getenv(key)
	if v == "" {
		logger.Error(key + " must be set")
		os.Exit(1)
	}
	return v
}

func pkgStrFromEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func pkgIntFromEnv(key string, fallback int) int {
	result := pkgconfig.LoadEnvInt(key, fallback, func(int) error { return nil })
	return result.Value.(int)
}

func pkgBoolFromEnv(key string, fallback bool) bool {
	result := pkgconfig.LoadEnvBool(key, fallback)
	return result.Value.(bool)
}

func createWebScraperHTTPClient() *http.Client {
	return site.NewThrottledClient(&http.Client{
		Timeout: 15 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		},
	}, site.DefaultPerHostConnections)
}

// runTickers registers the Enrichment Pipeline tick (every enrichCfg.interval)
// and the Topic Scheduler tick (every topicCfg.intervalMinutes) on
// independent cron schedules, then marks the worker ready.
func runTickers(ctx context.Context, logger *slog.Logger, enrichSvc *enrich.Service, scheduler *topic.Scheduler, enrichCfg enrichConfig, topicCfg topicSchedulerConfig, healthServer *workerPkg.HealthServer) {
	c := cron.New()

	if _, err := c.AddFunc(fmt.Sprintf("@every %s", enrichCfg.interval), func() {
		n, err := enrichSvc.Tick(ctx)
		if err != nil {
			logger.Error("enrich: tick failed", slog.Any("error", err))
			return
		}
		if n > 0 {
			logger.Info("enrich: tick completed", slog.Int("claimed", n))
		}
	}); err != nil {
		logger.Error("failed to schedule enrichment ticker", slog.Any("error", err))
		os.Exit(1)
	}

	err := scheduler.StartCron(c, topicCfg.intervalMinutes, func() {
		if err := scheduler.Tick(context.Background(), ""); err != nil {
			logger.Error("topic: tick failed", slog.Any("error", err))
		}
	})
	if err != nil {
		logger.Error("failed to schedule topic ticker", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()
	go func() {
		<-ctx.Done()
		c.Stop()
	}()

	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.Duration("enrich_interval", enrichCfg.interval),
		slog.Int("topic_interval_minutes", topicCfg.intervalMinutes))
}

