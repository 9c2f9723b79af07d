package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"hybridnews/internal/common/pagination"
	secconfig "hybridnews/internal/config"
	"hybridnews/internal/infra/adapter/persistence/postgres"
	searchidx "hybridnews/internal/infra/adapter/search"
	vectoridx "hybridnews/internal/infra/adapter/vector"
	"hybridnews/internal/infra/crawl/site"
	"hybridnews/internal/infra/db"
	"hybridnews/internal/infra/embedding"
	"hybridnews/internal/infra/notifier"
	"hybridnews/internal/observability/tracing"
	"hybridnews/internal/repository"
	"hybridnews/internal/usecase/crawl"
	"hybridnews/internal/usecase/fanout"
	"hybridnews/internal/usecase/history"
	"hybridnews/internal/usecase/progress"
	"hybridnews/internal/usecase/retrieve"
	"hybridnews/internal/usecase/search"
	"hybridnews/pkg/config"
	"hybridnews/pkg/ratelimit"
	"hybridnews/pkg/security/csp"

	hhttp "hybridnews/internal/handler/http"
	hauth "hybridnews/internal/handler/http/auth"
	hchatbot "hybridnews/internal/handler/http/chatbot"
	hcrawl "hybridnews/internal/handler/http/crawl"
	hhistory "hybridnews/internal/handler/http/history"
	"hybridnews/internal/handler/http/middleware"
	"hybridnews/internal/handler/http/requestid"
	htopics "hybridnews/internal/handler/http/topics"
	authservice "hybridnews/internal/service/auth"

	_ "hybridnews/docs" // swagger docs
)

// @title           Hybrid News Retrieval API
// @version         1.0
// @description     Hybrid lexical/vector search and crawl API over Vietnamese news publishers.
// @description     Exposes search-and-crawl, crawl-progress, search history and chatbot retrieval-context endpoints.

// @contact.name   API Support
// @contact.url    https://github.com/hybridnews/hybridnews
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token auth. Send as "Authorization: Bearer {token}".

func main() {
	logger := initLogger()
	validateAdminCredentials(logger)
	validateViewerCredentials(logger)
	validateJWTSecret(logger)
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	deps := wireDomain(logger, database)
	version := getVersion()
	serverComponents := setupServer(logger, database, version, deps)

	runServer(logger, serverComponents, version)
}

// initLogger initializes and returns a structured logger based on environment configuration.
func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// validateAdminCredentials validates the admin credentials at startup.
// This prevents the server from starting with empty or weak admin credentials.
func validateAdminCredentials(logger *slog.Logger) {
	if err := hauth.ValidateAdminCredentials(); err != nil {
		logger.Error("admin credentials validation failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// validateViewerCredentials validates the viewer credentials at startup.
// Unlike admin validation, this implements graceful degradation:
// if viewer credentials are misconfigured, the viewer role is disabled
// but the application continues to run in admin-only mode.
func validateViewerCredentials(logger *slog.Logger) {
	_ = hauth.ValidateViewerCredentials(logger)
}

// validateJWTSecret validates the JWT_SECRET environment variable for security requirements.
func validateJWTSecret(logger *slog.Logger) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Error("JWT_SECRET must be set")
		os.Exit(1)
	}
	if len(secret) < 32 {
		logger.Error("JWT_SECRET must be at least 32 characters (256 bits)")
		os.Exit(1)
	}
	weakSecrets := []string{"secret", "password", "test", "admin", "default"}
	for _, weak := range weakSecrets {
		if secret == weak || secret == weak+"123" {
			logger.Error("JWT_SECRET must not be a common weak value", slog.String("weak_value", weak))
			os.Exit(1)
		}
	}
}

// initDatabase opens the database connection and runs migrations.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// domainDeps is the concrete set of wired usecase-layer components the
// HTTP handler packages depend on. The Topic Scheduler's own periodic tick
// and the admin endpoints that reconfigure it live in cmd/worker, which
// owns the cron job the Scheduler gets re-registered against; the API
// process only registers new Topics for it to pick up.
type domainDeps struct {
	Articles     repository.ArticleRepository
	Sessions     repository.SearchSessionRepository
	Topics       repository.TopicRepository
	Orchestrator *search.Orchestrator
	Stream       *progress.Stream
	Retrieve     *retrieve.Service
	HTTPClient   *http.Client
}

// wireDomain constructs the Postgres repositories, the Qdrant/Meilisearch
// adapters and the OpenAI embedding provider, and every usecase-layer
// component (Store Fanout, Hybrid Search Orchestrator, Progress Stream,
// Retrieval Interface) the HTTP handlers depend on.
func wireDomain(logger *slog.Logger, database *sql.DB) *domainDeps {
	articles := postgres.NewArticleRepo(database)
	sessions := postgres.NewSearchSessionRepo(database)
	topics := postgres.NewTopicRepo(database)

	embedder := embedding.New(mustEnv(logger, "OPENAI_API_KEY"))

	qdrantCfg := vectoridx.Config{
		Host:       config.GetEnvString("QDRANT_HOST", "localhost"),
		Port:       config.GetEnvInt("QDRANT_PORT", 6334),
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     config.GetEnvBool("QDRANT_TLS", false),
		Collection: config.GetEnvString("QDRANT_COLLECTION", "articles"),
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
		Host:      config.GetEnvString("MEILISEARCH_HOST", "http://localhost:7700"),
		APIKey:    os.Getenv("MEILISEARCH_API_KEY"),
		IndexName: config.GetEnvString("MEILISEARCH_INDEX", "articles"),
	})
	if err := lexicalIndex.EnsureAttributes(context.Background()); err != nil {
		logger.Error("failed to configure meilisearch attributes", slog.Any("error", err))
		os.Exit(1)
	}

	fan := fanout.NewService(articles, lexicalIndex, vectorIndex, embedder)
	historySvc := history.NewService(sessions, articles, fan, config.GetEnvInt("SEARCH_HISTORY_RETENTION", 0))

	httpClient := createHTTPClient()
	registry, err := site.LoadRegistry(config.GetEnvString("SITES_CONFIG_PATH", "configs/sites.yaml"), httpClient)
	if err != nil {
		logger.Error("failed to load site registry", slog.Any("error", err))
		os.Exit(1)
	}
	executor := crawl.NewExecutor(registry, fan, sessions, notifyAdapter{Notifier: buildNotifier(logger)}, crawl.DefaultConcurrency)

	orchestrator := search.NewOrchestrator(lexicalIndex, sessions, fan, executor, historySvc)
	stream := progress.NewStream(sessions, articles)
	retrieveSvc := retrieve.NewService(vectorIndex, embedder)

	return &domainDeps{
		Articles:     articles,
		Sessions:     sessions,
		Topics:       topics,
		Orchestrator: orchestrator,
		Stream:       stream,
		Retrieve:     retrieveSvc,
		HTTPClient:   httpClient,
	}
}

// mustEnv reads a required environment variable or exits; these guard the
// AI providers the Retrieval Interface depends on.
func mustEnv(logger *slog.Logger, key string) string {
	v := os.Getenv(key)
	if v == "" {
		logger.Error(key + " must be set")
		os.Exit(1)
	}
	return v
}

// createHTTPClient builds the shared client used for site crawling and the
// topics navigation-page fetch, capped per host so concurrent detail
// fetches cannot pile onto one publisher.
func createHTTPClient() *http.Client {
	return site.NewThrottledClient(&http.Client{Timeout: 15 * time.Second}, site.DefaultPerHostConnections)
}

// buildNotifier wires whichever ops channel is configured via environment
// variables; a crawl-failure spike alerts through it. Exactly
// one channel is active at a time, preferring Discord over Slack.
func buildNotifier(logger *slog.Logger) notifier.Notifier {
	if cfg := loadDiscordConfig(logger); cfg.Enabled {
		logger.Info("crawl failure notifications: discord enabled")
		return notifier.NewDiscordNotifier(cfg)
	}
	if cfg := loadSlackConfig(logger); cfg.Enabled {
		logger.Info("crawl failure notifications: slack enabled")
		return notifier.NewSlackNotifier(cfg)
	}
	logger.Info("crawl failure notifications disabled")
	return notifier.NewNoOpNotifier()
}

// loadDiscordConfig loads and validates Discord webhook configuration from
// the environment; a malformed or non-Discord URL disables the channel.
func loadDiscordConfig(logger *slog.Logger) notifier.DiscordConfig {
	if os.Getenv("DISCORD_ENABLED") != "true" {
		return notifier.DiscordConfig{Enabled: false}
	}
	webhookURL := os.Getenv("DISCORD_WEBHOOK_URL")
	u, err := url.Parse(webhookURL)
	if err != nil || u.Scheme != "https" || u.Host != "discord.com" || !strings.HasPrefix(u.Path, "/api/webhooks/") {
		logger.Warn("invalid Discord webhook configuration, disabling notifications")
		return notifier.DiscordConfig{Enabled: false}
	}
	return notifier.DiscordConfig{Enabled: true, WebhookURL: webhookURL, Timeout: 10 * time.Second}
}

// loadSlackConfig loads and validates Slack webhook configuration from the
// environment; a malformed or non-Slack URL disables the channel.
func loadSlackConfig(logger *slog.Logger) notifier.SlackConfig {
	if os.Getenv("SLACK_ENABLED") != "true" {
		return notifier.SlackConfig{Enabled: false}
	}
	webhookURL := os.Getenv("SLACK_WEBHOOK_URL")
	u, err := url.Parse(webhookURL)
	if err != nil || u.Scheme != "https" || u.Host != "hooks.slack.com" || !strings.HasPrefix(u.Path, "/services/") {
		logger.Warn("invalid Slack webhook configuration, disabling notifications")
		return notifier.SlackConfig{Enabled: false}
	}
	return notifier.SlackConfig{Enabled: true, WebhookURL: webhookURL, Timeout: 10 * time.Second}
}

// notifyAdapter bridges notifier.Notifier's error-returning contract onto
// crawl.NotifyCrawlFailure's fire-and-forget one: a delivery failure must
// never propagate into the crawl path, so it is logged and dropped.
type notifyAdapter struct {
	Notifier notifier.Notifier
}

func (n notifyAdapter) NotifyCrawlFailure(ctx context.Context, website string, failed, attempted int) {
	if err := n.Notifier.NotifyCrawlFailure(ctx, website, failed, attempted); err != nil {
		slog.Error("notify: crawl failure alert failed", slog.String("website", website), slog.Any("error", err))
	}
}

// ServerComponents holds components needed for server operation and cleanup.
type ServerComponents struct {
	Handler     http.Handler
	IPStore     *ratelimit.InMemoryRateLimitStore
	UserStore   *ratelimit.InMemoryRateLimitStore
	IPWindow    time.Duration
	UserWindow  time.Duration
	AuthLimiter *middleware.RateLimiter // Legacy rate limiter for cleanup
}

// setupServer configures and returns the HTTP handler with all routes and middleware.
func setupServer(logger *slog.Logger, database *sql.DB, version string, deps *domainDeps) *ServerComponents {
	rateLimitConfig, err := config.LoadRateLimitConfig()
	if err != nil {
		logger.Error("failed to load rate limit configuration", slog.Any("error", err))
		os.Exit(1)
	}

	proxyConfig, err := middleware.LoadTrustedProxyConfig()
	if err != nil {
		logger.Error("failed to load trusted proxy configuration", slog.Any("error", err))
		os.Exit(1)
	}

	var ipExtractor middleware.IPExtractor
	if proxyConfig.Enabled {
		ipExtractor = middleware.NewTrustedProxyExtractor(*proxyConfig)
		logger.Info("rate limiting: trusted proxy mode enabled",
			slog.Int("trusted_proxies_count", len(proxyConfig.AllowedCIDRs)))
	} else {
		ipExtractor = &middleware.RemoteAddrExtractor{}
		logger.Info("rate limiting: using RemoteAddr (secure mode, proxy headers ignored)")
	}

	var ipRateLimiter *middleware.IPRateLimiter
	var userRateLimiter *middleware.UserRateLimiter
	var ipStore *ratelimit.InMemoryRateLimitStore
	var userStore *ratelimit.InMemoryRateLimitStore

	if rateLimitConfig.Enabled {
		ipStore = ratelimit.NewInMemoryRateLimitStore(ratelimit.InMemoryStoreConfig{
			MaxKeys: rateLimitConfig.MaxActiveKeys,
		})
		userStore = ratelimit.NewInMemoryRateLimitStore(ratelimit.InMemoryStoreConfig{
			MaxKeys: rateLimitConfig.MaxActiveKeys,
		})

		algorithm := ratelimit.NewSlidingWindowAlgorithm(&ratelimit.SystemClock{})
		metrics := ratelimit.NewPrometheusMetrics()

		ipCircuitBreaker := ratelimit.NewCircuitBreaker(ratelimit.CircuitBreakerConfig{
			FailureThreshold: rateLimitConfig.CircuitBreakerFailureThreshold,
			RecoveryTimeout:  rateLimitConfig.CircuitBreakerResetTimeout,
		})

		userCircuitBreaker := ratelimit.NewCircuitBreaker(ratelimit.CircuitBreakerConfig{
			FailureThreshold: rateLimitConfig.CircuitBreakerFailureThreshold,
			RecoveryTimeout:  rateLimitConfig.CircuitBreakerResetTimeout,
		})

		ipDegradationMgr := middleware.NewDegradationManager(middleware.DegradationConfig{
			AutoAdjust:        true,
			CooldownPeriod:    1 * time.Minute,
			RelaxedMultiplier: 2,
			MinimalMultiplier: 10,
			Clock:             &ratelimit.SystemClock{},
			Metrics:           metrics,
			LimiterType:       "ip",
		})

		userDegradationMgr := middleware.NewDegradationManager(middleware.DegradationConfig{
			AutoAdjust:        true,
			CooldownPeriod:    1 * time.Minute,
			RelaxedMultiplier: 2,
			MinimalMultiplier: 10,
			Clock:             &ratelimit.SystemClock{},
			Metrics:           metrics,
			LimiterType:       "user",
		})
		_ = ipDegradationMgr
		_ = userDegradationMgr

		ipRateLimiter = middleware.NewIPRateLimiter(
			middleware.IPRateLimiterConfig{
				Limit:   rateLimitConfig.DefaultIPLimit,
				Window:  rateLimitConfig.DefaultIPWindow,
				Enabled: true,
			},
			ipExtractor,
			ipStore,
			algorithm,
			metrics,
			ipCircuitBreaker,
		)

		tierLimits := make(map[ratelimit.UserTier]middleware.TierLimit)
		for _, tierCfg := range rateLimitConfig.TierLimits {
			tierLimits[tierCfg.Tier] = middleware.TierLimit{
				Limit:  tierCfg.Limit,
				Window: tierCfg.Window,
			}
		}

		userExtractor := middleware.NewJWTUserExtractor("user", nil)

		userRateLimiter = middleware.NewUserRateLimiter(middleware.UserRateLimiterConfig{
			Store:               userStore,
			Algorithm:           algorithm,
			Metrics:             metrics,
			CircuitBreaker:      userCircuitBreaker,
			UserExtractor:       userExtractor,
			TierLimits:          tierLimits,
			DefaultLimit:        rateLimitConfig.DefaultUserLimit,
			DefaultWindow:       rateLimitConfig.DefaultUserWindow,
			SkipUnauthenticated: true,
			Clock:               &ratelimit.SystemClock{},
		})

		logger.Info("rate limiting initialized",
			slog.Bool("enabled", true),
			slog.Int("ip_limit", rateLimitConfig.DefaultIPLimit),
			slog.Duration("ip_window", rateLimitConfig.DefaultIPWindow),
			slog.Int("user_limit", rateLimitConfig.DefaultUserLimit),
			slog.Duration("user_window", rateLimitConfig.DefaultUserWindow),
			slog.Int("max_keys", rateLimitConfig.MaxActiveKeys),
		)
	} else {
		logger.Warn("rate limiting is DISABLED - not recommended for production")
	}

	rootMux, authLimiter := setupRoutes(database, version, deps, ipExtractor, ipRateLimiter, userRateLimiter, logger)
	handler := applyMiddleware(logger, rootMux, ipRateLimiter)

	return &ServerComponents{
		Handler:     handler,
		IPStore:     ipStore,
		UserStore:   userStore,
		IPWindow:    rateLimitConfig.DefaultIPWindow,
		UserWindow:  rateLimitConfig.DefaultUserWindow,
		AuthLimiter: authLimiter,
	}
}

// setupRoutes registers all HTTP routes (public and protected).
func setupRoutes(
	database *sql.DB,
	version string,
	deps *domainDeps,
	ipExtractor middleware.IPExtractor,
	ipRateLimiter *middleware.IPRateLimiter,
	userRateLimiter *middleware.UserRateLimiter,
	logger *slog.Logger,
) (*http.ServeMux, *middleware.RateLimiter) {
	authRateLimiter := middleware.NewRateLimiter(5, 1*time.Minute, ipExtractor)

	minPasswordLength, weakPasswords, publicEndpoints := loadSecurityPolicy(logger)
	authProvider := hauth.NewMultiUserAuthProvider(minPasswordLength, weakPasswords)
	authService := authservice.NewAuthService(authProvider, publicEndpoints)

	publicMux := http.NewServeMux()
	publicMux.Handle("/auth/token", authRateLimiter.Middleware(hauth.TokenHandler(authService)))

	publicMux.Handle("/health", &hhttp.HealthHandler{DB: database, Version: version})
	publicMux.Handle("/ready", &hhttp.ReadyHandler{DB: database})
	publicMux.Handle("/live", &hhttp.LiveHandler{})
	publicMux.Handle("/metrics", hhttp.MetricsHandler())

	publicMux.Handle("/swagger/", httpSwagger.WrapHandler)

	paginationCfg := pagination.LoadFromEnv()

	privateMux := http.NewServeMux()
	hcrawl.Register(privateMux, deps.Orchestrator, deps.Stream, logger)
	hhistory.Register(privateMux, deps.Sessions, deps.Articles, paginationCfg)
	hchatbot.Register(privateMux, deps.Retrieve, logger)
	htopics.Register(privateMux, deps.Topics, deps.HTTPClient)

	protected := hauth.Authz(privateMux)

	if userRateLimiter != nil {
		protected = userRateLimiter.Middleware()(protected)
	}

	rootMux := http.NewServeMux()
	rootMux.Handle("/auth/token", publicMux)
	rootMux.Handle("/health", publicMux)
	rootMux.Handle("/ready", publicMux)
	rootMux.Handle("/live", publicMux)
	rootMux.Handle("/metrics", publicMux)
	rootMux.Handle("/swagger/", publicMux)
	rootMux.Handle("/", protected)

	return rootMux, authRateLimiter
}

// applyMiddleware wraps the handler with middleware chain.
// Middleware order: CORS → Request ID → IP Rate Limit → Recovery → Logging → Body Limit → CSP → Metrics
func applyMiddleware(logger *slog.Logger, handler http.Handler, ipRateLimiter *middleware.IPRateLimiter) http.Handler {
	corsConfig, err := middleware.LoadCORSConfig()
	if err != nil {
		logger.Error("failed to load CORS configuration", slog.Any("error", err))
		os.Exit(1)
	}

	corsConfig.Logger = &middleware.SlogAdapter{Logger: logger}

	logger.Info("CORS enabled",
		slog.Int("allowed_origins_count", len(corsConfig.Validator.GetAllowedOrigins())),
		slog.Any("allowed_origins", corsConfig.Validator.GetAllowedOrigins()),
		slog.Any("allowed_methods", corsConfig.AllowedMethods),
		slog.Any("allowed_headers", corsConfig.AllowedHeaders),
		slog.Int("max_age", corsConfig.MaxAge))

	cspConfig, err := config.LoadCSPConfig()
	if err != nil {
		logger.Error("failed to load CSP configuration", slog.Any("error", err))
		os.Exit(1)
	}

	var cspMiddleware func(http.Handler) http.Handler
	if cspConfig.Enabled {
		cspMW := middleware.NewCSPMiddleware(middleware.CSPMiddlewareConfig{
			Enabled:       true,
			DefaultPolicy: csp.StrictPolicy(),
			PathPolicies: map[string]*csp.CSPBuilder{
				"/swagger/": csp.SwaggerUIPolicy(),
			},
			ReportOnly: cspConfig.ReportOnly,
		})
		cspMiddleware = cspMW.Middleware()
		logger.Info("CSP enabled", slog.Bool("report_only", cspConfig.ReportOnly))
	} else {
		cspMiddleware = func(next http.Handler) http.Handler { return next }
		logger.Warn("CSP is disabled")
	}

	middlewareChain := handler

	middlewareChain = hhttp.MetricsMiddleware(middlewareChain)
	middlewareChain = cspMiddleware(middlewareChain)
	middlewareChain = hhttp.LimitRequestBody(1 << 20)(middlewareChain) // 1MB limit
	middlewareChain = hhttp.Logging(logger)(middlewareChain)
	middlewareChain = hhttp.Recover(logger)(middlewareChain)

	if ipRateLimiter != nil {
		middlewareChain = ipRateLimiter.Middleware()(middlewareChain)
	}

	middlewareChain = requestid.Middleware(middlewareChain)
	middlewareChain = tracing.Middleware(middlewareChain)
	middlewareChain = middleware.CORS(*corsConfig)(middlewareChain)

	return middlewareChain
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(logger *slog.Logger, components *ServerComponents, version string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanupCfg := hhttp.LoadCleanupConfigFromEnv()

	if components.IPStore != nil {
		go hhttp.StartRateLimitCleanup(ctx, components.IPStore, cleanupCfg.Interval, components.IPWindow, "ip")
		logger.Info("IP rate limit cleanup started",
			slog.Duration("interval", cleanupCfg.Interval),
			slog.Duration("window", components.IPWindow))
	}

	if components.UserStore != nil {
		go hhttp.StartRateLimitCleanup(ctx, components.UserStore, cleanupCfg.Interval, components.UserWindow, "user")
		logger.Info("user rate limit cleanup started",
			slog.Duration("interval", cleanupCfg.Interval),
			slog.Duration("window", components.UserWindow))
	}

	if components.AuthLimiter != nil {
		go hhttp.StartRateLimitCleanupLegacy(ctx, components.AuthLimiter, cleanupCfg.Interval, "auth")
		logger.Info("auth rate limit cleanup started (legacy)",
			slog.Duration("interval", cleanupCfg.Interval))
	}

	srv := &http.Server{
		Addr:              ":8080",
		Handler:           components.Handler,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", ":8080"),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	cancel()
	logger.Debug("background cleanup goroutines cancelled")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}

// loadSecurityPolicy reads the auth password policy and public-endpoint list
// from SECURITY_CONFIG_PATH (default configs/security.yaml). Following the
// rest of this service's config loading, a missing or invalid file is not
// fatal: it falls back to the baked-in defaults and logs why.
func loadSecurityPolicy(logger *slog.Logger) (minPasswordLength int, weakPasswords, publicEndpoints []string) {
	minPasswordLength = 12
	weakPasswords = []string{"password", "123456", "admin", "test", "secret"}
	publicEndpoints = []string{"/auth/token", "/health", "/ready", "/live", "/metrics", "/swagger/"}

	path := os.Getenv("SECURITY_CONFIG_PATH")
	if path == "" {
		path = "configs/security.yaml"
	}

	cfg, err := secconfig.LoadSecurityConfig(path)
	if err != nil {
		logger.Warn("security config fallback to defaults", slog.String("path", path), slog.Any("error", err))
		return minPasswordLength, weakPasswords, publicEndpoints
	}

	if n := cfg.GetMinPasswordLength(); n > 0 {
		minPasswordLength = n
	}
	if w := cfg.GetWeakPasswords(); len(w) > 0 {
		weakPasswords = w
	}
	if p := cfg.GetPublicEndpoints(); len(p) > 0 {
		publicEndpoints = p
	}
	return minPasswordLength, weakPasswords, publicEndpoints
}
