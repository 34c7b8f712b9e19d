package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/reviewdesk/reviewdesk/internal/app/migrations"
	"github.com/reviewdesk/reviewdesk/internal/classifier"
	"github.com/reviewdesk/reviewdesk/internal/config"
	"github.com/reviewdesk/reviewdesk/internal/event"
	handler "github.com/reviewdesk/reviewdesk/internal/handler/http"
	"github.com/reviewdesk/reviewdesk/internal/importer"
	"github.com/reviewdesk/reviewdesk/internal/marketplace"
	"github.com/reviewdesk/reviewdesk/internal/repository/postgres"
	"github.com/reviewdesk/reviewdesk/internal/service"
	"github.com/reviewdesk/reviewdesk/pkg/database"
	"github.com/reviewdesk/reviewdesk/pkg/health"
	"github.com/reviewdesk/reviewdesk/pkg/httpclient"
	pkgkafka "github.com/reviewdesk/reviewdesk/pkg/kafka"
	"github.com/reviewdesk/reviewdesk/pkg/middleware"
	"github.com/reviewdesk/reviewdesk/pkg/tracing"
)

const serviceName = "reviewdesk"

// App wires together all dependencies and runs the review service.
type App struct {
	cfg           *config.Config
	logger        *slog.Logger
	pool          *pgxpool.Pool
	redisClient   *redis.Client
	producer      *pkgkafka.Producer
	httpServer    *http.Server
	traceShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Tracing first so subsequent spans have an exporter.
	var traceShutdown func(context.Context) error
	if cfg.OTELEnabled {
		shutdown, err := tracing.InitTracer(ctx, tracing.Config{
			ServiceName:  serviceName,
			Environment:  cfg.Environment,
			OTLPEndpoint: cfg.OTELEndpoint,
			SampleRate:   cfg.OTELSampleRate,
			Enabled:      true,
		})
		if err != nil {
			return nil, fmt.Errorf("init tracer: %w", err)
		}
		traceShutdown = shutdown
		logger.Info("tracing initialized", slog.String("endpoint", cfg.OTELEndpoint))
	}

	// PostgreSQL connection pool and migrations.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	prometheus.MustRegister(database.NewPoolStatsCollector(pool, serviceName))

	// Redis is the classification cache; startup proceeds without it.
	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Warn("redis unavailable, classification caching disabled",
			slog.String("error", err.Error()),
		)
		redisClient = nil
	}

	// Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Outbound HTTP clients behind circuit breakers.
	aiHTTP := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("ai-classifier"),
		logger,
	)
	marketplaceHTTP := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("marketplace-api"),
		logger,
	)

	aiClassifier := classifier.NewHTTPClassifier(classifier.Config{
		BaseURL: cfg.AIBaseURL,
		APIKey:  cfg.AIAPIKey,
		Model:   cfg.AIModel,
		Timeout: time.Duration(cfg.AITimeoutSeconds) * time.Second,
	}, aiHTTP, logger)

	var reviewClassifier importer.Classifier = aiClassifier
	if redisClient != nil {
		ttl := time.Duration(cfg.ClassificationCacheTTLHours) * time.Hour
		reviewClassifier = classifier.NewCachedClassifier(aiClassifier, redisClient, ttl, logger)
	}

	marketplaceClient := marketplace.NewClient(marketplace.Config{
		BaseURL: cfg.MarketplaceBaseURL,
		APIKey:  cfg.MarketplaceAPIKey,
		Timeout: time.Duration(cfg.MarketplaceTimeoutSeconds) * time.Second,
	}, marketplaceHTTP, logger)

	// Build the dependency graph.
	reviewRepo := postgres.NewReviewRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	eventProducer := event.NewProducer(producer, logger)
	pipeline := importer.NewPipeline(reviewRepo, productRepo, reviewClassifier, logger)

	importService := service.NewImportService(pipeline, marketplaceClient, eventProducer, logger)
	reviewService := service.NewReviewService(reviewRepo, aiClassifier, eventProducer, logger)
	productService := service.NewProductService(productRepo, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("kafka", producer.Ping)
	if redisClient != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	// HTTP router.
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment

	router := handler.NewRouter(importService, reviewService, productService, healthHandler, corsCfg, serviceName, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:           cfg,
		logger:        logger,
		pool:          pool,
		redisClient:   redisClient,
		producer:      producer,
		httpServer:    httpServer,
		traceShutdown: traceShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	if a.traceShutdown != nil {
		if err := a.traceShutdown(shutdownCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return nil
}
