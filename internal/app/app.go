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

	"github.com/Bbachelard/Option/internal/config"
	"github.com/Bbachelard/Option/internal/domain"
	"github.com/Bbachelard/Option/internal/event"
	handler "github.com/Bbachelard/Option/internal/handler/http"
	"github.com/Bbachelard/Option/internal/hook"
	"github.com/Bbachelard/Option/internal/pricing"
	"github.com/Bbachelard/Option/internal/repository/postgres"
	"github.com/Bbachelard/Option/internal/repository/rediscache"
	"github.com/Bbachelard/Option/internal/service"
	"github.com/Bbachelard/Option/internal/tax"
	"github.com/Bbachelard/Option/migrations"
	"github.com/Bbachelard/Option/pkg/database"
	"github.com/Bbachelard/Option/pkg/health"
	"github.com/Bbachelard/Option/pkg/httpclient"
	pkgkafka "github.com/Bbachelard/Option/pkg/kafka"
	"github.com/Bbachelard/Option/pkg/middleware"
	"github.com/Bbachelard/Option/pkg/tracing"
)

// App wires together all dependencies and runs the options service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	productDeleted *pkgkafka.Consumer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "options",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
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
	prometheus.MustRegister(database.NewPoolStatsCollector(pool, "options"))

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Configure slow query logging.
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	// Initialize Redis for the available options cache.
	rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("host", cfg.RedisHost),
		slog.Int("db", cfg.RedisDB),
	)

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	optionRepo := postgres.NewProductOptionRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	settingRepo := postgres.NewSettingRepository(pool)
	cartItemRepo := postgres.NewCartItemRepository(pool)
	selectionRepo := postgres.NewOptionSelectionRepository(pool)

	optionsCache := rediscache.NewOptionsCache(rdb, time.Duration(cfg.CacheTTLSeconds)*time.Second)

	hooks := hook.NewRegistry()
	eventProducer := event.NewProducer(producer, logger)

	// Tax rates come from the tax service behind a circuit breaker; when the
	// breaker is open or the service errors, the configured fallback rate
	// applies.
	taxClient := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("tax-service"),
		logger,
	)
	rateProvider := tax.NewHTTPRateProvider(taxClient, cfg.TaxServiceURL, cfg.TaxFallbackRate, logger)
	taxLoader := tax.NewLoader(rateProvider)
	taxEngine := &tax.StaticEngine{
		Country: domain.Country{ID: cfg.StoreCountryID, Code: cfg.StoreCountryCode},
	}

	optionService := service.NewOptionService(
		optionRepo,
		productRepo,
		categoryRepo,
		settingRepo,
		optionsCache,
		hooks,
		service.NewRepositoryLifecycle(productRepo),
		service.NewSelectionInUseChecker(selectionRepo),
		eventProducer,
		logger,
	)

	cartOptionService := service.NewCartOptionService(
		cartItemRepo,
		optionRepo,
		productRepo,
		selectionRepo,
		pricing.NewOptionPricer(productRepo, taxLoader),
		taxLoader,
		taxEngine,
		hooks,
		eventProducer,
		logger,
	)

	// Consume product deletions from the catalog to cascade association removal.
	eventConsumer := event.NewConsumer(optionService, logger)
	productDeletedConsumer := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  "options-service-product-deleted",
		Topic:    event.TopicProductDeleted,
		MinBytes: 1,
		MaxBytes: 10e6,
	}, eventConsumer.Handle, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", producer.Ping)

	// HTTP router.
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.CORSAllowedOrigins
	corsConfig.Environment = cfg.Environment

	router := handler.NewRouter(optionService, cartOptionService, healthHandler, logger, corsConfig)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		rdb:            rdb,
		producer:       producer,
		productDeleted: productDeletedConsumer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and the Kafka consumer, then blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go func() {
		if err := a.productDeleted.Start(ctx); err != nil {
			errCh <- fmt.Errorf("product deleted consumer: %w", err)
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

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.productDeleted.Close(); err != nil {
		a.logger.Error("consumer close error", slog.String("error", err.Error()))
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(shutdownCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}

	a.logger.Info("application shutdown complete")
	return nil
}
