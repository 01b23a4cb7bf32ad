package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AlexMobiCraft/freesport-storefront/internal/backend"
	"github.com/AlexMobiCraft/freesport-storefront/internal/cart"
	"github.com/AlexMobiCraft/freesport-storefront/internal/config"
	"github.com/AlexMobiCraft/freesport-storefront/internal/event"
	handler "github.com/AlexMobiCraft/freesport-storefront/internal/handler/http"
	"github.com/AlexMobiCraft/freesport-storefront/internal/session"
	"github.com/AlexMobiCraft/freesport-storefront/pkg/health"
	"github.com/AlexMobiCraft/freesport-storefront/pkg/httpclient"
	"github.com/AlexMobiCraft/freesport-storefront/pkg/kafka"
	"github.com/AlexMobiCraft/freesport-storefront/pkg/tracing"
)

// App owns the storefront's long-lived resources and the HTTP server.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	server          *http.Server
	rdb             *redis.Client
	producer        *kafka.Producer
	tracingShutdown func(context.Context) error
}

// New connects the storefront's dependencies and assembles the server.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	tracingShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  "storefront",
		Environment:  cfg.Env,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
		Enabled:      cfg.Tracing.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})

	var producer *kafka.Producer
	var cartEvents cart.Publisher
	var orderEvents handler.OrderPublisher
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(kafka.DefaultProducerConfig(cfg.Kafka.Brokers), logger)
		healthHandler.Register("kafka", producer.Ping)

		events := event.NewProducer(producer)
		cartEvents = events
		orderEvents = events
	}

	sessions := session.NewStore(rdb, cfg.Session.RefreshTTL)
	guard := session.NewGuard()

	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.API.Timeout
	httpCfg.MaxRetries = cfg.API.MaxRetries
	apiHTTP := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpCfg),
		httpclient.DefaultCircuitBreakerConfig("marketplace-api"),
		logger,
	)
	api := backend.NewClient(cfg.API.BaseURL, apiHTTP, sessions, logger)

	carts := cart.NewService(
		cart.NewRepository(rdb, cfg.Session.CartTTL),
		api,
		sessions,
		cartEvents,
		logger,
	)

	router := handler.NewRouter(handler.Deps{
		Config:   cfg,
		Logger:   logger,
		Sessions: sessions,
		Guard:    guard,
		Auth:     handler.NewAuthHandler(api, sessions, carts, logger),
		Cart:     handler.NewCartHandler(carts, sessions, logger),
		Checkout: handler.NewCheckoutHandler(api, carts, sessions, orderEvents, logger),
		Pages:    handler.NewPageHandler(sessions),
		Health:   healthHandler,
	})

	return &App{
		cfg:    cfg,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		rdb:             rdb,
		producer:        producer,
		tracingShutdown: tracingShutdown,
	}, nil
}

// Run serves HTTP until the listener closes.
func (a *App) Run() error {
	a.logger.Info("storefront listening",
		slog.Int("port", a.cfg.Port),
		slog.String("env", a.cfg.Env),
	)
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error

	if err := a.server.Shutdown(ctx); err != nil {
		firstErr = fmt.Errorf("shutdown http server: %w", err)
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close kafka producer: %w", err)
		}
	}

	if a.tracingShutdown != nil {
		if err := a.tracingShutdown(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("shutdown tracing: %w", err)
		}
	}

	if err := a.rdb.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close redis: %w", err)
	}

	return firstErr
}
