package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gigmarket/messaging/internal/application"
	"github.com/gigmarket/messaging/internal/config"
	"github.com/gigmarket/messaging/internal/delivery"
	"github.com/gigmarket/messaging/internal/handlers"
	"github.com/gigmarket/messaging/internal/kafka"
	"github.com/gigmarket/messaging/internal/observability"
	"github.com/gigmarket/messaging/internal/outbox"
	"github.com/gigmarket/messaging/internal/presence"
	"github.com/gigmarket/messaging/internal/profile"
	"github.com/gigmarket/messaging/internal/repository"
	"github.com/gigmarket/messaging/internal/repository/badgerstore"
	"github.com/gigmarket/messaging/internal/repository/postgres"
	"github.com/gigmarket/messaging/internal/router"
	"github.com/gigmarket/messaging/internal/server"
	"github.com/gigmarket/messaging/internal/tx"
	"github.com/gigmarket/messaging/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.ServiceName, cfg.LogLevel)
	log := observability.Log
	defer func() { _ = log.Sync() }()

	ctx, cancel := setupSignalHandler(log)
	defer cancel()

	if cfg.TracingEnabled {
		tp, err := observability.InitTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
		if err != nil {
			log.Fatal("failed to initialize tracer", zap.Error(err))
		}
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	db := initDatabase(ctx, cfg, log)
	store, closeStore := initStore(ctx, cfg, db, log)

	users := initProfiles(ctx, cfg, db, log)
	svc := application.New(store, users)

	registry := presence.NewRegistry()
	channel := delivery.NewChannel(svc, registry, svc.Enricher())
	reconciler := delivery.NewReconciler(svc, channel)

	msgH := handlers.NewMessageHandler(svc, channel, reconciler, svc.Enricher())
	wsH := websocket.NewHandler(registry, channel, reconciler)

	producer := startOutbox(ctx, cfg, db, log)

	apiSrv := server.New("api", cfg.HTTPAddr, router.NewRouter(cfg, msgH, wsH, store))
	obsSrv := server.New("observability", cfg.ObsHTTPAddr, initObservabilityRouter(cfg, store))
	startServers(cancel, log, apiSrv, obsSrv)

	<-ctx.Done()
	performGracefulShutdown(log, wsH, registry, apiSrv, obsSrv)

	if producer != nil {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		producer.Close(flushCtx)
		flushCancel()
	}
	closeStore()
	if db != nil {
		_ = db.Close()
	}
	log.Info("shutdown complete, exiting")
}

func setupSignalHandler(log *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received signal, initiating shutdown", zap.String("signal", sig.String()))
		cancel()
	}()
	return ctx, cancel
}

// initDatabase connects to postgres when a DATABASE_URL is configured. The
// connection backs the message store in postgres mode and the profile
// directory in either mode.
func initDatabase(ctx context.Context, cfg *config.Config, log *zap.Logger) *sql.DB {
	if cfg.DatabaseURL == "" {
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := postgres.NewDB(pingCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db
}

func initStore(ctx context.Context, cfg *config.Config, db *sql.DB, log *zap.Logger) (repository.Repository, func()) {
	switch cfg.StoreDriver {
	case config.StoreBadger:
		s, err := badgerstore.Open(cfg.BadgerPath)
		if err != nil {
			log.Fatal("failed to open badger store", zap.Error(err))
		}
		log.Info("message store ready", zap.String("driver", cfg.StoreDriver), zap.String("path", cfg.BadgerPath))
		return s, func() {
			if err := s.Close(); err != nil {
				log.Error("failed to close badger store", zap.Error(err))
			}
		}
	default:
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatal("failed to apply schema", zap.Error(err))
		}
		log.Info("message store ready", zap.String("driver", cfg.StoreDriver))
		return &postgres.Repository{
			DB:     db,
			Tx:     &tx.Manager{DB: db},
			Outbox: len(cfg.Brokers()) > 0,
		}, func() {}
	}
}

func initProfiles(ctx context.Context, cfg *config.Config, db *sql.DB, log *zap.Logger) profile.Lookup {
	var lookup profile.Lookup = profile.Open{}
	if db != nil {
		lookup = profile.NewDirectory(db)
	} else {
		log.Warn("no DATABASE_URL: every user id resolves to an anonymous profile")
	}

	if cfg.RedisAddr == "" {
		return lookup
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	return &profile.Cached{Next: lookup, R: rdb, TTL: cfg.ProfileCacheTTL}
}

func startOutbox(ctx context.Context, cfg *config.Config, db *sql.DB, log *zap.Logger) *kafka.Producer {
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		return nil
	}
	producer, err := kafka.NewProducer(brokers)
	if err != nil {
		log.Fatal("failed to create kafka producer", zap.Error(err))
	}
	w := &outbox.Worker{
		DB:          db,
		Producer:    producer,
		TopicPrefix: cfg.KafkaTopicPrefix,
		BatchSize:   cfg.OutboxBatchSize,
		PollDelay:   cfg.OutboxPollDelay,
	}
	go w.Start(ctx)
	return producer
}

func initObservabilityRouter(cfg *config.Config, store observability.Pinger) http.Handler {
	mux := chi.NewRouter()
	mux.Use(observability.MetricsMiddleware(cfg.ServiceName))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Get("/health/live", observability.HealthLiveHandler)
	mux.Get("/health/ready", observability.HealthReadyHandler(store))
	return mux
}

func startServers(cancel context.CancelFunc, log *zap.Logger, servers ...*server.Server) {
	for _, s := range servers {
		go func(s *server.Server) {
			if err := s.Start(); err != nil {
				log.Error("server error", zap.String("addr", s.Addr()), zap.Error(err))
				cancel()
			}
		}(s)
	}
}

func performGracefulShutdown(log *zap.Logger, wsH *websocket.Handler, registry *presence.Registry, servers ...*server.Server) {
	log.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, s := range servers {
		if err := s.Shutdown(ctx); err != nil {
			log.Error("error during server shutdown", zap.String("addr", s.Addr()), zap.Error(err))
		}
	}
	wsH.Shutdown()
	registry.Shutdown()
}
