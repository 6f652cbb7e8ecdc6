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

	"github.com/fjod/storefront/internal/config"
	"github.com/fjod/storefront/internal/events"
	h "github.com/fjod/storefront/internal/http"
	"github.com/fjod/storefront/internal/inventory"
	"github.com/fjod/storefront/internal/store"
	"github.com/fjod/storefront/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	lg, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer lg.Sync()
	zap.ReplaceGlobals(lg)

	lg.Info("Starting storefront",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("cart_backend", cfg.Cart.Backend),
	)

	ctx := context.Background()

	provider, closeStore, err := openStore(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("Failed to open cart store", zap.Error(err))
	}
	defer closeStore()

	shop := inventory.NewClient(cfg.ShopAPIURL, inventory.Options{
		Timeout:     cfg.RequestTimeout,
		MaxFailures: cfg.Breaker.MaxFailures,
		OpenTimeout: cfg.Breaker.OpenTimeout,
	}, lg)

	cleanerCtx, stopCleaner := context.WithCancel(ctx)
	defer stopCleaner()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.EventsEnabled() {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Topic, cfg.Kafka.Brokers...)
		lg.Info("Order events enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

		cleaner := events.NewCartCleaner(provider, lg, cfg.Kafka.Topic, cfg.Kafka.Brokers...)
		defer cleaner.Close()
		go cleaner.Run(cleanerCtx)
	}
	defer publisher.Close()

	sessions := h.NewSessions(provider, shop, publisher, h.SessionOptions{
		IdleTTL:     cfg.Session.IdleTTL,
		MaxSessions: cfg.Session.MaxSessions,
	}, lg)
	router := h.NewRouter(h.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}, sessions, shop, lg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		lg.Info("Storefront listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down server...")
	stopCleaner()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("server forced to shutdown", zap.Error(err))
	}
	lg.Info("server exited")
}

// openStore connects the configured cart slot backend.
func openStore(ctx context.Context, cfg *config.Config, lg *zap.Logger) (store.Provider, func(), error) {
	switch cfg.Cart.Backend {
	case config.BackendMongo:
		db, err := store.ConnectMongoDB(ctx, store.MongoOptions{
			URI:                    cfg.Mongo.URI,
			Database:               cfg.Mongo.DBName,
			ConnectTimeout:         cfg.Mongo.ConnectTimeout,
			ServerSelectionTimeout: cfg.Mongo.ServerSelectionTimeout,
			MaxPoolSize:            cfg.Mongo.MaxPoolSize,
			MinPoolSize:            cfg.Mongo.MinPoolSize,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := store.CreateIndexes(ctx, db); err != nil {
			lg.Warn("Failed to create cart slot indexes", zap.Error(err))
		}
		lg.Info("Connected to MongoDB", zap.String("database", cfg.Mongo.DBName))
		return store.MongoProvider(db, cfg.Cart.Slot), func() {
			_ = db.Client().Disconnect(context.Background())
		}, nil

	case config.BackendMemory:
		lg.Warn("Using in-memory cart store, carts are lost on restart")
		return store.NewMemorySlots().Provider(cfg.Cart.Slot), func() {}, nil

	default:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}
		lg.Info("Redis ping succeeded", zap.String("addr", cfg.Redis.Addr))
		return store.RedisProvider(client, cfg.Cart.Slot), func() { client.Close() }, nil
	}
}
