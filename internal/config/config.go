package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	Port               string
	Environment        string
	LogLevel           string
	ShopAPIURL         string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	Cart               CartConfig
	Redis              RedisConfig
	Mongo              MongoConfig
	Kafka              KafkaConfig
	Breaker            BreakerConfig
	Session            SessionConfig
}

type CartConfig struct {
	Backend string // redis, mongo or memory
	Slot    string
}

type RedisConfig struct {
	Addr     string
	Password string
}

type MongoConfig struct {
	URI                    string
	DBName                 string
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	MaxPoolSize            uint64
	MinPoolSize            uint64
}

// KafkaConfig with no brokers turns order events off.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type BreakerConfig struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

// SessionConfig bounds the checkout flows kept in memory.
type SessionConfig struct {
	IdleTTL     time.Duration
	MaxSessions int
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("env")
	v.SetConfigName(".env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHOP_API_URL", "http://localhost:3000")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("MAX_REQUEST_BODY_SIZE", 1<<20)
	v.SetDefault("CART_BACKEND", BackendRedis)
	v.SetDefault("CART_SLOT", "cart")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB_NAME", "storefront")
	v.SetDefault("MONGO_CONNECT_TIMEOUT", "10s")
	v.SetDefault("MONGO_SERVER_SELECTION_TIMEOUT", "5s")
	v.SetDefault("MONGO_MAX_POOL_SIZE", 100)
	v.SetDefault("MONGO_MIN_POOL_SIZE", 10)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "storefront-orders")
	v.SetDefault("BREAKER_MAX_FAILURES", 5)
	v.SetDefault("BREAKER_OPEN_TIMEOUT", "30s")
	v.SetDefault("SESSION_IDLE_TTL", "30m")
	v.SetDefault("MAX_SESSIONS", 10000)

	v.AutomaticEnv()

	// .env is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:               v.GetString("PORT"),
		Environment:        v.GetString("ENVIRONMENT"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		ShopAPIURL:         strings.TrimRight(strings.TrimSpace(v.GetString("SHOP_API_URL")), "/"),
		RequestTimeout:     v.GetDuration("REQUEST_TIMEOUT"),
		ShutdownTimeout:    v.GetDuration("SHUTDOWN_TIMEOUT"),
		MaxRequestBodySize: v.GetInt64("MAX_REQUEST_BODY_SIZE"),
		Cart: CartConfig{
			Backend: strings.ToLower(strings.TrimSpace(v.GetString("CART_BACKEND"))),
			Slot:    v.GetString("CART_SLOT"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		Mongo: MongoConfig{
			URI:                    v.GetString("MONGO_URI"),
			DBName:                 v.GetString("MONGO_DB_NAME"),
			ConnectTimeout:         v.GetDuration("MONGO_CONNECT_TIMEOUT"),
			ServerSelectionTimeout: v.GetDuration("MONGO_SERVER_SELECTION_TIMEOUT"),
			MaxPoolSize:            v.GetUint64("MONGO_MAX_POOL_SIZE"),
			MinPoolSize:            v.GetUint64("MONGO_MIN_POOL_SIZE"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		Breaker: BreakerConfig{
			MaxFailures: v.GetUint32("BREAKER_MAX_FAILURES"),
			OpenTimeout: v.GetDuration("BREAKER_OPEN_TIMEOUT"),
		},
		Session: SessionConfig{
			IdleTTL:     v.GetDuration("SESSION_IDLE_TTL"),
			MaxSessions: v.GetInt("MAX_SESSIONS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ShopAPIURL == "" {
		return fmt.Errorf("SHOP_API_URL is required")
	}
	switch c.Cart.Backend {
	case BackendRedis, BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("unknown CART_BACKEND %q", c.Cart.Backend)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.Mongo.MaxPoolSize > 0 && c.Mongo.MinPoolSize > c.Mongo.MaxPoolSize {
		return fmt.Errorf("MONGO_MIN_POOL_SIZE must not exceed MONGO_MAX_POOL_SIZE")
	}
	if c.Session.IdleTTL < 0 || c.Session.MaxSessions < 0 {
		return fmt.Errorf("SESSION_IDLE_TTL and MAX_SESSIONS must not be negative")
	}
	return nil
}

// EventsEnabled reports whether order events go to Kafka.
func (c *Config) EventsEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
