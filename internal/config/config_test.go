package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "http://localhost:3000", cfg.ShopAPIURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, BackendRedis, cfg.Cart.Backend)
	assert.Equal(t, "cart", cfg.Cart.Slot)
	assert.Equal(t, uint32(5), cfg.Breaker.MaxFailures)
	assert.Equal(t, 30*time.Second, cfg.Breaker.OpenTimeout)
	assert.Equal(t, 10*time.Second, cfg.Mongo.ConnectTimeout)
	assert.Equal(t, 5*time.Second, cfg.Mongo.ServerSelectionTimeout)
	assert.Equal(t, uint64(100), cfg.Mongo.MaxPoolSize)
	assert.Equal(t, uint64(10), cfg.Mongo.MinPoolSize)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, 10000, cfg.Session.MaxSessions)
	assert.False(t, cfg.EventsEnabled())
}

func TestLoad_FromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("SHOP_API_URL", "http://shop:3000/")
	t.Setenv("CART_BACKEND", "Mongo")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("BREAKER_MAX_FAILURES", "3")
	t.Setenv("MONGO_CONNECT_TIMEOUT", "2s")
	t.Setenv("MONGO_SERVER_SELECTION_TIMEOUT", "1500ms")
	t.Setenv("MONGO_MAX_POOL_SIZE", "20")
	t.Setenv("MONGO_MIN_POOL_SIZE", "0")
	t.Setenv("SESSION_IDLE_TTL", "5m")
	t.Setenv("MAX_SESSIONS", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "http://shop:3000", cfg.ShopAPIURL)
	assert.Equal(t, BackendMongo, cfg.Cart.Backend)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.EventsEnabled())
	assert.Equal(t, uint32(3), cfg.Breaker.MaxFailures)
	assert.Equal(t, 2*time.Second, cfg.Mongo.ConnectTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.Mongo.ServerSelectionTimeout)
	assert.Equal(t, uint64(20), cfg.Mongo.MaxPoolSize)
	assert.Equal(t, uint64(0), cfg.Mongo.MinPoolSize)
	assert.Equal(t, 5*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, 50, cfg.Session.MaxSessions)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CART_BACKEND", "sqlite")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CART_BACKEND")
}

func TestValidate(t *testing.T) {
	cfg := &Config{ShopAPIURL: "", RequestTimeout: time.Second, Cart: CartConfig{Backend: BackendMemory}}
	assert.Error(t, cfg.Validate())

	cfg.ShopAPIURL = "http://shop"
	assert.NoError(t, cfg.Validate())

	cfg.RequestTimeout = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_MongoPoolBounds(t *testing.T) {
	cfg := &Config{ShopAPIURL: "http://shop", RequestTimeout: time.Second, Cart: CartConfig{Backend: BackendMongo}}
	cfg.Mongo.MaxPoolSize = 5
	cfg.Mongo.MinPoolSize = 10
	assert.Error(t, cfg.Validate())

	cfg.Mongo.MinPoolSize = 5
	assert.NoError(t, cfg.Validate())

	cfg.Session.MaxSessions = -1
	assert.Error(t, cfg.Validate())
}
