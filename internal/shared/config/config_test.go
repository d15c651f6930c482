package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "/api/v1", cfg.GetAPIBasePath())
	assert.Equal(t, 0.12, cfg.Pricing.TaxRate)
	assert.Equal(t, 25.00, cfg.Pricing.FlatFee)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PRICING_TAX_RATE", "0.2")
	t.Setenv("LITEAPI_TIMEOUT", "5s")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("CHECKOUT_SESSION_TTL", "not-a-duration")

	cfg := Load()

	assert.Equal(t, 0.2, cfg.Pricing.TaxRate)
	assert.Equal(t, 5*time.Second, cfg.LiteAPI.Timeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, 30*time.Minute, cfg.Checkout.SessionTTL)
}
