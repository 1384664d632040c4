package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkingmate/service-parking/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, 10*time.Second, cfg.LockConfig.TTL)
	assert.True(t, cfg.LockConfig.FailOpen)
	assert.False(t, cfg.S3Config.Enabled)
	assert.Equal(t, "parking.notifications", cfg.NotificationTopic)
	assert.Empty(t, cfg.KafkaConfig.Brokers)
	assert.Empty(t, cfg.RedisConfig.Addr)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PARKING_SERVICE_PORT", "9090")
	t.Setenv("PARKING_KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("PARKING_REDIS_ADDR", "redis:6379")
	t.Setenv("PARKING_LOCK_TTL", "3s")
	t.Setenv("PARKING_LOCK_FAIL_OPEN", "false")
	t.Setenv("PARKING_S3_ENABLED", "true")
	t.Setenv("PARKING_S3_BUCKET", "parkingmate-images")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaConfig.Brokers)
	assert.Equal(t, "redis:6379", cfg.RedisConfig.Addr)
	assert.Equal(t, 3*time.Second, cfg.LockConfig.TTL)
	assert.False(t, cfg.LockConfig.FailOpen)
	assert.True(t, cfg.S3Config.Enabled)
	assert.Equal(t, "parkingmate-images", cfg.S3Config.Bucket)
}
