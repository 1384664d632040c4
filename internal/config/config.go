package config

import (
	"time"

	"github.com/parkingmate/service-parking/internal/common/config"
	"github.com/parkingmate/service-parking/internal/events"
)

// LockConfig controls the distributed booking lock.
type LockConfig struct {
	TTL time.Duration
	// FailOpen lets bookings proceed on database locking alone when Redis is unreachable.
	FailOpen bool
}

// S3Config holds image storage settings. When disabled, uploads return placeholder URLs.
type S3Config struct {
	Enabled  bool
	Bucket   string
	Region   string
	BaseURL  string
	Endpoint string
}

// ServiceConfig holds all configuration for the parking service.
type ServiceConfig struct {
	Port              string
	AppEnv            string
	DBConfig          config.DatabaseConfig
	JWTConfig         config.JWTConfig
	KafkaConfig       config.KafkaConfig
	RedisConfig       config.RedisConfig
	LockConfig        LockConfig
	S3Config          S3Config
	NotificationTopic string
	TracingEnabled    bool
}

// Load reads configuration from PARKING_* environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("PARKING")
	if err != nil {
		return nil, err
	}

	v.SetDefault("LOCK_TTL", "10s")
	v.SetDefault("LOCK_FAIL_OPEN", true)
	v.SetDefault("S3_REGION", "ap-northeast-2")
	v.SetDefault("NOTIFICATION_TOPIC", events.TopicNotifications)

	return &ServiceConfig{
		Port:        config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:      config.GetAppEnv(v),
		DBConfig:    config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:   config.LoadJWTConfig(v),
		KafkaConfig: config.LoadKafkaConfig(v),
		RedisConfig: config.LoadRedisConfig(v),
		LockConfig: LockConfig{
			TTL:      v.GetDuration("LOCK_TTL"),
			FailOpen: v.GetBool("LOCK_FAIL_OPEN"),
		},
		S3Config: S3Config{
			Enabled:  v.GetBool("S3_ENABLED"),
			Bucket:   v.GetString("S3_BUCKET"),
			Region:   v.GetString("S3_REGION"),
			BaseURL:  v.GetString("S3_BASE_URL"),
			Endpoint: v.GetString("S3_ENDPOINT"),
		},
		NotificationTopic: v.GetString("NOTIFICATION_TOPIC"),
		TracingEnabled:    v.GetBool("TRACING_ENABLED"),
	}, nil
}
