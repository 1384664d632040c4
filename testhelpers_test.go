//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	rediscontainer "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/parkingmate/service-parking/internal/application"
	"github.com/parkingmate/service-parking/internal/common/auth"
	"github.com/parkingmate/service-parking/internal/common/database"
	"github.com/parkingmate/service-parking/internal/domain/booking"
	"github.com/parkingmate/service-parking/internal/lock"
	"github.com/parkingmate/service-parking/internal/repository"
	"github.com/parkingmate/service-parking/internal/storage"
)

// setupPostgres starts PostgreSQL, applies the SQL migrations and returns a connected GORM DB.
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()
	log := zap.NewNop()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_parking",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := database.PostgresConfig{
		Host:     host,
		Port:     port.Port(),
		User:     "test",
		Password: "test",
		DBName:   "test_parking",
		SSLMode:  "disable",
	}

	// Poll until the server accepts connections from outside the container.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		db, err = database.Connect(cfg, log)
		return err == nil
	}, 30*time.Second, time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(cfg.DatabaseURL(), "migrations", log))
	return db
}

// startRedis starts Redis and returns a connected client.
func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := rediscontainer.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "failed to start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
	})

	endpoint, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: strings.TrimPrefix(endpoint, "redis://")})
	require.NoError(t, client.Ping(ctx).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// startKafka starts a single-node Kafka and pre-creates topics.
func startKafka(t *testing.T, topics ...string) []string {
	t.Helper()
	ctx := context.Background()

	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")
	createTopics(t, brokers, topics...)
	return brokers
}

// parkingStack is one service instance wired against shared infrastructure.
type parkingStack struct {
	Users         *application.UserService
	Spaces        *application.SpaceService
	Bookings      *application.BookingService
	Notifications *application.NotificationService
}

// newParkingStack wires the services the way cmd/server does. A nil notifier
// stores notifications directly.
func newParkingStack(t *testing.T, db *gorm.DB, coordinator lock.Coordinator, notifier application.Notifier) *parkingStack {
	t.Helper()
	log := zap.NewNop()

	userRepo := repository.NewGormUserRepository(db)
	spaceRepo := repository.NewGormParkingSpaceRepository(db)
	bookingRepo := repository.NewGormBookingRepository(db)
	guard := lock.NewGuard(coordinator, 5*time.Second, true, log)

	users := application.NewUserService(userRepo, auth.NewJWTManager("integration-secret", time.Hour, 24*time.Hour), log)
	notifications := application.NewNotificationService(repository.NewGormNotificationRepository(db), users, log)
	if notifier == nil {
		notifier = notifications
	}

	bookings := application.NewBookingService(
		bookingRepo, spaceRepo, users, guard,
		booking.NewHourlyPricingStrategy(), notifier, log,
	)
	t.Cleanup(bookings.Drain)

	return &parkingStack{
		Users:         users,
		Spaces:        application.NewSpaceService(spaceRepo, bookingRepo, userRepo, users, guard, storage.NewPlaceholderStore(log), log),
		Bookings:      bookings,
		Notifications: notifications,
	}
}

// signUp registers a user and returns its identity.
func (s *parkingStack) signUp(t *testing.T, name string) string {
	t.Helper()
	email := fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8])
	_, err := s.Users.SignUp(context.Background(), application.SignUpRequest{
		Email:    email,
		Password: "password-123",
		Name:     name,
	})
	require.NoError(t, err)
	return email
}

func (s *parkingStack) createSpace(t *testing.T, owner, address string, pricePerHour int64) uuid.UUID {
	t.Helper()
	lat, lon := 37.5665, 126.9780
	sp, err := s.Spaces.CreateSpace(context.Background(), owner, application.SpaceRequest{
		Address:      address,
		Latitude:     &lat,
		Longitude:    &lon,
		PricePerHour: pricePerHour,
	})
	require.NoError(t, err)
	return sp.ID
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	require.NoError(t, controllerConn.CreateTopics(topicConfigs...), "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(time.Second)
}
