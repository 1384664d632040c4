package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/parkingmate/service-parking/internal/application"
	"github.com/parkingmate/service-parking/internal/common/auth"
	"github.com/parkingmate/service-parking/internal/common/database"
	"github.com/parkingmate/service-parking/internal/common/health"
	"github.com/parkingmate/service-parking/internal/common/kafka"
	"github.com/parkingmate/service-parking/internal/common/logger"
	"github.com/parkingmate/service-parking/internal/common/middleware"
	"github.com/parkingmate/service-parking/internal/common/observability"
	"github.com/parkingmate/service-parking/internal/config"
	bookingDomain "github.com/parkingmate/service-parking/internal/domain/booking"
	parkingEvents "github.com/parkingmate/service-parking/internal/events"
	"github.com/parkingmate/service-parking/internal/handler"
	"github.com/parkingmate/service-parking/internal/lock"
	"github.com/parkingmate/service-parking/internal/repository"
	"github.com/parkingmate/service-parking/internal/storage"
)

const serviceName = "service-parking"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize tracing
	shutdownTracer, err := observability.SetupTracer(ctx, serviceName, cfg.TracingEnabled)
	if err != nil {
		log.Fatal("failed to set up tracing", zap.Error(err))
	}

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.UserModel{},
			&repository.ParkingSpaceModel{},
			&repository.BookingModel{},
			&repository.NotificationModel{},
		); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		cfg.JWTConfig.AccessTTL,
		cfg.JWTConfig.RefreshTTL,
	)

	// Initialize booking lock coordinator
	hostname, _ := os.Hostname()
	var (
		redisClient *redis.Client
		coordinator lock.Coordinator
	)
	if cfg.RedisConfig.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Addr,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		defer func() { _ = redisClient.Close() }()
		coordinator = lock.NewRedisCoordinator(redisClient, hostname)
		log.Info("using redis booking lock", zap.String("addr", cfg.RedisConfig.Addr))
	} else {
		coordinator = lock.NewMemoryCoordinator(hostname)
		log.Warn("redis not configured, booking lock is local to this instance")
	}
	guard := lock.NewGuard(coordinator, cfg.LockConfig.TTL, cfg.LockConfig.FailOpen, log)

	// Initialize repositories
	userRepo := repository.NewGormUserRepository(db)
	spaceRepo := repository.NewGormParkingSpaceRepository(db)
	bookingRepo := repository.NewGormBookingRepository(db)
	notificationRepo := repository.NewGormNotificationRepository(db)

	// Initialize application services
	userService := application.NewUserService(userRepo, jwtManager, log)
	notificationService := application.NewNotificationService(notificationRepo, userService, log)

	// Notifications go through Kafka when brokers are configured, otherwise straight to the database
	var notifier application.Notifier = notificationService
	if len(cfg.KafkaConfig.Brokers) > 0 {
		kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		notifier = parkingEvents.NewKafkaNotifier(kafkaProducer, cfg.NotificationTopic)

		groupID := cfg.KafkaConfig.GroupPrefix + "parking-notifications"
		notificationConsumer := parkingEvents.NewNotificationEventConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			cfg.NotificationTopic,
			notificationService,
			log,
		)
		defer func() { _ = notificationConsumer.Close() }()

		go func() {
			log.Info("starting notification event consumer")
			if err := notificationConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("notification event consumer error", zap.Error(err))
			}
		}()
	}

	// Initialize image storage
	var imageStore application.ImageStore = storage.NewPlaceholderStore(log)
	if cfg.S3Config.Enabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Config.Region))
		if err != nil {
			log.Fatal("failed to load AWS config", zap.Error(err))
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.S3Config.Endpoint != "" {
				o.BaseEndpoint = &cfg.S3Config.Endpoint
				o.UsePathStyle = true
			}
		})
		imageStore = storage.NewS3ImageStore(client, cfg.S3Config.Bucket, cfg.S3Config.Region, cfg.S3Config.BaseURL, log)
	}

	bookingService := application.NewBookingService(
		bookingRepo,
		spaceRepo,
		userService,
		guard,
		bookingDomain.NewHourlyPricingStrategy(),
		notifier,
		log,
	)
	spaceService := application.NewSpaceService(spaceRepo, bookingRepo, userRepo, userService, guard, imageStore, log)
	imageService := application.NewImageService(imageStore, log)

	// Initialize HTTP handlers
	userHandler := handler.NewUserHandler(userService)
	spaceHandler := handler.NewSpaceHandler(spaceService, bookingService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	imageHandler := handler.NewImageHandler(imageService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.MaxMultipartMemory = 16 << 20

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check and metrics routes
	healthHandler := health.NewHandler(db, serviceName)
	if redisClient != nil {
		healthHandler.WithRedis(redisClient)
	}
	healthHandler.RegisterRoutes(router)
	router.GET("/metrics", observability.MetricsHandler())

	// Register routes
	userHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	spaceHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	notificationHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	imageHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}
	bookingService.Drain()
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error("tracer shutdown failed", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}
