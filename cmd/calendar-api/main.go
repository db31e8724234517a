package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	// Application
	applicationPort "github.com/Pottifar/calendar/internal/application/port"
	"github.com/Pottifar/calendar/internal/application/usecase"

	// Domain
	"github.com/Pottifar/calendar/internal/domain/repository"
	"github.com/Pottifar/calendar/internal/domain/service"

	// Infrastructure
	redisCache "github.com/Pottifar/calendar/internal/infrastructure/cache/redis"
	memorylock "github.com/Pottifar/calendar/internal/infrastructure/lock/memory"
	pglock "github.com/Pottifar/calendar/internal/infrastructure/lock/postgres"
	redislock "github.com/Pottifar/calendar/internal/infrastructure/lock/redis"
	natsInfra "github.com/Pottifar/calendar/internal/infrastructure/messaging/nats"
	wsInfra "github.com/Pottifar/calendar/internal/infrastructure/notification/websocket"
	"github.com/Pottifar/calendar/internal/infrastructure/observability"
	"github.com/Pottifar/calendar/internal/infrastructure/observability/cloudwatch"
	prommetrics "github.com/Pottifar/calendar/internal/infrastructure/observability/prometheus"
	"github.com/Pottifar/calendar/internal/infrastructure/persistence/memory"
	"github.com/Pottifar/calendar/internal/infrastructure/persistence/postgres"

	// Interfaces
	httpInterface "github.com/Pottifar/calendar/internal/interfaces/http"
	"github.com/Pottifar/calendar/internal/interfaces/http/handler"
	"github.com/Pottifar/calendar/internal/interfaces/http/middleware"

	// Shared
	"github.com/Pottifar/calendar/pkg/config"
	"github.com/Pottifar/calendar/pkg/logger"
)

func main() {
	// 1. Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализируем logger
	log := logger.New(cfg.LogLevel)
	defer log.Sync()
	log.Info("Starting Calendar API",
		"storage", cfg.Storage.Backend,
		"lock", cfg.Lock.Backend,
		"open_time", cfg.Booking.OpenTime.String(),
		"close_time", cfg.Booking.CloseTime.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	health := handler.NewHealthHandler(0, log)

	// 3. Хранилище бронирований
	var (
		db                    *sql.DB
		reservationRepository repository.ReservationRepository
	)
	switch cfg.Storage.Backend {
	case "postgres":
		db, err = postgres.Open(ctx, cfg.Database.DSN(), postgres.PoolConfig{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		})
		if err != nil {
			log.Error("Failed to connect to database", err)
			os.Exit(1)
		}
		defer db.Close()
		log.Info("Database connected successfully")

		if cfg.Database.AutoMigrate {
			applied, migrateErr := postgres.Migrate(ctx, db)
			if migrateErr != nil {
				log.Error("Failed to apply migrations", migrateErr)
				os.Exit(1)
			}
			log.Info("Migrations applied", "files", applied)
		}

		pgRepository := postgres.NewPostgresReservationRepository(db)
		health.AddCheck("postgres", pgRepository.Ping)
		reservationRepository = pgRepository
	default:
		memoryRepository := memory.NewReservationRepository()
		health.AddCheck("storage", memoryRepository.Ping)
		reservationRepository = memoryRepository
		log.Warn("In-memory storage is enabled, reservations are lost on restart")
	}

	// 4. Redis (кеш и/или распределенная блокировка)
	var redisClient *redis.Client
	if cfg.Cache.Enabled || cfg.Lock.Backend == "redis" {
		redisClient, err = redisCache.NewClient(redisCache.ClientOptions{
			Addr:         cfg.Redis.Addr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Error("Failed to connect to Redis", err, "addr", cfg.Redis.Addr())
			os.Exit(1)
		}
		defer redisClient.Close()
		health.AddCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		log.Info("Redis connected successfully", "addr", cfg.Redis.Addr())
	}

	// 5. Блокировка дат
	var locker applicationPort.DateLocker
	switch cfg.Lock.Backend {
	case "redis":
		locker = redislock.NewDateLocker(redisClient, cfg.Lock.TTL, cfg.Lock.RetryInterval, log)
	case "postgres":
		locker = pglock.NewDateLocker(db, cfg.Lock.RetryInterval, log)
	default:
		locker = memorylock.NewDateLocker()
	}
	log.Info("Date locker initialized", "backend", cfg.Lock.Backend)

	// 6. Domain Layer
	policy, err := service.NewBusinessHoursPolicy(cfg.Booking.OpenTime, cfg.Booking.CloseTime)
	if err != nil {
		log.Error("Invalid business hours", err)
		os.Exit(1)
	}

	// WebSocket Hub
	hub := wsInfra.NewHub(log)

	// 7. Метрики: Prometheus и CloudWatch
	var promMetrics *prommetrics.Metrics
	if cfg.Metrics.PrometheusEnabled {
		promMetrics = prommetrics.New(prometheus.NewRegistry(), hub.ClientCount)
	}

	var cloudwatchPublisher *cloudwatch.MetricsPublisher
	if cfg.CloudWatch.MetricsEnabled {
		cloudwatchPublisher, err = cloudwatch.NewMetricsPublisher(ctx,
			cloudwatch.MetricsPublisherConfig{
				Namespace:         cfg.CloudWatch.MetricsNamespace,
				Region:            cfg.CloudWatch.Region,
				Endpoint:          cfg.CloudWatch.Endpoint,
				AccessKeyID:       cfg.CloudWatch.AccessKeyID,
				SecretAccessKey:   cfg.CloudWatch.SecretAccessKey,
				DefaultDimensions: cfg.CloudWatch.MetricsDimensions,
				BufferSize:        cfg.CloudWatch.MetricsBufferSize,
				FlushInterval:     cfg.CloudWatch.MetricsFlushInterval,
			}, log)
		if err != nil {
			log.Error("Failed to initialize CloudWatch metrics publisher", err)
			os.Exit(1)
		}
		log.Info("CloudWatch metrics publisher initialized")
	} else {
		log.Warn("CloudWatch metrics publishing is disabled")
	}

	// 8. NATS Event Publisher
	var eventPublisher applicationPort.EventPublisher
	if cfg.NATS.Enabled {
		publisherImpl, initErr := natsInfra.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.StreamName, cfg.NATS.SubjectPrefix, log)
		if initErr != nil {
			log.Warn("Failed to connect to NATS, continuing without event publishing", "error", initErr.Error())
		} else {
			eventPublisher = publisherImpl
			defer eventPublisher.Close()
			log.Info("NATS event publisher initialized", "url", cfg.NATS.URL)
		}
	} else {
		log.Warn("NATS event publishing is disabled")
	}

	// 9. Application Layer
	engine := usecase.NewSchedulingEngine(reservationRepository, locker, policy, usecase.SchedulingEngineConfig{
		LockTimeout:   cfg.Booking.LockTimeout,
		SubjectPrefix: cfg.NATS.SubjectPrefix,
		WriteTimeout:  cfg.Booking.WriteTimeout,
	}, log).WithNotifier(hub)

	if cfg.Cache.Enabled {
		engine.WithCache(redisCache.NewReservationCache(redisClient, cfg.Cache.TTL, cfg.Cache.KeyPrefix))
	}
	if eventPublisher != nil {
		engine.WithEventPublisher(eventPublisher)
	}

	var metricsPublishers []applicationPort.MetricsPublisher
	if promMetrics != nil {
		metricsPublishers = append(metricsPublishers, promMetrics)
	}
	if cloudwatchPublisher != nil {
		metricsPublishers = append(metricsPublishers, cloudwatchPublisher)
	}
	metricsPublisher := observability.NewFanout(metricsPublishers...)
	if metricsPublisher != nil {
		engine.WithMetrics(metricsPublisher)
	}

	// 10. Interfaces Layer
	authConfig := middleware.AuthConfig{
		Enabled:     cfg.Security.AuthEnabled,
		BearerToken: cfg.Security.AuthToken,
	}

	router := httpInterface.NewRouter(
		handler.NewReservationAPIHandler(engine, log),
		handler.NewLegacyBookingHandler(engine, log),
		handler.NewWebSocketHandler(hub, cfg.Security.AllowedOrigins, authConfig, log),
		health,
		promMetrics,
		cfg.Security,
		cfg.RateLimit,
		log,
	)

	// 11. Фоновые процессы
	go hub.Run(ctx)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Канал для получения сигналов ОС
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// 12. Ожидаем сигнал для graceful shutdown
	select {
	case <-sigChan:
		log.Info("Shutdown signal received, starting graceful shutdown...")
	case err := <-serverErr:
		log.Error("HTTP server failed", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Сначала перестаем принимать запросы, затем закрываем hub и сбрасываем метрики
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", err)
	}
	router.Close()
	cancel()

	if cloudwatchPublisher != nil {
		log.Info("Flushing CloudWatch metrics buffer...")
		if err := cloudwatchPublisher.Close(shutdownCtx); err != nil {
			log.Error("Failed to flush CloudWatch metrics", err)
		}
	}

	log.Info("Server stopped gracefully")
}
