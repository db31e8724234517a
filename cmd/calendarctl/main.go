package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Pottifar/calendar/internal/application/usecase"
	"github.com/Pottifar/calendar/internal/domain/service"
	redisCache "github.com/Pottifar/calendar/internal/infrastructure/cache/redis"
	pglock "github.com/Pottifar/calendar/internal/infrastructure/lock/postgres"
	natsInfra "github.com/Pottifar/calendar/internal/infrastructure/messaging/nats"
	"github.com/Pottifar/calendar/internal/infrastructure/persistence/postgres"
	"github.com/Pottifar/calendar/pkg/config"
	"github.com/Pottifar/calendar/pkg/logger"
)

var RootCmd = &cobra.Command{
	Use:   "calendarctl",
	Short: "Manage meeting room reservations",
	Long: `Manage meeting room reservations directly against the database

Connection settings are read from the same environment as calendar-api
(DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME, REDIS_HOST, NATS_URL, ...).
A .env file in the working directory is loaded when present.
`,
	SilenceUsage: true,
}

var logLevel string

// app держит соединения, открытые для одной команды
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *sql.DB
	engine  *usecase.SchedulingEngine
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("Failed to close resource", "error", err)
		}
	}
}

// openDB подключается к Postgres без сборки движка
func openDB(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	a := &app{cfg: cfg, log: logger.New(level)}

	a.db, err = postgres.Open(ctx, cfg.Database.DSN(), postgres.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.closers = append(a.closers, a.db.Close)

	return a, nil
}

// openEngine собирает движок с advisory lock, чтобы CLI и API не пересекались по дате
func openEngine(ctx context.Context) (*app, error) {
	a, err := openDB(ctx)
	if err != nil {
		return nil, err
	}

	policy, err := service.NewBusinessHoursPolicy(a.cfg.Booking.OpenTime, a.cfg.Booking.CloseTime)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("business hours: %w", err)
	}

	a.engine = usecase.NewSchedulingEngine(
		postgres.NewPostgresReservationRepository(a.db),
		pglock.NewDateLocker(a.db, a.cfg.Lock.RetryInterval, a.log),
		policy,
		usecase.SchedulingEngineConfig{
			LockTimeout:   a.cfg.Booking.LockTimeout,
			SubjectPrefix: a.cfg.NATS.SubjectPrefix,
			WriteTimeout:  a.cfg.Booking.WriteTimeout,
		},
		a.log,
	)

	// Кеш API нужно сбрасывать и при изменениях из CLI
	if a.cfg.Cache.Enabled {
		client, err := redisCache.NewClient(redisCache.ClientOptions{
			Addr:        a.cfg.Redis.Addr(),
			Password:    a.cfg.Redis.Password,
			DB:          a.cfg.Redis.DB,
			DialTimeout: a.cfg.Redis.DialTimeout,
		})
		if err != nil {
			a.log.Warn("Redis unavailable, cache will not be invalidated", "error", err)
		} else {
			a.closers = append(a.closers, client.Close)
			a.engine.WithCache(redisCache.NewReservationCache(client, a.cfg.Cache.TTL, a.cfg.Cache.KeyPrefix))
		}
	}

	if a.cfg.NATS.Enabled {
		publisher, err := natsInfra.NewNATSPublisher(a.cfg.NATS.URL, a.cfg.NATS.StreamName, a.cfg.NATS.SubjectPrefix, a.log)
		if err != nil {
			a.log.Warn("NATS unavailable, events will not be published", "error", err)
		} else {
			a.closers = append(a.closers, publisher.Close)
			a.engine.WithEventPublisher(publisher)
		}
	}

	return a, nil
}

func main() {
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := RootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
