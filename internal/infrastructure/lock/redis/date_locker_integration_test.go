//go:build integration

package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Pottifar/calendar/internal/domain/valueobject"
	"github.com/Pottifar/calendar/pkg/logger"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("redis ping: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestDateLockerExcludesSameDay(t *testing.T) {
	client := newTestClient(t)
	locker := NewDateLocker(client, 5*time.Second, 10*time.Millisecond, logger.NewNop())
	locker.keyPrefix = "calendar:test:lock:" + time.Now().Format("150405.000000") + ":"

	day, _ := valueobject.ParseCalendarDay("2024-05-10")
	other, _ := valueobject.ParseCalendarDay("2024-05-11")

	release, err := locker.Lock(context.Background(), day)
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	// Другая дата не ждет
	releaseOther, err := locker.Lock(context.Background(), other)
	if err != nil {
		t.Fatalf("Lock(other) error = %v", err)
	}
	releaseOther()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, day); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded while held, got %v", err)
	}

	release()
	release()

	again, err := locker.Lock(context.Background(), day)
	if err != nil {
		t.Fatalf("Lock() after release error = %v", err)
	}
	again()
}
