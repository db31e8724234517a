//go:build integration

package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/Pottifar/calendar/internal/application/dto"
	"github.com/Pottifar/calendar/internal/application/port"
	"github.com/Pottifar/calendar/internal/domain/valueobject"
)

func TestReservationCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client, err := NewClient(ClientOptions{Addr: addr, DialTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	cache := NewReservationCache(client, time.Minute, "calendar:test:"+time.Now().Format("150405.000000")+":")
	day, _ := valueobject.ParseCalendarDay("2024-05-10")

	if _, err := cache.GetDay(ctx, day); !errors.Is(err, port.ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss on empty cache, got %v", err)
	}

	rows := []*dto.ReservationDTO{{ID: "r-1", Owner: "alice", Date: "2024-05-10", StartTime: "09:00", EndTime: "10:00"}}
	if err := cache.SetDay(ctx, day, rows); err != nil {
		t.Fatalf("SetDay() error = %v", err)
	}

	got, err := cache.GetDay(ctx, day)
	if err != nil || len(got) != 1 || got[0].Owner != "alice" {
		t.Fatalf("GetDay() = %v, %v", got, err)
	}

	if err := cache.InvalidateDay(ctx, day); err != nil {
		t.Fatalf("InvalidateDay() error = %v", err)
	}
	if _, err := cache.GetDay(ctx, day); !errors.Is(err, port.ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss after invalidation, got %v", err)
	}
}
