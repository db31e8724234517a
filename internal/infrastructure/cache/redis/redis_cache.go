package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Pottifar/calendar/internal/application/dto"
	"github.com/Pottifar/calendar/internal/application/port"
	"github.com/Pottifar/calendar/internal/domain/valueobject"
)

const dayKeyPrefix = "reservations:date:"

// ReservationCache implements port.ReservationCache on Redis strings holding JSON.
type ReservationCache struct {
	client    redis.UniversalClient
	ttl       time.Duration
	keyPrefix string
}

// NewReservationCache creates a cache on top of an existing client.
// keyPrefix namespaces every key, e.g. "calendar:".
func NewReservationCache(client redis.UniversalClient, ttl time.Duration, keyPrefix string) *ReservationCache {
	return &ReservationCache{
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
	}
}

// GetDay returns the cached listing or port.ErrCacheMiss.
func (c *ReservationCache) GetDay(ctx context.Context, day valueobject.CalendarDay) ([]*dto.ReservationDTO, error) {
	raw, err := c.client.Get(ctx, c.dayKey(day)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}

	var reservations []*dto.ReservationDTO
	if err := json.Unmarshal(raw, &reservations); err != nil {
		// An unreadable entry behaves like a miss and gets overwritten by the next SetDay
		return nil, fmt.Errorf("%w: corrupt entry: %v", port.ErrCacheMiss, err)
	}
	return reservations, nil
}

// SetDay stores the listing with the configured TTL.
func (c *ReservationCache) SetDay(ctx context.Context, day valueobject.CalendarDay, reservations []*dto.ReservationDTO) error {
	if reservations == nil {
		reservations = []*dto.ReservationDTO{}
	}

	data, err := json.Marshal(reservations)
	if err != nil {
		return fmt.Errorf("failed to marshal reservations: %w", err)
	}

	if err := c.client.Set(ctx, c.dayKey(day), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// InvalidateDay deletes the listing for day.
func (c *ReservationCache) InvalidateDay(ctx context.Context, day valueobject.CalendarDay) error {
	if err := c.client.Del(ctx, c.dayKey(day)).Err(); err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}
	return nil
}

func (c *ReservationCache) dayKey(day valueobject.CalendarDay) string {
	return c.keyPrefix + dayKeyPrefix + day.String()
}
