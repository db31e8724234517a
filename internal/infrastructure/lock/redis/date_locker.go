package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Pottifar/calendar/internal/application/port"
	"github.com/Pottifar/calendar/internal/domain/valueobject"
	"github.com/Pottifar/calendar/pkg/logger"
)

const (
	defaultKeyPrefix = "calendar:lock:date:"
	releaseTimeout   = 2 * time.Second
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// DateLocker implements port.DateLocker across instances with SET NX PX.
// The TTL bounds how long a crashed holder can block a day.
type DateLocker struct {
	client        redis.UniversalClient
	ttl           time.Duration
	retryInterval time.Duration
	keyPrefix     string
	logger        *logger.Logger
}

// NewDateLocker creates a Redis-backed date locker.
func NewDateLocker(client redis.UniversalClient, ttl, retryInterval time.Duration, logger *logger.Logger) *DateLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if retryInterval <= 0 {
		retryInterval = 25 * time.Millisecond
	}

	return &DateLocker{
		client:        client,
		ttl:           ttl,
		retryInterval: retryInterval,
		keyPrefix:     defaultKeyPrefix,
		logger:        logger,
	}
}

// Lock polls SET NX until it wins the key or ctx is done.
func (l *DateLocker) Lock(ctx context.Context, day valueobject.CalendarDay) (port.ReleaseFunc, error) {
	key := l.keyPrefix + day.String()
	token := uuid.New().String()

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("failed to acquire redis lock %s: %w", key, err)
		}

		if acquired {
			return l.releaser(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *DateLocker) releaser(key, token string) port.ReleaseFunc {
	released := false
	return func() {
		if released {
			return
		}
		released = true

		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()

		deleted, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
		if err != nil && !errors.Is(err, redis.Nil) {
			l.logger.Warn("Failed to release redis lock", "key", key, "error", err)
			return
		}
		if deleted == 0 {
			l.logger.Warn("Redis lock expired before release", "key", key, "ttl", l.ttl.String())
		}
	}
}
