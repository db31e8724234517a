package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Pottifar/calendar/internal/application/port"
	"github.com/Pottifar/calendar/internal/domain/valueobject"
	"github.com/Pottifar/calendar/pkg/logger"
)

// advisoryNamespace is the first key of the two-key advisory lock space used for booking dates.
const advisoryNamespace int32 = 0x43414c // "CAL"

const unlockTimeout = 2 * time.Second

// DateLocker implements port.DateLocker with session-level pg advisory locks.
// Each held lock pins one pooled connection until release.
type DateLocker struct {
	db            *sql.DB
	retryInterval time.Duration
	logger        *logger.Logger
}

// NewDateLocker creates an advisory-lock based date locker.
func NewDateLocker(db *sql.DB, retryInterval time.Duration, logger *logger.Logger) *DateLocker {
	if retryInterval <= 0 {
		retryInterval = 25 * time.Millisecond
	}

	return &DateLocker{
		db:            db,
		retryInterval: retryInterval,
		logger:        logger,
	}
}

// Lock polls pg_try_advisory_lock on a dedicated connection until it succeeds or ctx is done.
func (l *DateLocker) Lock(ctx context.Context, day valueobject.CalendarDay) (port.ReleaseFunc, error) {
	key := advisoryKey(day)

	conn, err := l.db.Conn(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to get connection for advisory lock: %w", err)
	}

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		var acquired bool
		err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1, $2)`, advisoryNamespace, key).Scan(&acquired)
		if err != nil {
			_ = conn.Close()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("failed to acquire advisory lock for %s: %w", day, err)
		}

		if acquired {
			return l.releaser(conn, day, key), nil
		}

		select {
		case <-ctx.Done():
			_ = conn.Close()
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *DateLocker) releaser(conn *sql.Conn, day valueobject.CalendarDay, key int32) port.ReleaseFunc {
	released := false
	return func() {
		if released {
			return
		}
		released = true

		ctx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
		defer cancel()

		if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_unlock($1, $2)`, advisoryNamespace, key); err != nil {
			l.logger.Warn("Failed to release advisory lock", "date", day.String(), "error", err)
		}
		if err := conn.Close(); err != nil {
			l.logger.Warn("Failed to return advisory lock connection", "error", err)
		}
	}
}

// advisoryKey encodes the day as YYYYMMDD, unique per day and within int4.
func advisoryKey(day valueobject.CalendarDay) int32 {
	return int32(day.Year()*10000 + int(day.Month())*100 + day.Day())
}
