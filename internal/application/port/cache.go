package port

import (
	"context"
	"errors"

	"github.com/Pottifar/calendar/internal/application/dto"
	"github.com/Pottifar/calendar/internal/domain/valueobject"
)

// ErrCacheMiss is returned by ReservationCache.GetDay when nothing is cached for the day.
var ErrCacheMiss = errors.New("cache miss")

// ReservationCache holds the by-date listing in front of the store.
// The store stays authoritative: an entry is dropped after every committed
// mutation on its day and otherwise expires by TTL.
type ReservationCache interface {
	// GetDay returns the cached listing for day, ordered by start, or ErrCacheMiss.
	GetDay(ctx context.Context, day valueobject.CalendarDay) ([]*dto.ReservationDTO, error)

	// SetDay stores the listing for day.
	SetDay(ctx context.Context, day valueobject.CalendarDay, reservations []*dto.ReservationDTO) error

	// InvalidateDay drops the listing for day; a missing entry is not an error.
	InvalidateDay(ctx context.Context, day valueobject.CalendarDay) error
}
