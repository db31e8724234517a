package port

import (
	"context"

	"github.com/Pottifar/calendar/internal/domain/valueobject"
)

// ReleaseFunc releases a previously acquired date lock. It is safe to call once.
type ReleaseFunc func()

// DateLocker serializes mutating operations that target the same calendar day.
// Different days never block each other.
type DateLocker interface {
	// Lock blocks until the exclusion for day is held or ctx is done.
	// On ctx expiry it returns the context error and nothing is held.
	Lock(ctx context.Context, day valueobject.CalendarDay) (ReleaseFunc, error)
}
