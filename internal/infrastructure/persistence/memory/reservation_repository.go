package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Pottifar/calendar/internal/domain/entity"
	"github.com/Pottifar/calendar/internal/domain/repository"
	"github.com/Pottifar/calendar/internal/domain/valueobject"
)

// ReservationRepository keeps reservations in process memory.
// Like the postgres EXCLUDE constraint, writes that would overlap on the same day fail with repository.ErrConflict.
type ReservationRepository struct {
	mu    sync.RWMutex
	byID  map[string]*entity.Reservation
	now   func() time.Time
	newID func() string
}

// NewReservationRepository creates an empty in-memory store.
func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{
		byID:  make(map[string]*entity.Reservation),
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
	}
}

func (r *ReservationRepository) ListActive(ctx context.Context, date valueobject.CalendarDay) ([]*entity.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*entity.Reservation, 0)
	for _, res := range r.byID {
		if res.Date().Equal(date) {
			result = append(result, res)
		}
	}
	sortByStart(result)
	return result, nil
}

func (r *ReservationRepository) ListByOwner(ctx context.Context, owner string) ([]*entity.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*entity.Reservation, 0)
	for _, res := range r.byID {
		if res.Owner() == owner {
			result = append(result, res)
		}
	}
	sortByStart(result)
	return result, nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, id string) (*entity.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return res, nil
}

func (r *ReservationRepository) Insert(ctx context.Context, reservation *entity.Reservation) (*entity.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.overlapsLocked(reservation.Date(), reservation.TimeRange(), "") {
		return nil, repository.ErrConflict
	}

	now := r.now()
	stored := entity.Reconstruct(
		r.newID(),
		reservation.Owner(),
		reservation.Date(),
		reservation.TimeRange(),
		now,
		now,
	)
	r.byID[stored.ID()] = stored
	return stored, nil
}

func (r *ReservationRepository) ReplaceRange(ctx context.Context, id string, timeRange valueobject.TimeRange) (*entity.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	if r.overlapsLocked(current.Date(), timeRange, id) {
		return nil, repository.ErrConflict
	}

	updated := current.WithTimeRange(timeRange, r.now())
	r.byID[id] = updated
	return updated, nil
}

func (r *ReservationRepository) Remove(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return false, nil
	}
	delete(r.byID, id)
	return true, nil
}

func (r *ReservationRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Count returns the total number of stored reservations.
func (r *ReservationRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *ReservationRepository) overlapsLocked(date valueobject.CalendarDay, timeRange valueobject.TimeRange, excludeID string) bool {
	for id, res := range r.byID {
		if id != excludeID && res.Date().Equal(date) && res.TimeRange().Overlaps(timeRange) {
			return true
		}
	}
	return false
}

func sortByStart(reservations []*entity.Reservation) {
	sort.SliceStable(reservations, func(i, j int) bool {
		return reservations[i].StartsBefore(reservations[j])
	})
}
