package entity

import (
	"errors"
	"strings"
	"time"

	"github.com/Pottifar/calendar/internal/domain/valueobject"
)

// ErrEmptyOwner возвращается, если владелец бронирования не указан
var ErrEmptyOwner = errors.New("reservation owner must not be empty")

// ErrMissingDate возвращается, если дата бронирования не указана
var ErrMissingDate = errors.New("reservation date must be set")

// Reservation представляет бронирование переговорной (Aggregate Root)
// Владелец и дата неизменны после создания, меняется только диапазон времени
type Reservation struct {
	id        string
	owner     string
	date      valueobject.CalendarDay
	timeRange valueobject.TimeRange
	createdAt time.Time
	updatedAt time.Time
}

// NewReservation создает новое бронирование без идентификатора (Factory Method)
// Идентификатор назначает хранилище при вставке
func NewReservation(
	owner string,
	date valueobject.CalendarDay,
	timeRange valueobject.TimeRange,
) (*Reservation, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, ErrEmptyOwner
	}

	if date.IsZero() {
		return nil, ErrMissingDate
	}

	if err := timeRange.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	return &Reservation{
		owner:     owner,
		date:      date,
		timeRange: timeRange,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstruct восстанавливает бронирование из хранилища (для Repository)
func Reconstruct(
	id string,
	owner string,
	date valueobject.CalendarDay,
	timeRange valueobject.TimeRange,
	createdAt, updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:        id,
		owner:     owner,
		date:      date,
		timeRange: timeRange,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// ID возвращает идентификатор бронирования
func (r *Reservation) ID() string {
	return r.id
}

// Owner возвращает имя владельца
func (r *Reservation) Owner() string {
	return r.owner
}

// Date возвращает день бронирования
func (r *Reservation) Date() valueobject.CalendarDay {
	return r.date
}

// TimeRange возвращает забронированный интервал
func (r *Reservation) TimeRange() valueobject.TimeRange {
	return r.timeRange
}

func (r *Reservation) CreatedAt() time.Time {
	return r.createdAt
}

func (r *Reservation) UpdatedAt() time.Time {
	return r.updatedAt
}

// Domain Methods (бизнес-логика)

// WithID возвращает копию бронирования с назначенным идентификатором
func (r *Reservation) WithID(id string) *Reservation {
	cp := *r
	cp.id = id
	return &cp
}

// WithTimeRange возвращает копию бронирования с новым интервалом
func (r *Reservation) WithTimeRange(timeRange valueobject.TimeRange, at time.Time) *Reservation {
	cp := *r
	cp.timeRange = timeRange
	cp.updatedAt = at
	return &cp
}

// Overlaps проверяет пересечение с другим бронированием на ту же дату
func (r *Reservation) Overlaps(other *Reservation) bool {
	return r.date.Equal(other.date) && r.timeRange.Overlaps(other.timeRange)
}

// StartsBefore задает порядок (дата, начало, id) для стабильной сортировки
func (r *Reservation) StartsBefore(other *Reservation) bool {
	if !r.date.Equal(other.date) {
		return r.date.Before(other.date)
	}
	if r.timeRange.Start() != other.timeRange.Start() {
		return r.timeRange.Start().Before(other.timeRange.Start())
	}
	return r.id < other.id
}
