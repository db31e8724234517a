package repository

import (
	"context"
	"errors"

	"github.com/Pottifar/calendar/internal/domain/entity"
	"github.com/Pottifar/calendar/internal/domain/valueobject"
)

var (
	// ErrNotFound возвращается, если бронирование с таким id отсутствует
	ErrNotFound = errors.New("reservation not found")

	// ErrConflict возвращается хранилищем, если запись нарушила бы ограничение непересечения
	ErrConflict = errors.New("reservation conflicts with an existing one")
)

// ReservationRepository определяет интерфейс хранилища бронирований (Port)
// Реализация будет в Infrastructure слое
type ReservationRepository interface {
	// ListActive возвращает активные бронирования на дату, упорядоченные по началу
	ListActive(ctx context.Context, date valueobject.CalendarDay) ([]*entity.Reservation, error)

	// ListByOwner возвращает бронирования владельца, упорядоченные по (дата, начало)
	ListByOwner(ctx context.Context, owner string) ([]*entity.Reservation, error)

	// FindByID находит бронирование по идентификатору
	FindByID(ctx context.Context, id string) (*entity.Reservation, error)

	// Insert сохраняет бронирование и назначает ему идентификатор
	Insert(ctx context.Context, reservation *entity.Reservation) (*entity.Reservation, error)

	// ReplaceRange заменяет интервал существующего бронирования
	ReplaceRange(ctx context.Context, id string, timeRange valueobject.TimeRange) (*entity.Reservation, error)

	// Remove удаляет бронирование, возвращает false если его не было
	Remove(ctx context.Context, id string) (bool, error)

	// Ping проверяет доступность хранилища
	Ping(ctx context.Context) error
}
