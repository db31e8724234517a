package postgres

import (
	"fmt"
	"time"

	"github.com/Pottifar/calendar/internal/domain/entity"
	"github.com/Pottifar/calendar/internal/domain/valueobject"
)

// ReservationDBModel представляет бронирование в БД
type ReservationDBModel struct {
	ID          string
	Owner       string
	BookingDate time.Time
	StartTime   string // TIME, HH:MM:SS
	EndTime     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ToDBModel конвертирует Domain Entity в DB Model
func ToDBModel(reservation *entity.Reservation) *ReservationDBModel {
	return &ReservationDBModel{
		ID:          reservation.ID(),
		Owner:       reservation.Owner(),
		BookingDate: reservation.Date().Time(),
		StartTime:   reservation.TimeRange().Start().StringWithSeconds(),
		EndTime:     reservation.TimeRange().End().StringWithSeconds(),
		CreatedAt:   reservation.CreatedAt(),
		UpdatedAt:   reservation.UpdatedAt(),
	}
}

// ToEntity конвертирует DB Model в Domain Entity
func ToEntity(model *ReservationDBModel) (*entity.Reservation, error) {
	timeRange, err := valueobject.ParseTimeRange(model.StartTime, model.EndTime)
	if err != nil {
		return nil, fmt.Errorf("invalid stored range for reservation %s: %w", model.ID, err)
	}

	// Восстанавливаем entity через Reconstruct
	return entity.Reconstruct(
		model.ID,
		model.Owner,
		valueobject.CalendarDayOf(model.BookingDate),
		timeRange,
		model.CreatedAt,
		model.UpdatedAt,
	), nil
}

// ScanReservationRow сканирует строку БД в ReservationDBModel
func ScanReservationRow(row interface {
	Scan(dest ...interface{}) error
}) (*ReservationDBModel, error) {
	var model ReservationDBModel

	err := row.Scan(
		&model.ID,
		&model.Owner,
		&model.BookingDate,
		&model.StartTime,
		&model.EndTime,
		&model.CreatedAt,
		&model.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &model, nil
}
