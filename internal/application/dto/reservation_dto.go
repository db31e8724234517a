package dto

import (
	"fmt"
	"time"

	"github.com/Pottifar/calendar/internal/domain/entity"
	"github.com/Pottifar/calendar/internal/domain/valueobject"
)

// ReservationDTO представляет бронирование для передачи между слоями
type ReservationDTO struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromEntity конвертирует Domain Entity в DTO
func FromEntity(reservation *entity.Reservation) *ReservationDTO {
	return &ReservationDTO{
		ID:        reservation.ID(),
		Owner:     reservation.Owner(),
		Date:      reservation.Date().String(),
		StartTime: reservation.TimeRange().Start().String(),
		EndTime:   reservation.TimeRange().End().String(),
		CreatedAt: reservation.CreatedAt(),
		UpdatedAt: reservation.UpdatedAt(),
	}
}

// ToReservationDTOs конвертирует слайс Entity в слайс DTO
func ToReservationDTOs(reservations []*entity.Reservation) []*ReservationDTO {
	dtos := make([]*ReservationDTO, len(reservations))
	for i, r := range reservations {
		dtos[i] = FromEntity(r)
	}
	return dtos
}

// ToEntity восстанавливает Entity из DTO (например, из кеша)
func (d *ReservationDTO) ToEntity() (*entity.Reservation, error) {
	date, err := valueobject.ParseCalendarDay(d.Date)
	if err != nil {
		return nil, fmt.Errorf("reservation %s: %w", d.ID, err)
	}

	timeRange, err := valueobject.ParseTimeRange(d.StartTime, d.EndTime)
	if err != nil {
		return nil, fmt.Errorf("reservation %s: %w", d.ID, err)
	}

	return entity.Reconstruct(d.ID, d.Owner, date, timeRange, d.CreatedAt, d.UpdatedAt), nil
}

// ToEntities конвертирует слайс DTO обратно в Entity
func ToEntities(dtos []*ReservationDTO) ([]*entity.Reservation, error) {
	reservations := make([]*entity.Reservation, 0, len(dtos))
	for _, d := range dtos {
		r, err := d.ToEntity()
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}
	return reservations, nil
}

// Типы событий об изменении бронирований
const (
	EventReservationCreated = "reservation.created"
	EventReservationUpdated = "reservation.updated"
	EventReservationDeleted = "reservation.deleted"
)

// ReservationEventDTO описывает зафиксированное изменение бронирования
// Используется для NATS и WebSocket
type ReservationEventDTO struct {
	Type          string          `json:"type"`
	ReservationID string          `json:"reservation_id"`
	Date          string          `json:"date,omitempty"`
	Reservation   *ReservationDTO `json:"reservation,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// NewReservationEventDTO создает событие для созданного или измененного бронирования
func NewReservationEventDTO(eventType string, reservation *entity.Reservation) *ReservationEventDTO {
	return &ReservationEventDTO{
		Type:          eventType,
		ReservationID: reservation.ID(),
		Date:          reservation.Date().String(),
		Reservation:   FromEntity(reservation),
		Timestamp:     time.Now().UTC(),
	}
}

// NewReservationDeletedEventDTO создает событие удаления; дата может быть неизвестна
func NewReservationDeletedEventDTO(id string, date string) *ReservationEventDTO {
	return &ReservationEventDTO{
		Type:          EventReservationDeleted,
		ReservationID: id,
		Date:          date,
		Timestamp:     time.Now().UTC(),
	}
}
