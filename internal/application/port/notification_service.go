package port

import "github.com/Pottifar/calendar/internal/application/dto"

// NotificationService определяет интерфейс для отправки уведомлений (Port)
// Реализация будет в Infrastructure слое (WebSocket Hub)
type NotificationService interface {
	// BroadcastReservationEvent отправляет изменение бронирования всем подключенным клиентам
	BroadcastReservationEvent(event *dto.ReservationEventDTO)

	// ClientCount возвращает количество подключенных клиентов
	ClientCount() int
}
