package websocket

import (
	"context"
	"sync"

	"github.com/Pottifar/calendar/internal/application/dto"
	"github.com/Pottifar/calendar/pkg/logger"
)

// Hub управляет WebSocket клиентами и рассылает изменения бронирований
// Реализует интерфейс port.NotificationService
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Канал для broadcast событий
	broadcast chan *dto.ReservationEventDTO

	// Канал для регистрации клиентов
	register chan *Client

	// Канал для удаления клиентов
	unregister chan *Client

	// Закрывается при остановке Run
	done chan struct{}

	// Mutex для защиты clients map
	mu sync.RWMutex

	logger *logger.Logger
}

// NewHub создает новый WebSocket hub
func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *dto.ReservationEventDTO, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run запускает hub до отмены ctx (должен быть запущен в отдельной goroutine)
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket hub started")

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			h.logger.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("Client registered", "total_clients", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("Client unregistered", "total_clients", total)

		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

// deliver рассылает событие клиентам, подписанным на его дату
func (h *Hub) deliver(event *dto.ReservationEventDTO) {
	h.mu.Lock()
	defer h.mu.Unlock()

	message := Message{Type: event.Type, Data: event}
	delivered := 0

	for client := range h.clients {
		if !client.Wants(event.Date) {
			continue
		}

		select {
		case client.send <- message:
			delivered++
		default:
			// Канал клиента заполнен, закрываем соединение
			close(client.send)
			delete(h.clients, client)
			h.logger.Warn("Client channel full, disconnected")
		}
	}

	h.logger.Debug("Reservation event broadcasted",
		"type", event.Type,
		"date", event.Date,
		"delivered", delivered)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Register регистрирует нового клиента
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister удаляет клиента
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastReservationEvent отправляет событие всем клиентам (реализация port.NotificationService)
func (h *Hub) BroadcastReservationEvent(event *dto.ReservationEventDTO) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("Broadcast channel full, dropping reservation event", "type", event.Type)
	}
}

// ClientCount возвращает количество подключенных клиентов (реализация port.NotificationService)
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Message представляет сообщение для отправки клиенту
type Message struct {
	Type string      `json:"type"` // reservation.created | reservation.updated | reservation.deleted
	Data interface{} `json:"data"`
}
