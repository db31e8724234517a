package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Pottifar/calendar/internal/domain/valueobject"
	"github.com/Pottifar/calendar/pkg/logger"
)

const (
	// Время ожидания для write операций
	writeWait = 10 * time.Second

	// Время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Интервал ping сообщений (должен быть меньше pongWait)
	pingPeriod = 54 * time.Second

	// Максимальный размер сообщения
	maxMessageSize = 512
)

// SubscriptionRequest - управляющее сообщение от клиента
// {"type":"subscribe","dates":["2024-05-10"]} ограничивает рассылку этими датами,
// {"type":"unsubscribe"} возвращает рассылку всех изменений.
type SubscriptionRequest struct {
	Type  string   `json:"type"`
	Dates []string `json:"dates"`
}

// Client представляет WebSocket клиента
type Client struct {
	// WebSocket connection
	conn *websocket.Conn

	// Hub к которому принадлежит клиент
	hub *Hub

	// Канал для отправки сообщений
	send chan Message

	// Даты, на которые подписан клиент; пустое множество - все даты
	mu    sync.RWMutex
	dates map[string]struct{}

	logger *logger.Logger
}

// NewClient создает нового WebSocket клиента
func NewClient(hub *Hub, conn *websocket.Conn, logger *logger.Logger) *Client {
	return &Client{
		conn:   conn,
		hub:    hub,
		send:   make(chan Message, 256),
		dates:  make(map[string]struct{}),
		logger: logger,
	}
}

// Subscribe ограничивает рассылку указанными датами, некорректные даты пропускаются
func (c *Client) Subscribe(dates []string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dates = make(map[string]struct{}, len(dates))
	for _, raw := range dates {
		day, err := valueobject.ParseCalendarDay(raw)
		if err != nil {
			continue
		}
		c.dates[day.String()] = struct{}{}
	}
	return len(c.dates)
}

// Wants сообщает, интересно ли клиенту событие на дату
func (c *Client) Wants(date string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.dates) == 0 || date == "" {
		return true
	}
	_, ok := c.dates[date]
	return ok
}

// ReadPump читает управляющие сообщения от клиента
// Запускается в отдельной goroutine
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		if err := c.conn.Close(); err != nil {
			c.logger.Error("WebSocket close error", err)
		}
	}()

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("WebSocket set read deadline error", err)
		return
	}
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket read error", err)
			}
			break
		}
		c.handleControl(data)
	}
}

func (c *Client) handleControl(data []byte) {
	var req SubscriptionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.logger.Debug("Ignoring malformed websocket message", "error", err)
		return
	}

	switch req.Type {
	case "subscribe":
		n := c.Subscribe(req.Dates)
		c.logger.Debug("Client subscribed", "dates", n)
	case "unsubscribe":
		c.Subscribe(nil)
	}
}

// WritePump отправляет сообщения клиенту
// Запускается в отдельной goroutine
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			c.logger.Error("WebSocket close error", err)
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("WebSocket set write deadline error", err)
				return
			}
			if !ok {
				// Hub закрыл канал
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.logger.Error("WebSocket close message error", err)
				}
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("WebSocket write error", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("WebSocket set write deadline error", err)
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
