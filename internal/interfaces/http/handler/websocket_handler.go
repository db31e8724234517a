package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	wsInfra "github.com/Pottifar/calendar/internal/infrastructure/notification/websocket"
	"github.com/Pottifar/calendar/internal/interfaces/http/middleware"
	"github.com/Pottifar/calendar/pkg/logger"
)

// WebSocketHandler подключает открытые календари к рассылке изменений бронирований
type WebSocketHandler struct {
	hub        *wsInfra.Hub
	origins    originSet
	authConfig middleware.AuthConfig
	upgrader   websocket.Upgrader
	logger     *logger.Logger
}

// NewWebSocketHandler создает handler; allowedOrigins те же, что и для CORS
func NewWebSocketHandler(
	hub *wsInfra.Hub,
	allowedOrigins []string,
	authConfig middleware.AuthConfig,
	logger *logger.Logger,
) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:        hub,
		origins:    newOriginSet(allowedOrigins),
		authConfig: authConfig,
		logger:     logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return h.origins.allows(r.Header.Get("Origin"))
		},
	}
	return h
}

// HandleConnection обрабатывает GET /ws.
// ?dates=2024-05-10,2024-05-11 сразу подписывает клиента на изменения этих дат.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	if err := middleware.ValidateRequestAuth(r, h.authConfig); err != nil {
		h.logger.Warn("WebSocket unauthorized", "remote_addr", r.RemoteAddr, "reason", err.Error())
		middleware.WriteJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	// Upgrade сам отвечает 403 при чужом Origin
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "origin", r.Header.Get("Origin"), "error", err)
		return
	}

	client := wsInfra.NewClient(h.hub, conn, h.logger)
	if dates := splitDates(r.URL.Query().Get("dates")); len(dates) > 0 {
		accepted := client.Subscribe(dates)
		h.logger.Debug("WebSocket client subscribed", "requested", len(dates), "accepted", accepted)
	}
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

func splitDates(raw string) []string {
	var dates []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			dates = append(dates, part)
		}
	}
	return dates
}

// originSet - разрешенные Origin в виде scheme://host, "*" разрешает любой
type originSet map[string]struct{}

func newOriginSet(origins []string) originSet {
	set := make(originSet, len(origins))
	for _, origin := range origins {
		if origin = strings.TrimRight(strings.TrimSpace(origin), "/"); origin != "" {
			set[origin] = struct{}{}
		}
	}
	return set
}

func (s originSet) allows(origin string) bool {
	parsed, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return false
	}
	if _, ok := s["*"]; ok {
		return true
	}
	_, ok := s[parsed.Scheme+"://"+parsed.Host]
	return ok
}
