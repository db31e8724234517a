package http

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Pottifar/calendar/internal/application/dto"
)

type wsEnvelope struct {
	Type string                  `json:"type"`
	Data dto.ReservationEventDTO `json:"data"`
}

func TestWebSocketPushesSubscribedDates(t *testing.T) {
	server, _ := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	// Без токена соединение не устанавливается
	if _, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"http://localhost:3000"}}); err == nil {
		t.Fatalf("expected unauthorized dial to fail")
	} else if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", resp)
	}

	// Чужой Origin
	if _, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token="+testToken, http.Header{"Origin": {"http://evil.example"}}); err == nil {
		t.Fatalf("expected foreign origin to be rejected")
	} else if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+testToken+"&dates=2024-05-10",
		http.Header{"Origin": {"http://localhost:3000"}})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitForClients(t, server.URL, 1)

	// Сообщение для другой даты не должно прийти, поэтому сначала создаем его
	resp := createReservation(t, server, "bob", "2024-05-11", "09:00", "10:00")
	resp.Body.Close()
	resp = createReservation(t, server, "alice", "2024-05-10", "09:00", "10:00")
	created := decode[dto.ReservationDTO](t, resp)

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	var msg wsEnvelope
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read event: %v", err)
	}

	if msg.Type != dto.EventReservationCreated || msg.Data.Date != "2024-05-10" || msg.Data.ReservationID != created.ID {
		t.Fatalf("unexpected event: %+v", msg)
	}
}

// waitForClients ждет, пока hub зарегистрирует клиента (видно по gauge в /metrics)
func waitForClients(t *testing.T, baseURL string, want int) {
	t.Helper()
	line := "calendar_websocket_clients " + strconv.Itoa(want)
	deadline := time.Now().Add(2 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := http.Get(baseURL + "/metrics")
		if err != nil {
			t.Fatalf("GET /metrics: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if strings.Contains(string(body), line+"\n") {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("hub never reported %d client(s)", want)
}
