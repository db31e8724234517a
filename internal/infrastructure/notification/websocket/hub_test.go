package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/Pottifar/calendar/internal/application/dto"
	"github.com/Pottifar/calendar/pkg/logger"
)

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", want, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func receive(t *testing.T, c *Client) (Message, bool) {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		return msg, ok
	case <-time.After(100 * time.Millisecond):
		return Message{}, false
	}
}

func TestHubDeliversToSubscribedDates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.New("error")
	hub := NewHub(log)
	go hub.Run(ctx)

	all := NewClient(hub, nil, log)
	may10 := NewClient(hub, nil, log)
	if n := may10.Subscribe([]string{"2024-05-10", "not-a-date"}); n != 1 {
		t.Fatalf("expected one valid subscription, got %d", n)
	}

	hub.Register(all)
	hub.Register(may10)
	waitForClients(t, hub, 2)

	hub.BroadcastReservationEvent(dto.NewReservationDeletedEventDTO("r1", "2024-05-11"))

	msg, ok := receive(t, all)
	if !ok || msg.Type != dto.EventReservationDeleted {
		t.Fatalf("unfiltered client must receive every event, got %+v", msg)
	}
	if _, ok := receive(t, may10); ok {
		t.Fatalf("client subscribed to another date must not receive the event")
	}

	hub.BroadcastReservationEvent(dto.NewReservationDeletedEventDTO("r2", "2024-05-10"))
	if _, ok := receive(t, may10); !ok {
		t.Fatalf("subscribed client must receive events for its date")
	}

	hub.Unregister(all)
	waitForClients(t, hub, 1)
}

func TestHubClosesClientsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	log := logger.New("error")
	hub := NewHub(log)
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := NewClient(hub, nil, log)
	hub.Register(client)
	waitForClients(t, hub, 1)

	cancel()
	<-done

	if _, ok := <-client.send; ok {
		t.Fatalf("client channel must be closed on shutdown")
	}
	if hub.ClientCount() != 0 {
		t.Fatalf("expected no clients after shutdown")
	}
}

func TestClientHandleControl(t *testing.T) {
	c := NewClient(nil, nil, logger.New("error"))

	c.handleControl([]byte(`{"type":"subscribe","dates":["2024-05-10"]}`))
	if c.Wants("2024-05-11") || !c.Wants("2024-05-10") {
		t.Fatalf("subscription not applied")
	}

	c.handleControl([]byte(`not json`))
	c.handleControl([]byte(`{"type":"unsubscribe"}`))
	if !c.Wants("2024-05-11") {
		t.Fatalf("unsubscribe must restore all dates")
	}
}
