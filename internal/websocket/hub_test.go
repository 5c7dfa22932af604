package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// stubClient builds a client with no underlying connection so broadcasts
// can be observed on the send channel directly.
func stubClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		send: make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := testHub()
	c := stubClient(hub)

	hub.Register(c)
	if got := hub.ClientCount(); got != 1 {
		t.Errorf("ClientCount after register = %d, want 1", got)
	}

	hub.Unregister(c)
	if got := hub.ClientCount(); got != 0 {
		t.Errorf("ClientCount after unregister = %d, want 0", got)
	}

	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed after unregister")
	}
}

func TestUnregisterTwice(t *testing.T) {
	hub := testHub()
	c := stubClient(hub)

	hub.Register(c)
	hub.Unregister(c)
	hub.Unregister(c) // second call must be a no-op, not a double close

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("ClientCount = %d, want 0", got)
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := testHub()
	a := stubClient(hub)
	b := stubClient(hub)
	hub.Register(a)
	hub.Register(b)

	msg := NewMessage("notification", "created", "9f2c1d47", map[string]any{
		"user_id": "u-1",
		"message": "Барсик: Прививка, today at 09:00",
	})
	hub.Broadcast(msg)

	for _, c := range []*Client{a, b} {
		select {
		case data := <-c.send:
			var got Message
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal broadcast: %v", err)
			}
			if got.Type != "notification_created" {
				t.Errorf("Type = %q, want %q", got.Type, "notification_created")
			}
			if got.Entity != "notification" || got.Action != "created" {
				t.Errorf("Entity/Action = %q/%q, want notification/created", got.Entity, got.Action)
			}
			if got.ID != "9f2c1d47" {
				t.Errorf("ID = %q, want %q", got.ID, "9f2c1d47")
			}
			if got.Extra["message"] != "Барсик: Прививка, today at 09:00" {
				t.Errorf("Extra message = %v", got.Extra["message"])
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timed out waiting for broadcast")
		}
	}
}

func TestBroadcastEmptyHub(t *testing.T) {
	hub := testHub()
	// must not panic or block with nobody connected
	hub.Broadcast(NewMessage("notification", "created", "n-1", nil))
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := testHub()
	c := stubClient(hub)
	hub.Register(c)

	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast(NewMessage("event", "updated", "e-1", nil))
	}
	// buffer is full now; this one is dropped instead of blocking
	hub.Broadcast(NewMessage("event", "updated", "e-2", nil))

	count := 0
	for {
		select {
		case <-c.send:
			count++
		default:
			if count != sendBufferSize {
				t.Errorf("queued messages = %d, want %d", count, sendBufferSize)
			}
			return
		}
	}
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("event", "deleted", "e-42", nil)
	if msg.Type != "event_deleted" {
		t.Errorf("Type = %q, want %q", msg.Type, "event_deleted")
	}
	if msg.Entity != "event" || msg.Action != "deleted" || msg.ID != "e-42" {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestConcurrentRegisterBroadcast(t *testing.T) {
	hub := testHub()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := stubClient(hub)
			hub.Register(c)
			hub.Broadcast(NewMessage("notification", "created", "n-1", nil))
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("ClientCount after all unregister = %d, want 0", got)
	}
}
