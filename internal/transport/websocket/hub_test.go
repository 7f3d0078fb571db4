package websocket

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"

	"mediascribe-server-go/internal/domain/eventbus"
	"mediascribe-server-go/internal/domain/stream"
)

func newTestHub(t *testing.T) (*Hub, evbus.Bus, *gorilla.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bus := eventbus.New()
	hub, err := NewHub(bus, nil)
	if err != nil {
		t.Fatalf("NewHub error: %v", err)
	}
	t.Cleanup(hub.Close)

	engine := gin.New()
	hub.Register(engine, "/ws")
	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	waitForClients(t, hub, 1)
	return hub, bus, conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("client count never reached %d", want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubRelaysStreamEvents(t *testing.T) {
	_, bus, conn := newTestHub(t)

	bus.Publish(stream.TopicPartial, stream.Event{
		StreamID:   "task-1",
		ChunkIndex: 0,
		Text:       "hello",
		Timestamp:  time.Now(),
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read error: %v", err)
	}

	var env Envelope
	if err := sonic.Unmarshal(payload, &env); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if env.Event != stream.TopicPartial {
		t.Errorf("event = %q, want %q", env.Event, stream.TopicPartial)
	}
	if env.Data.StreamID != "task-1" || env.Data.Text != "hello" {
		t.Errorf("data = %+v", env.Data)
	}
}

func TestHubRelaysThroughBusSink(t *testing.T) {
	_, bus, conn := newTestHub(t)

	sink := stream.NewBusSink(bus)
	sink.StreamEnd("task-2", stream.StatusCompleted, "all done")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read error: %v", err)
	}

	var env Envelope
	if err := sonic.Unmarshal(payload, &env); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if env.Event != stream.TopicStreamEnd {
		t.Errorf("event = %q, want %q", env.Event, stream.TopicStreamEnd)
	}
	if env.Data.Status != stream.StatusCompleted || env.Data.Text != "all done" {
		t.Errorf("data = %+v", env.Data)
	}
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	hub, _, conn := newTestHub(t)

	conn.Close()
	waitForClients(t, hub, 0)
}
