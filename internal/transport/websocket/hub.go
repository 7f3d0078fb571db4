package websocket

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"mediascribe-server-go/internal/domain/stream"
	"mediascribe-server-go/internal/platform/logging"
)

// Envelope is the frame pushed to websocket clients for every bus event.
type Envelope struct {
	Event string       `json:"event"`
	Data  stream.Event `json:"data"`
}

var topics = []string{
	stream.TopicStreamCreated,
	stream.TopicPartial,
	stream.TopicProgress,
	stream.TopicStreamEnd,
	stream.TopicStreamError,
}

type client struct {
	socket *websocket.Conn
	mu     sync.Mutex
	closed atomic.Bool
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.socket.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.socket.WriteMessage(websocket.TextMessage, data)
}

func (c *client) close() {
	if c.closed.CompareAndSwap(false, true) {
		_ = c.socket.Close()
	}
}

// Hub fans stream events out to connected websocket clients. It subscribes
// to every stream topic on the bus; a slow or dead client is dropped, never
// waited on.
type Hub struct {
	bus      evbus.Bus
	logger   *logging.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	clients  map[*client]struct{}
	handlers map[string]func(stream.Event)
}

func NewHub(bus evbus.Bus, logger *logging.Logger) (*Hub, error) {
	h := &Hub{
		bus:    bus,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients:  make(map[*client]struct{}),
		handlers: make(map[string]func(stream.Event)),
	}

	for _, topic := range topics {
		topic := topic
		handler := func(evt stream.Event) { h.broadcast(topic, evt) }
		if err := bus.SubscribeAsync(topic, handler, false); err != nil {
			return nil, err
		}
		h.handlers[topic] = handler
	}
	return h, nil
}

// Register mounts the websocket endpoint on the gin engine.
func (h *Hub) Register(engine *gin.Engine, path string) {
	if path == "" {
		path = "/ws"
	}
	engine.GET(path, h.handleUpgrade)
}

func (h *Hub) handleUpgrade(c *gin.Context) {
	socket, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WarnTag("WS", "upgrade failed: %v", err)
		return
	}

	cl := &client{socket: socket}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.InfoTag("WS", "client connected (%d total)", total)

	// Drain inbound frames so pings and closes are processed; clients only
	// listen on this channel.
	go func() {
		defer h.drop(cl)
		for {
			if _, _, err := socket.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) drop(cl *client) {
	cl.close()
	h.mu.Lock()
	delete(h.clients, cl)
	h.mu.Unlock()
}

func (h *Hub) broadcast(topic string, evt stream.Event) {
	data, err := sonic.Marshal(Envelope{Event: topic, Data: evt})
	if err != nil {
		h.logger.WarnTag("WS", "encode event failed: %v", err)
		return
	}

	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.Unlock()

	for _, cl := range clients {
		if err := cl.write(data); err != nil {
			h.drop(cl)
		}
	}
}

// ClientCount reports currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close unsubscribes from the bus and disconnects every client.
func (h *Hub) Close() {
	for topic, handler := range h.handlers {
		_ = h.bus.Unsubscribe(topic, handler)
	}
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, cl := range clients {
		cl.close()
	}
}
