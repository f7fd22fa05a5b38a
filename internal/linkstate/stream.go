package linkstate

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/HerbHall/netswitch/pkg/plugin"
	"github.com/coder/websocket"
	"go.uber.org/zap"
)

const (
	// TopicSnapshot is the first message sent to a new stream client.
	TopicSnapshot = "linkstate.snapshot"

	streamBuffer       = 16
	streamWriteTimeout = 5 * time.Second
)

// streamMessage is the envelope written to WebSocket clients.
type streamMessage struct {
	Topic     string    `json:"topic"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type streamClient struct {
	send chan []byte
}

// hub fans bus events out to connected stream clients. Delivery never
// blocks the publisher: a client whose buffer is full misses the message.
type hub struct {
	mu      sync.Mutex
	clients map[*streamClient]struct{}
	logger  *zap.Logger
}

func newHub(logger *zap.Logger) *hub {
	return &hub{clients: make(map[*streamClient]struct{}), logger: logger}
}

func (h *hub) add() *streamClient {
	c := &streamClient{send: make(chan []byte, streamBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *hub) remove(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) handleEvent(_ context.Context, ev plugin.Event) {
	msg, err := json.Marshal(streamMessage{Topic: ev.Topic, Timestamp: ev.Timestamp, Data: ev.Payload})
	if err != nil {
		h.logger.Warn("encode stream message", zap.String("topic", ev.Topic), zap.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Debug("stream client lagging, message dropped", zap.String("topic", ev.Topic))
		}
	}
}

// handleStream upgrades to a WebSocket and streams events until either side
// closes. The first message is the current snapshot.
func (m *Module) handleStream(w http.ResponseWriter, r *http.Request) {
	st, err := m.Snapshot(r.Context())
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		m.logger.Debug("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	client := m.hub.add()
	defer m.hub.remove(client)

	ctx := conn.CloseRead(r.Context())

	first, err := json.Marshal(streamMessage{Topic: TopicSnapshot, Timestamp: time.Now().UTC(), Data: newInterfacesResponse(st)})
	if err != nil {
		conn.Close(websocket.StatusInternalError, "encode snapshot")
		return
	}
	if err := writeMessage(ctx, conn, first); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-client.send:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := writeMessage(ctx, conn, msg); err != nil {
				m.logger.Debug("stream write failed", zap.Error(err))
				return
			}
		}
	}
}

func writeMessage(ctx context.Context, conn *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, msg)
}
