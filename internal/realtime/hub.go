// Package realtime owns the websocket connections. Every server-to-client
// message is an Envelope written by a per-connection writer goroutine, so
// game logic never blocks on a slow socket.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/rosterleague/roster-clash/internal/constants"
	"github.com/rosterleague/roster-clash/internal/logging"
)

const (
	writeTimeout = 5 * time.Second
	sendBuffer   = 32
)

// Envelope is the wire format for every server-to-client event.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Conn is one registered websocket client.
type Conn struct {
	ID       string
	UserID   uint
	Username string

	ws   *websocket.Conn
	send chan Envelope
	once sync.Once
	done chan struct{}
}

// Hub tracks live connections by id.
type Hub struct {
	mu    sync.Mutex
	conns map[string]*Conn
}

func NewHub() *Hub {
	return &Hub{conns: map[string]*Conn{}}
}

// Register attaches a websocket and starts its writer. The returned Conn
// carries the generated connection id used everywhere else in the server.
func (h *Hub) Register(ws *websocket.Conn, userID uint, username string) *Conn {
	c := &Conn{
		ID:       uuid.NewString(),
		UserID:   userID,
		Username: username,
		ws:       ws,
		send:     make(chan Envelope, sendBuffer),
		done:     make(chan struct{}),
	}
	h.mu.Lock()
	h.conns[c.ID] = c
	h.mu.Unlock()

	go c.writeLoop()

	logging.Info("websocket registered", logging.Fields{
		constants.LogFieldConnID: c.ID,
		constants.LogFieldUserID: userID,
	})
	return c
}

// Unregister drops the connection and stops its writer. Safe to call more
// than once.
func (h *Hub) Unregister(connectionID string) {
	h.mu.Lock()
	c, ok := h.conns[connectionID]
	if ok {
		delete(h.conns, connectionID)
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	c.close()
	logging.Info("websocket unregistered", logging.Fields{
		constants.LogFieldConnID: connectionID,
	})
}

// Send queues an event for one connection. Unknown ids and full buffers
// drop the message; game state never waits on the network.
func (h *Hub) Send(connectionID, event string, payload interface{}) {
	h.mu.Lock()
	c, ok := h.conns[connectionID]
	h.mu.Unlock()
	if !ok {
		return
	}
	env := Envelope{Event: event, Data: payload}
	select {
	case c.send <- env:
	case <-c.done:
	default:
		logging.Error("websocket send buffer full, dropping event", nil, logging.Fields{
			constants.LogFieldConnID: connectionID,
			constants.LogFieldEvent:  event,
		})
	}
}

// ConnByUser finds a registered connection for the user, for duplicate
// session checks.
func (h *Hub) ConnByUser(userID uint) (*Conn, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.conns {
		if c.UserID == userID {
			return c, true
		}
	}
	return nil, false
}

func (c *Conn) writeLoop() {
	for {
		select {
		case env := <-c.send:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := wsjson.Write(ctx, c.ws, env)
			cancel()
			if err != nil {
				logging.Error("websocket write failed", err, logging.Fields{
					constants.LogFieldConnID: c.ID,
					constants.LogFieldEvent:  env.Event,
				})
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Conn) close() {
	c.once.Do(func() {
		close(c.done)
		c.ws.Close(websocket.StatusNormalClosure, "")
	})
}

// ClientEnvelope is an inbound client message; Data stays raw until the
// handler for the event decodes it.
type ClientEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ReadEnvelope blocks for the next client message.
func (c *Conn) ReadEnvelope(ctx context.Context) (ClientEnvelope, error) {
	var env ClientEnvelope
	err := wsjson.Read(ctx, c.ws, &env)
	return env, err
}
