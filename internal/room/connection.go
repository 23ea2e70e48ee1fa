package room

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dgonzalez7/three-thirteen/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 16384
	sendBuffer     = 32
)

// Upgrader accepts every origin: this service has no same-origin
// front-end of its own to protect (spec.md §1 treats the UI as an
// external collaborator).
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Conn is one logical WebSocket connection: a reader loop (driven by
// the caller) and a writer pump draining a bounded outbound queue.
// Modeled directly on the teacher's Player.sendCh/writePump/send.
type Conn struct {
	instanceID string
	socket     *websocket.Conn
	send       chan []byte
}

// Upgrade upgrades r/w to a WebSocket and wraps it in a Conn. The
// instance id is never sent to clients; it exists only so log lines
// can distinguish a replaced socket from its replacement (spec.md §8
// boundary scenario 5).
func Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	socket, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return &Conn{
		instanceID: uuid.NewString(),
		socket:     socket,
		send:       make(chan []byte, sendBuffer),
	}, nil
}

// InstanceID is a log-only correlation id for this connection.
func (c *Conn) InstanceID() string {
	return c.instanceID
}

// Enqueue marshals env and queues it for delivery. If the outbound
// queue is full the connection is closed — spec.md §4.4's slow-client
// protection.
func (c *Conn) Enqueue(env protocol.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("[conn %s] marshal error: %v", c.instanceID, err)
		return
	}
	defer func() { recover() }() // send on a closed channel if Close raced us
	select {
	case c.send <- data:
	default:
		log.Printf("[conn %s] outbound queue full, closing", c.instanceID)
		c.Close()
	}
}

// Close closes the outbound queue, which stops WritePump and the
// underlying socket.
func (c *Conn) Close() {
	defer func() { recover() }() // already closed by a concurrent call
	close(c.send)
}

// WritePump drains the outbound queue to the socket, interleaving
// periodic pings. Runs until the queue is closed or a write fails.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadLoop reads frames until the socket closes, decoding each into an
// Envelope and invoking handle. The transport-level read deadline and
// pong handler provide dead-connection detection; spec.md §9 leaves
// application-level ping/pong unspecified.
func (c *Conn) ReadLoop(handle func(env protocol.Envelope, raw []byte)) {
	defer c.socket.Close()

	c.socket.SetReadLimit(maxMessageSize)
	c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[conn %s] read error: %v", c.instanceID, err)
			}
			return
		}

		var env protocol.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.Printf("[conn %s] malformed frame: %v", c.instanceID, err)
			continue
		}
		handle(env, message)
	}
}

// ExtractPayload re-unmarshals a raw frame's payload field into target.
func ExtractPayload(raw []byte, target interface{}) error {
	var wrapper struct {
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return err
	}
	return json.Unmarshal(wrapper.Payload, target)
}
