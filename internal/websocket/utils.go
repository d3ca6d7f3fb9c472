package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	readWait  = 5 * time.Minute
)

// Conn serialises writes to a gorilla connection, which allows one concurrent
// writer only. Reads stay on the owning goroutine.
type Conn struct {
	*websocket.Conn
	mu sync.Mutex
}

// Wrap returns a write-safe connection.
func Wrap(conn *websocket.Conn) *Conn {
	return &Conn{Conn: conn}
}

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func (c *Conn) WriteTyped(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetWriteDeadline(time.Now().Add(writeWait))
	return c.WriteJSON(v)
}

// WriteRaw forwards an already-encoded JSON event.
func (c *Conn) WriteRaw(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetWriteDeadline(time.Now().Add(writeWait))
	return c.WriteMessage(websocket.TextMessage, payload)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func (c *Conn) WriteError(errMsg string) error {
	return c.WriteTyped(ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// ReadPayload reads and decodes one client action, extending the read deadline.
func (c *Conn) ReadPayload(v *RequestPayload) error {
	c.SetReadDeadline(time.Now().Add(readWait))
	return c.ReadJSON(v)
}
