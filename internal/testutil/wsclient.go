package testutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/questforge/mud/internal/gameserver"
)

// WSClient is a websocket test client speaking the game wire protocol.
type WSClient struct {
	conn *websocket.Conn
	t    *testing.T
}

// NewWSClient dials the given websocket URL and returns a test client.
//
// Precondition: url must be a ws:// URL with a listening gateway.
// Postcondition: Returns a connected WSClient or fails the test.
func NewWSClient(t *testing.T, url string) *WSClient {
	t.Helper()
	start := time.Now()

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("connecting to %s: %v [%s]", url, err, time.Since(start))
	}

	t.Cleanup(func() {
		conn.Close()
	})

	t.Logf("websocket client connected to %s [%s]", url, time.Since(start))
	return &WSClient{conn: conn, t: t}
}

// Send writes a client message frame.
func (c *WSClient) Send(msg *gameserver.ClientMessage) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := c.conn.WriteJSON(msg); err != nil {
		c.t.Fatalf("sending %s message: %v", msg.Type, err)
	}
}

// Recv reads the next server event, failing the test on timeout.
func (c *WSClient) Recv(timeout time.Duration) *gameserver.ServerEvent {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))

	_, raw, err := c.conn.ReadMessage()
	if err != nil {
		c.t.Fatalf("reading server event: %v", err)
	}
	var ev gameserver.ServerEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		c.t.Fatalf("decoding server event %q: %v", raw, err)
	}
	return &ev
}

// RecvType reads events until one of the given type arrives or the timeout
// elapses, discarding everything else.
func (c *WSClient) RecvType(eventType string, timeout time.Duration) *gameserver.ServerEvent {
	c.t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			c.t.Fatalf("no %s event within %s", eventType, timeout)
		}
		ev := c.Recv(remaining)
		if ev.Type == eventType {
			return ev
		}
	}
}

// Close closes the underlying connection.
func (c *WSClient) Close() {
	c.conn.Close()
}
