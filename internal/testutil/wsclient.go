package testutil

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// WSClient is a simple websocket test client for integration testing.
type WSClient struct {
	conn *websocket.Conn
	t    *testing.T
}

// NewWSClient dials the given ws:// or http:// URL and returns a test client.
//
// Precondition: url must point at a listening websocket endpoint.
// Postcondition: Returns a connected WSClient or fails the test.
func NewWSClient(t *testing.T, url string, header http.Header) *WSClient {
	t.Helper()
	start := time.Now()

	url = strings.Replace(url, "http://", "ws://", 1)
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dialing %s: %v (status %d) [%s]", url, err, status, time.Since(start))
	}

	t.Cleanup(func() {
		conn.Close()
	})

	return &WSClient{conn: conn, t: t}
}

// SendJSON writes one JSON frame to the server.
//
// Postcondition: The frame is written, or the test fails.
func (c *WSClient) SendJSON(v any) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := c.conn.WriteJSON(v); err != nil {
		c.t.Fatalf("sending frame: %v", err)
	}
}

// ReadRaw reads one frame within the timeout and returns its payload.
func (c *WSClient) ReadRaw(timeout time.Duration) ([]byte, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	_, raw, err := c.conn.ReadMessage()
	return raw, err
}

// ReadUntilType reads frames until one carries the wanted "type" field,
// decodes it into out, and returns the raw payload. Fails the test on
// timeout or close.
//
// Precondition: wantType must be non-empty.
func (c *WSClient) ReadUntilType(wantType string, out any, timeout time.Duration) []byte {
	c.t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		_ = c.conn.SetReadDeadline(deadline)
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.t.Fatalf("reading until type %q: %v", wantType, err)
		}
		var envelope struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			continue
		}
		if envelope.Type != wantType {
			continue
		}
		if out != nil {
			if err := json.Unmarshal(raw, out); err != nil {
				c.t.Fatalf("decoding %q frame: %v", wantType, err)
			}
		}
		return raw
	}
}

// Close closes the underlying connection.
func (c *WSClient) Close() {
	c.conn.Close()
}
