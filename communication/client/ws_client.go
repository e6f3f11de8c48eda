package client

import (
	"bgarena/communication"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// DefaultCallTimeout bounds a call whose context has no deadline.
const DefaultCallTimeout = 30 * time.Second

type Option func(c *Conn)

// WithCallTimeout replaces DefaultCallTimeout.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Conn) {
		c.timeout = d
	}
}

// Conn is a websocket Communicator. Calls are serialized: at most one
// command is in flight at a time.
type Conn struct {
	mu      sync.Mutex
	ws      *websocket.Conn
	timeout time.Duration
}

var _ communication.Communicator = (*Conn)(nil)

// Dial connects to an engine host, e.g. "ws://localhost:8765/engine".
func Dial(ctx context.Context, url string, opts ...Option) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial engine at %s: %w", url, err)
	}
	c := &Conn{ws: ws, timeout: DefaultCallTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Conn) Call(ctx context.Context, command string, payload, result any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := communication.Request{Type: command, ID: uuid.NewString()}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode %s payload: %w", command, err)
		}
		req.Payload = data
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}
	if err := c.ws.SetReadDeadline(deadline); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := c.ws.WriteJSON(req); err != nil {
		return fmt.Errorf("failed to send %s: %w", command, err)
	}
	var resp communication.Response
	for {
		if err := c.ws.ReadJSON(&resp); err != nil {
			return fmt.Errorf("failed to read %s reply: %w", command, err)
		}
		// replies to abandoned calls are skipped
		if resp.ID == req.ID {
			break
		}
		resp = communication.Response{}
	}

	if resp.Type == communication.TypeError {
		return communication.DecodeError(resp)
	}
	if result != nil && len(resp.Payload) > 0 {
		if err := json.Unmarshal(resp.Payload, result); err != nil {
			return fmt.Errorf("failed to decode %s reply: %w", command, err)
		}
	}
	return nil
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.ws.Close()
}
