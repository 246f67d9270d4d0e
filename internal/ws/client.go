package ws

import (
	"sync"

	"github.com/loangraph/portal/internal/session"
	"golang.org/x/net/websocket"
)

// Client is one socket. Its identity comes from the session that opened it.
type Client struct {
	conn *websocket.Conn
	who  session.Identity
	out  chan []byte

	closeOnce sync.Once
	mu        sync.RWMutex
	channels  map[string]struct{}

	outMu  sync.Mutex
	closed bool
}

func NewClient(conn *websocket.Conn, who session.Identity) *Client {
	return &Client{
		conn:     conn,
		who:      who,
		out:      make(chan []byte, 64),
		channels: map[string]struct{}{},
	}
}

// send drops a client that cannot keep up rather than block publishers.
func (c *Client) send(payload []byte) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.out <- payload:
	default:
		c.close()
	}
}

// finish stops delivery and ends the writer loop.
func (c *Client) finish() {
	c.outMu.Lock()
	if !c.closed {
		c.closed = true
		close(c.out)
	}
	c.outMu.Unlock()
	c.close()
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) addChannel(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels[channel] = struct{}{}
}

func (c *Client) listChannels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.channels))
	for ch := range c.channels {
		out = append(out, ch)
	}
	return out
}
