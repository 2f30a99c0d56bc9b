package relay

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/nikakhov/bitshares-toolkit/foundation/chain/message"
)

// ClientConfig represents the configuration required to construct a
// relay client.
type ClientConfig struct {
	EvHandler EventHandler
}

// Client maintains a single websocket connection to a hub. Every message
// received from the hub, echoes of this node's own broadcasts included,
// is driven through the delegate.
type Client struct {
	evHandler EventHandler

	mu       sync.RWMutex
	delegate message.Delegate
	conn     *websocket.Conn
	wg       sync.WaitGroup

	// wmu serializes writes on the hub connection. The websocket
	// package supports only one concurrent writer per connection.
	wmu sync.Mutex
}

// NewClient constructs a client for speaking through a relay hub.
func NewClient(cfg ClientConfig) *Client {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	return &Client{
		evHandler: ev,
	}
}

// SetDelegate wires the delegate that inbound relay messages are driven
// against.
func (c *Client) SetDelegate(d message.Delegate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.delegate = d
}

// ConnectTo dials the hub at the specified address and starts the read
// pump. The address is a host:port, not a full URL.
func (c *Client) ConnectTo(address string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return fmt.Errorf("already connected")
	}

	url := fmt.Sprintf("ws://%s/v1/relay", address)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("dial hub %s: %w", address, err)
	}
	c.conn = conn

	c.wg.Add(1)
	go c.readPump(conn)

	c.evHandler("relay: ConnectTo: attached to hub %s", address)

	if c.delegate != nil {
		c.delegate.ConnectionCountChanged(1)
	}

	return nil
}

// IsConnected reports whether the client holds a live hub connection.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.conn != nil
}

// Broadcast sends the message to the hub. The hub repeats it to every
// attached node including this one, so the caller must tolerate its own
// message arriving back.
func (c *Client) Broadcast(msg message.Message) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("not connected to a hub")
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()

	return conn.WriteJSON(msg)
}

// Shutdown closes the hub connection and waits for the read pump to
// drain.
func (c *Client) Shutdown() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return
	}

	conn.Close()
	c.wg.Wait()
}

// =============================================================================

// readPump drives messages off the hub connection into the delegate
// until the connection drops.
func (c *Client) readPump(conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		var msg message.Message
		if err := conn.ReadJSON(&msg); err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
				c.evHandler("relay: readPump: connection lost: %s", err)

				if c.delegate != nil {
					c.delegate.ConnectionCountChanged(0)
				}
			}
			c.mu.Unlock()
			return
		}

		d := c.currentDelegate()
		if d == nil {
			continue
		}

		if err := d.HandleMessage(msg); err != nil {
			c.evHandler("relay: readPump: handle kind[%s]: %s", msg.Kind, err)
		}
	}
}

// currentDelegate returns the wired delegate.
func (c *Client) currentDelegate() message.Delegate {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.delegate
}
