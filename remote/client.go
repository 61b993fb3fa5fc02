package remote

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/tutils/tdice/rng"
	"github.com/tutils/tdice/rng/netrand"
)

// ErrServer wraps errors reported by the dice server.
var ErrServer = errors.New("remote: server error")

var _ netrand.Fetcher = &Client{}

// Client requests dice from a Server. It dials on first use and redials
// after a broken connection. It is safe for concurrent use.
type Client struct {
	opts ClientOptions
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewClient returns a client for the configured address. No connection is
// made until the first request.
func NewClient(opts ...ClientOption) *Client {
	opt := newClientOptions(opts...)

	c := &Client{
		opts: *opt,
	}
	return c
}

// Fetch returns one die. It implements netrand.Fetcher.
func (c *Client) Fetch() (int, error) {
	resp, err := c.do(Request{Op: OpDie})
	if err != nil {
		return 0, err
	}
	return resp.Die, nil
}

// Roll requests a pair of dice.
func (c *Client) Roll() (rng.Roll, error) {
	resp, err := c.do(Request{Op: OpRoll})
	if err != nil {
		return rng.Roll{}, err
	}
	if len(resp.Dice) != 2 {
		return rng.Roll{}, fmt.Errorf("%w: got %d dice", ErrServer, len(resp.Dice))
	}
	return rng.Roll{resp.Dice[0], resp.Dice[1]}, nil
}

func (c *Client) dial() error {
	if c.conn != nil {
		return nil
	}
	conn, _, err := c.opts.dialer.Dial(c.opts.addr, nil)
	if err != nil {
		return fmt.Errorf("remote: dial %s: %w", c.opts.addr, err)
	}
	c.opts.logger.Debug("connected to dice server", zap.String("addr", c.opts.addr))
	c.conn = conn
	return nil
}

func (c *Client) drop() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) exchange(req Request) (Response, error) {
	var resp Response
	p, err := json.Marshal(req)
	if err != nil {
		return resp, err
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return resp, err
	}
	for {
		typ, p, err := c.conn.ReadMessage()
		if err != nil {
			return resp, err
		}
		if typ != websocket.TextMessage {
			continue
		}
		if err := json.Unmarshal(p, &resp); err != nil {
			return resp, fmt.Errorf("remote: bad response: %w", err)
		}
		return resp, nil
	}
}

// do sends req, retrying once on a fresh connection if a reused one has
// gone stale.
func (c *Client) do(req Request) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reused := c.conn != nil
	for {
		if err := c.dial(); err != nil {
			return Response{}, err
		}
		resp, err := c.exchange(req)
		if err != nil {
			c.drop()
			if reused {
				c.opts.logger.Debug("dice server connection lost, redialing", zap.Error(err))
				reused = false
				continue
			}
			return Response{}, fmt.Errorf("remote: %s: %w", req.Op, err)
		}
		if resp.Error != "" {
			return resp, fmt.Errorf("%w: %s", ErrServer, resp.Error)
		}
		return resp, nil
	}
}

// Close closes the connection. The client can still be used afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := multierr.Append(
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")),
		c.conn.Close(),
	)
	c.conn = nil
	return err
}
