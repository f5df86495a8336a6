// Package client is a minimal RESP client used by the bench tool and the tests.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/eternalApril/kilodb/internal/resp"
)

var ErrClosed = errors.New("client: connection closed")

// Client is a single connection sending one command at a time
type Client struct {
	addr   string
	conn   net.Conn
	reader resp.Reader
	writer resp.Writer
	mu     sync.Mutex
	broken bool // set after an I/O error, the connection can't be reused
}

// Dial connects to a server
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	return &Client{
		addr:   addr,
		conn:   conn,
		reader: resp.NewDecoder(conn),
		writer: resp.NewEncoder(conn),
	}, nil
}

// Do sends a command and waits for its reply.
// Error replies are returned as values, err is only set for transport failures
func (c *Client) Do(ctx context.Context, args ...string) (resp.Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broken {
		return resp.Value{}, ErrClosed
	}

	// the zero deadline of a context without one clears any previous deadline
	deadline, _ := ctx.Deadline()
	if err := c.conn.SetDeadline(deadline); err != nil {
		return resp.Value{}, c.fail(err)
	}

	if err := c.writer.Write(resp.MakeBulkArray(args)); err != nil {
		return resp.Value{}, c.fail(err)
	}
	if err := c.writer.Flush(); err != nil {
		return resp.Value{}, c.fail(err)
	}

	v, err := c.reader.Read()
	if err != nil {
		return resp.Value{}, c.fail(err)
	}

	return v, nil
}

// Healthy reports whether the connection can still be used
func (c *Client) Healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.broken
}

// Close terminates the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.broken = true
	return c.conn.Close()
}

func (c *Client) fail(err error) error {
	c.broken = true
	c.conn.Close() //nolint:errcheck
	return fmt.Errorf("%s: %w", c.addr, err)
}

// ReplyError converts an error reply into a Go error, nil for any other reply
func ReplyError(v resp.Value) error {
	if v.Type != resp.TypeError {
		return nil
	}
	return errors.New(v.Text())
}
