package server

import (
	"context"
	"net"
	"sync"

	"github.com/eternalApril/kilodb/internal/resp"
	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"
)

// Peer represents a connected client.
// It wraps a network connection and provides synchronized methods for reading and writing RESP-encoded data
type Peer struct {
	id      string
	conn    net.Conn
	reader  *resp.Decoder
	writer  *resp.Encoder
	mu      sync.Mutex
	limiter *rate.Limiter // nil when rate limiting is off
}

// NewPeer initializes a new client peer from a network connection
func NewPeer(conn net.Conn, limits resp.Limits, limiter *rate.Limiter) *Peer {
	p := &Peer{
		id:      ulid.Make().String(),
		conn:    conn,
		reader:  resp.NewDecoderWithLimits(conn, limits),
		writer:  resp.NewEncoder(conn),
		limiter: limiter,
	}
	// pending replies go out before the connection waits for more input
	p.reader.OnFill(p.Flush)
	return p
}

// ID returns the unique id assigned to the connection
func (p *Peer) ID() string {
	return p.id
}

// RemoteAddr returns the client address
func (p *Peer) RemoteAddr() string {
	return p.conn.RemoteAddr().String()
}

// Send encodes and writes a RESP value to the client.
// This method is thread-safe and can be called from multiple goroutines
func (p *Peer) Send(v resp.Value) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writer.Write(v)
}

// ReadCommand reads and decodes the next request frame from the client's input stream
func (p *Peer) ReadCommand() ([][]byte, error) {
	return p.reader.ReadCommand()
}

// Wait blocks until the rate limiter allows one more command
func (p *Peer) Wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// Close terminates the underlying network connection
func (p *Peer) Close() error {
	return p.conn.Close()
}

// Flush sends all buffered data to the client
func (p *Peer) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writer.Flush()
}
