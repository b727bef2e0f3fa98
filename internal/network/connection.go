// Package network implements the stream transport used by the protocol
// client: dialing the game server and a connection wrapper that serialises
// writes and tracks activity.
package network

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DialFunc opens the stream to a server. Tests substitute net.Pipe.
type DialFunc func(ctx context.Context, addr string) (net.Conn, error)

// TCPDialer returns a DialFunc that dials TCP with the given timeout.
func TCPDialer(timeout time.Duration) DialFunc {
	d := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	return func(ctx context.Context, addr string) (net.Conn, error) {
		return d.DialContext(ctx, "tcp", addr)
	}
}

// Connection wraps the stream to a game server. Reads are expected from a
// single goroutine; writes from any goroutine are serialised so whole lines
// never interleave.
type Connection struct {
	mu           sync.Mutex
	conn         net.Conn
	writeTimeout time.Duration
	logger       zerolog.Logger

	connectedAt  time.Time
	lastActivity atomic.Int64
	bytesIn      atomic.Int64
	bytesOut     atomic.Int64

	closed atomic.Bool
}

// NewConnection wraps an existing net.Conn.
func NewConnection(conn net.Conn, writeTimeout time.Duration) *Connection {
	now := time.Now()
	c := &Connection{
		conn:         conn,
		writeTimeout: writeTimeout,
		connectedAt:  now,
		logger:       log.With().Str("component", "connection").Str("remote", conn.RemoteAddr().String()).Logger(),
	}
	c.lastActivity.Store(now.UnixNano())
	return c
}

// Read implements io.Reader over the underlying stream.
func (c *Connection) Read(p []byte) (int, error) {
	n, err := c.conn.Read(p)
	if n > 0 {
		c.bytesIn.Add(int64(n))
		c.lastActivity.Store(time.Now().UnixNano())
	}
	return n, err
}

// WriteLine writes one complete line. Concurrent callers are served in the
// order they acquire the send lock.
func (c *Connection) WriteLine(line []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("connection is closed")
	}

	if c.writeTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	n, err := c.conn.Write(line)
	c.bytesOut.Add(int64(n))
	if err != nil {
		return fmt.Errorf("failed to write line: %w", err)
	}

	c.lastActivity.Store(time.Now().UnixNano())
	c.logger.Trace().Int("bytes", n).Msg("line sent")
	return nil
}

// Close closes the connection. A blocked Read returns immediately.
func (c *Connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.logger.Info().Msg("connection closed")
	return c.conn.Close()
}

// IsClosed returns whether the connection has been closed.
func (c *Connection) IsClosed() bool {
	return c.closed.Load()
}

// Stats is a snapshot of connection counters.
type Stats struct {
	ConnectedAt  time.Time `json:"connected_at"`
	LastActivity time.Time `json:"last_activity"`
	BytesIn      int64     `json:"bytes_in"`
	BytesOut     int64     `json:"bytes_out"`
	Remote       string    `json:"remote"`
}

// Stats returns the current counters.
func (c *Connection) Stats() Stats {
	return Stats{
		ConnectedAt:  c.connectedAt,
		LastActivity: time.Unix(0, c.lastActivity.Load()),
		BytesIn:      c.bytesIn.Load(),
		BytesOut:     c.bytesOut.Load(),
		Remote:       c.conn.RemoteAddr().String(),
	}
}
