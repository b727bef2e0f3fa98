// Package connector drives a single protocol session: dialing, the
// handshake, the read loop that feeds the dispatcher and the event bus, and
// the serialised outbound command path.
package connector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/furcwire-project/furcwire/internal/events"
	"github.com/furcwire-project/furcwire/internal/network"
	"github.com/furcwire-project/furcwire/internal/protocol"
)

// DefaultAddr is the live game server.
const DefaultAddr = "lightbringer.furcadia.com:6500"

const (
	defaultHandshakeTimeout = 5 * time.Second
	defaultWriteTimeout     = 10 * time.Second
)

// State is the connection state of a Client.
type State int32

const (
	StateDisconnected State = iota
	StateHandshaking
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateHandshaking:
		return "handshaking"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Options configures a Client. Zero values select the defaults.
type Options struct {
	Addr             string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	Dial             network.DialFunc
	// OnStateChange is called after every transition, outside the client lock.
	OnStateChange func(from, to State, reason DisconnectReason)
}

// session is everything that belongs to one connection attempt.
type session struct {
	id      string
	conn    *network.Connection
	framer  *protocol.Framer
	closing atomic.Bool
	cancel  context.CancelFunc
}

// stopper is the part of *time.Timer the handshake deadline needs.
type stopper interface {
	Stop() bool
}

// Client is a protocol client for one logical connection.
type Client struct {
	opts       Options
	bus        *events.EventBus
	dispatcher *protocol.Dispatcher
	logger     zerolog.Logger
	afterFunc  func(d time.Duration, f func()) stopper

	mu     sync.Mutex
	state  State
	reason DisconnectReason
	sess   *session
}

// NewClient creates a disconnected client with its own bus and dispatcher.
func NewClient(opts Options) *Client {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = defaultHandshakeTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.Dial == nil {
		opts.Dial = network.TCPDialer(opts.HandshakeTimeout)
	}
	c := &Client{
		opts:       opts,
		bus:        events.NewEventBus(),
		dispatcher: protocol.NewDispatcher(),
		logger:     log.With().Str("component", "client").Str("addr", opts.Addr).Logger(),
	}
	c.afterFunc = func(d time.Duration, f func()) stopper {
		return time.AfterFunc(d, f)
	}
	return c
}

// Bus returns the client's event bus.
func (c *Client) Bus() *events.EventBus { return c.bus }

// Dispatcher returns the client's dispatcher.
func (c *Client) Dispatcher() *protocol.Dispatcher { return c.dispatcher }

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reason returns why the client last became disconnected.
func (c *Client) Reason() DisconnectReason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// SessionID returns the id of the current or last session.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return ""
	}
	return c.sess.id
}

// Stats returns transport counters for the current session.
func (c *Client) Stats() (network.Stats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil || c.sess.conn == nil {
		return network.Stats{}, false
	}
	return c.sess.conn.Stats(), true
}

// transition moves to state `to` only if the current session is still s.
func (c *Client) transition(s *session, to State, reason DisconnectReason) {
	c.mu.Lock()
	if c.sess != s || c.state == to {
		c.mu.Unlock()
		return
	}
	from := c.state
	c.state = to
	if to == StateDisconnected {
		c.reason = reason
	}
	c.mu.Unlock()

	c.logger.Info().Str("from", from.String()).Str("to", to.String()).Str("reason", reason.String()).Msg("connection state changed")
	if c.opts.OnStateChange != nil {
		c.opts.OnStateChange(from, to, reason)
	}
}

// Connect dials the server and waits for the handshake line. It returns the
// message of the day. A client that is not disconnected is disconnected
// first.
func (c *Client) Connect(ctx context.Context) (string, error) {
	if c.State() != StateDisconnected {
		c.Disconnect()
	}

	s := &session{id: uuid.NewString()}
	c.mu.Lock()
	c.sess = s
	c.mu.Unlock()
	c.transition(s, StateHandshaking, ReasonNone)

	raw, err := c.opts.Dial(ctx, c.opts.Addr)
	if err != nil {
		c.transition(s, StateDisconnected, ReasonTransportFailure)
		return "", fmt.Errorf("%w: dial %s: %v", ErrTransport, c.opts.Addr, err)
	}
	c.mu.Lock()
	s.conn = network.NewConnection(raw, c.opts.WriteTimeout)
	s.framer = protocol.NewFramer(s.conn)
	c.mu.Unlock()
	if s.closing.Load() {
		s.conn.Close()
	}

	timer := c.afterFunc(c.opts.HandshakeTimeout, func() { s.conn.Close() })
	stop := context.AfterFunc(ctx, func() { s.conn.Close() })
	motd, err := s.framer.Handshake()
	// A timer that already fired has closed the stream, even when the
	// sentinel arrived first.
	timedOut := !timer.Stop()
	stop()

	if err == nil && timedOut {
		err = ErrTimeout
	}
	if err != nil {
		s.conn.Close()
		switch {
		case timedOut:
			c.transition(s, StateDisconnected, ReasonHandshakeTimeout)
			return "", fmt.Errorf("%w after %s", ErrTimeout, c.opts.HandshakeTimeout)
		case s.closing.Load() || ctx.Err() != nil:
			c.transition(s, StateDisconnected, ReasonLocalClose)
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", fmt.Errorf("%w: closed during handshake", ErrHandshake)
		case errors.Is(err, ErrHandshake):
			c.transition(s, StateDisconnected, ReasonHandshakeFailed)
			return "", err
		default:
			c.transition(s, StateDisconnected, ReasonTransportFailure)
			return "", fmt.Errorf("%w: %v", ErrTransport, err)
		}
	}

	c.transition(s, StateConnected, ReasonNone)
	c.logger.Info().Str("session", s.id).Int("motd_bytes", len(motd)).Msg("handshake complete")

	c.bus.Publish(ctx, events.Event{
		Type:      events.EventMOTD,
		Opcode:    -1,
		SubOpcode: protocol.NoSubOpcode,
		Payload:   events.MOTDPayload{Text: motd},
	})
	return motd, nil
}

// Run reads and dispatches messages until the session ends. A clean end of
// stream and a local Disconnect return nil; a truncated line or transport
// failure returns an error. Cancelling ctx disconnects.
func (c *Client) Run(ctx context.Context) error {
	c.mu.Lock()
	s := c.sess
	connected := c.state == StateConnected
	c.mu.Unlock()
	if !connected || s == nil {
		return ErrNotConnected
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.mu.Lock()
	s.cancel = cancel
	c.mu.Unlock()
	stop := context.AfterFunc(runCtx, func() {
		s.closing.Store(true)
		s.conn.Close()
	})
	defer stop()

	for {
		msg, err := s.framer.Next()
		if err != nil {
			return c.finish(s, err)
		}
		if s.closing.Load() {
			return c.finish(s, nil)
		}

		event := c.dispatcher.Dispatch(msg.Opcode, msg.Body)
		c.logger.Trace().Str("event", string(event.Type)).Int("opcode", msg.Opcode).Msg("message received")
		c.bus.Publish(runCtx, event)
	}
}

// finish classifies the end of the read loop.
func (c *Client) finish(s *session, err error) error {
	s.conn.Close()
	switch {
	case s.closing.Load():
		c.transition(s, StateDisconnected, ReasonLocalClose)
		return nil
	case errors.Is(err, io.EOF):
		c.transition(s, StateDisconnected, ReasonEndOfStream)
		return nil
	case errors.Is(err, ErrTruncatedLine):
		c.logger.Warn().Err(err).Msg("stream ended inside a line")
		c.transition(s, StateDisconnected, ReasonMalformedLine)
		return err
	default:
		c.logger.Error().Err(err).Msg("read failed")
		c.transition(s, StateDisconnected, ReasonTransportFailure)
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
}

// Disconnect closes the transport from any state. A pending read returns at
// once and no further events are published; a handler already running is
// allowed to finish.
func (c *Client) Disconnect() {
	c.mu.Lock()
	s := c.sess
	var (
		cancel context.CancelFunc
		conn   *network.Connection
	)
	if s != nil {
		s.closing.Store(true)
		cancel, conn = s.cancel, s.conn
	}
	c.mu.Unlock()
	if s == nil {
		return
	}

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
	c.transition(s, StateDisconnected, ReasonLocalClose)
}

// send writes one framed line on the current session.
func (c *Client) send(line []byte, err error) error {
	if err != nil {
		return err
	}
	c.mu.Lock()
	s := c.sess
	connected := c.state == StateConnected
	c.mu.Unlock()
	if !connected || s == nil {
		return ErrNotConnected
	}
	if err := s.conn.WriteLine(line); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return nil
}

// Command sends raw text as a single command line.
func (c *Client) Command(text string) error {
	return c.send(protocol.RawCommand(text))
}

// CommandBytes sends raw bytes as a single command line.
func (c *Client) CommandBytes(data []byte) error {
	return c.send(protocol.Line(data))
}

// Login sends the login command for cred.
func (c *Client) Login(cred protocol.Credential) error {
	return c.send(protocol.LoginCommand(cred))
}

// Move walks one step in direction d.
func (c *Client) Move(d protocol.Direction) error {
	return c.send(protocol.MoveCommand(d))
}

// Rotate turns clockwise for 1 and counter-clockwise for -1.
func (c *Client) Rotate(dir int) error {
	return c.send(protocol.RotateCommand(dir))
}

// Say sends a chat line.
func (c *Client) Say(text string) error {
	return c.send(protocol.SayCommand(text))
}

// GoMap jumps to a main map by id.
func (c *Client) GoMap(id int) error {
	return c.send(protocol.GoMapCommand(id))
}

// FDL follows a dream link.
func (c *Client) FDL(url string) error {
	return c.send(protocol.FDLCommand(url))
}

// GoToDream follows the dream of owner, optionally a named one.
func (c *Client) GoToDream(owner, dream string) error {
	return c.send(protocol.GoToDreamCommand(owner, dream))
}

// Vascodagama returns to the default map.
func (c *Client) Vascodagama() error {
	return c.send(protocol.VascodagamaCommand())
}
