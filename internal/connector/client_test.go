package connector

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furcwire-project/furcwire/internal/events"
	"github.com/furcwire-project/furcwire/internal/network"
	"github.com/furcwire-project/furcwire/internal/protocol"
)

const waitTimeout = 2 * time.Second

// pipeServer returns a dialer that hands the client one end of an in-memory
// pipe and the other end for the test to play the server.
func pipeServer(t *testing.T) (network.DialFunc, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return func(context.Context, string) (net.Conn, error) { return client, nil }, server
}

func serve(server net.Conn, data string) {
	go io.WriteString(server, data)
}

// collect subscribes to every event and forwards it on the returned channel.
func collect(bus *events.EventBus) <-chan events.Event {
	ch := make(chan events.Event, 16)
	bus.Subscribe(events.EventAll, "test.collect", func(ctx context.Context, e events.Event) error {
		ch <- e
		return nil
	})
	return ch
}

func nextEvent(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for event")
		return events.Event{}
	}
}

func runAsync(ctx context.Context, c *Client) <-chan error {
	errc := make(chan error, 1)
	go func() { errc <- c.Run(ctx) }()
	return errc
}

func waitRun(t *testing.T, errc <-chan error) error {
	t.Helper()
	select {
	case err := <-errc:
		return err
	case <-time.After(waitTimeout):
		t.Fatal("Run did not return")
		return nil
	}
}

func connected(t *testing.T, opts Options) (*Client, net.Conn) {
	t.Helper()
	dial, server := pipeServer(t)
	opts.Dial = dial
	c := NewClient(opts)
	serve(server, "Dragonroar\n")
	_, err := c.Connect(context.Background())
	require.NoError(t, err)
	return c, server
}

func TestConnectHandshakeAndLogin(t *testing.T) {
	dial, server := pipeServer(t)

	var mu sync.Mutex
	var transitions []State
	c := NewClient(Options{
		Dial: dial,
		OnStateChange: func(from, to State, reason DisconnectReason) {
			mu.Lock()
			transitions = append(transitions, to)
			mu.Unlock()
		},
	})
	evs := collect(c.Bus())

	serve(server, "hello\nDragonroar\n&\n")
	motd, err := c.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello\n", motd)
	assert.Equal(t, StateConnected, c.State())
	assert.NotEmpty(t, c.SessionID())

	e := nextEvent(t, evs)
	assert.Equal(t, events.EventMOTD, e.Type)
	assert.Equal(t, events.MOTDPayload{Text: "hello\n"}, e.Payload)

	errc := runAsync(context.Background(), c)
	e = nextEvent(t, evs)
	assert.Equal(t, events.EventLogin, e.Type)
	assert.Equal(t, events.LoginPayload{Success: true}, e.Payload)

	server.Close()
	require.NoError(t, waitRun(t, errc))
	assert.Equal(t, StateDisconnected, c.State())
	assert.Equal(t, ReasonEndOfStream, c.Reason())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateHandshaking, StateConnected, StateDisconnected}, transitions)
}

func TestConnectHandshakeTimeout(t *testing.T) {
	dial, _ := pipeServer(t)
	c := NewClient(Options{Dial: dial, HandshakeTimeout: 50 * time.Millisecond})

	_, err := c.Connect(context.Background())
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, StateDisconnected, c.State())
	assert.Equal(t, ReasonHandshakeTimeout, c.Reason())
}

// firedTimer reports that its deadline elapsed just before Stop.
type firedTimer struct{ fire func() }

func (f firedTimer) Stop() bool {
	f.fire()
	return false
}

func TestConnectTimeoutAfterSentinel(t *testing.T) {
	dial, server := pipeServer(t)
	c := NewClient(Options{Dial: dial})
	c.afterFunc = func(d time.Duration, f func()) stopper { return firedTimer{fire: f} }
	serve(server, "hello\nDragonroar\n")

	_, err := c.Connect(context.Background())
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, StateDisconnected, c.State())
	assert.Equal(t, ReasonHandshakeTimeout, c.Reason())
}

func TestConnectStreamEndsBeforeHandshake(t *testing.T) {
	dial, server := pipeServer(t)
	c := NewClient(Options{Dial: dial})

	go func() {
		io.WriteString(server, "welcome\n")
		server.Close()
	}()
	_, err := c.Connect(context.Background())
	require.ErrorIs(t, err, ErrHandshake)
	assert.Equal(t, ReasonHandshakeFailed, c.Reason())
}

func TestConnectDialFailure(t *testing.T) {
	c := NewClient(Options{Dial: func(context.Context, string) (net.Conn, error) {
		return nil, io.ErrClosedPipe
	}})

	_, err := c.Connect(context.Background())
	require.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, ReasonTransportFailure, c.Reason())
}

func TestUnhandledKeepsSessionAlive(t *testing.T) {
	c, server := connected(t, Options{})
	evs := collect(c.Bus())
	errc := runAsync(context.Background(), c)

	serve(server, "\"abc\n(hi\n")
	e := nextEvent(t, evs)
	assert.Equal(t, events.EventUnhandled, e.Type)
	assert.Equal(t, 2, e.Opcode)

	e = nextEvent(t, evs)
	assert.Equal(t, events.EventMessage, e.Type)
	assert.Equal(t, StateConnected, c.State())

	c.Disconnect()
	require.NoError(t, waitRun(t, errc))
}

func TestDisconnectUnblocksRead(t *testing.T) {
	c, server := connected(t, Options{})
	evs := collect(c.Bus())
	errc := runAsync(context.Background(), c)

	serve(server, "&\n")
	nextEvent(t, evs)

	c.Disconnect()
	require.NoError(t, waitRun(t, errc))
	assert.Equal(t, StateDisconnected, c.State())
	assert.Equal(t, ReasonLocalClose, c.Reason())

	server.Write([]byte("(late\n"))
	select {
	case e := <-evs:
		t.Fatalf("unexpected event after disconnect: %s", e.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRunCancelledContext(t *testing.T) {
	c, _ := connected(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	errc := runAsync(ctx, c)

	cancel()
	require.NoError(t, waitRun(t, errc))
	assert.Equal(t, ReasonLocalClose, c.Reason())
}

func TestRunTruncatedLine(t *testing.T) {
	c, server := connected(t, Options{})
	errc := runAsync(context.Background(), c)

	go func() {
		io.WriteString(server, "(partial")
		server.Close()
	}()
	err := waitRun(t, errc)
	require.ErrorIs(t, err, ErrTruncatedLine)
	assert.Equal(t, ReasonMalformedLine, c.Reason())
}

func TestCommandsAreFramed(t *testing.T) {
	c, server := connected(t, Options{})

	lines := make(chan string, 4)
	go func() {
		r := bufio.NewReader(server)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			lines <- line
		}
	}()

	require.NoError(t, c.Say("hi"))
	require.NoError(t, c.Move(protocol.SouthWest))
	require.NoError(t, c.Login(protocol.Credential{Name: "Bob", Password: "pw"}))

	for _, want := range []string{"\"hi\n", "m 1\n", "connect Bob pw\n"} {
		select {
		case got := <-lines:
			assert.Equal(t, want, got)
		case <-time.After(waitTimeout):
			t.Fatalf("timed out waiting for %q", want)
		}
	}

	assert.ErrorIs(t, c.Command("one\ntwo"), protocol.ErrEmbeddedNewline)

	stats, ok := c.Stats()
	require.True(t, ok)
	assert.Equal(t, int64(len("\"hi\nm 1\nconnect Bob pw\n")), stats.BytesOut)
}

func TestNotConnected(t *testing.T) {
	c := NewClient(Options{})
	assert.ErrorIs(t, c.Say("hi"), ErrNotConnected)
	assert.ErrorIs(t, c.Run(context.Background()), ErrNotConnected)

	_, ok := c.Stats()
	assert.False(t, ok)
	assert.Equal(t, StateDisconnected, c.State())

	c.Disconnect()
	assert.Equal(t, ReasonNone, c.Reason())
}
