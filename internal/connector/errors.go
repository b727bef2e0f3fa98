package connector

import (
	"errors"

	"github.com/furcwire-project/furcwire/internal/protocol"
)

var (
	// ErrHandshake is returned by Connect when the stream ends before the
	// handshake line.
	ErrHandshake = protocol.ErrHandshake
	// ErrTruncatedLine ends Run when the stream stops inside a line.
	ErrTruncatedLine = protocol.ErrTruncatedLine
	// ErrTimeout is returned by Connect when the handshake deadline passes.
	ErrTimeout = errors.New("handshake timed out")
	// ErrTransport wraps dial, read and write failures.
	ErrTransport = errors.New("transport failure")
	// ErrNotConnected is returned when an operation needs a live session.
	ErrNotConnected = errors.New("not connected")
)

// DisconnectReason records why the client last entered Disconnected.
type DisconnectReason int

const (
	ReasonNone DisconnectReason = iota
	ReasonEndOfStream
	ReasonMalformedLine
	ReasonTransportFailure
	ReasonHandshakeTimeout
	ReasonHandshakeFailed
	ReasonLocalClose
)

func (r DisconnectReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonEndOfStream:
		return "end_of_stream"
	case ReasonMalformedLine:
		return "malformed_line"
	case ReasonTransportFailure:
		return "transport_failure"
	case ReasonHandshakeTimeout:
		return "handshake_timeout"
	case ReasonHandshakeFailed:
		return "handshake_failed"
	case ReasonLocalClose:
		return "local_close"
	default:
		return "unknown"
	}
}
