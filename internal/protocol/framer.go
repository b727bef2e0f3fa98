package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrHandshake is returned when the stream ends before the handshake line.
	ErrHandshake = errors.New("handshake sentinel not received")
	// ErrTruncatedLine is returned when the stream ends inside a line.
	ErrTruncatedLine = errors.New("line not terminated")
)

// Message is one framed line split into opcode and body.
type Message struct {
	Opcode int
	Body   []byte
	Raw    []byte
}

// Framer splits a byte stream into newline-terminated messages.
type Framer struct {
	r *bufio.Reader
}

// NewFramer wraps r.
func NewFramer(r io.Reader) *Framer {
	return &Framer{r: bufio.NewReader(r)}
}

// readLine returns one line including its terminator. A clean end of stream
// is io.EOF; an unterminated tail is ErrTruncatedLine.
func (f *Framer) readLine() ([]byte, error) {
	line, err := f.r.ReadBytes(LineTerminator)
	if err == nil {
		return line, nil
	}
	if errors.Is(err, io.EOF) {
		if len(line) == 0 {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%d trailing bytes: %w", len(line), ErrTruncatedLine)
	}
	return nil, err
}

// Handshake reads lines until the sentinel and returns everything before it
// as the message of the day, terminators included.
func (f *Framer) Handshake() (string, error) {
	var motd strings.Builder
	for {
		line, err := f.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ErrTruncatedLine) {
				return motd.String(), fmt.Errorf("%w: %v", ErrHandshake, err)
			}
			return motd.String(), err
		}
		if string(bytes.TrimSuffix(line, []byte{LineTerminator})) == Handshake {
			return motd.String(), nil
		}
		motd.Write(line)
	}
}

// Next returns the next non-empty message. The returned slices are owned by
// the caller.
func (f *Framer) Next() (Message, error) {
	for {
		line, err := f.readLine()
		if err != nil {
			return Message{}, err
		}
		line = line[:len(line)-1]
		if len(line) == 0 {
			continue
		}
		return Message{Opcode: int(line[0]) - 32, Body: line[1:], Raw: line}, nil
	}
}
