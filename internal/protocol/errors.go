package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDigit is returned when a numeral contains a byte outside its alphabet.
	ErrInvalidDigit = errors.New("invalid numeral digit")
	// ErrUnderflow is returned when a read needs more bytes than remain.
	ErrUnderflow = errors.New("buffer underflow")
	// ErrMissingField is returned when a required textual field is absent.
	ErrMissingField = errors.New("required field missing")
	// ErrFieldRange is returned when a decoded value does not fit its field.
	ErrFieldRange = errors.New("field value out of range")
	// ErrPrefixOverflow is returned when a length does not fit its numeral prefix.
	ErrPrefixOverflow = errors.New("length does not fit prefix width")
	// ErrUnknownVersion is returned for a colour code with an unrecognised version byte.
	ErrUnknownVersion = errors.New("unknown colour code version")
	// ErrEmbeddedNewline is returned when an outbound command contains 0x0A.
	ErrEmbeddedNewline = errors.New("command contains a line terminator")
)

// FormatError describes a malformed message body. It carries the offset at
// which decoding failed and the undecoded remainder for diagnostics.
type FormatError struct {
	Op        string
	Offset    int
	Remaining []byte
	Err       error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s at offset %d (remaining %q): %v", e.Op, e.Offset, e.Remaining, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
