package protocol

import (
	"bytes"
)

// Buffer is a cursor over the body of a single message. Every read advances
// the cursor; a read that needs more bytes than remain fails without moving it.
type Buffer struct {
	data   []byte
	offset int
}

// NewBuffer wraps data. The buffer does not copy it.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Bytes returns the whole underlying message body.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Offset returns the cursor position.
func (b *Buffer) Offset() int {
	return b.offset
}

// Remaining returns the number of unread bytes.
func (b *Buffer) Remaining() int {
	return len(b.data) - b.offset
}

// EOF reports whether every byte has been consumed.
func (b *Buffer) EOF() bool {
	return b.offset >= len(b.data)
}

func (b *Buffer) fail(op string, at int, err error) error {
	return &FormatError{
		Op:        op,
		Offset:    at,
		Remaining: append([]byte(nil), b.data[at:]...),
		Err:       err,
	}
}

// Read consumes exactly n bytes.
func (b *Buffer) Read(n int) ([]byte, error) {
	if n < 0 || n > b.Remaining() {
		return nil, b.fail("read", b.offset, ErrUnderflow)
	}
	v := b.data[b.offset : b.offset+n]
	b.offset += n
	return v, nil
}

// ReadByte consumes a single byte.
func (b *Buffer) ReadByte() (byte, error) {
	v, err := b.Read(1)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

// ReadAll consumes everything up to the end of the body.
func (b *Buffer) ReadAll() []byte {
	v := b.data[b.offset:]
	b.offset = len(b.data)
	return v
}

// ReadUntil consumes bytes up to and including sep and returns the bytes
// before it. When sep never appears the rest of the body is returned.
func (b *Buffer) ReadUntil(sep byte) []byte {
	rest := b.data[b.offset:]
	i := bytes.IndexByte(rest, sep)
	if i < 0 {
		b.offset = len(b.data)
		return rest
	}
	b.offset += i + 1
	return rest[:i]
}

// ReadWord is ReadUntil with the default space separator.
func (b *Buffer) ReadWord() []byte {
	return b.ReadUntil(' ')
}

// Read95 consumes an n-digit base-95 numeral.
func (b *Buffer) Read95(n int) (int, error) {
	at := b.offset
	raw, err := b.Read(n)
	if err != nil {
		return 0, err
	}
	v, err := Decode95(raw)
	if err != nil {
		b.offset = at
		return 0, b.fail("read95", at, err)
	}
	return v, nil
}

// Read220 consumes an n-digit base-220 numeral.
func (b *Buffer) Read220(n int) (int, error) {
	at := b.offset
	raw, err := b.Read(n)
	if err != nil {
		return 0, err
	}
	v, err := Decode220(raw)
	if err != nil {
		b.offset = at
		return 0, b.fail("read220", at, err)
	}
	return v, nil
}

// Read95Bytes reads a lenWidth-digit base-95 count followed by that many raw bytes.
func (b *Buffer) Read95Bytes(lenWidth int) ([]byte, error) {
	n, err := b.Read95(lenWidth)
	if err != nil {
		return nil, err
	}
	return b.Read(n)
}

// Read220Bytes reads a lenWidth-digit base-220 count followed by that many raw bytes.
func (b *Buffer) Read220Bytes(lenWidth int) ([]byte, error) {
	n, err := b.Read220(lenWidth)
	if err != nil {
		return nil, err
	}
	return b.Read(n)
}

// Read95String is Read95Bytes returned as a string.
func (b *Buffer) Read95String(lenWidth int) (string, error) {
	v, err := b.Read95Bytes(lenWidth)
	return string(v), err
}

// Read220String is Read220Bytes returned as a string.
func (b *Buffer) Read220String(lenWidth int) (string, error) {
	v, err := b.Read220Bytes(lenWidth)
	return string(v), err
}

// Read220ByteArray reads a lenWidth-digit base-220 count followed by that
// many two-digit base-220 values, each of which must fit in a byte.
func (b *Buffer) Read220ByteArray(lenWidth int) ([]byte, error) {
	n, err := b.Read220(lenWidth)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		at := b.offset
		v, err := b.Read220(2)
		if err != nil {
			return nil, err
		}
		if v > 0xFF {
			return nil, b.fail("read220 byte array", at, ErrFieldRange)
		}
		out = append(out, byte(v))
	}
	return out, nil
}
