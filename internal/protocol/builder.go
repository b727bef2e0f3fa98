package protocol

import (
	"bytes"
	"fmt"
)

// Builder assembles a message body or an outbound line using the protocol's
// numeral encodings. Errors are sticky: after the first failure further writes
// are ignored and Build reports the error.
type Builder struct {
	buf bytes.Buffer
	err error
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Reset clears the builder for reuse.
func (b *Builder) Reset() {
	b.buf.Reset()
	b.err = nil
}

// WriteChar writes a single raw byte.
func (b *Builder) WriteChar(v byte) *Builder {
	if b.err == nil {
		b.buf.WriteByte(v)
	}
	return b
}

// WriteBytes writes raw bytes.
func (b *Builder) WriteBytes(data []byte) *Builder {
	if b.err == nil {
		b.buf.Write(data)
	}
	return b
}

// WriteString writes raw text.
func (b *Builder) WriteString(s string) *Builder {
	if b.err == nil {
		b.buf.WriteString(s)
	}
	return b
}

// WriteOpcode writes an opcode as its printable byte (opcode + 32).
func (b *Builder) WriteOpcode(op int) *Builder {
	if b.err == nil && (op < 0 || op > 95) {
		b.err = fmt.Errorf("opcode %d: %w", op, ErrFieldRange)
	}
	return b.WriteChar(byte(op + 32))
}

// Write95 writes v as a width-digit base-95 numeral.
func (b *Builder) Write95(v, width int) *Builder {
	return b.WriteBytes(Encode95(v, width))
}

// Write220 writes v as a width-digit base-220 numeral.
func (b *Builder) Write220(v, width int) *Builder {
	return b.WriteBytes(Encode220(v, width))
}

// Write95Bytes writes a lenWidth-digit base-95 length prefix followed by data.
func (b *Builder) Write95Bytes(data []byte, lenWidth int) *Builder {
	if b.err == nil && !fits(len(data), base95, lenWidth) {
		b.err = fmt.Errorf("%d bytes in %d base-95 digits: %w", len(data), lenWidth, ErrPrefixOverflow)
	}
	return b.Write95(len(data), lenWidth).WriteBytes(data)
}

// Write220Bytes writes a lenWidth-digit base-220 length prefix followed by data.
func (b *Builder) Write220Bytes(data []byte, lenWidth int) *Builder {
	if b.err == nil && !fits(len(data), base220, lenWidth) {
		b.err = fmt.Errorf("%d bytes in %d base-220 digits: %w", len(data), lenWidth, ErrPrefixOverflow)
	}
	return b.Write220(len(data), lenWidth).WriteBytes(data)
}

// Write220ByteArray writes a lenWidth-digit base-220 count followed by each
// byte as a two-digit base-220 numeral.
func (b *Builder) Write220ByteArray(data []byte, lenWidth int) *Builder {
	if b.err == nil && !fits(len(data), base220, lenWidth) {
		b.err = fmt.Errorf("%d elements in %d base-220 digits: %w", len(data), lenWidth, ErrPrefixOverflow)
	}
	b.Write220(len(data), lenWidth)
	for _, v := range data {
		b.Write220(int(v), 2)
	}
	return b
}

// Build returns the assembled bytes.
func (b *Builder) Build() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return append([]byte(nil), b.buf.Bytes()...), nil
}

// Len returns the current size of the data being built.
func (b *Builder) Len() int {
	return b.buf.Len()
}

// String returns a quoted dump of the current data for debugging.
func (b *Builder) String() string {
	return fmt.Sprintf("Builder[%d bytes]: %q", b.buf.Len(), b.buf.Bytes())
}

// fits reports whether n can be expressed in width digits of the given base.
func fits(n, base, width int) bool {
	limit := 1
	for i := 0; i < width; i++ {
		limit *= base
	}
	return n < limit
}
