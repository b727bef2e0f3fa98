package protocol

// Base-95 digits occupy 0x20-0x7E and are written most-significant first.
// Base-220 digits occupy 0x23-0xFE and are written least-significant first.
const (
	base95      = 95
	base95Zero  = 0x20
	base95Limit = 0x7F

	base220      = 220
	base220Zero  = 0x23
	base220Limit = 0xFF
)

// Encode95 encodes v as a base-95 numeral. With width > 0 the result is
// exactly width bytes long: short numerals are left-padded with 0x20 and long
// numerals keep only their width highest-order digits. The truncation is lossy
// and matches what servers expect.
func Encode95(v int, width int) []byte {
	var out []byte
	for v > 0 {
		out = append([]byte{byte(v%base95) + base95Zero}, out...)
		v /= base95
	}

	if width > 0 {
		if len(out) > width {
			out = out[:width]
		}
		if pad := width - len(out); pad > 0 {
			padded := make([]byte, 0, width)
			for i := 0; i < pad; i++ {
				padded = append(padded, base95Zero)
			}
			out = append(padded, out...)
		}
	}

	if out == nil {
		return []byte{}
	}
	return out
}

// Decode95 decodes a base-95 numeral. Any byte outside [0x20, 0x7F) yields
// ErrInvalidDigit.
func Decode95(data []byte) (int, error) {
	v := 0
	for _, c := range data {
		if c < base95Zero || c >= base95Limit {
			return 0, ErrInvalidDigit
		}
		v = v*base95 + int(c-base95Zero)
	}
	return v, nil
}

// Encode220 encodes v as a base-220 numeral, least-significant digit first.
// With width > 0, short numerals are right-padded with 0x23 and long numerals
// keep their width left-most (lowest-order) digits.
func Encode220(v int, width int) []byte {
	out := []byte{}
	for v > 0 {
		out = append(out, byte(v%base220)+base220Zero)
		v /= base220
	}

	if width > 0 {
		if len(out) > width {
			out = out[:width]
		}
		for len(out) < width {
			out = append(out, base220Zero)
		}
	}
	return out
}

// Decode220 decodes a base-220 numeral. Any byte below 0x23 or equal to 0xFF
// yields ErrInvalidDigit.
func Decode220(data []byte) (int, error) {
	v := 0
	mul := 1
	for _, c := range data {
		if c < base220Zero || c >= base220Limit {
			return 0, ErrInvalidDigit
		}
		v += int(c-base220Zero) * mul
		mul *= base220
	}
	return v, nil
}
