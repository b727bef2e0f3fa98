package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode95(t *testing.T) {
	tests := []struct {
		name  string
		v     int
		width int
		want  []byte
	}{
		{"zero unpadded", 0, 0, []byte{}},
		{"zero padded", 0, 2, []byte("  ")},
		{"single digit", 5, 1, []byte{0x25}},
		{"carry", 95, 2, []byte("! ")},
		{"left padded", 1, 3, []byte("  !")},
		{"keeps high order digits", 100, 1, []byte("!")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode95(tt.v, tt.width))
		})
	}
}

func TestDecode95(t *testing.T) {
	v, err := Decode95([]byte("! "))
	require.NoError(t, err)
	assert.Equal(t, 95, v)

	v, err = Decode95(nil)
	require.NoError(t, err)
	assert.Zero(t, v)

	for _, bad := range []byte{0x1F, 0x7F} {
		_, err := Decode95([]byte{0x20, bad})
		assert.ErrorIs(t, err, ErrInvalidDigit, "byte %#x", bad)
	}
}

func TestEncode220(t *testing.T) {
	tests := []struct {
		name  string
		v     int
		width int
		want  []byte
	}{
		{"zero unpadded", 0, 0, []byte{}},
		{"zero padded", 0, 2, []byte{35, 35}},
		{"right padded", 7, 2, []byte{42, 35}},
		{"two digits", 1005, 2, []byte{160, 39}},
		{"high digit", 48048, 2, []byte{123, 253}},
		{"carry", 300, 2, []byte{115, 36}},
		{"keeps low order digits", 1005, 1, []byte{160}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode220(tt.v, tt.width))
		})
	}
}

func TestDecode220(t *testing.T) {
	v, err := Decode220([]byte{160, 39})
	require.NoError(t, err)
	assert.Equal(t, 1005, v)

	for _, bad := range []byte{0x22, 0xFF} {
		_, err := Decode220([]byte{bad})
		assert.ErrorIs(t, err, ErrInvalidDigit, "byte %#x", bad)
	}
}

// Literal vectors of the wire format. 0xFE is the top base-220 digit.
func TestNumeralVectors(t *testing.T) {
	tests := []struct {
		name   string
		base   int
		v      int
		width  int
		digits []byte
	}{
		{"95 zero", 95, 0, 0, []byte{}},
		{"95 top digit", 95, 94, 0, []byte{0x7E}},
		{"95 carry", 95, 95, 0, []byte{0x21, 0x20}},
		{"95 single", 95, 43, 0, []byte{0x4B}},
		{"95 two digits", 95, 583, 0, []byte{0x26, 0x2D}},
		{"95 two high digits", 95, 2299, 0, []byte{0x38, 0x33}},
		{"95 zero width 2", 95, 0, 2, []byte{0x20, 0x20}},
		{"95 top digit width 2", 95, 94, 2, []byte{0x20, 0x7E}},
		{"95 exact width 2", 95, 2299, 2, []byte{0x38, 0x33}},
		{"220 zero", 220, 0, 0, []byte{}},
		{"220 top digit", 220, 219, 0, []byte{0xFE}},
		{"220 carry", 220, 220, 0, []byte{0x23, 0x24}},
		{"220 single", 220, 43, 0, []byte{0x4E}},
		{"220 two digits", 220, 583, 0, []byte{0xB2, 0x25}},
		{"220 zero width 2", 220, 0, 2, []byte{0x23, 0x23}},
		{"220 top digit width 2", 220, 219, 2, []byte{0xFE, 0x23}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encode, decode := Encode95, Decode95
			if tt.base == 220 {
				encode, decode = Encode220, Decode220
			}
			assert.Equal(t, tt.digits, encode(tt.v, tt.width))

			got, err := decode(tt.digits)
			require.NoError(t, err)
			assert.Equal(t, tt.v, got)
		})
	}
}

func TestNumeralRoundTrip(t *testing.T) {
	for v := 0; v < 95*95; v += 7 {
		got, err := Decode95(Encode95(v, 2))
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
	for v := 0; v < 220*220; v += 13 {
		got, err := Decode220(Encode220(v, 2))
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}
