package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furcwire-project/furcwire/internal/events"
)

func TestColorCodeRoundTrip(t *testing.T) {
	slots := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	tests := []struct {
		name string
		in   events.ColorCode
		size int
	}{
		{"legacy", events.ColorCode{Version: ColorVersionLegacy, Colors: slots}, 11},
		{"classic", events.ColorCode{Version: ColorVersionClassic, Colors: slots, Gender: 1, Species: 2, Digo: 3}, 14},
		{"wide", events.ColorCode{Version: ColorVersionWide, Colors: []int{300, 2, 3, 4, 5, 6, 7, 8, 9, 10}, Gender: 1, Species: 250, Digo: 3}, 27},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := NewBuilder().WriteColorCode(tt.in).WriteString("Name").Build()
			require.NoError(t, err)
			require.Len(t, body, tt.size+4)

			b := NewBuffer(body)
			got, err := ReadColorCode(b)
			require.NoError(t, err)
			assert.Equal(t, tt.in.Colors, got.Colors)
			assert.Equal(t, tt.in.Gender, got.Gender)
			assert.Equal(t, tt.in.Species, got.Species)
			assert.Equal(t, tt.in.Digo, got.Digo)
			assert.Equal(t, body[:tt.size], got.Raw)
			assert.Equal(t, 4, b.Remaining())
		})
	}
}

func TestColorCodeLegacyRawBytes(t *testing.T) {
	body := []byte("t!\x20$%&'()*+Name")

	b := NewBuffer(body)
	got, err := ReadColorCode(b)
	require.NoError(t, err)
	assert.Equal(t, []int{-1, -1, 1, 2, 3, 4, 5, 6, 7, 8}, got.Colors)
	assert.Equal(t, body[:11], got.Raw)
	assert.Equal(t, 4, b.Remaining())

	out, err := NewBuilder().WriteColorCode(got).Build()
	require.NoError(t, err)
	assert.Equal(t, body[:11], out)
}

func TestColorCodeMasked(t *testing.T) {
	in := events.ColorCode{
		Version: ColorVersionMasked,
		Colors:  []int{11, 0, 0, 44, 0, 0, 0, 0, 0, 0},
		Gender:  2,
		Mask:    1 | 1<<3 | maskGender,
	}
	body, err := NewBuilder().WriteColorCode(in).WriteString("X").Build()
	require.NoError(t, err)

	b := NewBuffer(body)
	got, err := ReadColorCode(b)
	require.NoError(t, err)
	assert.Equal(t, in.Mask, got.Mask)
	assert.Equal(t, in.Colors, got.Colors)
	assert.Equal(t, 2, got.Gender)
	assert.Zero(t, got.Species)
	assert.Equal(t, 1, b.Remaining())
}

func TestColorCodeUnknownVersion(t *testing.T) {
	_, err := ReadColorCode(NewBuffer([]byte("x##########")))
	assert.ErrorIs(t, err, ErrUnknownVersion)

	_, err = NewBuilder().WriteColorCode(events.ColorCode{Version: 'x'}).Build()
	assert.ErrorIs(t, err, ErrUnknownVersion)
}

func TestColorCodeTruncated(t *testing.T) {
	_, err := ReadColorCode(NewBuffer([]byte("t###")))
	assert.ErrorIs(t, err, ErrUnderflow)
}

func TestCatalogueMarksProvisionalColorLayouts(t *testing.T) {
	found := 0
	for _, e := range Catalogue() {
		if strings.Contains(e.Layout, "colour code") {
			found++
			assert.Contains(t, e.Layout, "u/v/w provisional", e.Trigger())
		}
	}
	assert.NotZero(t, found)
}
