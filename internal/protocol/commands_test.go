package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandLines(t *testing.T) {
	tests := []struct {
		name  string
		build func() ([]byte, error)
		want  string
	}{
		{"plain login", func() ([]byte, error) {
			return LoginCommand(Credential{Kind: CredentialPlain, Name: "Bob", Password: "pw"})
		}, "connect Bob pw\n"},
		{"linked login", func() ([]byte, error) {
			return LoginCommand(Credential{Kind: CredentialLinked, Name: "Bob", AccountName: "acct", AccountPassword: "apw"})
		}, "account acct Bob apw\n"},
		{"move", func() ([]byte, error) { return MoveCommand(NorthEast) }, "m 9\n"},
		{"rotate clockwise", func() ([]byte, error) { return RotateCommand(RotateClockwise) }, ">\n"},
		{"rotate counter-clockwise", func() ([]byte, error) { return RotateCommand(RotateCounterClockwise) }, "<\n"},
		{"say", func() ([]byte, error) { return SayCommand("hello") }, "\"hello\n"},
		{"gomap", func() ([]byte, error) { return GoMapCommand(3) }, "gomap #\n"},
		{"fdl", func() ([]byte, error) { return FDLCommand("furc://x") }, "fdl furc://x\n"},
		{"dream", func() ([]byte, error) { return GoToDreamCommand("owner", "") }, "fdl furc://owner\n"},
		{"named dream", func() ([]byte, error) { return GoToDreamCommand("owner", "pond") }, "fdl furc://owner:pond\n"},
		{"vascodagama", VascodagamaCommand, "vascodagama\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.build()
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestCommandRejectsEmbeddedNewline(t *testing.T) {
	_, err := SayCommand("one\ntwo")
	assert.ErrorIs(t, err, ErrEmbeddedNewline)

	_, err = LoginCommand(Credential{Name: "Bob", Password: "p\nw"})
	assert.ErrorIs(t, err, ErrEmbeddedNewline)
}

func TestCommandRanges(t *testing.T) {
	_, err := RotateCommand(0)
	assert.ErrorIs(t, err, ErrFieldRange)

	_, err = LoginCommand(Credential{Kind: CredentialKind(9)})
	assert.ErrorIs(t, err, ErrFieldRange)
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{"sw": SouthWest, "SE": SouthEast, "nw": NorthWest, "Ne": NorthEast} {
		got, err := ParseDirection(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDirection("north")
	assert.ErrorIs(t, err, ErrFieldRange)
}
