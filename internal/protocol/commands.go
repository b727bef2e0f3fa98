package protocol

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// CredentialKind selects the login command form.
type CredentialKind int

const (
	// CredentialPlain logs in with a character name and password.
	CredentialPlain CredentialKind = iota
	// CredentialLinked logs in a character that belongs to an account.
	CredentialLinked
)

// Credential is what the login command needs. Account fields are used only
// for linked credentials.
type Credential struct {
	Kind            CredentialKind
	Name            string
	Password        string
	AccountName     string
	AccountPassword string
}

// Direction is a movement direction on the isometric grid.
type Direction int

const (
	SouthWest Direction = 1
	SouthEast Direction = 3
	NorthWest Direction = 7
	NorthEast Direction = 9
)

// Rotation directions.
const (
	RotateClockwise        = 1
	RotateCounterClockwise = -1
)

// Line appends the terminator to a command body. A body that already
// contains one is rejected so a single command can never become two.
func Line(body []byte) ([]byte, error) {
	if bytes.IndexByte(body, LineTerminator) >= 0 {
		return nil, ErrEmbeddedNewline
	}
	out := make([]byte, 0, len(body)+1)
	out = append(out, body...)
	return append(out, LineTerminator), nil
}

// RawCommand frames arbitrary text as a command line.
func RawCommand(text string) ([]byte, error) {
	return Line([]byte(text))
}

// LoginCommand builds "connect <name> <password>" or, for linked
// credentials, "account <account> <name> <password>".
func LoginCommand(c Credential) ([]byte, error) {
	switch c.Kind {
	case CredentialPlain:
		return RawCommand(fmt.Sprintf("connect %s %s", c.Name, c.Password))
	case CredentialLinked:
		return RawCommand(fmt.Sprintf("account %s %s %s", c.AccountName, c.Name, c.AccountPassword))
	default:
		return nil, fmt.Errorf("credential kind %d: %w", c.Kind, ErrFieldRange)
	}
}

// ParseDirection accepts sw, se, nw and ne in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "sw":
		return SouthWest, nil
	case "se":
		return SouthEast, nil
	case "nw":
		return NorthWest, nil
	case "ne":
		return NorthEast, nil
	default:
		return 0, fmt.Errorf("direction %q: %w", s, ErrFieldRange)
	}
}

// MoveCommand builds "m <direction>".
func MoveCommand(d Direction) ([]byte, error) {
	return RawCommand("m " + strconv.Itoa(int(d)))
}

// RotateCommand builds ">" for clockwise and "<" for counter-clockwise.
func RotateCommand(dir int) ([]byte, error) {
	switch dir {
	case RotateClockwise:
		return RawCommand(">")
	case RotateCounterClockwise:
		return RawCommand("<")
	default:
		return nil, fmt.Errorf("rotation %d: %w", dir, ErrFieldRange)
	}
}

// SayCommand builds a chat line.
func SayCommand(text string) ([]byte, error) {
	return RawCommand(`"` + text)
}

// GoMapCommand builds "gomap <id>" with the id as a single base-95 digit.
func GoMapCommand(id int) ([]byte, error) {
	body, err := NewBuilder().WriteString("gomap ").Write95(id, 1).Build()
	if err != nil {
		return nil, err
	}
	return Line(body)
}

// FDLCommand builds "fdl <url>".
func FDLCommand(url string) ([]byte, error) {
	return RawCommand("fdl " + url)
}

// DreamURL returns furc://owner or furc://owner:dream.
func DreamURL(owner, dream string) string {
	url := "furc://" + owner
	if dream != "" {
		url += ":" + dream
	}
	return url
}

// GoToDreamCommand navigates to a dream by owner and optional dream name.
func GoToDreamCommand(owner, dream string) ([]byte, error) {
	return FDLCommand(DreamURL(owner, dream))
}

// VascodagamaCommand builds the command that returns to the default map.
func VascodagamaCommand() ([]byte, error) {
	return RawCommand("vascodagama")
}
