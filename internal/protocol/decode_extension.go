package protocol

import (
	"bytes"
	"strconv"

	"github.com/furcwire-project/furcwire/internal/events"
)

const (
	noDialogID   = "xxxx"
	offsetOrigin = 256
	modernMarker = "modern"
)

// readDecimal parses a space-terminated decimal word.
func readDecimal(b *Buffer) (int, error) {
	at := b.Offset()
	word := b.ReadWord()
	if len(word) == 0 {
		return 0, b.fail("decimal", at, ErrMissingField)
	}
	v, err := strconv.Atoi(string(word))
	if err != nil {
		return 0, b.fail("decimal", at, ErrFieldRange)
	}
	return v, nil
}

// readFlag consumes one byte and reports whether it equals set.
func readFlag(b *Buffer, set byte) (bool, error) {
	c, err := b.ReadByte()
	if err != nil {
		return false, err
	}
	return c == set, nil
}

func decodeDialog(b *Buffer) (interface{}, error) {
	p := events.DialogPayload{ID: -1}
	at := b.Offset()
	id := b.ReadWord()
	switch {
	case len(id) == 0:
		return nil, b.fail("dialog id", at, ErrMissingField)
	case string(id) != noDialogID:
		v, err := strconv.Atoi(string(id))
		if err != nil {
			return nil, b.fail("dialog id", at, ErrFieldRange)
		}
		p.ID = v
	}

	kind, err := readDecimal(b)
	if err != nil {
		return nil, err
	}
	p.Kind = kind
	p.Text = string(b.ReadAll())
	return p, nil
}

func decodeOpenURL(show bool) decodeFunc {
	return func(b *Buffer) (interface{}, error) {
		return events.OpenURLPayload{Show: show, URL: b.ReadAll()}, nil
	}
}

func decodeOnlineStatus(b *Buffer) (interface{}, error) {
	online, err := readFlag(b, '1')
	if err != nil {
		return nil, err
	}
	return events.OnlineStatusPayload{Online: online, Name: b.ReadAll()}, nil
}

func decodePortrait(b *Buffer) (interface{}, error) {
	id, err := readDecimal(b)
	if err != nil {
		return nil, err
	}
	return events.PortraitPayload{ID: id, Name: string(b.ReadAll())}, nil
}

func decodeEnableUserList(b *Buffer) (interface{}, error) {
	list, err := readFlag(b, '0')
	if err != nil {
		return nil, err
	}
	return events.EnableUserListPayload{ShowList: list}, nil
}

func decodeGuildTag(variant byte) decodeFunc {
	return func(b *Buffer) (interface{}, error) {
		return events.GuildTagPayload{Variant: variant, Data: b.ReadAll()}, nil
	}
}

func decodeDecimal(b *Buffer) (interface{}, error) {
	v, err := readDecimal(b)
	if err != nil {
		return nil, err
	}
	return events.NumberPayload{Value: v}, nil
}

func decodeBookmark(b *Buffer) (interface{}, error) {
	user, err := readFlag(b, '1')
	if err != nil {
		return nil, err
	}
	return events.BookmarkPayload{UserRequested: user, FDL: string(b.ReadAll())}, nil
}

func decodeLiveEdit(active, owner bool) decodeFunc {
	return func(*Buffer) (interface{}, error) {
		return events.LiveEditPayload{Active: active, Owner: owner}, nil
	}
}

func decodeFlag(b *Buffer) (interface{}, error) {
	on, err := readFlag(b, '1')
	if err != nil {
		return nil, err
	}
	return events.FlagPayload{Enabled: on}, nil
}

func decodeOffsetAvatar(b *Buffer) (interface{}, error) {
	f, err := read220Fields(b, 4, 2, 2)
	if err != nil {
		return nil, err
	}
	return events.OffsetAvatarPayload{UserID: f[0], X: f[1] - offsetOrigin, Y: f[2] - offsetOrigin}, nil
}

func decodeGloam(b *Buffer) (interface{}, error) {
	var p events.GloamPayload
	for b.Remaining() >= 6 {
		f, err := read220Fields(b, 4, 2)
		if err != nil {
			return nil, err
		}
		p.Entries = append(p.Entries, events.GloamEntry{UserID: f[0], Gloam: f[1]})
	}
	return p, nil
}

func decodeRegionSettings(b *Buffer) (interface{}, error) {
	f, err := read220Fields(b, 2, 2, 2, 2, 2, 2, 2, 2, 2, 1, 1, 2, 2, 2, 2)
	if err != nil {
		return nil, err
	}
	p := events.RegionSettingsPayload{
		Outdoor:    events.LayerDefaults{Object: f[0], Wall: f[1], Floor: f[2], Effect: f[3]},
		Indoor:     events.LayerDefaults{Object: f[4], Wall: f[5], Floor: f[6], Effect: f[7]},
		Unk:        f[8],
		WallBottom: f[9],
		WallTop:    f[10],
		Extra:      [4]int{f[11], f[12], f[13], f[14]},
	}

	if b.Remaining() >= 3 {
		n, err := b.Read220(1)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			e, err := read220Fields(b, 2, 1)
			if err != nil {
				return nil, err
			}
			p.Entries = append(p.Entries, events.RegionSettingsEntry{ID: e[0], Value: e[1]})
		}
	}
	return p, nil
}

func decodeKitterDust(b *Buffer) (interface{}, error) {
	var p events.KitterDustPayload
	for b.Remaining() >= 5 {
		f, err := read220Fields(b, 4, 1)
		if err != nil {
			return nil, err
		}
		p.Entries = append(p.Entries, events.KitterDustEntry{UserID: f[0], Value: f[1]})
	}
	return p, nil
}

// decodeMarbled drops the leading "c" the server repeats from the trigger.
func decodeMarbled(b *Buffer) (interface{}, error) {
	if _, err := b.ReadByte(); err != nil {
		return nil, err
	}
	return events.TextPayload{Text: string(b.ReadAll())}, nil
}

func decodeLook(b *Buffer) (interface{}, error) {
	colors, err := ReadColorCode(b)
	if err != nil {
		return nil, err
	}
	return events.LookPayload{Colors: colors, Name: string(b.ReadAll())}, nil
}

func decodeMarco(b *Buffer) (interface{}, error) {
	b.ReadWord()
	return events.RawPayload{Data: b.ReadAll()}, nil
}

func decodeDream(custom bool) decodeFunc {
	return func(b *Buffer) (interface{}, error) {
		b.ReadWord()
		at := b.Offset()
		pkg := b.ReadWord()
		if len(pkg) == 0 {
			return nil, b.fail("dream package", at, ErrMissingField)
		}
		p := events.DreamPayload{CustomPatches: custom, Package: pkg, Checksum: b.ReadWord()}
		if !b.EOF() {
			p.Modern = bytes.Equal(bytes.TrimSpace(b.ReadWord()), []byte(modernMarker))
		}
		return p, nil
	}
}

func decodePlacedText(b *Buffer) (interface{}, error) {
	pos, err := read95Fields(b, 2, 2)
	if err != nil {
		return nil, err
	}
	kind, err := readDecimal(b)
	if err != nil {
		return nil, err
	}
	owner := b.ReadWord()
	name := b.ReadWord()
	maturity, err := readDecimal(b)
	if err != nil {
		return nil, err
	}

	p := events.PlacedTextPayload{
		Position: events.Position{X: pos[0], Y: pos[1]},
		Kind:     kind,
		Owner:    owner,
		Name:     name,
		Maturity: maturity,
	}
	if !b.EOF() {
		gate, err := readDecimal(b)
		if err != nil {
			return nil, err
		}
		p.GateType = gate
		p.HasGateType = true
	}
	return p, nil
}

func decodePosition95(b *Buffer) (interface{}, error) {
	pos, err := read95Fields(b, 2, 2)
	if err != nil {
		return nil, err
	}
	return events.PositionPayload{Position: events.Position{X: pos[0], Y: pos[1]}}, nil
}

func decodeEffect(b *Buffer) (interface{}, error) {
	kind, err := b.ReadByte()
	if err != nil {
		return nil, err
	}
	pos, err := read95Fields(b, 2, 2)
	if err != nil {
		return nil, err
	}
	return events.EffectPayload{Kind: string([]byte{kind}), Position: events.Position{X: pos[0], Y: pos[1]}}, nil
}

func decodeSetColors(b *Buffer) (interface{}, error) {
	colors, err := ReadColorCode(b)
	if err != nil {
		return nil, err
	}
	return events.ColorsPayload{Colors: colors}, nil
}
