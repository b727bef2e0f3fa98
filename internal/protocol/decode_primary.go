package protocol

import (
	"github.com/furcwire-project/furcwire/internal/events"
)

const (
	// tileGrid is the nominal coordinate range; larger raw values carry a
	// repeat count in their overflow.
	tileGrid = 1000
	// tileRepeatStride weights the x overflow in the repeat count.
	tileRepeatStride = 48
	tileEntrySize    = 6

	variableRepeatMarker = 0x4000
	dsLineExtended       = 8000
)

func decodeEmpty(*Buffer) (interface{}, error) {
	return nil, nil
}

func decodeLogin(success bool) decodeFunc {
	return func(*Buffer) (interface{}, error) {
		return events.LoginPayload{Success: success}, nil
	}
}

func decodeSuspend(suspended bool) decodeFunc {
	return func(*Buffer) (interface{}, error) {
		return events.SuspendPayload{Suspended: suspended}, nil
	}
}

func decodeNumber95(width int) decodeFunc {
	return func(b *Buffer) (interface{}, error) {
		v, err := b.Read95(width)
		if err != nil {
			return nil, err
		}
		return events.NumberPayload{Value: v}, nil
	}
}

func decodeNumber220(width int) decodeFunc {
	return func(b *Buffer) (interface{}, error) {
		v, err := b.Read220(width)
		if err != nil {
			return nil, err
		}
		return events.NumberPayload{Value: v}, nil
	}
}

func decodeMessage(b *Buffer) (interface{}, error) {
	return events.MessagePayload{Text: b.ReadAll()}, nil
}

func decodeText(b *Buffer) (interface{}, error) {
	return events.TextPayload{Text: string(b.ReadAll())}, nil
}

func decodeRaw(b *Buffer) (interface{}, error) {
	return events.RawPayload{Data: b.ReadAll()}, nil
}

func decodeRemoveAvatar(b *Buffer) (interface{}, error) {
	uid, err := b.Read220(4)
	if err != nil {
		return nil, err
	}
	return events.RemoveAvatarPayload{UserID: uid}, nil
}

// read220Fields reads consecutive base-220 numerals of the given widths.
func read220Fields(b *Buffer, widths ...int) ([]int, error) {
	out := make([]int, len(widths))
	for i, w := range widths {
		v, err := b.Read220(w)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func read95Fields(b *Buffer, widths ...int) ([]int, error) {
	out := make([]int, len(widths))
	for i, w := range widths {
		v, err := b.Read95(w)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func decodeAnimateAvatar(b *Buffer) (interface{}, error) {
	var p events.AnimateAvatarPayload
	for b.Remaining() >= 10 {
		f, err := read220Fields(b, 4, 2, 2, 1, 1)
		if err != nil {
			return nil, err
		}
		p.Frames = append(p.Frames, events.AvatarFrame{
			UserID:   f[0],
			Position: events.Position{X: f[1], Y: f[2]},
			Unk1:     f[3],
			Unk2:     f[4],
		})
	}
	return p, nil
}

// decodeSyncVariables reads a starting index followed by values. Indices
// advance by three per value. The marker value repeats the previous value
// count+1 times.
func decodeSyncVariables(b *Buffer) (interface{}, error) {
	var p events.SyncVariablesPayload
	offset, err := b.Read95(2)
	if err != nil {
		return nil, err
	}

	last := 0
	for b.Remaining() >= 3 {
		v, err := b.Read95(3)
		if err != nil {
			return nil, err
		}
		if v != variableRepeatMarker {
			p.Variables = append(p.Variables, events.VariableSync{Index: offset, Value: v})
			last = v
			offset += 3
			continue
		}

		count, err := b.Read95(3)
		if err != nil {
			return nil, err
		}
		for i := 0; i <= count; i++ {
			p.Variables = append(p.Variables, events.VariableSync{Index: offset, Value: last})
			offset += 3
		}
	}
	return p, nil
}

// DecodeTileBatch applies the run-length convention to one raw triple.
func DecodeTileBatch(x, y, id int) events.TileBatch {
	return events.TileBatch{
		Position: events.Position{X: x % tileGrid, Y: y % tileGrid},
		ID:       id,
		Repeats:  tileRepeatStride*(x/tileGrid) + y/tileGrid,
	}
}

func decodeTiles(b *Buffer) (interface{}, error) {
	var p events.TileSyncPayload
	for b.Remaining() >= tileEntrySize {
		f, err := read220Fields(b, 2, 2, 2)
		if err != nil {
			return nil, err
		}
		p.Batches = append(p.Batches, DecodeTileBatch(f[0], f[1], f[2]))
	}
	return p, nil
}

func decodeSetVariables(b *Buffer) (interface{}, error) {
	p := events.SetVariablesPayload{Values: []int{}}
	for b.Remaining() >= 3 {
		v, err := b.Read95(3)
		if err != nil {
			return nil, err
		}
		p.Values = append(p.Values, v)
	}
	return p, nil
}

func decodeDSEvent(self bool) decodeFunc {
	return func(b *Buffer) (interface{}, error) {
		f, err := read95Fields(b, 2, 2, 2, 2, 2)
		if err != nil {
			return nil, err
		}
		line := f[4]
		if line > dsLineExtended {
			high, err := b.Read95(2)
			if err != nil {
				return nil, err
			}
			line = line - dsLineExtended + high*1000
		}
		trig, err := read95Fields(b, 2, 2)
		if err != nil {
			return nil, err
		}
		return events.DSEventPayload{
			Self:      self,
			From:      events.Position{X: f[0], Y: f[1]},
			To:        events.Position{X: f[2], Y: f[3]},
			Line:      line,
			Triggerer: events.Position{X: trig[0], Y: trig[1]},
		}, nil
	}
}

func decodeDSEventAddon(b *Buffer) (interface{}, error) {
	f, err := read95Fields(b, 1, 5, 3, 1, 3, 3, 2, 6, 2, 3, 2, 2, 2, 1, 1, 1, 1, 1, 2, 2, 2)
	if err != nil {
		return nil, err
	}
	return events.DSEventAddonPayload{
		MoveFlag:         f[0],
		RandSeed:         f[1],
		SaidNum:          f[2],
		FacingDir:        f[3],
		EntryCode:        f[4],
		ObjPaws:          f[5],
		FurreCount:       f[6],
		UserID:           f[7],
		DSButton:         f[8],
		DreamCookies:     f[9],
		TriggererCookies: f[10],
		PortalOpen:       events.Position{X: f[11], Y: f[12]},
		Second:           f[13],
		Minute:           f[14],
		Hour:             f[15],
		Day:              f[16],
		Month:            f[17],
		Year:             f[18],
		PortalClose:      events.Position{X: f[19], Y: f[20]},
	}, nil
}

func decodeRegionFlags(b *Buffer) (interface{}, error) {
	var p events.RegionFlagsPayload
	for b.Remaining() >= 8 {
		f, err := read220Fields(b, 3, 3, 2)
		if err != nil {
			return nil, err
		}
		p.Runs = append(p.Runs, events.RegionFlagRun{Start: f[0], Flag: f[1], Count: f[2]})
	}
	return p, nil
}

// spawnMinimum is the smallest possible avatar record: fixed fields, an
// empty name and a one-byte colour code header.
const spawnMinimum = 18

func decodeSpawnAvatar(b *Buffer) (interface{}, error) {
	var p events.SpawnAvatarPayload
	for b.Remaining() >= spawnMinimum {
		head, err := read220Fields(b, 4, 2, 2, 2)
		if err != nil {
			return nil, err
		}
		name, err := b.Read220String(1)
		if err != nil {
			return nil, err
		}
		colors, err := ReadColorCode(b)
		if err != nil {
			return nil, err
		}
		tail, err := read220Fields(b, 1, 4, 1)
		if err != nil {
			return nil, err
		}
		p.Avatars = append(p.Avatars, events.SpawnedAvatar{
			UserID:   head[0],
			Position: events.Position{X: head[1], Y: head[2]},
			Shape:    head[3],
			Name:     name,
			Colors:   colors,
			Flags:    tail[0],
			AFK:      tail[1],
			Scale:    tail[2],
		})
	}
	return p, nil
}

func decodeMoveCamera(b *Buffer) (interface{}, error) {
	to, err := read95Fields(b, 2, 2)
	if err != nil {
		return nil, err
	}
	p := events.MoveCameraPayload{To: events.Position{X: to[0], Y: to[1]}}
	if b.Remaining() >= 4 {
		from, err := read95Fields(b, 2, 2)
		if err != nil {
			return nil, err
		}
		p.From = events.Position{X: from[0], Y: from[1]}
		p.HasFrom = true
	}
	return p, nil
}

func decodeMoveAvatar(b *Buffer) (interface{}, error) {
	f, err := read220Fields(b, 4, 2, 2, 1, 1)
	if err != nil {
		return nil, err
	}
	return events.MoveAvatarPayload{
		UserID:   f[0],
		Position: events.Position{X: f[1], Y: f[2]},
		Unk1:     f[3],
		Unk2:     f[4],
	}, nil
}

func decodeAvatarColors(b *Buffer) (interface{}, error) {
	f, err := read220Fields(b, 4, 1, 1)
	if err != nil {
		return nil, err
	}
	colors, err := ReadColorCode(b)
	if err != nil {
		return nil, err
	}
	return events.AvatarColorsPayload{UserID: f[0], Direction: f[1], Unk1: f[2], Colors: colors}, nil
}

func decodeHideAvatar(b *Buffer) (interface{}, error) {
	f, err := read220Fields(b, 4, 2, 2)
	if err != nil {
		return nil, err
	}
	return events.HideAvatarPayload{UserID: f[0], Position: events.Position{X: f[1], Y: f[2]}}, nil
}
