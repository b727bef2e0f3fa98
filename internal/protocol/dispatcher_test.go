package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furcwire-project/furcwire/internal/events"
)

// extLine builds a "]" line for the given extension sub-opcode.
func extLine(sub int, body []byte) []byte {
	return append([]byte{OpcodeChar(OpExtension), OpcodeChar(sub)}, body...)
}

func mustBuild(t *testing.T, b *Builder) []byte {
	t.Helper()
	out, err := b.Build()
	require.NoError(t, err)
	return out
}

func TestDispatchTileSync(t *testing.T) {
	d := NewDispatcher()
	body := []byte{160, 39, 123, 253, 42, 35}

	ev := d.Dispatch(OpSetFloor, body)
	require.Equal(t, events.EventSetFloor, ev.Type)
	assert.Equal(t, OpSetFloor, ev.Opcode)
	assert.Equal(t, NoSubOpcode, ev.SubOpcode)

	p, ok := ev.Payload.(events.TileSyncPayload)
	require.True(t, ok)
	require.Len(t, p.Batches, 1)
	assert.Equal(t, events.TileBatch{Position: events.Position{X: 5, Y: 48}, ID: 7, Repeats: 96}, p.Batches[0])

	// a partial trailing entry is ignored
	ev = d.Dispatch(OpSetWall, append(body, 35, 35, 35))
	require.Equal(t, events.EventSetWall, ev.Type)
	assert.Len(t, ev.Payload.(events.TileSyncPayload).Batches, 1)
}

func TestDispatchUnhandled(t *testing.T) {
	d := NewDispatcher()

	ev := d.Dispatch(2, []byte("abc"))
	require.Equal(t, events.EventUnhandled, ev.Type)
	assert.Equal(t, events.UnhandledPayload{Opcode: 2, SubOpcode: NoSubOpcode, Body: []byte("abc")}, ev.Payload)

	ev = d.DispatchLine([]byte{0x10, 'x'})
	require.Equal(t, events.EventUnhandled, ev.Type)
	assert.Equal(t, -16, ev.Opcode)

	ev = d.DispatchLine(extLine(2, []byte("zz")))
	require.Equal(t, events.EventUnhandled, ev.Type)
	assert.Equal(t, OpExtension, ev.Opcode)
	assert.Equal(t, 2, ev.SubOpcode)
	assert.Equal(t, []byte("zz"), ev.Payload.(events.UnhandledPayload).Body)
}

func TestDispatchEmptyExtension(t *testing.T) {
	ev := NewDispatcher().Dispatch(OpExtension, nil)
	require.Equal(t, events.EventUnhandled, ev.Type)
	assert.Equal(t, OpExtension, ev.Opcode)
	assert.Equal(t, NoSubOpcode, ev.SubOpcode)
}

func TestDispatchLoginOutcomes(t *testing.T) {
	d := NewDispatcher()

	ev := d.DispatchLine([]byte("&"))
	require.Equal(t, events.EventLogin, ev.Type)
	assert.Equal(t, events.LoginPayload{Success: true}, ev.Payload)

	ev = d.DispatchLine([]byte("]]"))
	require.Equal(t, events.EventLogin, ev.Type)
	assert.Equal(t, OpExtension, ev.Opcode)
	assert.Equal(t, ExtLoginFailed, ev.SubOpcode)
	assert.Equal(t, events.LoginPayload{Success: false}, ev.Payload)
}

func TestDispatchSuspendResume(t *testing.T) {
	d := NewDispatcher()
	assert.Equal(t, events.SuspendPayload{Suspended: true}, d.Dispatch(OpSuspend, nil).Payload)
	assert.Equal(t, events.SuspendPayload{Suspended: false}, d.Dispatch(OpResume, nil).Payload)
}

func TestDispatchSyncVariables(t *testing.T) {
	body := mustBuild(t, NewBuilder().
		Write95(3, 2).
		Write95(7, 3).
		Write95(variableRepeatMarker, 3).
		Write95(1, 3).
		Write95(9, 3))

	ev := NewDispatcher().Dispatch(OpSyncVariables, body)
	require.Equal(t, events.EventSyncVariables, ev.Type)
	assert.Equal(t, []events.VariableSync{
		{Index: 3, Value: 7},
		{Index: 6, Value: 7},
		{Index: 9, Value: 7},
		{Index: 12, Value: 9},
	}, ev.Payload.(events.SyncVariablesPayload).Variables)
}

func TestDispatchDialog(t *testing.T) {
	d := NewDispatcher()

	ev := d.DispatchLine(extLine(ExtDialog, []byte("xxxx 2 Hello there")))
	require.Equal(t, events.EventDialog, ev.Type)
	assert.Equal(t, events.DialogPayload{ID: -1, Kind: 2, Text: "Hello there"}, ev.Payload)

	ev = d.DispatchLine(extLine(ExtDialog, []byte("12 3 hi")))
	assert.Equal(t, events.DialogPayload{ID: 12, Kind: 3, Text: "hi"}, ev.Payload)

	ev = d.DispatchLine(extLine(ExtDialog, []byte("12")))
	require.Equal(t, events.EventDecodeError, ev.Type)
	p := ev.Payload.(events.DecodeErrorPayload)
	assert.ErrorIs(t, p.Err, ErrMissingField)
	assert.Equal(t, ExtDialog, p.SubOpcode)
	assert.Equal(t, []byte("12"), p.Body)
	assert.NotEmpty(t, p.Message)
}

func TestDispatchDream(t *testing.T) {
	d := NewDispatcher()

	ev := d.DispatchLine(extLine(ExtDreamCustom, []byte("0 dreampkg 1234 modern")))
	require.Equal(t, events.EventDream, ev.Type)
	assert.Equal(t, events.DreamPayload{
		CustomPatches: true,
		Package:       []byte("dreampkg"),
		Checksum:      []byte("1234"),
		Modern:        true,
	}, ev.Payload)

	ev = d.DispatchLine(extLine(ExtDreamDefault, []byte("0 pkg 99")))
	require.Equal(t, events.EventDream, ev.Type)
	p := ev.Payload.(events.DreamPayload)
	assert.False(t, p.CustomPatches)
	assert.False(t, p.Modern)
	assert.Equal(t, []byte("99"), p.Checksum)

	ev = d.DispatchLine(extLine(ExtDreamCustom, []byte("0")))
	require.Equal(t, events.EventDecodeError, ev.Type)
	assert.ErrorIs(t, ev.Payload.(events.DecodeErrorPayload).Err, ErrMissingField)
}

func TestDispatchPlacedText(t *testing.T) {
	d := NewDispatcher()
	pos := mustBuild(t, NewBuilder().Write95(10, 2).Write95(20, 2))

	ev := d.DispatchLine(extLine(ExtText, append(append([]byte{}, pos...), "1 owner name 0"...)))
	require.Equal(t, events.EventText, ev.Type)
	assert.Equal(t, events.PlacedTextPayload{
		Position: events.Position{X: 10, Y: 20},
		Kind:     1,
		Owner:    []byte("owner"),
		Name:     []byte("name"),
	}, ev.Payload)

	ev = d.DispatchLine(extLine(ExtText, append(append([]byte{}, pos...), "1 owner name 2 3"...)))
	p := ev.Payload.(events.PlacedTextPayload)
	assert.Equal(t, 2, p.Maturity)
	assert.True(t, p.HasGateType)
	assert.Equal(t, 3, p.GateType)
}

func TestDispatchOffsetAvatarAndEffect(t *testing.T) {
	d := NewDispatcher()

	body := mustBuild(t, NewBuilder().Write220(5, 4).Write220(offsetOrigin+3, 2).Write220(offsetOrigin-2, 2))
	ev := d.DispatchLine(extLine(ExtOffsetAvatar, body))
	require.Equal(t, events.EventOffsetAvatar, ev.Type)
	assert.Equal(t, events.OffsetAvatarPayload{UserID: 5, X: 3, Y: -2}, ev.Payload)

	body = mustBuild(t, NewBuilder().WriteChar('a').Write95(10, 2).Write95(20, 2))
	ev = d.DispatchLine(extLine(ExtEffect, body))
	require.Equal(t, events.EventEffect, ev.Type)
	assert.Equal(t, events.EffectPayload{Kind: "a", Position: events.Position{X: 10, Y: 20}}, ev.Payload)
}

func TestDispatchUnsupported(t *testing.T) {
	d := NewDispatcher()

	ev := d.Dispatch(OpUnknownE, []byte("abc"))
	require.Equal(t, events.EventUnsupported, ev.Type)
	assert.Equal(t, events.UnsupportedPayload{
		Opcode:    OpUnknownE,
		SubOpcode: NoSubOpcode,
		Body:      []byte("abc"),
		Reason:    "UnknownE is not decoded",
	}, ev.Payload)

	ev = d.DispatchLine(extLine(ExtUnknownN, nil))
	require.Equal(t, events.EventUnsupported, ev.Type)
	assert.Equal(t, ExtUnknownN, ev.SubOpcode)
}

func TestDispatchDecodeError(t *testing.T) {
	ev := NewDispatcher().Dispatch(OpRemoveAvatar, []byte{35})
	require.Equal(t, events.EventDecodeError, ev.Type)
	p := ev.Payload.(events.DecodeErrorPayload)
	assert.ErrorIs(t, p.Err, ErrUnderflow)
	assert.Equal(t, OpRemoveAvatar, p.Opcode)
}

func TestDispatchEmptyPayload(t *testing.T) {
	ev := NewDispatcher().DispatchLine(extLine(ExtAdultWarning, nil))
	assert.Equal(t, events.EventAdultWarning, ev.Type)
	assert.Nil(t, ev.Payload)
}

func TestDispatchAlwaysProducesOneEvent(t *testing.T) {
	d := NewDispatcher()
	bodies := [][]byte{
		nil,
		[]byte("x"),
		[]byte("~~~~~~~~~~~~"),
		{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		{0x23, 0x23, 0x23, 0x23, 0x23, 0x23, 0x23, 0x23, 0x23, 0x23, 0x23},
	}
	for op := 0; op <= MaxOpcode; op++ {
		for _, body := range bodies {
			ev := d.Dispatch(op, body)
			require.NotEmpty(t, ev.Type, "opcode %d body %q", op, body)
			require.Equal(t, op, ev.Opcode)
		}
	}
	for sub := 0; sub <= MaxOpcode; sub++ {
		for _, body := range bodies {
			ev := d.DispatchLine(extLine(sub, body))
			require.NotEmpty(t, ev.Type, "sub %d body %q", sub, body)
			require.Equal(t, sub, ev.SubOpcode)
		}
	}
}

func TestBindTileSync(t *testing.T) {
	d := NewDispatcher()
	require.NoError(t, d.BindTileSync(40, TileAmbient))

	ev := d.Dispatch(40, []byte{160, 39, 123, 253, 42, 35})
	require.Equal(t, events.EventSetAmbient, ev.Type)
	assert.Len(t, ev.Payload.(events.TileSyncPayload).Batches, 1)

	var bound bool
	for _, e := range d.Entries() {
		if e.Opcode == 40 && e.Sub == NoSubOpcode {
			bound = e.Mnemonic == "TileSync" && e.Event == events.EventSetAmbient
		}
	}
	assert.True(t, bound)

	assert.ErrorIs(t, d.BindTileSync(OpExtension, TileFloor), ErrFieldRange)
	assert.ErrorIs(t, d.BindTileSync(MaxOpcode+1, TileFloor), ErrFieldRange)
	assert.Error(t, d.BindTileSync(41, TileKind(99)))
}

func TestParseTileKind(t *testing.T) {
	k, err := ParseTileKind("sound_effect")
	require.NoError(t, err)
	assert.Equal(t, TileSoundEffect, k)

	_, err = ParseTileKind("ceiling")
	assert.Error(t, err)
}

func TestCatalogueConsistency(t *testing.T) {
	seen := map[[2]int]bool{}
	entries := Catalogue()
	for i, e := range entries {
		key := [2]int{e.Opcode, e.Sub}
		assert.False(t, seen[key], "duplicate entry %s", e.Trigger())
		seen[key] = true

		if i > 0 {
			prev := entries[i-1]
			assert.True(t, prev.Opcode < e.Opcode || (prev.Opcode == e.Opcode && prev.Sub < e.Sub), "entries out of order at %s", e.Trigger())
		}

		switch e.Status {
		case StatusUnsupported:
			assert.Equal(t, events.EventUnsupported, e.Event, e.Trigger())
		default:
			assert.NotNil(t, e.decode, e.Trigger())
			assert.NotEmpty(t, e.Layout, e.Trigger())
		}
	}
	assert.Equal(t, "]#", Entry{Opcode: OpExtension, Sub: ExtDialog}.Trigger())
}
