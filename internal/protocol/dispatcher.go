package protocol

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/furcwire-project/furcwire/internal/events"
)

// TileKind names the tile layer a tile-sync opcode updates.
type TileKind int

const (
	TileFloor TileKind = iota
	TileWall
	TileRegion
	TileEffect
	TileObject
	TileAmbient
	TileSoundEffect
)

var tileEvents = map[TileKind]events.EventType{
	TileFloor:       events.EventSetFloor,
	TileWall:        events.EventSetWall,
	TileRegion:      events.EventSetRegion,
	TileEffect:      events.EventSetEffect,
	TileObject:      events.EventSetObject,
	TileAmbient:     events.EventSetAmbient,
	TileSoundEffect: events.EventSetSoundEffect,
}

var tileKindNames = map[string]TileKind{
	"floor":        TileFloor,
	"wall":         TileWall,
	"region":       TileRegion,
	"effect":       TileEffect,
	"object":       TileObject,
	"ambient":      TileAmbient,
	"sound_effect": TileSoundEffect,
}

// ParseTileKind maps a config name such as "sound_effect" to its TileKind.
func ParseTileKind(name string) (TileKind, error) {
	k, ok := tileKindNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown tile kind %q", name)
	}
	return k, nil
}

// Dispatcher maps opcodes to decoders. Tables are built once from the
// catalogue; every message produces exactly one event.
type Dispatcher struct {
	mu        sync.RWMutex
	primary   [MaxOpcode + 1]*Entry
	extension [MaxOpcode + 1]*Entry
	logger    zerolog.Logger
}

// NewDispatcher builds the primary and extension tables.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		logger: log.With().Str("component", "dispatcher").Logger(),
	}
	for i := range catalogue {
		e := catalogue[i]
		if e.Sub == NoSubOpcode {
			d.primary[e.Opcode] = &e
		} else {
			d.extension[e.Sub] = &e
		}
	}
	return d
}

// BindTileSync routes a primary opcode to the tile-sync decoder for kind.
// The ambient and sound-effect layers have no fixed opcode and are bound
// this way. The extension marker cannot be rebound.
func (d *Dispatcher) BindTileSync(opcode int, kind TileKind) error {
	ev, ok := tileEvents[kind]
	if !ok {
		return fmt.Errorf("unknown tile kind %d", kind)
	}
	if opcode < 0 || opcode > MaxOpcode || opcode == OpExtension {
		return fmt.Errorf("opcode %d cannot carry tiles: %w", opcode, ErrFieldRange)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.primary[opcode] = &Entry{
		Opcode:   opcode,
		Sub:      NoSubOpcode,
		Mnemonic: "TileSync",
		Event:    ev,
		Layout:   tileLayout,
		Status:   StatusDecoded,
		decode:   decodeTiles,
	}
	d.logger.Debug().Int("opcode", opcode).Str("event", string(ev)).Msg("bound tile-sync opcode")
	return nil
}

// Entries returns the live tables, including runtime bindings.
func (d *Dispatcher) Entries() []Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []Entry
	for _, table := range [][MaxOpcode + 1]*Entry{d.primary, d.extension} {
		for _, e := range table {
			if e != nil {
				out = append(out, *e)
			}
		}
	}
	sortEntries(out)
	return out
}

// DispatchLine decodes one framed line with its terminator already removed.
func (d *Dispatcher) DispatchLine(line []byte) events.Event {
	if len(line) == 0 {
		return d.unhandled(-1, NoSubOpcode, nil)
	}
	return d.Dispatch(int(line[0])-32, line[1:])
}

// Dispatch decodes body for the given primary opcode.
func (d *Dispatcher) Dispatch(opcode int, body []byte) events.Event {
	if opcode < 0 || opcode > MaxOpcode {
		return d.unhandled(opcode, NoSubOpcode, body)
	}

	sub := NoSubOpcode
	d.mu.RLock()
	entry := d.primary[opcode]
	if opcode == OpExtension && len(body) > 0 {
		sub = int(body[0]) - 32
		body = body[1:]
		entry = nil
		if sub >= 0 && sub <= MaxOpcode {
			entry = d.extension[sub]
		}
	}
	d.mu.RUnlock()

	if entry == nil {
		return d.unhandled(opcode, sub, body)
	}
	return d.decode(entry, body)
}

func (d *Dispatcher) decode(e *Entry, body []byte) events.Event {
	ev := events.Event{Type: e.Event, Opcode: e.Opcode, SubOpcode: e.Sub}

	if e.Status == StatusUnsupported {
		d.logger.Debug().Str("trigger", e.Trigger()).Msg("unsupported opcode")
		ev.Payload = events.UnsupportedPayload{
			Opcode:    e.Opcode,
			SubOpcode: e.Sub,
			Body:      append([]byte(nil), body...),
			Reason:    e.Mnemonic + " is not decoded",
		}
		return ev
	}

	payload, err := e.decode(NewBuffer(body))
	if err != nil {
		d.logger.Warn().Err(err).Str("trigger", e.Trigger()).Str("mnemonic", e.Mnemonic).Msg("failed to decode message")
		return events.Event{
			Type:      events.EventDecodeError,
			Opcode:    e.Opcode,
			SubOpcode: e.Sub,
			Payload: events.DecodeErrorPayload{
				Opcode:    e.Opcode,
				SubOpcode: e.Sub,
				Body:      append([]byte(nil), body...),
				Err:       err,
				Message:   err.Error(),
			},
		}
	}

	ev.Payload = payload
	return ev
}

func (d *Dispatcher) unhandled(opcode, sub int, body []byte) events.Event {
	d.logger.Debug().Int("opcode", opcode).Int("sub_opcode", sub).Int("len", len(body)).Msg("unhandled opcode")
	return events.Event{
		Type:      events.EventUnhandled,
		Opcode:    opcode,
		SubOpcode: sub,
		Payload: events.UnhandledPayload{
			Opcode:    opcode,
			SubOpcode: sub,
			Body:      append([]byte(nil), body...),
		},
	}
}
