package protocol

import (
	"sort"

	"github.com/furcwire-project/furcwire/internal/events"
)

// Status describes how far a catalogue entry is decoded.
type Status int

const (
	// StatusDecoded entries produce a typed payload.
	StatusDecoded Status = iota
	// StatusOpaque entries are recognised but carry the raw body.
	StatusOpaque
	// StatusUnsupported entries are deprecated or were never decoded and
	// produce an EventUnsupported no-op event.
	StatusUnsupported
)

func (s Status) String() string {
	switch s {
	case StatusDecoded:
		return "decoded"
	case StatusOpaque:
		return "opaque"
	case StatusUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// decodeFunc turns a message body into an event payload.
type decodeFunc func(b *Buffer) (interface{}, error)

// Entry is one row of the message catalogue. Layout documents the field
// encodings in order, b95(n) and b220(n) being n-digit numerals.
type Entry struct {
	Opcode   int              `json:"opcode"`
	Sub      int              `json:"sub_opcode"`
	Mnemonic string           `json:"mnemonic"`
	Event    events.EventType `json:"event"`
	Layout   string           `json:"layout"`
	Status   Status           `json:"status"`

	decode decodeFunc
}

// Trigger returns the printable prefix of the message, "]#" for an
// extension entry.
func (e Entry) Trigger() string {
	if e.Sub == NoSubOpcode {
		return string(OpcodeChar(e.Opcode))
	}
	return string([]byte{OpcodeChar(e.Opcode), OpcodeChar(e.Sub)})
}

const tileLayout = "repeat{b220(2) x, b220(2) y, b220(2) id}; repeats=48*(x/1000)+y/1000"

func primary(op int, mnemonic string, ev events.EventType, layout string, fn decodeFunc) Entry {
	return Entry{Opcode: op, Sub: NoSubOpcode, Mnemonic: mnemonic, Event: ev, Layout: layout, Status: StatusDecoded, decode: fn}
}

func extension(sub int, mnemonic string, ev events.EventType, layout string, fn decodeFunc) Entry {
	return Entry{Opcode: OpExtension, Sub: sub, Mnemonic: mnemonic, Event: ev, Layout: layout, Status: StatusDecoded, decode: fn}
}

func opaque(e Entry) Entry {
	e.Status = StatusOpaque
	return e
}

func unsupported(op, sub int, mnemonic string) Entry {
	return Entry{Opcode: op, Sub: sub, Mnemonic: mnemonic, Event: events.EventUnsupported, Layout: "not decoded", Status: StatusUnsupported}
}

// catalogue is the canonical message table. Where two historical decoders
// claim the same number the most recently attested one is listed here.
var catalogue = []Entry{
	primary(OpSound, "Sound", events.EventSound, "b95(2) sound", decodeNumber95(2)),
	primary(OpButlerFeet, "ButlerFeet", events.EventButlerFeet, "b95(2) object", decodeNumber95(2)),
	primary(OpLogin, "Login", events.EventLogin, "empty", decodeLogin(true)),
	primary(OpMessage, "Message", events.EventMessage, "text", decodeMessage),
	primary(OpRemoveAvatar, "RemoveAvatar", events.EventRemoveAvatar, "b220(4) uid", decodeRemoveAvatar),
	primary(OpAnimateAvatar, "AnimateAvatar", events.EventAnimateAvatar, "repeat{b220(4) uid, b220(2) x, b220(2) y, b220(1), b220(1)}", decodeAnimateAvatar),
	primary(OpSyncVariables, "SyncVariables", events.EventSyncVariables, "b95(2) offset, repeat{b95(3) value | 0x4000 b95(3) count}", decodeSyncVariables),
	primary(OpSetFloor, "SetFloor", events.EventSetFloor, tileLayout, decodeTiles),
	primary(OpSetWall, "SetWall", events.EventSetWall, tileLayout, decodeTiles),
	primary(OpSetVariables, "SetVariables", events.EventSetVariables, "repeat{b95(3) value}", decodeSetVariables),
	primary(OpSetRegion, "SetRegion", events.EventSetRegion, tileLayout, decodeTiles),
	primary(OpSetEffect, "SetEffect", events.EventSetEffect, tileLayout, decodeTiles),
	primary(OpDSEventSelf, "DSEventSelf", events.EventDSEvent, "b95(2)x4 from/to, b95(2) line [b95(2) high], b95(2)x2 triggerer", decodeDSEvent(true)),
	primary(OpDSEventOther, "DSEventOther", events.EventDSEvent, "b95(2)x4 from/to, b95(2) line [b95(2) high], b95(2)x2 triggerer", decodeDSEvent(false)),
	primary(OpDSEventAddon, "DSEventAddon", events.EventDSEventAddon, "21 b95 fields", decodeDSEventAddon),
	primary(OpRegionFlags, "RegionFlags", events.EventRegionFlags, "repeat{b220(3) start, b220(3) flag, b220(2) count}", decodeRegionFlags),
	primary(OpLoadMap, "LoadMap", events.EventLoadMap, "text map name", decodeText),
	primary(OpSpawnAvatar, "SpawnAvatar", events.EventSpawnAvatar, "repeat{b220(4) uid, b220(2) x, b220(2) y, b220(2) shape, b220(1)-prefixed name, colour code (u/v/w provisional), b220(1) flags, b220(4) afk, b220(1) scale}", decodeSpawnAvatar),
	primary(OpResume, "Resume", events.EventSuspend, "empty", decodeSuspend(false)),
	primary(OpSetObject, "SetObject", events.EventSetObject, tileLayout, decodeTiles),
	primary(OpMoveCamera, "MoveCamera", events.EventMoveCamera, "b95(2) x, b95(2) y, [b95(2) from x, b95(2) from y]", decodeMoveCamera),
	primary(OpMoveAvatar, "MoveAvatar", events.EventMoveAvatar, "b220(4) uid, b220(2) x, b220(2) y, b220(1), b220(1)", decodeMoveAvatar),
	primary(OpSetAvatarColors, "SetAvatarColors", events.EventSetAvatarColors, "b220(4) uid, b220(1) direction, b220(1), colour code (u/v/w provisional)", decodeAvatarColors),
	primary(OpHideAvatar, "HideAvatar", events.EventHideAvatar, "b220(4) uid, b220(2) x, b220(2) y", decodeHideAvatar),
	primary(OpDSTriggerer, "DSTriggerer", events.EventDSTriggerer, "b220(4) uid", decodeNumber220(4)),
	primary(OpServerDisconnect, "ServerDisconnect", events.EventServerDisconnect, "text reason", decodeText),
	primary(OpAuthenticate, "Authenticate", events.EventAuthenticate, "text", decodeText),
	primary(OpButlerPaws, "ButlerPaws", events.EventButlerPaws, "b95(2) object", decodeNumber95(2)),
	unsupported(OpUnknownE, NoSubOpcode, "UnknownE"),
	unsupported(OpUnknownF, NoSubOpcode, "UnknownF"),
	primary(OpSuspend, "Suspend", events.EventSuspend, "empty", decodeSuspend(true)),

	extension(ExtAdultWarning, "AdultWarning", events.EventAdultWarning, "empty", decodeEmpty),
	extension(ExtDialog, "Dialog", events.EventDialog, "word id|xxxx, word kind, text", decodeDialog),
	extension(ExtOpenURL, "OpenURL", events.EventOpenURL, "url", decodeOpenURL(false)),
	extension(ExtOnlineStatus, "OnlineStatus", events.EventOnlineStatus, "char 0|1, name", decodeOnlineStatus),
	extension(ExtPortrait, "Portrait", events.EventPortrait, "word id, text name", decodePortrait),
	extension(ExtShowURL, "ShowURL", events.EventOpenURL, "url", decodeOpenURL(true)),
	opaque(extension(ExtPrefix, "Prefix", events.EventPrefix, "raw", decodeRaw)),
	extension(ExtEnableUserList, "EnableUserList", events.EventEnableUserList, "char 0=list 1=count", decodeEnableUserList),
	unsupported(OpExtension, ExtPounce, "Pounce"),
	opaque(extension(ExtGuildTagA, "GuildTagA", events.EventGuildTag, "raw", decodeGuildTag('A'))),
	extension(ExtSetUserID, "SetUserID", events.EventSetUserID, "decimal", decodeDecimal),
	extension(ExtBookmark, "Bookmark", events.EventBookmark, "char 0=temporary 1=user, fdl", decodeBookmark),
	extension(ExtLiveEditJoin, "LiveEditJoin", events.EventLiveEdit, "empty", decodeLiveEdit(true, false)),
	extension(ExtLiveEditOwner, "LiveEditOwner", events.EventLiveEdit, "empty", decodeLiveEdit(true, true)),
	extension(ExtLiveEditEnd, "LiveEditEnd", events.EventLiveEdit, "empty", decodeLiveEdit(false, false)),
	extension(ExtDisableTab, "DisableTab", events.EventDisableTab, "char 0=enable 1=disable", decodeFlag),
	extension(ExtOffsetAvatar, "OffsetAvatar", events.EventOffsetAvatar, "b220(4) uid, b220(2) x+256, b220(2) y+256", decodeOffsetAvatar),
	opaque(extension(ExtParticles, "Particles", events.EventParticles, "raw particle stream", decodeRaw)),
	opaque(extension(ExtWebMap, "WebMap", events.EventWebMap, "raw", decodeRaw)),
	opaque(extension(ExtDynamicAvatars, "DynamicAvatars", events.EventDynamicAvatars, "raw", decodeRaw)),
	unsupported(OpExtension, ExtUnknownN, "UnknownN"),
	extension(ExtGloam, "Gloam", events.EventGloam, "repeat{b220(4) uid, b220(2) gloam}", decodeGloam),
	opaque(extension(ExtGuildTagP, "GuildTagP", events.EventGuildTag, "raw", decodeGuildTag('P'))),
	extension(ExtRegionSettings, "RegionSettings", events.EventRegionSettings, "b220(2)x9, b220(1) bottom, b220(1) top, b220(2)x4, [b220(1) n, n{b220(2), b220(1)}]", decodeRegionSettings),
	extension(ExtLoginFailed, "LoginFailed", events.EventLogin, "empty", decodeLogin(false)),
	extension(ExtKitterDust, "KitterDust", events.EventKitterDust, "repeat{b220(4) uid, b220(1) value}", decodeKitterDust),
	extension(ExtUploadReady, "UploadReady", events.EventUploadReady, "empty", decodeEmpty),
	extension(ExtMarbled, "Marbled", events.EventMarbled, "char c, text", decodeMarbled),
	extension(ExtLook, "Look", events.EventLook, "colour code (u/v/w provisional), text name", decodeLook),
	extension(ExtExecute, "Execute", events.EventExecute, "text", decodeText),
	extension(ExtMusic, "Music", events.EventMusic, "b95(2) track", decodeNumber95(2)),
	unsupported(OpExtension, ExtUnknownK, "UnknownK"),
	opaque(extension(ExtMarco, "Marco", events.EventMarco, "word, raw", decodeMarco)),
	unsupported(OpExtension, ExtChannelInfo, "ChannelInfo"),
	extension(ExtDreamOwner, "DreamOwner", events.EventDreamOwner, "text", decodeText),
	extension(ExtDreamCustom, "DreamCustom", events.EventDream, "word, word package, word checksum, [modern]", decodeDream(true)),
	extension(ExtDreamDefault, "DreamDefault", events.EventDream, "word, word package, word checksum, [modern]", decodeDream(false)),
	extension(ExtText, "Text", events.EventText, "b95(2) x, b95(2) y, word kind, word owner, word name, word maturity, [word gate]", decodePlacedText),
	extension(ExtClearText, "ClearText", events.EventClearText, "b95(2) x, b95(2) y", decodePosition95),
	extension(ExtUploadReadyAlt, "UploadReadyAlt", events.EventUploadReady, "empty", decodeEmpty),
	extension(ExtEffect, "Effect", events.EventEffect, "char kind, b95(2) x, b95(2) y", decodeEffect),
	extension(ExtVersionRequest, "VersionRequest", events.EventVersionRequest, "empty", decodeEmpty),
	extension(ExtUpdate, "Update", events.EventUpdate, "empty", decodeEmpty),
	extension(ExtUID, "UID", events.EventUID, "decimal", decodeDecimal),
	extension(ExtSessionID, "SessionID", events.EventSessionID, "decimal", decodeDecimal),
	extension(ExtFlipScreen, "FlipScreen", events.EventFlipScreen, "char 0|1", decodeFlag),
	extension(ExtSetColors, "SetColors", events.EventSetColors, "colour code (u/v/w provisional)", decodeSetColors),
}

// Catalogue returns a copy of the built-in message table ordered by opcode
// and sub-opcode.
func Catalogue() []Entry {
	out := make([]Entry, len(catalogue))
	copy(out, catalogue)
	sortEntries(out)
	return out
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Opcode != entries[j].Opcode {
			return entries[i].Opcode < entries[j].Opcode
		}
		return entries[i].Sub < entries[j].Sub
	})
}
