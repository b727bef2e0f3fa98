package events

// Position is a tile coordinate on the dream grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// TileBatch is one entry of a tile-sync message. Repeats is the run length
// carried in the overflow of the raw coordinates.
type TileBatch struct {
	Position Position `json:"position"`
	ID       int      `json:"id"`
	Repeats  int      `json:"repeats"`
}

// ColorCode is an avatar colour code. Version is the raw leading byte; the
// remaining fields are filled according to that version's layout and are
// zero when the layout does not carry them.
type ColorCode struct {
	Version byte   `json:"version"`
	Colors  []int  `json:"colors"`
	Gender  int    `json:"gender"`
	Species int    `json:"species"`
	Digo    int    `json:"digo"`
	Mask    int    `json:"mask,omitempty"`
	Raw     []byte `json:"raw"`
}

// RawPayload carries an undecoded body for messages whose layout is known
// only as opaque bytes.
type RawPayload struct {
	Data []byte `json:"data"`
}

// TextPayload carries a body that is a single text value.
type TextPayload struct {
	Text string `json:"text"`
}

// NumberPayload carries a single decoded integer.
type NumberPayload struct {
	Value int `json:"value"`
}

// FlagPayload carries a single boolean.
type FlagPayload struct {
	Enabled bool `json:"enabled"`
}

// MOTDPayload is the text received before the handshake sentinel.
type MOTDPayload struct {
	Text string `json:"text"`
}

// UnhandledPayload is produced for opcodes absent from the dispatch tables.
type UnhandledPayload struct {
	Opcode    int    `json:"opcode"`
	SubOpcode int    `json:"sub_opcode"`
	Body      []byte `json:"body"`
}

// UnsupportedPayload is produced for opcodes recognised as deprecated or
// never fully decoded.
type UnsupportedPayload struct {
	Opcode    int    `json:"opcode"`
	SubOpcode int    `json:"sub_opcode"`
	Body      []byte `json:"body"`
	Reason    string `json:"reason"`
}

// DecodeErrorPayload is produced when a known opcode's body is malformed.
type DecodeErrorPayload struct {
	Opcode    int    `json:"opcode"`
	SubOpcode int    `json:"sub_opcode"`
	Body      []byte `json:"body"`
	Err       error  `json:"-"`
	Message   string `json:"error"`
}

// LoginPayload reports the outcome of the login command.
type LoginPayload struct {
	Success bool `json:"success"`
}

// MessagePayload is a chat or system text line, markup included.
type MessagePayload struct {
	Text []byte `json:"text"`
}

// RemoveAvatarPayload names the avatar to remove.
type RemoveAvatarPayload struct {
	UserID int `json:"user_id"`
}

// AvatarFrame is one entry of an avatar animation update.
type AvatarFrame struct {
	UserID   int      `json:"user_id"`
	Position Position `json:"position"`
	Unk1     int      `json:"unk1"`
	Unk2     int      `json:"unk2"`
}

// AnimateAvatarPayload lists animation updates.
type AnimateAvatarPayload struct {
	Frames []AvatarFrame `json:"frames"`
}

// VariableSync is one assignment of a dream variable.
type VariableSync struct {
	Index int `json:"index"`
	Value int `json:"value"`
}

// SyncVariablesPayload lists partial dream variable updates.
type SyncVariablesPayload struct {
	Variables []VariableSync `json:"variables"`
}

// TileSyncPayload lists tile updates for one layer.
type TileSyncPayload struct {
	Batches []TileBatch `json:"batches"`
}

// SetVariablesPayload is the full dream variable table.
type SetVariablesPayload struct {
	Values []int `json:"values"`
}

// DSEventPayload describes a triggered dream script line.
type DSEventPayload struct {
	Self      bool     `json:"self"`
	From      Position `json:"from"`
	To        Position `json:"to"`
	Line      int      `json:"line"`
	Triggerer Position `json:"triggerer"`
}

// DSEventAddonPayload is the context block that accompanies a script event.
type DSEventAddonPayload struct {
	MoveFlag         int      `json:"move_flag"`
	RandSeed         int      `json:"rand_seed"`
	SaidNum          int      `json:"said_num"`
	FacingDir        int      `json:"facing_dir"`
	EntryCode        int      `json:"entry_code"`
	ObjPaws          int      `json:"obj_paws"`
	FurreCount       int      `json:"furre_count"`
	UserID           int      `json:"user_id"`
	DSButton         int      `json:"ds_button"`
	DreamCookies     int      `json:"dream_cookies"`
	TriggererCookies int      `json:"triggerer_cookies"`
	PortalOpen       Position `json:"portal_open"`
	Second           int      `json:"second"`
	Minute           int      `json:"minute"`
	Hour             int      `json:"hour"`
	Day              int      `json:"day"`
	Month            int      `json:"month"`
	Year             int      `json:"year"`
	PortalClose      Position `json:"portal_close"`
}

// RegionFlagRun assigns Flag to Count consecutive regions starting at Start.
type RegionFlagRun struct {
	Start int `json:"start"`
	Flag  int `json:"flag"`
	Count int `json:"count"`
}

// RegionFlagsPayload lists region flag runs.
type RegionFlagsPayload struct {
	Runs []RegionFlagRun `json:"runs"`
}

// SpawnedAvatar is one avatar introduced into view.
type SpawnedAvatar struct {
	UserID   int       `json:"user_id"`
	Position Position  `json:"position"`
	Shape    int       `json:"shape"`
	Name     string    `json:"name"`
	Colors   ColorCode `json:"colors"`
	Flags    int       `json:"flags"`
	AFK      int       `json:"afk"`
	Scale    int       `json:"scale"`
}

// SpawnAvatarPayload lists spawned avatars.
type SpawnAvatarPayload struct {
	Avatars []SpawnedAvatar `json:"avatars"`
}

// SuspendPayload toggles drawing.
type SuspendPayload struct {
	Suspended bool `json:"suspended"`
}

// MoveCameraPayload moves the view. From is set only when HasFrom is true.
type MoveCameraPayload struct {
	To      Position `json:"to"`
	From    Position `json:"from"`
	HasFrom bool     `json:"has_from"`
}

// MoveAvatarPayload moves one avatar.
type MoveAvatarPayload struct {
	UserID   int      `json:"user_id"`
	Position Position `json:"position"`
	Unk1     int      `json:"unk1"`
	Unk2     int      `json:"unk2"`
}

// AvatarColorsPayload recolours one avatar.
type AvatarColorsPayload struct {
	UserID    int       `json:"user_id"`
	Direction int       `json:"direction"`
	Unk1      int       `json:"unk1"`
	Colors    ColorCode `json:"colors"`
}

// HideAvatarPayload hides an avatar at a position.
type HideAvatarPayload struct {
	UserID   int      `json:"user_id"`
	Position Position `json:"position"`
}

// DialogPayload opens a dialog. ID is -1 for dialogs without an id.
type DialogPayload struct {
	ID   int    `json:"id"`
	Kind int    `json:"kind"`
	Text string `json:"text"`
}

// OpenURLPayload asks the client to open or show a URL.
type OpenURLPayload struct {
	Show bool   `json:"show"`
	URL  []byte `json:"url"`
}

// OnlineStatusPayload answers an online query.
type OnlineStatusPayload struct {
	Online bool   `json:"online"`
	Name   []byte `json:"name"`
}

// PortraitPayload sets the displayed portrait.
type PortraitPayload struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// EnableUserListPayload selects the user list mode.
type EnableUserListPayload struct {
	ShowList bool `json:"show_list"`
}

// GuildTagPayload is one of the two guild tag messages, kept opaque.
type GuildTagPayload struct {
	Variant byte   `json:"variant"`
	Data    []byte `json:"data"`
}

// BookmarkPayload carries an FDL for the bookmark list.
type BookmarkPayload struct {
	UserRequested bool   `json:"user_requested"`
	FDL           string `json:"fdl"`
}

// LiveEditPayload toggles shared editing.
type LiveEditPayload struct {
	Active bool `json:"active"`
	Owner  bool `json:"owner"`
}

// OffsetAvatarPayload shifts an avatar's drawing offset.
type OffsetAvatarPayload struct {
	UserID int `json:"user_id"`
	X      int `json:"x"`
	Y      int `json:"y"`
}

// GloamEntry is one avatar's gloam value.
type GloamEntry struct {
	UserID int `json:"user_id"`
	Gloam  int `json:"gloam"`
}

// GloamPayload lists gloam values.
type GloamPayload struct {
	Entries []GloamEntry `json:"entries"`
}

// LayerDefaults names the default object, wall, floor and effect of a region.
type LayerDefaults struct {
	Object int `json:"object"`
	Wall   int `json:"wall"`
	Floor  int `json:"floor"`
	Effect int `json:"effect"`
}

// RegionSettingsEntry is one trailing pair of a region settings message.
type RegionSettingsEntry struct {
	ID    int `json:"id"`
	Value int `json:"value"`
}

// RegionSettingsPayload describes the dream's default layers.
type RegionSettingsPayload struct {
	Outdoor    LayerDefaults         `json:"outdoor"`
	Indoor     LayerDefaults         `json:"indoor"`
	Unk        int                   `json:"unk"`
	WallBottom int                   `json:"wall_bottom"`
	WallTop    int                   `json:"wall_top"`
	Extra      [4]int                `json:"extra"`
	Entries    []RegionSettingsEntry `json:"entries,omitempty"`
}

// KitterDustEntry is one avatar's kitterdust value.
type KitterDustEntry struct {
	UserID int `json:"user_id"`
	Value  int `json:"value"`
}

// KitterDustPayload lists kitterdust values.
type KitterDustPayload struct {
	Entries []KitterDustEntry `json:"entries"`
}

// LookPayload is the result of looking at an avatar.
type LookPayload struct {
	Colors ColorCode `json:"colors"`
	Name   string    `json:"name"`
}

// DreamPayload announces a dream load.
type DreamPayload struct {
	CustomPatches bool   `json:"custom_patches"`
	Package       []byte `json:"package"`
	Checksum      []byte `json:"checksum"`
	Modern        bool   `json:"modern"`
}

// PlacedTextPayload places a text label at a location. GateType is only
// meaningful when HasGateType is true.
type PlacedTextPayload struct {
	Position    Position `json:"position"`
	Kind        int      `json:"kind"`
	Owner       []byte   `json:"owner"`
	Name        []byte   `json:"name"`
	Maturity    int      `json:"maturity"`
	GateType    int      `json:"gate_type"`
	HasGateType bool     `json:"has_gate_type"`
}

// PositionPayload carries a single position.
type PositionPayload struct {
	Position Position `json:"position"`
}

// EffectPayload plays an effect at a location.
type EffectPayload struct {
	Kind     string   `json:"kind"`
	Position Position `json:"position"`
}

// ColorsPayload sets the player's own colours.
type ColorsPayload struct {
	Colors ColorCode `json:"colors"`
}
