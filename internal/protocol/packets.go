// Package protocol implements the Furcadia line protocol: the base-95 and
// base-220 numerals, the message buffer reader and builder, line framing,
// opcode dispatch and outbound command encoding. Every message is a single
// line terminated by 0x0A whose first byte minus 32 is the opcode.
package protocol

// Primary opcodes (first byte of a line minus 32).
const (
	OpSound            = 1  // "!" sound id
	OpButlerFeet       = 5  // "%" object under the player
	OpLogin            = 6  // "&" login accepted
	OpMessage          = 8  // "(" chat or system text
	OpRemoveAvatar     = 9  // ")" remove avatar
	OpAnimateAvatar    = 15 // "/" animate avatars
	OpSyncVariables    = 16 // "0" partial dream variable update
	OpSetFloor         = 17 // "1" floor tiles
	OpSetWall          = 18 // "2" wall tiles
	OpSetVariables     = 19 // "3" full dream variable table
	OpSetRegion        = 20 // "4" region tiles
	OpSetEffect        = 21 // "5" effect tiles
	OpDSEventSelf      = 22 // "6" script event triggered by the player
	OpDSEventOther     = 23 // "7" script event triggered by someone else
	OpDSEventAddon     = 24 // "8" script event context
	OpRegionFlags      = 25 // "9" region flags
	OpLoadMap          = 27 // ";" load map
	OpSpawnAvatar      = 28 // "<" spawn avatars
	OpResume           = 29 // "=" resume drawing
	OpSetObject        = 30 // ">" object tiles
	OpMoveCamera       = 32 // "@" move camera
	OpMoveAvatar       = 33 // "A" move avatar
	OpSetAvatarColors  = 34 // "B" avatar colours
	OpHideAvatar       = 35 // "C" hide avatar
	OpDSTriggerer      = 36 // "D" triggering avatar, probably deprecated
	OpServerDisconnect = 59 // "[" server closes the session
	OpAuthenticate     = 60 // "\" server authenticate
	OpExtension        = 61 // "]" extension marker, second byte selects the sub-table
	OpButlerPaws       = 62 // "^" object in the player's paws
	OpUnknownE         = 69 // "e" never decoded
	OpUnknownF         = 70 // "f" never decoded
	OpSuspend          = 94 // "~" suspend drawing
)

// Extension opcodes (second byte of a "]" line minus 32).
const (
	ExtAdultWarning   = 1  // "]!"
	ExtDialog         = 3  // "]#"
	ExtOpenURL        = 4  // "]$"
	ExtOnlineStatus   = 5  // "]%"
	ExtPortrait       = 6  // "]&"
	ExtShowURL        = 10 // "]*"
	ExtPrefix         = 13 // "]-"
	ExtEnableUserList = 19 // "]3"
	ExtPounce         = 31 // "]?" never decoded
	ExtGuildTagA      = 33 // "]A"
	ExtSetUserID      = 34 // "]B"
	ExtBookmark       = 35 // "]C"
	ExtLiveEditJoin   = 36 // "]D"
	ExtLiveEditOwner  = 37 // "]E"
	ExtLiveEditEnd    = 38 // "]F"
	ExtDisableTab     = 39 // "]G"
	ExtOffsetAvatar   = 40 // "]H"
	ExtParticles      = 41 // "]I"
	ExtWebMap         = 42 // "]J"
	ExtDynamicAvatars = 45 // "]M"
	ExtUnknownN       = 46 // "]N" never decoded
	ExtGloam          = 47 // "]O"
	ExtGuildTagP      = 48 // "]P"
	ExtRegionSettings = 55 // "]W"
	ExtLoginFailed    = 61 // "]]"
	ExtKitterDust     = 63 // "]_"
	ExtUploadReady    = 65 // "]a"
	ExtMarbled        = 67 // "]c"
	ExtLook           = 70 // "]f"
	ExtExecute        = 72 // "]h"
	ExtMusic          = 74 // "]j"
	ExtUnknownK       = 75 // "]k" never decoded
	ExtMarco          = 77 // "]m"
	ExtChannelInfo    = 78 // "]n" never decoded
	ExtDreamOwner     = 79 // "]o"
	ExtDreamCustom    = 81 // "]q"
	ExtDreamDefault   = 82 // "]r"
	ExtText           = 83 // "]s"
	ExtClearText      = 84 // "]t"
	ExtUploadReadyAlt = 85 // "]u"
	ExtEffect         = 86 // "]v"
	ExtVersionRequest = 87 // "]w"
	ExtUpdate         = 88 // "]x"
	ExtUID            = 90 // "]z"
	ExtSessionID      = 91 // "]{"
	ExtFlipScreen     = 92 // "]|"
	ExtSetColors      = 93 // "]}"
)

// MaxOpcode is the largest opcode a printable byte can carry.
const MaxOpcode = 95

// NoSubOpcode marks an event whose message is not an extension.
const NoSubOpcode = -1

// Handshake is the literal line that ends the message of the day.
const Handshake = "Dragonroar"

// LineTerminator separates messages in both directions.
const LineTerminator byte = '\n'

// OpcodeChar returns the printable byte that carries op.
func OpcodeChar(op int) byte {
	return byte(op + 32)
}
