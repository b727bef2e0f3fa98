// Package events defines the decoded event model and the publish/subscribe
// bus that delivers events from the protocol read loop to application code.
package events

// EventType tags an Event with the kind of payload it carries.
type EventType string

// EventAll is the wildcard tag. Its handlers receive every event after the
// tag-specific handlers of the same publish.
const EventAll EventType = "*"

const (
	// Connection lifecycle
	EventMOTD        EventType = "motd"
	EventUnhandled   EventType = "unhandled"
	EventUnsupported EventType = "unsupported"
	EventDecodeError EventType = "decode_error"

	// Primary opcodes
	EventSound            EventType = "sound"
	EventButlerFeet       EventType = "butler_feet"
	EventLogin            EventType = "login"
	EventMessage          EventType = "message"
	EventRemoveAvatar     EventType = "remove_avatar"
	EventAnimateAvatar    EventType = "animate_avatar"
	EventSyncVariables    EventType = "sync_variables"
	EventSetFloor         EventType = "set_floor"
	EventSetWall          EventType = "set_wall"
	EventSetVariables     EventType = "set_variables"
	EventSetRegion        EventType = "set_region"
	EventSetEffect        EventType = "set_effect"
	EventSetObject        EventType = "set_object"
	EventSetAmbient       EventType = "set_ambient"
	EventSetSoundEffect   EventType = "set_sound_effect"
	EventDSEvent          EventType = "ds_event"
	EventDSEventAddon     EventType = "ds_event_addon"
	EventRegionFlags      EventType = "region_flags"
	EventLoadMap          EventType = "load_map"
	EventSpawnAvatar      EventType = "spawn_avatar"
	EventSuspend          EventType = "suspend"
	EventMoveCamera       EventType = "move_camera"
	EventMoveAvatar       EventType = "move_avatar"
	EventSetAvatarColors  EventType = "set_avatar_colors"
	EventHideAvatar       EventType = "hide_avatar"
	EventDSTriggerer      EventType = "ds_triggerer"
	EventServerDisconnect EventType = "server_disconnect"
	EventAuthenticate     EventType = "authenticate"
	EventButlerPaws       EventType = "butler_paws"

	// Extension opcodes
	EventAdultWarning   EventType = "adult_warning"
	EventDialog         EventType = "dialog"
	EventOpenURL        EventType = "open_url"
	EventOnlineStatus   EventType = "online_status"
	EventPortrait       EventType = "portrait"
	EventPrefix         EventType = "prefix"
	EventEnableUserList EventType = "enable_user_list"
	EventGuildTag       EventType = "guild_tag"
	EventSetUserID      EventType = "set_user_id"
	EventBookmark       EventType = "bookmark"
	EventLiveEdit       EventType = "live_edit"
	EventDisableTab     EventType = "disable_tab"
	EventOffsetAvatar   EventType = "offset_avatar"
	EventParticles      EventType = "particles"
	EventWebMap         EventType = "web_map"
	EventDynamicAvatars EventType = "dynamic_avatars"
	EventGloam          EventType = "gloam"
	EventRegionSettings EventType = "region_settings"
	EventKitterDust     EventType = "kitter_dust"
	EventUploadReady    EventType = "upload_ready"
	EventMarbled        EventType = "marbled"
	EventLook           EventType = "look"
	EventExecute        EventType = "execute"
	EventMusic          EventType = "music"
	EventMarco          EventType = "marco"
	EventDreamOwner     EventType = "dream_owner"
	EventDream          EventType = "dream"
	EventText           EventType = "text"
	EventClearText      EventType = "clear_text"
	EventEffect         EventType = "effect"
	EventVersionRequest EventType = "version_request"
	EventUpdate         EventType = "update"
	EventUID            EventType = "uid"
	EventSessionID      EventType = "session_id"
	EventFlipScreen     EventType = "flip_screen"
	EventSetColors      EventType = "set_colors"
)

// Event is a single decoded protocol message. Opcode is the primary opcode
// (-1 for events that do not come from a message line) and SubOpcode the
// extension opcode (-1 when the message is not an extension).
type Event struct {
	Type      EventType   `json:"type"`
	Opcode    int         `json:"opcode"`
	SubOpcode int         `json:"sub_opcode"`
	Payload   interface{} `json:"payload,omitempty"`
}
