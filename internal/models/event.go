package models

import "time"

// Event is the engine's view of one gateway event. The bot package fills in
// whatever the underlying Discord event carries; absent fields stay zero.
type Event struct {
	Type    string
	GuildID string

	GuildName    string
	MemberCount  int
	GuildIconURL string

	UserID      string
	Username    string
	DisplayName string
	AvatarURL   string
	UserIsBot   bool
	Roles       []string

	ChannelID   string
	MessageID   string
	MessageText string

	Emoji          string
	CustomID       string
	VoiceChannelID string
	RoleID         string

	Timestamp time.Time
}

// Trigger / event types.
const (
	EventMessageReceived = "message_received"
	EventMemberJoin      = "member_join"
	EventMemberLeave     = "member_leave"
	EventReactionAdd     = "reaction_add"
	EventReactionRemove  = "reaction_remove"
	EventButtonClick     = "button_click"
	EventSelectMenu      = "select_menu"
	EventVoiceJoin       = "voice_join"
	EventVoiceLeave      = "voice_leave"
	EventRoleAdd         = "role_add"
	EventRoleRemove      = "role_remove"
)

// Condition types.
const (
	CondRolePresent    = "role_present"
	CondRoleAbsent     = "role_absent"
	CondChannelIs      = "channel_is"
	CondChannelIsNot   = "channel_is_not"
	CondMessageContain = "message_contains"
	CondMessageStarts  = "message_starts_with"
	CondMessagePattern = "message_matches_pattern"
	CondTimeOfDay      = "time_of_day_between"
	CondDayOfWeek      = "day_of_week_in"
	CondUserIs         = "user_is"
	CondUserIsNot      = "user_is_not"
)

// Action types.
const (
	ActionSendMessage   = "send_message"
	ActionSendEmbed     = "send_embed"
	ActionSendDM        = "send_direct_message"
	ActionAddRole       = "add_role"
	ActionRemoveRole    = "remove_role"
	ActionAddReaction   = "add_reaction"
	ActionDeleteMessage = "delete_message"
	ActionCreateThread  = "create_thread"
	ActionTimeoutUser   = "timeout_user"
	ActionWaitDelay     = "wait_delay"
	ActionCallWebhook   = "call_webhook"
)

// Cooldown scopes.
const (
	ScopeUser    = "user"
	ScopeChannel = "channel"
	ScopeServer  = "server"
)

// Keyword match modes for message triggers.
const (
	MatchContains   = "contains"
	MatchStartsWith = "starts_with"
	MatchEndsWith   = "ends_with"
	MatchExact      = "exact"
	MatchRegex      = "regex"
)
