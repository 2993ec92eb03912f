package models

import (
	"encoding/json"
	"fmt"
)

// Trigger, condition and action rows store their type-specific settings as a
// JSON blob. The parsers below turn a blob into its concrete shape once, at
// cache load, so a malformed row is rejected during reload instead of
// silently misbehaving during evaluation.

type MessageTrigger struct {
	IgnoreBots   bool     `json:"ignore_bots"`
	Channels     []string `json:"channels"`
	DenyChannels []string `json:"deny_channels"`
	Keywords     []string `json:"keywords"`
	MatchMode    string   `json:"match_mode"`
}

type ReactionTrigger struct {
	Emojis    []string `json:"emojis"`
	MessageID string   `json:"message_id"`
}

type InteractionTrigger struct {
	// CustomIDs match exactly, or by prefix when the pattern ends in '*'.
	CustomIDs []string `json:"custom_ids"`
}

type VoiceTrigger struct {
	Channels []string `json:"channels"`
}

type RoleTrigger struct {
	Roles []string `json:"roles"`
}

// ParseTriggerConfig decodes raw into the concrete config for triggerType.
// Trigger types without settings (member join/leave) return nil.
func ParseTriggerConfig(triggerType string, raw []byte) (interface{}, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	switch triggerType {
	case EventMessageReceived:
		return decode[MessageTrigger](raw)
	case EventReactionAdd, EventReactionRemove:
		return decode[ReactionTrigger](raw)
	case EventButtonClick, EventSelectMenu:
		return decode[InteractionTrigger](raw)
	case EventVoiceJoin, EventVoiceLeave:
		return decode[VoiceTrigger](raw)
	case EventRoleAdd, EventRoleRemove:
		return decode[RoleTrigger](raw)
	case EventMemberJoin, EventMemberLeave:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown trigger type %q", triggerType)
	}
}

type RoleCondition struct {
	Roles []string `json:"roles"`
}

type ChannelCondition struct {
	Channels []string `json:"channels"`
}

type TextCondition struct {
	Value         string `json:"value"`
	CaseSensitive bool   `json:"case_sensitive"`
}

type PatternCondition struct {
	Pattern       string `json:"pattern"`
	CaseSensitive bool   `json:"case_sensitive"`
}

// TimeWindowCondition holds a wall-clock window as "HH:MM" strings.
// The window may wrap midnight (start > end).
type TimeWindowCondition struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DayOfWeekCondition days follow time.Weekday numbering (0 = Sunday).
type DayOfWeekCondition struct {
	Days []int `json:"days"`
}

type UserCondition struct {
	Users []string `json:"users"`
}

func ParseConditionConfig(condType string, raw []byte) (interface{}, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	switch condType {
	case CondRolePresent, CondRoleAbsent:
		return decode[RoleCondition](raw)
	case CondChannelIs, CondChannelIsNot:
		return decode[ChannelCondition](raw)
	case CondMessageContain, CondMessageStarts:
		return decode[TextCondition](raw)
	case CondMessagePattern:
		return decode[PatternCondition](raw)
	case CondTimeOfDay:
		return decode[TimeWindowCondition](raw)
	case CondDayOfWeek:
		return decode[DayOfWeekCondition](raw)
	case CondUserIs, CondUserIsNot:
		return decode[UserCondition](raw)
	default:
		return nil, fmt.Errorf("unknown condition type %q", condType)
	}
}

// Action configs. Empty channel/user/message IDs default to the triggering
// event's values at execution time. All string fields are template-rendered.

type SendMessageAction struct {
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
}

type SendEmbedAction struct {
	ChannelID   string `json:"channel_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Footer      string `json:"footer"`
}

type SendDMAction struct {
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

type RoleAction struct {
	UserID string `json:"user_id"`
	RoleID string `json:"role_id"`
}

type ReactionAction struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

type DeleteMessageAction struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

type CreateThreadAction struct {
	ChannelID          string `json:"channel_id"`
	MessageID          string `json:"message_id"`
	Name               string `json:"name"`
	AutoArchiveMinutes int    `json:"auto_archive_minutes"`
}

type TimeoutAction struct {
	UserID          string `json:"user_id"`
	DurationSeconds int    `json:"duration_seconds"`
	Reason          string `json:"reason"`
}

type WaitAction struct {
	DurationMs int `json:"duration_ms"`
}

type WebhookAction struct {
	URL string `json:"url"`
	// Body is the template-rendered POST payload. Empty sends a JSON
	// envelope of the triggering event instead.
	Body string `json:"body"`
}

func ParseActionConfig(actionType string, raw []byte) (interface{}, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	switch actionType {
	case ActionSendMessage:
		return decode[SendMessageAction](raw)
	case ActionSendEmbed:
		return decode[SendEmbedAction](raw)
	case ActionSendDM:
		return decode[SendDMAction](raw)
	case ActionAddRole, ActionRemoveRole:
		return decode[RoleAction](raw)
	case ActionAddReaction:
		return decode[ReactionAction](raw)
	case ActionDeleteMessage:
		return decode[DeleteMessageAction](raw)
	case ActionCreateThread:
		return decode[CreateThreadAction](raw)
	case ActionTimeoutUser:
		return decode[TimeoutAction](raw)
	case ActionWaitDelay:
		return decode[WaitAction](raw)
	case ActionCallWebhook:
		return decode[WebhookAction](raw)
	default:
		return nil, fmt.Errorf("unknown action type %q", actionType)
	}
}

func decode[T any](raw []byte) (*T, error) {
	var cfg T
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
