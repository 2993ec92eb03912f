package engine

import (
	"regexp"
	"strings"

	"go-workflow-engine/internal/models"
)

// Matches decides structural applicability of a rule for an event before any
// conditions are evaluated. Unknown trigger types never match.
func Matches(rule *CachedRule, event *models.Event) bool {
	if rule.Workflow.TriggerType != event.Type {
		return false
	}

	switch cfg := rule.TriggerConfig.(type) {
	case *models.MessageTrigger:
		return matchMessage(cfg, event)
	case *models.ReactionTrigger:
		return matchReaction(cfg, event)
	case *models.InteractionTrigger:
		return matchInteraction(cfg, event)
	case *models.VoiceTrigger:
		return len(cfg.Channels) == 0 || contains(cfg.Channels, event.VoiceChannelID)
	case *models.RoleTrigger:
		return len(cfg.Roles) == 0 || contains(cfg.Roles, event.RoleID)
	case nil:
		// Member join/leave carries no filters.
		return event.Type == models.EventMemberJoin || event.Type == models.EventMemberLeave
	default:
		return false
	}
}

func matchMessage(cfg *models.MessageTrigger, event *models.Event) bool {
	if cfg.IgnoreBots && event.UserIsBot {
		return false
	}
	if len(cfg.Channels) > 0 && !contains(cfg.Channels, event.ChannelID) {
		return false
	}
	if len(cfg.DenyChannels) > 0 && contains(cfg.DenyChannels, event.ChannelID) {
		return false
	}
	if len(cfg.Keywords) == 0 {
		return true
	}
	for _, keyword := range cfg.Keywords {
		if keywordMatches(cfg.MatchMode, keyword, event.MessageText) {
			return true
		}
	}
	return false
}

// keywordMatches compares case-insensitively for every mode except regex,
// which applies the pattern literally. A malformed regex is a non-match.
func keywordMatches(mode, keyword, text string) bool {
	if mode == models.MatchRegex {
		re, err := regexp.Compile(keyword)
		if err != nil {
			return false
		}
		return re.MatchString(text)
	}

	lowerText := strings.ToLower(text)
	lowerKeyword := strings.ToLower(keyword)

	switch mode {
	case models.MatchStartsWith:
		return strings.HasPrefix(lowerText, lowerKeyword)
	case models.MatchEndsWith:
		return strings.HasSuffix(lowerText, lowerKeyword)
	case models.MatchExact:
		return lowerText == lowerKeyword
	default:
		// Contains is the default mode.
		return strings.Contains(lowerText, lowerKeyword)
	}
}

func matchReaction(cfg *models.ReactionTrigger, event *models.Event) bool {
	if len(cfg.Emojis) > 0 && !contains(cfg.Emojis, event.Emoji) {
		return false
	}
	if cfg.MessageID != "" && cfg.MessageID != event.MessageID {
		return false
	}
	return true
}

func matchInteraction(cfg *models.InteractionTrigger, event *models.Event) bool {
	if len(cfg.CustomIDs) == 0 {
		return true
	}
	for _, pattern := range cfg.CustomIDs {
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
			if strings.HasPrefix(event.CustomID, prefix) {
				return true
			}
		} else if event.CustomID == pattern {
			return true
		}
	}
	return false
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
