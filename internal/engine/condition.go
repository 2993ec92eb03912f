package engine

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"go-workflow-engine/internal/models"
)

// Evaluator checks a rule's condition set against an event. Conditions
// sharing a group index are AND-ed; groups are OR-ed against each other.
// The clock is injectable for the time-based predicates.
type Evaluator struct {
	Now func() time.Time
}

func NewEvaluator() *Evaluator {
	return &Evaluator{Now: time.Now}
}

// Evaluate returns true when at least one condition group passes entirely.
// A rule with zero conditions always passes.
func (e *Evaluator) Evaluate(conditions []CachedCondition, event *models.Event) bool {
	if len(conditions) == 0 {
		return true
	}

	groups := make(map[int][]CachedCondition)
	for _, condition := range conditions {
		groups[condition.Row.GroupIndex] = append(groups[condition.Row.GroupIndex], condition)
	}

	for _, group := range groups {
		if e.groupPasses(group, event) {
			return true
		}
	}
	return false
}

func (e *Evaluator) groupPasses(group []CachedCondition, event *models.Event) bool {
	for _, condition := range group {
		result := e.evalOne(condition, event)
		if condition.Row.Negate {
			result = !result
		}
		if !result {
			return false
		}
	}
	return true
}

func (e *Evaluator) evalOne(condition CachedCondition, event *models.Event) bool {
	switch cfg := condition.Config.(type) {
	case *models.RoleCondition:
		present := anyRolePresent(cfg.Roles, event.Roles)
		if condition.Row.Type == models.CondRoleAbsent {
			return !present
		}
		return present
	case *models.ChannelCondition:
		member := contains(cfg.Channels, event.ChannelID)
		if condition.Row.Type == models.CondChannelIsNot {
			return !member
		}
		return member
	case *models.TextCondition:
		return textMatches(condition.Row.Type, cfg, event.MessageText)
	case *models.PatternCondition:
		return patternMatches(cfg, event.MessageText)
	case *models.TimeWindowCondition:
		return e.inTimeWindow(cfg)
	case *models.DayOfWeekCondition:
		return containsInt(cfg.Days, int(e.Now().Weekday()))
	case *models.UserCondition:
		member := contains(cfg.Users, event.UserID)
		if condition.Row.Type == models.CondUserIsNot {
			return !member
		}
		return member
	default:
		return false
	}
}

func anyRolePresent(wanted, held []string) bool {
	for _, role := range wanted {
		if contains(held, role) {
			return true
		}
	}
	return false
}

func textMatches(condType string, cfg *models.TextCondition, text string) bool {
	value := cfg.Value
	if !cfg.CaseSensitive {
		text = strings.ToLower(text)
		value = strings.ToLower(value)
	}
	if condType == models.CondMessageStarts {
		return strings.HasPrefix(text, value)
	}
	return strings.Contains(text, value)
}

// patternMatches treats a malformed pattern as a non-match so one bad rule
// cannot block others.
func patternMatches(cfg *models.PatternCondition, text string) bool {
	pattern := cfg.Pattern
	if !cfg.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// inTimeWindow compares the current local time-of-day, as minutes since
// midnight, against the configured window. A window whose start is after
// its end wraps midnight.
func (e *Evaluator) inTimeWindow(cfg *models.TimeWindowCondition) bool {
	start, okStart := parseMinutes(cfg.Start)
	end, okEnd := parseMinutes(cfg.End)
	if !okStart || !okEnd {
		return false
	}

	now := e.Now()
	minutes := now.Hour()*60 + now.Minute()

	if start <= end {
		return minutes >= start && minutes <= end
	}
	return minutes >= start || minutes <= end
}

func parseMinutes(value string) (int, bool) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, false
	}
	return hours*60 + minutes, true
}

func containsInt(list []int, value int) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
