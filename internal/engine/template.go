package engine

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-workflow-engine/internal/models"
)

var tokenPattern = regexp.MustCompile(`\{([a-z_]+)\.([a-z_]+)(?::([^{}]*))?\}`)

// Renderer substitutes {domain.field} placeholder tokens in action strings
// with values drawn from the event and engine-generated values. Unrecognized
// tokens are left verbatim. The randomness and clock hooks exist for tests.
type Renderer struct {
	Now     func() time.Time
	Intn    func(n int) int
	NewUUID func() string
}

func NewRenderer() *Renderer {
	return &Renderer{
		Now:     time.Now,
		Intn:    rand.Intn,
		NewUUID: uuid.NewString,
	}
}

// Render replaces every recognized token in input.
func (r *Renderer) Render(input string, event *models.Event) string {
	if !strings.Contains(input, "{") {
		return input
	}
	return tokenPattern.ReplaceAllStringFunc(input, func(token string) string {
		parts := tokenPattern.FindStringSubmatch(token)
		value, ok := r.resolve(parts[1], parts[2], parts[3], event)
		if !ok {
			return token
		}
		return value
	})
}

func (r *Renderer) resolve(domain, field, arg string, event *models.Event) (string, bool) {
	switch domain {
	case "user":
		switch field {
		case "id":
			return event.UserID, true
		case "mention":
			return "<@" + event.UserID + ">", true
		case "name":
			return event.Username, true
		case "display_name":
			return event.DisplayName, true
		case "avatar_url":
			return event.AvatarURL, true
		}
	case "channel":
		switch field {
		case "id":
			return event.ChannelID, true
		case "mention":
			return "<#" + event.ChannelID + ">", true
		}
	case "server":
		switch field {
		case "id":
			return event.GuildID, true
		case "name":
			return event.GuildName, true
		case "member_count":
			return strconv.Itoa(event.MemberCount), true
		case "icon_url":
			return event.GuildIconURL, true
		}
	case "message":
		switch field {
		case "id":
			return event.MessageID, true
		case "content":
			return event.MessageText, true
		case "link":
			return fmt.Sprintf("https://discord.com/channels/%s/%s/%s",
				event.GuildID, event.ChannelID, event.MessageID), true
		}
	case "trigger":
		// Rendered at substitution time, not at event time.
		now := r.Now()
		switch field {
		case "timestamp":
			return strconv.FormatInt(now.Unix(), 10), true
		case "date":
			return now.Format("2006-01-02"), true
		case "time":
			return now.Format("15:04:05"), true
		}
	case "random":
		switch field {
		case "number":
			return strconv.Itoa(r.Intn(100) + 1), true
		case "uuid":
			return r.NewUUID(), true
		case "choice":
			options := strings.Split(arg, ",")
			if len(options) == 0 || arg == "" {
				return "", false
			}
			return options[r.Intn(len(options))], true
		}
	}
	return "", false
}
