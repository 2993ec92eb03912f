package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-workflow-engine/internal/models"
)

// Discord is the slice of the Discord REST surface the executor needs.
// internal/bot adapts a discordgo session to it; tests use a fake.
type Discord interface {
	SendMessage(ctx context.Context, channelID, content string) error
	SendEmbed(ctx context.Context, channelID, title, description, footer string, color int) error
	SendDirectMessage(ctx context.Context, userID, content string) error
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	CreateThread(ctx context.Context, channelID, messageID, name string, autoArchiveMinutes int) error
	TimeoutUser(ctx context.Context, guildID, userID string, until time.Time, reason string) error
}

// WebhookPoster is satisfied by WebhookClient.
type WebhookPoster interface {
	Post(ctx context.Context, url string, body []byte) error
}

// ActionOutcome is the per-action result recorded in the execution log.
type ActionOutcome struct {
	ActionID uint   `json:"action_id"`
	Type     string `json:"type"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// Executor runs a rule's actions strictly in sort order, one at a time.
type Executor struct {
	discord Discord
	webhook WebhookPoster
	render  *Renderer
	timeout time.Duration
	sleep   func(time.Duration)
}

func NewExecutor(discord Discord, webhook WebhookPoster, render *Renderer, timeout time.Duration) *Executor {
	return &Executor{
		discord: discord,
		webhook: webhook,
		render:  render,
		timeout: timeout,
		sleep:   time.Sleep,
	}
}

// Execute runs the rule's flat action sequence against the event. On a
// failure whose action has continue-on-error unset, the remaining sequence
// is aborted and the failing action's ID is returned with the error.
func (ex *Executor) Execute(ctx context.Context, rule *CachedRule, event *models.Event) ([]ActionOutcome, uint, error) {
	var outcomes []ActionOutcome

	for _, action := range rule.Actions {
		// Child actions are reserved for branching and excluded from the
		// flat sequence.
		if action.Row.ParentID != nil {
			continue
		}

		err := ex.runAction(ctx, action, event)
		outcome := ActionOutcome{
			ActionID: action.Row.ID,
			Type:     action.Row.Type,
			Success:  err == nil,
		}
		if err != nil {
			outcome.Error = err.Error()
		}
		outcomes = append(outcomes, outcome)

		if err != nil && !action.Row.ContinueOnError {
			return outcomes, action.Row.ID, err
		}
	}

	return outcomes, 0, nil
}

func (ex *Executor) runAction(ctx context.Context, action CachedAction, event *models.Event) error {
	callCtx, cancel := context.WithTimeout(ctx, ex.timeout)
	defer cancel()

	switch cfg := action.Config.(type) {
	case *models.SendMessageAction:
		channelID := defaultTo(ex.render.Render(cfg.ChannelID, event), event.ChannelID)
		return ex.discord.SendMessage(callCtx, channelID, ex.render.Render(cfg.Content, event))

	case *models.SendEmbedAction:
		channelID := defaultTo(ex.render.Render(cfg.ChannelID, event), event.ChannelID)
		return ex.discord.SendEmbed(callCtx, channelID,
			ex.render.Render(cfg.Title, event),
			ex.render.Render(cfg.Description, event),
			ex.render.Render(cfg.Footer, event),
			cfg.Color)

	case *models.SendDMAction:
		userID := defaultTo(ex.render.Render(cfg.UserID, event), event.UserID)
		return ex.discord.SendDirectMessage(callCtx, userID, ex.render.Render(cfg.Content, event))

	case *models.RoleAction:
		userID := defaultTo(ex.render.Render(cfg.UserID, event), event.UserID)
		roleID := ex.render.Render(cfg.RoleID, event)
		if action.Row.Type == models.ActionRemoveRole {
			return ex.discord.RemoveRole(callCtx, event.GuildID, userID, roleID)
		}
		return ex.discord.AddRole(callCtx, event.GuildID, userID, roleID)

	case *models.ReactionAction:
		channelID := defaultTo(ex.render.Render(cfg.ChannelID, event), event.ChannelID)
		messageID := defaultTo(ex.render.Render(cfg.MessageID, event), event.MessageID)
		return ex.discord.AddReaction(callCtx, channelID, messageID, ex.render.Render(cfg.Emoji, event))

	case *models.DeleteMessageAction:
		channelID := defaultTo(ex.render.Render(cfg.ChannelID, event), event.ChannelID)
		messageID := defaultTo(ex.render.Render(cfg.MessageID, event), event.MessageID)
		return ex.discord.DeleteMessage(callCtx, channelID, messageID)

	case *models.CreateThreadAction:
		channelID := defaultTo(ex.render.Render(cfg.ChannelID, event), event.ChannelID)
		messageID := defaultTo(ex.render.Render(cfg.MessageID, event), event.MessageID)
		return ex.discord.CreateThread(callCtx, channelID, messageID,
			ex.render.Render(cfg.Name, event), cfg.AutoArchiveMinutes)

	case *models.TimeoutAction:
		userID := defaultTo(ex.render.Render(cfg.UserID, event), event.UserID)
		duration := cfg.DurationSeconds
		if duration <= 0 {
			duration = 60
		}
		until := time.Now().Add(time.Duration(duration) * time.Second)
		return ex.discord.TimeoutUser(callCtx, event.GuildID, userID, until,
			ex.render.Render(cfg.Reason, event))

	case *models.WaitAction:
		// The one action with no external call: pause this firing only.
		ex.sleep(time.Duration(cfg.DurationMs) * time.Millisecond)
		return nil

	case *models.WebhookAction:
		body, err := ex.webhookBody(cfg, event)
		if err != nil {
			return err
		}
		return ex.webhook.Post(callCtx, ex.render.Render(cfg.URL, event), body)

	default:
		return fmt.Errorf("unknown action type %q", action.Row.Type)
	}
}

func (ex *Executor) webhookBody(cfg *models.WebhookAction, event *models.Event) ([]byte, error) {
	if cfg.Body != "" {
		return []byte(ex.render.Render(cfg.Body, event)), nil
	}
	return json.Marshal(event)
}

func defaultTo(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
