package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
)

// APIAdapter implements engine.Discord on top of a discordgo session. Every
// call carries the executor's per-action context so a hung request is
// bounded.
type APIAdapter struct {
	session *discordgo.Session
}

func NewAPIAdapter(session *discordgo.Session) *APIAdapter {
	return &APIAdapter{session: session}
}

func (a *APIAdapter) SendMessage(ctx context.Context, channelID, content string) error {
	_, err := a.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return err
}

func (a *APIAdapter) SendEmbed(ctx context.Context, channelID, title, description, footer string, color int) error {
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	if footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: footer}
	}
	_, err := a.session.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx))
	return err
}

func (a *APIAdapter) SendDirectMessage(ctx context.Context, userID, content string) error {
	channel, err := a.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	_, err = a.session.ChannelMessageSend(channel.ID, content, discordgo.WithContext(ctx))
	return err
}

func (a *APIAdapter) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return a.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
}

func (a *APIAdapter) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return a.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx))
}

func (a *APIAdapter) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	return a.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx))
}

func (a *APIAdapter) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return a.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}

func (a *APIAdapter) CreateThread(ctx context.Context, channelID, messageID, name string, autoArchiveMinutes int) error {
	if autoArchiveMinutes <= 0 {
		autoArchiveMinutes = 60
	}
	_, err := a.session.MessageThreadStartComplex(channelID, messageID, &discordgo.ThreadStart{
		Name:                name,
		AutoArchiveDuration: autoArchiveMinutes,
	}, discordgo.WithContext(ctx))
	return err
}

func (a *APIAdapter) TimeoutUser(ctx context.Context, guildID, userID string, until time.Time, reason string) error {
	options := []discordgo.RequestOption{discordgo.WithContext(ctx)}
	if reason != "" {
		options = append(options, discordgo.WithAuditLogReason(reason))
	}
	return a.session.GuildMemberTimeout(guildID, userID, &until, options...)
}
