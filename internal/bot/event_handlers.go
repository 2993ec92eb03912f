package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"go-workflow-engine/internal/engine"
	"go-workflow-engine/internal/logging"
	"go-workflow-engine/internal/models"
)

// SetupEventHandlers wires gateway events into the workflow engine. Each
// handler translates the discordgo payload into a models.Event and hands it
// off; the engine takes over from there without blocking the gateway loop.
func (s *Session) SetupEventHandlers(eng *engine.Engine) {
	logging.Info("Setting up Discord event handlers...")

	// Reload a guild's rules when the bot joins or reconnects to it.
	s.discord.AddHandler(func(sess *discordgo.Session, g *discordgo.GuildCreate) {
		logging.Info("Guild available: %s (%s)", g.Name, g.ID)
		if err := eng.Cache().ReloadGuild(context.Background(), g.ID); err != nil {
			logging.Error("Rule reload failed for guild %s: %v", g.ID, err)
		}
	})

	s.discord.AddHandler(func(sess *discordgo.Session, r *discordgo.Ready) {
		logging.Info("Gateway ready: %s, %d guilds", r.User.Username, len(r.Guilds))
	})

	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.MessageCreate) {
		if m.GuildID == "" || m.Author == nil {
			return
		}
		event := s.baseEvent(models.EventMessageReceived, m.GuildID)
		fillUser(event, m.Author)
		if m.Member != nil {
			event.Roles = m.Member.Roles
			if m.Member.Nick != "" {
				event.DisplayName = m.Member.Nick
			}
		}
		event.ChannelID = m.ChannelID
		event.MessageID = m.ID
		event.MessageText = m.Content
		eng.HandleEvent(event)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.GuildMemberAdd) {
		if m.GuildID == "" {
			return
		}
		event := s.baseEvent(models.EventMemberJoin, m.GuildID)
		fillMember(event, m.Member)
		eng.HandleEvent(event)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.GuildMemberRemove) {
		if m.GuildID == "" {
			return
		}
		event := s.baseEvent(models.EventMemberLeave, m.GuildID)
		fillMember(event, m.Member)
		eng.HandleEvent(event)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, r *discordgo.MessageReactionAdd) {
		eng.HandleEvent(s.reactionEvent(models.EventReactionAdd, r.MessageReaction, r.Member))
	})

	s.discord.AddHandler(func(sess *discordgo.Session, r *discordgo.MessageReactionRemove) {
		eng.HandleEvent(s.reactionEvent(models.EventReactionRemove, r.MessageReaction, nil))
	})

	s.discord.AddHandler(func(sess *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionMessageComponent || i.GuildID == "" {
			return
		}

		data := i.MessageComponentData()
		eventType := models.EventButtonClick
		if data.ComponentType == discordgo.SelectMenuComponent {
			eventType = models.EventSelectMenu
		}

		event := s.baseEvent(eventType, i.GuildID)
		if i.Member != nil {
			fillMember(event, i.Member)
		}
		event.ChannelID = i.ChannelID
		event.CustomID = data.CustomID
		if i.Message != nil {
			event.MessageID = i.Message.ID
		}
		eng.HandleEvent(event)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, v *discordgo.VoiceStateUpdate) {
		if v.GuildID == "" {
			return
		}

		var before string
		if v.BeforeUpdate != nil {
			before = v.BeforeUpdate.ChannelID
		}

		switch {
		case v.ChannelID != "" && before == "":
			event := s.baseEvent(models.EventVoiceJoin, v.GuildID)
			fillMember(event, v.Member)
			event.VoiceChannelID = v.ChannelID
			eng.HandleEvent(event)
		case v.ChannelID == "" && before != "":
			event := s.baseEvent(models.EventVoiceLeave, v.GuildID)
			fillMember(event, v.Member)
			event.VoiceChannelID = before
			eng.HandleEvent(event)
		}
	})

	// Role changes arrive as member updates; diff against the previous
	// state to recover which role was granted or revoked.
	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.GuildMemberUpdate) {
		if m.GuildID == "" || m.BeforeUpdate == nil {
			return
		}

		added, removed := diffRoles(m.BeforeUpdate.Roles, m.Roles)
		for _, roleID := range added {
			event := s.baseEvent(models.EventRoleAdd, m.GuildID)
			fillMember(event, m.Member)
			event.RoleID = roleID
			eng.HandleEvent(event)
		}
		for _, roleID := range removed {
			event := s.baseEvent(models.EventRoleRemove, m.GuildID)
			fillMember(event, m.Member)
			event.RoleID = roleID
			eng.HandleEvent(event)
		}
	})

	logging.Info("Discord event handlers configured")
}

func (s *Session) baseEvent(eventType, guildID string) *models.Event {
	event := &models.Event{
		Type:      eventType,
		GuildID:   guildID,
		Timestamp: time.Now(),
	}
	if guild, err := s.discord.State.Guild(guildID); err == nil {
		event.GuildName = guild.Name
		event.MemberCount = guild.MemberCount
		event.GuildIconURL = guild.IconURL("")
	}
	return event
}

func (s *Session) reactionEvent(eventType string, r *discordgo.MessageReaction, member *discordgo.Member) *models.Event {
	if r.GuildID == "" {
		return nil
	}
	event := s.baseEvent(eventType, r.GuildID)
	event.UserID = r.UserID
	event.ChannelID = r.ChannelID
	event.MessageID = r.MessageID
	event.Emoji = r.Emoji.APIName()
	if member != nil {
		fillMember(event, member)
		event.UserID = r.UserID
	}
	return event
}

func fillUser(event *models.Event, user *discordgo.User) {
	event.UserID = user.ID
	event.Username = user.Username
	event.DisplayName = user.GlobalName
	if event.DisplayName == "" {
		event.DisplayName = user.Username
	}
	event.AvatarURL = user.AvatarURL("")
	event.UserIsBot = user.Bot
}

func fillMember(event *models.Event, member *discordgo.Member) {
	if member == nil {
		return
	}
	if member.User != nil {
		fillUser(event, member.User)
	}
	if member.Nick != "" {
		event.DisplayName = member.Nick
	}
	event.Roles = member.Roles
}

func diffRoles(before, after []string) (added, removed []string) {
	beforeSet := make(map[string]struct{}, len(before))
	for _, role := range before {
		beforeSet[role] = struct{}{}
	}
	afterSet := make(map[string]struct{}, len(after))
	for _, role := range after {
		afterSet[role] = struct{}{}
	}

	for _, role := range after {
		if _, ok := beforeSet[role]; !ok {
			added = append(added, role)
		}
	}
	for _, role := range before {
		if _, ok := afterSet[role]; !ok {
			removed = append(removed, role)
		}
	}
	return added, removed
}
