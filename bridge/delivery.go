package bridge

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const avatarSize = "128"

// allowedMentions never includes @everyone or @here.
func (m *Mediator) allowedMentions() *discordgo.MessageAllowedMentions {
	parse := []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers}
	if *m.config.AllowRolePings {
		parse = append(parse, discordgo.AllowedMentionTypeRoles)
	}
	return &discordgo.MessageAllowedMentions{Parse: parse}
}

// postDiscord sends content as the bot itself.
func (m *Mediator) postDiscord(mapping *Mapping, content string) {
	content = EscapeEveryone(content)
	if content == "" {
		content = zeroWidthSpace
	}

	err := m.discord.SendMessage(mapping.DiscordChannel.ID, &discordgo.MessageSend{
		Content:         content,
		AllowedMentions: m.allowedMentions(),
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"msg.channel": mapping.DiscordChannel.ID,
			"msg.content": content,
		}).Errorln("could not transmit SYSTEM message to discord")
	}
}

// deliverWebhook posts content through the channel's webhook as nick.
func (m *Mediator) deliverWebhook(ctx context.Context, mapping *Mapping, nick, content string) {
	content = EscapeEveryone(content)

	// No content = zero width space
	if content == "" {
		content = zeroWidthSpace
	}

	params := &discordgo.WebhookParams{
		Username:        ClampUsername(nick),
		AvatarURL:       m.avatarURL(ctx, nick),
		Content:         content,
		AllowedMentions: m.allowedMentions(),
	}

	if _, err := m.transmitter.Message(mapping.DiscordChannel.ID, params); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"msg.channel":  mapping.DiscordChannel.ID,
			"msg.username": params.Username,
			"msg.avatar":   params.AvatarURL,
			"msg.content":  params.Content,
		}).Errorln("could not transmit message to discord")
	}
}

func hasAvatar(member *discordgo.Member) bool {
	return member.Avatar != "" || (member.User != nil && member.User.Avatar != "")
}

func matchesNick(member *discordgo.Member, nick string) bool {
	if member.User == nil {
		return false
	}
	for _, name := range []string{member.User.Username, member.User.GlobalName, member.Nick} {
		if name != "" && strings.EqualFold(name, nick) {
			return true
		}
	}
	return false
}

// avatarURL borrows the avatar of the one guild member whose name matches nick.
// No match, or more than one, falls back to the configured avatar template.
func (m *Mediator) avatarURL(ctx context.Context, nick string) string {
	members, err := m.resolver.Members(ctx)
	if err != nil {
		log.WithError(err).Warnln("Could not list guild members for avatar lookup")
	}

	var match *discordgo.Member
	matches := 0
	for _, member := range members {
		if matchesNick(member, nick) {
			match = member
			matches++
		}
	}

	if matches == 1 && hasAvatar(match) {
		return match.AvatarURL(avatarSize)
	}

	if m.config.Format.WebhookAvatarURL != "" {
		return SubstitutePattern(m.config.Format.WebhookAvatarURL, map[string]string{"nickname": nick})
	}
	return ""
}
