package bridge

import (
	"context"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/qaisjp/discord-irc-mediator/dstate"
)

// handlers lists every Discord event the bridge reacts to.
func (d *discordBot) handlers() []interface{} {
	return []interface{}{
		d.onReady,
		d.onResumed,
		d.onDisconnect,
		d.onMessageCreate,
		d.onMessageUpdate,
		d.onMemberUpdate,
		d.onMemberLeave,
		d.onRoleUpdate,
		d.onRoleDelete,
		d.onChannelUpdate,
		d.onChannelDelete,
		d.onGuildEmojisUpdate,
	}
}

func (d *discordBot) onReady(s *discordgo.Session, m *discordgo.Ready) {
	log.WithField("user", m.User.Username).Infoln("Connected to Discord")
}

func (d *discordBot) onResumed(s *discordgo.Session, m *discordgo.Resumed) {
	log.Infoln("Discord connection resumed")
}

func (d *discordBot) onDisconnect(s *discordgo.Session, m *discordgo.Disconnect) {
	if d.bridge.exiting.Load() {
		return
	}
	log.Warnln("Disconnected from Discord, reconnecting")
}

func (d *discordBot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	d.publishMessage(m.Message, false)
}

func (d *discordBot) onMessageUpdate(s *discordgo.Session, m *discordgo.MessageUpdate) {
	msg := m.Message

	// Updates that only carry embeds have no author
	if msg.Author == nil {
		full, err := dstate.ChannelMessage(s, msg.ChannelID, msg.ID)
		if err != nil {
			log.WithError(err).WithField("message", msg.ID).Debugln("Could not fetch updated message")
			return
		}
		msg = full
	}

	d.publishMessage(msg, true)
}

func (d *discordBot) publishMessage(msg *discordgo.Message, edited bool) {
	if msg.GuildID != "" && msg.GuildID != d.guildID {
		return
	}

	d.bridge.enqueue(func(ctx context.Context) {
		d.bridge.mediator.HandleDiscordMessage(ctx, msg, edited)
	})
}

// forget drops cached guild entities on the bridge loop.
func (d *discordBot) forget(fn func(r *Resolver)) {
	d.bridge.enqueue(func(context.Context) {
		fn(d.bridge.mediator.Resolver())
	})
}

func (d *discordBot) onMemberUpdate(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	if m.GuildID == d.guildID && m.User != nil {
		d.forget(func(r *Resolver) { r.ForgetMember(m.User.ID) })
	}
}

// onMemberLeave is triggered when a user is removed from a guild (leave/kick/ban).
func (d *discordBot) onMemberLeave(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	if m.GuildID == d.guildID && m.User != nil {
		d.forget(func(r *Resolver) { r.ForgetMember(m.User.ID) })
	}
}

func (d *discordBot) onRoleUpdate(s *discordgo.Session, m *discordgo.GuildRoleUpdate) {
	if m.GuildID == d.guildID {
		d.forget(func(r *Resolver) { r.ForgetRoles() })
	}
}

func (d *discordBot) onRoleDelete(s *discordgo.Session, m *discordgo.GuildRoleDelete) {
	if m.GuildID == d.guildID {
		d.forget(func(r *Resolver) { r.ForgetRoles() })
	}
}

func (d *discordBot) onChannelUpdate(s *discordgo.Session, m *discordgo.ChannelUpdate) {
	if m.GuildID == d.guildID {
		d.forget(func(r *Resolver) { r.ForgetChannels() })
	}
}

func (d *discordBot) onChannelDelete(s *discordgo.Session, m *discordgo.ChannelDelete) {
	if m.GuildID == d.guildID {
		d.forget(func(r *Resolver) { r.ForgetChannels() })
	}
}

func (d *discordBot) onGuildEmojisUpdate(s *discordgo.Session, m *discordgo.GuildEmojisUpdate) {
	if m.GuildID == d.guildID {
		d.forget(func(r *Resolver) { r.ForgetEmojis() })
	}
}
