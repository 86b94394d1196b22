package bridge

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// notify posts a membership change to the Discord side of an IRC channel,
// when status notices are enabled.
func (m *Mediator) notify(ircChannel, text string) {
	if !m.config.IRCStatusNotices {
		return
	}
	mapping, ok := m.mapper.ByIRC(ircChannel)
	if !ok {
		return
	}
	m.postDiscord(mapping, text)
}

// HandleNames replaces a channel's roster with a complete names list.
func (m *Mediator) HandleNames(channel string, nicks []string) {
	if _, ok := m.mapper.ByIRC(channel); !ok {
		return
	}
	m.roster.Replace(channel, nicks)
	log.WithFields(log.Fields{"channel": channel, "count": len(nicks)}).Debugln("Received IRC names")
}

// HandleJoin records nick joining channel.
func (m *Mediator) HandleJoin(channel, nick string) {
	if _, ok := m.mapper.ByIRC(channel); !ok {
		return
	}
	if nick == m.irc.GetNick() {
		log.WithField("channel", channel).Infoln("Joined IRC channel")
		if !m.config.AnnounceSelfJoin {
			return
		}
	}
	m.roster.Add(channel, nick)
	m.notify(channel, fmt.Sprintf("*%s* has joined the channel", nick))
}

// HandlePart records nick leaving channel. When the bridge itself leaves,
// the channel's roster is forgotten.
func (m *Mediator) HandlePart(channel, nick, reason string) {
	if _, ok := m.mapper.ByIRC(channel); !ok {
		return
	}
	if nick == m.irc.GetNick() {
		log.WithField("channel", channel).Infoln("Left IRC channel")
		m.roster.Drop(channel)
		return
	}
	m.roster.Remove(channel, nick)
	m.notify(channel, fmt.Sprintf("*%s* has left the channel (%s)", nick, reason))
}

// HandleKick records nick being kicked from channel.
func (m *Mediator) HandleKick(channel, nick, by, reason string) {
	if _, ok := m.mapper.ByIRC(channel); !ok {
		return
	}
	if nick == m.irc.GetNick() {
		log.WithFields(log.Fields{"channel": channel, "by": by, "reason": reason}).Warnln("Kicked from IRC channel")
		m.roster.Drop(channel)
		return
	}
	m.roster.Remove(channel, nick)
	m.notify(channel, fmt.Sprintf("*%s* was kicked by %s (%s)", nick, by, reason))
}

// HandleQuit removes nick from every channel it was in.
func (m *Mediator) HandleQuit(nick, reason string) {
	if nick == m.irc.GetNick() {
		return
	}
	for _, channel := range m.roster.RemoveEverywhere(nick) {
		m.notify(channel, fmt.Sprintf("*%s* has quit (%s)", nick, reason))
	}
}

// HandleNick renames oldNick in every channel it was in.
func (m *Mediator) HandleNick(oldNick, newNick string) {
	for _, channel := range m.roster.Rename(oldNick, newNick) {
		m.notify(channel, fmt.Sprintf("*%s* is now known as %s", oldNick, newNick))
	}
}
