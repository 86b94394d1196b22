package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresenceTracksRoster(t *testing.T) {
	tb := newTestBridge(t, nil, nil, nil)
	med := tb.med

	med.HandleJoin("#irc", "early")
	_, ok := med.roster.Nicks("#irc")
	assert.False(t, ok, "joins before a names list are not tracked")

	med.HandleNames("#irc", []string{"alice", "bob"})
	med.HandleNames("#unmapped", []string{"carol"})
	_, ok = med.roster.Nicks("#unmapped")
	assert.False(t, ok)

	med.HandleJoin("#IRC", "carol")
	med.HandlePart("#irc", "alice", "bye")
	med.HandleNick("bob", "robert")
	med.HandleQuit("carol", "Quit: leaving")

	nicks, ok := med.roster.Nicks("#irc")
	assert.True(t, ok)
	assert.Equal(t, []string{"robert"}, nicks)

	med.HandleJoin("#irc", "dave")
	med.HandleKick("#irc", "dave", "robert", "behave")
	nicks, _ = med.roster.Nicks("#irc")
	assert.Equal(t, []string{"robert"}, nicks)

	assert.Empty(t, tb.discord.sent, "notices are off by default")
}

func TestPresenceNotices(t *testing.T) {
	tb := newTestBridge(t, func(c *Config) { c.IRCStatusNotices = true }, nil, nil)
	med := tb.med

	med.HandleNames("#irc", []string{"alice", "bob"})
	med.HandleJoin("#irc", "carol")
	med.HandlePart("#irc", "carol", "gone")
	med.HandleKick("#irc", "bob", "alice", "spam")
	med.HandleNick("alice", "alicia")
	med.HandleQuit("alicia", "Ping timeout")
	med.HandleQuit("stranger", "not in any channel")

	assert.Equal(t, []string{
		"*carol* has joined the channel",
		"*carol* has left the channel (gone)",
		"*bob* was kicked by alice (spam)",
		"*alice* is now known as alicia",
		"*alicia* has quit (Ping timeout)",
	}, tb.discord.Contents())
	for _, s := range tb.discord.sent {
		assert.Equal(t, textChannelID, s.channelID)
	}
}

func TestPresenceSelf(t *testing.T) {
	t.Run("silent", func(t *testing.T) {
		tb := newTestBridge(t, func(c *Config) { c.IRCStatusNotices = true }, nil, nil)
		med := tb.med

		med.HandleNames("#irc", []string{"bridgebot", "alice"})
		med.HandleJoin("#irc", "bridgebot")
		med.HandleQuit("bridgebot", "restart")

		nicks, _ := med.roster.Nicks("#irc")
		assert.Equal(t, []string{"bridgebot", "alice"}, nicks)
		assert.Empty(t, tb.discord.sent)

		med.HandlePart("#irc", "bridgebot", "")
		_, ok := med.roster.Nicks("#irc")
		assert.False(t, ok, "leaving forgets the roster")
	})

	t.Run("announced", func(t *testing.T) {
		tb := newTestBridge(t, func(c *Config) {
			c.IRCStatusNotices = true
			c.AnnounceSelfJoin = true
		}, nil, nil)
		med := tb.med

		med.HandleNames("#irc", []string{"alice"})
		med.HandleJoin("#irc", "bridgebot")

		nicks, _ := med.roster.Nicks("#irc")
		assert.Equal(t, []string{"alice", "bridgebot"}, nicks)
		assert.Equal(t, []string{"*bridgebot* has joined the channel"}, tb.discord.Contents())
	})

	t.Run("kicked", func(t *testing.T) {
		tb := newTestBridge(t, nil, nil, nil)
		med := tb.med

		med.HandleNames("#irc", []string{"bridgebot"})
		med.HandleKick("#irc", "bridgebot", "op", "bye")
		_, ok := med.roster.Nicks("#irc")
		assert.False(t, ok)
	})
}
