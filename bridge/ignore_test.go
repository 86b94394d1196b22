package bridge

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnorePolicy(t *testing.T) {
	p, err := NewIgnorePolicy(IgnoreUsers{
		IRC:          []string{"SpamBot"},
		IRCHostmasks: []string{"*!*@*.spam.example"},
		Discord:      []string{"Noisy"},
		DiscordIDs:   []string{"42"},
		Roles:        []string{"muted", "777"},
	}, IgnoreConfig{
		IgnorePatterns: map[string][]string{
			"#IRC": {"[off-topic]", "!skip *", "anyone there?"},
		},
		IgnorePingIRCUsers: []string{"Relay"},
	})
	require.NoError(t, err)

	t.Run("irc nick", func(t *testing.T) {
		assert.True(t, p.IgnoreIRCUser("spambot", ""))
		assert.False(t, p.IgnoreIRCUser("human", ""))
	})

	t.Run("irc hostmask", func(t *testing.T) {
		assert.True(t, p.IgnoreIRCUser("human", "human!~h@box.SPAM.example"))
		assert.False(t, p.IgnoreIRCUser("human", "human!~h@box.ham.example"))
	})

	t.Run("discord user", func(t *testing.T) {
		assert.True(t, p.IgnoreDiscordUser("noisy", "1"))
		assert.True(t, p.IgnoreDiscordUser("quiet", "42"))
		assert.False(t, p.IgnoreDiscordUser("quiet", "1"))
	})

	t.Run("roles", func(t *testing.T) {
		assert.True(t, p.HasRoleRules())
		assert.True(t, p.IgnoreRoleID("777"))
		assert.True(t, p.IgnoreRole(&discordgo.Role{ID: "5", Name: "Muted"}))
		assert.False(t, p.IgnoreRole(&discordgo.Role{ID: "6", Name: "member"}))
	})

	t.Run("patterns", func(t *testing.T) {
		assert.True(t, p.IgnoreMessage("#irc", "this is [off-topic] chatter"))
		assert.True(t, p.IgnoreMessage("#irc", "well !skip * now"))
		assert.False(t, p.IgnoreMessage("#irc", "!skip this one"), "* is literal")
		assert.True(t, p.IgnoreMessage("#irc", "hey, anyone there? lol"))
		assert.False(t, p.IgnoreMessage("#irc", "anyone there!"), "? is literal")
		assert.False(t, p.IgnoreMessage("#other", "[off-topic]"))
	})

	t.Run("pings", func(t *testing.T) {
		assert.True(t, p.SkipPings("relay"))
		assert.False(t, p.SkipPings("human"))
	})
}

func TestIgnorePolicyInvalidGlob(t *testing.T) {
	_, err := NewIgnorePolicy(IgnoreUsers{IRCHostmasks: []string{"[unclosed"}}, IgnoreConfig{})
	assert.Error(t, err)
}
