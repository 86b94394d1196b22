package bridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIRCChannel(t *testing.T) {
	cases := []struct {
		Input   string
		Channel string
		Key     string
		Err     bool
	}{
		{"#irc", "#irc", "", false},
		{"#irc key", "#irc", "key", false},
		{"irc", "", "", true},
		{"#irc key extra", "", "", true},
		{"#a,#b", "", "", true},
	}

	for _, c := range cases {
		t.Run(c.Input, func(t *testing.T) {
			channel, key, err := ParseIRCChannel(c.Input)
			if c.Err {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, c.Channel, channel)
			assert.Equal(t, c.Key, key)
		})
	}
}

func TestNewMapper(t *testing.T) {
	guild := newTestGuild()
	mapper, err := NewMapper(context.Background(), map[string]string{
		"#discord":   "#irc channelKey",
		"1236":       "#IRCWebhook",
		"#Discord":   "#wrongcase",
		"#voice":     "#voice",
		"404":        "#missing",
		"9999":       "#voicebyid",
		"#webhooked": "#unused",
	}, map[string]string{
		"1236": "https://discord.com/api/webhooks/1/tok",
	}, guild)

	// "#webhooked" and "1236" are the same channel
	require.Error(t, err)
	assert.Nil(t, mapper)

	mapper, err = NewMapper(context.Background(), map[string]string{
		"#discord": "#irc channelKey",
		"1236":     "#IRCWebhook",
		"#Discord": "#wrongcase",
		"#voice":   "#voice",
		"404":      "#missing",
		"9999":     "#voicebyid",
	}, map[string]string{
		"1236": "https://discord.com/api/webhooks/1/tok",
	}, guild)
	require.NoError(t, err)
	assert.Len(t, mapper.Mappings(), 2)

	m, ok := mapper.ByDiscord(textChannelID)
	require.True(t, ok)
	assert.Equal(t, "#irc", m.IRCChannel)
	assert.Equal(t, "channelKey", m.IRCKey)
	assert.Nil(t, m.Webhook)

	m, ok = mapper.ByIRC("#ircwebhook")
	require.True(t, ok)
	assert.Equal(t, webhookChannelID, m.DiscordChannel.ID)
	require.NotNil(t, m.Webhook)
	assert.Equal(t, "1", m.Webhook.ID)
	assert.Equal(t, "tok", m.Webhook.Token)

	_, ok = mapper.ByIRC("#wrongcase")
	assert.False(t, ok, "channel names are matched case-sensitively")
	_, ok = mapper.ByIRC("#voice")
	assert.False(t, ok)
	_, ok = mapper.ByIRC("#missing")
	assert.False(t, ok)
}

func TestNewMapperDuplicateIRC(t *testing.T) {
	_, err := NewMapper(context.Background(), map[string]string{
		"#discord": "#irc",
		"1236":     "#IRC",
	}, nil, newTestGuild())
	assert.Error(t, err)
}

func TestNewMapperMalformed(t *testing.T) {
	_, err := NewMapper(context.Background(), map[string]string{
		"#discord": "irc",
	}, nil, newTestGuild())
	assert.Error(t, err)
}

func TestJoinCommand(t *testing.T) {
	mapper, err := NewMapper(context.Background(), map[string]string{
		"#discord":   "#plain",
		"1235":       "#keyed secret",
		"#webhooked": "#other",
	}, nil, newTestGuild())
	require.NoError(t, err)

	assert.Equal(t, "JOIN #keyed,#plain,#other secret", mapper.JoinCommand())

	m, _ := mapper.ByIRC("#keyed")
	assert.Equal(t, "#keyed secret", m.JoinTarget())
	m, _ = mapper.ByIRC("#plain")
	assert.Equal(t, "#plain", m.JoinTarget())
}
