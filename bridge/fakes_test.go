package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/qaisjp/discord-irc-mediator/transmitter"
)

var errNotFound = errors.New("not found")

// fakeGuild is an in-memory guild that counts lookups.
type fakeGuild struct {
	mu       sync.Mutex
	members  []*discordgo.Member
	roles    []*discordgo.Role
	channels []*discordgo.Channel
	emojis   []*discordgo.Emoji
	calls    map[string]int
}

func (g *fakeGuild) count(name string) {
	if g.calls == nil {
		g.calls = make(map[string]int)
	}
	g.calls[name]++
}

func (g *fakeGuild) Calls(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[name]
}

func (g *fakeGuild) addMember(id, username, nick, globalName, avatar string, roles ...string) *discordgo.Member {
	g.mu.Lock()
	defer g.mu.Unlock()
	m := &discordgo.Member{
		Nick:  nick,
		Roles: roles,
		User:  &discordgo.User{ID: id, Username: username, GlobalName: globalName, Avatar: avatar},
	}
	g.members = append(g.members, m)
	return m
}

func (g *fakeGuild) Member(ctx context.Context, userID string) (*discordgo.Member, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.count("member")
	for _, m := range g.members {
		if m.User.ID == userID {
			return m, nil
		}
	}
	return nil, errNotFound
}

func (g *fakeGuild) Members(ctx context.Context) ([]*discordgo.Member, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.count("members")
	return append([]*discordgo.Member(nil), g.members...), nil
}

func (g *fakeGuild) Role(ctx context.Context, roleID string) (*discordgo.Role, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.count("role")
	for _, r := range g.roles {
		if r.ID == roleID {
			return r, nil
		}
	}
	return nil, errNotFound
}

func (g *fakeGuild) Roles(ctx context.Context) ([]*discordgo.Role, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.count("roles")
	return append([]*discordgo.Role(nil), g.roles...), nil
}

func (g *fakeGuild) Channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.count("channel")
	for _, c := range g.channels {
		if c.ID == channelID {
			return c, nil
		}
	}
	return nil, errNotFound
}

func (g *fakeGuild) Channels(ctx context.Context) ([]*discordgo.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.count("channels")
	return append([]*discordgo.Channel(nil), g.channels...), nil
}

func (g *fakeGuild) Emojis(ctx context.Context) ([]*discordgo.Emoji, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.count("emojis")
	return append([]*discordgo.Emoji(nil), g.emojis...), nil
}

type sentMessage struct {
	channelID string
	msg       *discordgo.MessageSend
}

// fakeDiscord records messages the bot posts.
type fakeDiscord struct {
	*fakeGuild
	userID string

	mu   sync.Mutex
	sent []sentMessage
}

func (d *fakeDiscord) UserID() string { return d.userID }

func (d *fakeDiscord) SendMessage(channelID string, msg *discordgo.MessageSend) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, sentMessage{channelID, msg})
	return nil
}

func (d *fakeDiscord) Contents() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var contents []string
	for _, s := range d.sent {
		contents = append(contents, s.msg.Content)
	}
	return contents
}

type ircLine struct {
	target, text string
}

// fakeIRC records PRIVMSGs.
type fakeIRC struct {
	nick string

	mu    sync.Mutex
	lines []ircLine
}

func (f *fakeIRC) GetNick() string { return f.nick }

func (f *fakeIRC) Privmsg(target, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, ircLine{target, message})
}

func (f *fakeIRC) Texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var texts []string
	for _, l := range f.lines {
		texts = append(texts, l.text)
	}
	return texts
}

// fakeExecutor records webhook executions.
type fakeExecutor struct {
	mu     sync.Mutex
	params []*discordgo.WebhookParams
}

func (f *fakeExecutor) WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params = append(f.params, data)
	return &discordgo.Message{WebhookID: webhookID, Content: data.Content}, nil
}

func (f *fakeExecutor) Params() []*discordgo.WebhookParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*discordgo.WebhookParams(nil), f.params...)
}

// fakeCompanion claims the listed message IDs.
type fakeCompanion struct {
	mu      sync.Mutex
	claimed map[string]bool
	asked   []string
}

func (c *fakeCompanion) Claimed(ctx context.Context, messageID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.asked = append(c.asked, messageID)
	return c.claimed[messageID], nil
}

const (
	testBotID        = "bot-user"
	testWebhookID    = "webhook-1"
	textChannelID    = "1234"
	webhookChannelID = "1236"
)

type testBridge struct {
	med      *Mediator
	guild    *fakeGuild
	discord  *fakeDiscord
	irc      *fakeIRC
	executor *fakeExecutor
	config   *Config
}

func newTestGuild() *fakeGuild {
	g := &fakeGuild{
		channels: []*discordgo.Channel{
			{ID: textChannelID, Name: "discord", Type: discordgo.ChannelTypeGuildText},
			{ID: "1235", Name: "channel-compliqué", Type: discordgo.ChannelTypeGuildText},
			{ID: webhookChannelID, Name: "webhooked", Type: discordgo.ChannelTypeGuildText},
			{ID: "9999", Name: "voice", Type: discordgo.ChannelTypeGuildVoice},
		},
		roles: []*discordgo.Role{
			{ID: "12345", Name: "example-role", Mentionable: true},
			{ID: "12346", Name: "hidden-role", Mentionable: false},
		},
		emojis: []*discordgo.Emoji{
			{ID: "987", Name: "testemoji", RequireColons: true},
			{ID: "988", Name: "animated", RequireColons: true, Animated: true},
		},
	}
	g.addMember("123", "testuser", "", "", "")
	return g
}

func newTestConfig() *Config {
	cfg := &Config{
		Server:       "irc.example.net",
		Nickname:     "bridgebot",
		DiscordToken: "token",
		GuildID:      "guild",
		ChannelMapping: map[string]string{
			"#discord":       "#irc channelKey",
			webhookChannelID: "#ircwebhook",
		},
		Webhooks: map[string]string{
			"#webhooked": "https://discord.com/api/webhooks/" + testWebhookID + "/token",
		},
		CommandCharacters: []string{"!", "."},
	}
	cfg.SetDefaults()
	return cfg
}

func newTestBridge(t *testing.T, configure func(*Config), guild *fakeGuild, companion Companion) *testBridge {
	t.Helper()

	cfg := newTestConfig()
	if configure != nil {
		configure(cfg)
	}
	require.NoError(t, cfg.Validate())

	if guild == nil {
		guild = newTestGuild()
	}
	discord := &fakeDiscord{fakeGuild: guild, userID: testBotID}
	ircConn := &fakeIRC{nick: cfg.Nickname}
	executor := &fakeExecutor{}

	mapper, err := NewMapper(context.Background(), cfg.ChannelMapping, cfg.Webhooks, guild)
	require.NoError(t, err)

	tr := transmitter.New(executor)
	for _, mapping := range mapper.Mappings() {
		if mapping.Webhook != nil {
			tr.AddWebhook(mapping.DiscordChannel.ID, mapping.Webhook)
		}
	}

	med, err := NewMediator(cfg, discord, ircConn, mapper, tr, companion, nil)
	require.NoError(t, err)
	med.now = func() time.Time { return time.Unix(1700000000, 0) }

	return &testBridge{
		med:      med,
		guild:    guild,
		discord:  discord,
		irc:      ircConn,
		executor: executor,
		config:   cfg,
	}
}

// discordMessage builds a message from the guild member with the given ID.
func discordMessage(channelID, authorID, username, content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "msg-" + content,
		ChannelID: channelID,
		Content:   content,
		Author:    &discordgo.User{ID: authorID, Username: username},
		Timestamp: time.Unix(1700000000, 0).Add(-time.Minute),
	}
}
