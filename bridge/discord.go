package bridge

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/qaisjp/discord-irc-mediator/dstate"
)

// discordBot is the Discord side of the bridge, backed by a discordgo session.
type discordBot struct {
	session *discordgo.Session
	bridge  *Bridge
	guildID string
}

func newDiscord(bridge *Bridge, botToken, guildID string, debug bool) (*discordBot, error) {
	// Create a new Discord session using the provided bot token.
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, errors.Wrap(err, "discord, could not create new session")
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildEmojis |
		discordgo.IntentsMessageContent

	// Handlers run one at a time, in the order Discord sent the events.
	session.SyncEvents = true

	d := &discordBot{
		session: session,
		bridge:  bridge,
		guildID: guildID,
	}
	d.SetDebugMode(debug)

	return d, nil
}

// SetDebugMode controls how much discordgo logs.
func (d *discordBot) SetDebugMode(debug bool) {
	if debug {
		d.session.LogLevel = discordgo.LogDebug
	} else {
		d.session.LogLevel = discordgo.LogWarning
	}
}

// Open connects to the gateway and starts delivering events.
func (d *discordBot) Open() error {
	for _, handler := range d.handlers() {
		d.session.AddHandler(handler)
	}
	return d.session.Open()
}

// Close disconnects from the gateway.
func (d *discordBot) Close() error {
	return d.session.Close()
}

// UserID is the bot's own user ID.
func (d *discordBot) UserID() string {
	if user := d.session.State.User; user != nil {
		return user.ID
	}
	return ""
}

// SendMessage posts a message as the bot.
func (d *discordBot) SendMessage(channelID string, msg *discordgo.MessageSend) error {
	_, err := d.session.ChannelMessageSendComplex(channelID, msg)
	return err
}

func (d *discordBot) Member(ctx context.Context, userID string) (*discordgo.Member, error) {
	return dstate.Member(d.session, d.guildID, userID, discordgo.WithContext(ctx))
}

func (d *discordBot) Members(ctx context.Context) ([]*discordgo.Member, error) {
	return dstate.Members(d.session, d.guildID, discordgo.WithContext(ctx))
}

func (d *discordBot) Role(ctx context.Context, roleID string) (*discordgo.Role, error) {
	return dstate.Role(d.session, d.guildID, roleID, discordgo.WithContext(ctx))
}

func (d *discordBot) Roles(ctx context.Context) ([]*discordgo.Role, error) {
	return dstate.Roles(d.session, d.guildID, discordgo.WithContext(ctx))
}

func (d *discordBot) Channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	return dstate.Channel(d.session, channelID, discordgo.WithContext(ctx))
}

func (d *discordBot) Channels(ctx context.Context) ([]*discordgo.Channel, error) {
	return dstate.Channels(d.session, d.guildID, discordgo.WithContext(ctx))
}

func (d *discordBot) Emojis(ctx context.Context) ([]*discordgo.Emoji, error) {
	return dstate.Emojis(d.session, d.guildID, discordgo.WithContext(ctx))
}
