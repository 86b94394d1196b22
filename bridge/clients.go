package bridge

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// Guild answers lookups about the bridged Discord guild.
type Guild interface {
	Member(ctx context.Context, userID string) (*discordgo.Member, error)
	Members(ctx context.Context) ([]*discordgo.Member, error)
	Role(ctx context.Context, roleID string) (*discordgo.Role, error)
	Roles(ctx context.Context) ([]*discordgo.Role, error)
	Channel(ctx context.Context, channelID string) (*discordgo.Channel, error)
	Channels(ctx context.Context) ([]*discordgo.Channel, error)
	Emojis(ctx context.Context) ([]*discordgo.Emoji, error)
}

// Discord is the Discord side of the bridge.
type Discord interface {
	Guild

	// UserID is the bot's own user ID.
	UserID() string

	// SendMessage posts a message as the bot itself.
	SendMessage(channelID string, msg *discordgo.MessageSend) error
}

// IRC is the IRC side of the bridge. *irc.Connection satisfies it.
type IRC interface {
	Privmsg(target, message string)
	GetNick() string
}

// Companion reports whether a proxy service has taken over a Discord message.
type Companion interface {
	Claimed(ctx context.Context, messageID string) (bool, error)
}
