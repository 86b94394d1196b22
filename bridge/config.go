package bridge

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	ircf "github.com/qaisjp/discord-irc-mediator/irc/format"
	"github.com/qaisjp/discord-irc-mediator/ircnick"
	"github.com/qaisjp/discord-irc-mediator/transmitter"
)

// Default message templates. Placeholders are written {$name}.
const (
	DefaultIRCText          = "<{$displayUsername} [@{$discordUsername}]> {$text}"
	DefaultURLAttachment    = "<{$displayUsername} [@{$discordUsername}]> {$attachmentURL}"
	DefaultDiscord          = "**<{$author}>** {$withMentions}"
	DefaultCommandPrelude   = "Command sent from {$side} by {$nickname}:"
	defaultPlainPort        = 6667
	defaultTLSPort          = 6697
	defaultCompanionDelayMS = 1000
	defaultCompanionCacheS  = 300
	defaultCacheSeconds     = 30
)

// Config to be passed to New
type Config struct {
	Server      string `yaml:"server"`
	Port        int    `yaml:"port"`
	TLS         bool   `yaml:"tls"`
	Insecure    bool   `yaml:"insecure"`
	Nickname    string `yaml:"nickname"`
	IRCPassword string `yaml:"ircPassword"`

	DiscordToken string `yaml:"discordToken"`
	GuildID      string `yaml:"guildId"`

	// Map from Discord channel (ID or #name) to IRC "#channel [key]"
	ChannelMapping map[string]string `yaml:"channelMapping"`

	// Map from Discord channel (ID or #name) to webhook URL
	Webhooks map[string]string `yaml:"webhooks"`

	CommandCharacters []string   `yaml:"commandCharacters"`
	AutoSendCommands  [][]string `yaml:"autoSendCommands"`

	IRCNickColor     bool     `yaml:"ircNickColor"`
	IRCNickColors    []string `yaml:"ircNickColors"`
	ParallelPingFix  bool     `yaml:"parallelPingFix"`
	IRCStatusNotices bool     `yaml:"ircStatusNotices"`
	AnnounceSelfJoin bool     `yaml:"announceSelfJoin"`

	SendMessageUpdates bool  `yaml:"sendMessageUpdates"`
	AllowRolePings     *bool `yaml:"allowRolePings"`

	IgnoreUsers   IgnoreUsers   `yaml:"ignoreUsers"`
	IgnoreConfig  IgnoreConfig  `yaml:"ignoreConfig"`
	GameLogConfig GameLogConfig `yaml:"gameLogConfig"`
	Format        Format        `yaml:"format"`

	PluralKit          bool `yaml:"pluralKit"`
	PluralKitWaitDelay int  `yaml:"pluralKitWaitDelay"` // milliseconds
	PKCacheSeconds     int  `yaml:"pkCacheSeconds"`
	CacheSeconds       int  `yaml:"cacheSeconds"`

	MetricsAddr string `yaml:"metricsAddr"`

	Debug   bool `yaml:"debug"`
	Verbose bool `yaml:"verbose"`
}

// Format holds the message templates and formatting options.
type Format struct {
	IRCText       string `yaml:"ircText"`
	URLAttachment string `yaml:"urlAttachment"`
	Discord       string `yaml:"discord"`

	// CommandPrelude is announced before relayed commands.
	// Unset means DefaultCommandPrelude, empty means no prelude.
	CommandPrelude *string `yaml:"commandPrelude"`

	WebhookAvatarURL string `yaml:"webhookAvatarURL"`

	// ColorEmphasis maps an IRC colour (name or code) to a markdown emphasis.
	ColorEmphasis map[string]string `yaml:"colorEmphasis"`
}

// IgnoreUsers lists identities whose messages are never relayed.
type IgnoreUsers struct {
	IRC          []string `yaml:"irc"`
	IRCHostmasks []string `yaml:"ircHostmasks"`
	Discord      []string `yaml:"discord"`
	DiscordIDs   []string `yaml:"discordIds"`
	Roles        []string `yaml:"roles"`
}

// IgnoreConfig holds content based filters.
type IgnoreConfig struct {
	// IgnorePatterns maps an IRC channel to message patterns that are not relayed.
	IgnorePatterns map[string][]string `yaml:"ignorePatterns"`

	// IgnorePingIRCUsers lists IRC nicks whose messages never resolve into pings.
	IgnorePingIRCUsers []string `yaml:"ignorePingIrcUsers"`
}

// GameLogConfig recolours messages from game servers relaying into IRC.
type GameLogConfig struct {
	Patterns []GameLogPattern `yaml:"patterns"`
}

// GameLogPattern applies Matches to messages from User.
type GameLogPattern struct {
	User    string         `yaml:"user"`
	Matches []GameLogMatch `yaml:"matches"`
}

// GameLogMatch colours every match of Regex.
type GameLogMatch struct {
	Regex string `yaml:"regex"`
	Color string `yaml:"color"`
}

// SetDefaults fills in every option that was left unset.
func (c *Config) SetDefaults() {
	if c.Port == 0 {
		c.Port = defaultPlainPort
		if c.TLS {
			c.Port = defaultTLSPort
		}
	}
	if c.Nickname != "" {
		c.Nickname = ircnick.NickClean(c.Nickname)
	}
	if c.Format.IRCText == "" {
		c.Format.IRCText = DefaultIRCText
	}
	if c.Format.URLAttachment == "" {
		c.Format.URLAttachment = DefaultURLAttachment
	}
	if c.Format.Discord == "" {
		c.Format.Discord = DefaultDiscord
	}
	if c.Format.CommandPrelude == nil {
		prelude := DefaultCommandPrelude
		c.Format.CommandPrelude = &prelude
	}
	if c.AllowRolePings == nil {
		allow := true
		c.AllowRolePings = &allow
	}
	if c.PluralKitWaitDelay == 0 {
		c.PluralKitWaitDelay = defaultCompanionDelayMS
	}
	if c.PKCacheSeconds == 0 {
		c.PKCacheSeconds = defaultCompanionCacheS
	}
	if c.CacheSeconds == 0 {
		c.CacheSeconds = defaultCacheSeconds
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var result error
	fail := func(format string, args ...interface{}) {
		result = multierror.Append(result, fmt.Errorf(format, args...))
	}

	if c.Server == "" {
		fail("server is required")
	}
	if c.Nickname == "" {
		fail("nickname is required")
	}
	if c.DiscordToken == "" {
		fail("discordToken is required")
	}
	if c.GuildID == "" {
		fail("guildId is required")
	}
	if len(c.ChannelMapping) == 0 {
		fail("channelMapping must contain at least one entry")
	}
	for discord, irc := range c.ChannelMapping {
		if _, _, err := ParseIRCChannel(irc); err != nil {
			fail("channelMapping[%s]: %v", discord, err)
		}
	}
	for discord, rawURL := range c.Webhooks {
		if _, err := transmitter.ParseWebhookURL(rawURL); err != nil {
			fail("webhooks[%s]: %v", discord, err)
		}
	}
	for i, command := range c.CommandCharacters {
		if command == "" {
			fail("commandCharacters[%d] is empty", i)
		}
	}
	if _, err := ircf.NewPalette(c.IRCNickColors); err != nil {
		fail("ircNickColors: %v", err)
	}
	if _, err := c.Format.colorEmphasis(); err != nil {
		fail("format.colorEmphasis: %v", err)
	}
	if _, err := c.GameLogConfig.compile(); err != nil {
		fail("gameLogConfig: %v", err)
	}
	if _, err := NewIgnorePolicy(c.IgnoreUsers, c.IgnoreConfig); err != nil {
		fail("ignore rules: %v", err)
	}
	if c.PluralKitWaitDelay < 0 || c.PKCacheSeconds < 0 || c.CacheSeconds < 0 {
		fail("delays and cache lifetimes must not be negative")
	}

	return result
}

// Address is the host:port of the IRC server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server, c.Port)
}

func (c *Config) cacheTTL() time.Duration {
	return time.Duration(c.CacheSeconds) * time.Second
}

func (f Format) colorEmphasis() (map[int]ircf.Emphasis, error) {
	if len(f.ColorEmphasis) == 0 {
		return nil, nil
	}
	result := make(map[int]ircf.Emphasis, len(f.ColorEmphasis))
	for color, emphasis := range f.ColorEmphasis {
		code, err := ircf.ColorCode(color)
		if err != nil {
			return nil, err
		}
		e, err := ircf.ParseEmphasis(emphasis)
		if err != nil {
			return nil, err
		}
		result[code] = e
	}
	return result, nil
}

func (g GameLogConfig) compile() (ircf.GameLog, error) {
	if len(g.Patterns) == 0 {
		return nil, nil
	}
	gameLog := make(ircf.GameLog, len(g.Patterns))
	for _, p := range g.Patterns {
		if strings.TrimSpace(p.User) == "" {
			return nil, errors.New("pattern without user")
		}
		for _, m := range p.Matches {
			re, err := regexp.Compile(m.Regex)
			if err != nil {
				return nil, errors.Wrapf(err, "user %s", p.User)
			}
			code, err := ircf.ColorCode(m.Color)
			if err != nil {
				return nil, errors.Wrapf(err, "user %s", p.User)
			}
			gameLog[p.User] = append(gameLog[p.User], ircf.ColorMatch{Regex: re, Color: code})
		}
	}
	return gameLog, nil
}
