package bridge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/qaisjp/discord-irc-mediator/cache"
	ircf "github.com/qaisjp/discord-irc-mediator/irc/format"
	"github.com/qaisjp/discord-irc-mediator/metrics"
	"github.com/qaisjp/discord-irc-mediator/transmitter"
)

// editWindow is how long after creation edits to a webhook message are ignored.
// Proxy bots edit their messages right after posting them.
const editWindow = time.Second

// Mediator decides what crosses the bridge and how it is rewritten.
//
// It is not safe for concurrent use: every Handle method must be called from
// the bridge loop.
type Mediator struct {
	config      *Config
	discord     Discord
	irc         IRC
	mapper      *Mapper
	resolver    *Resolver
	roster      *Roster
	ignore      *IgnorePolicy
	transmitter *transmitter.Transmitter
	palette     ircf.Palette
	format      ircf.Options
	metrics     *metrics.Metrics

	companion       Companion
	companionClaims *cache.Cache[string, bool]
	companionDelay  time.Duration

	// schedule runs fn on the bridge loop.
	schedule func(fn func())
	now      func() time.Time
}

// NewMediator wires up a Mediator. companion may be nil.
func NewMediator(cfg *Config, discord Discord, irc IRC, mapper *Mapper, t *transmitter.Transmitter, companion Companion, m *metrics.Metrics) (*Mediator, error) {
	ignore, err := NewIgnorePolicy(cfg.IgnoreUsers, cfg.IgnoreConfig)
	if err != nil {
		return nil, errors.Wrap(err, "invalid ignore rules")
	}
	palette, err := ircf.NewPalette(cfg.IRCNickColors)
	if err != nil {
		return nil, errors.Wrap(err, "invalid ircNickColors")
	}
	emphasis, err := cfg.Format.colorEmphasis()
	if err != nil {
		return nil, errors.Wrap(err, "invalid format.colorEmphasis")
	}
	gameLog, err := cfg.GameLogConfig.compile()
	if err != nil {
		return nil, errors.Wrap(err, "invalid gameLogConfig")
	}

	med := &Mediator{
		config:         cfg,
		discord:        discord,
		irc:            irc,
		mapper:         mapper,
		resolver:       NewResolver(discord, cfg.cacheTTL(), *cfg.AllowRolePings, ignore, m),
		roster:         NewRoster(),
		ignore:         ignore,
		transmitter:    t,
		palette:        palette,
		format:         ircf.Options{ColorEmphasis: emphasis, GameLog: gameLog},
		metrics:        m,
		companion:      companion,
		companionDelay: time.Duration(cfg.PluralKitWaitDelay) * time.Millisecond,
		schedule:       func(fn func()) { fn() },
		now:            time.Now,
	}

	if companion != nil {
		med.companionClaims = cache.New[string, bool](time.Duration(cfg.PKCacheSeconds)*time.Second, companion.Claimed)
		med.companionClaims.OnFetch = m.CacheFetch("pluralkit")
	}

	return med, nil
}

// Resolver returns the mediator's mention resolver.
func (m *Mediator) Resolver() *Resolver {
	return m.resolver
}

func (m *Mediator) isCommand(text string) bool {
	for _, prefix := range m.config.CommandCharacters {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	return false
}

func (m *Mediator) commandPrelude() string {
	if m.config.Format.CommandPrelude == nil {
		return DefaultCommandPrelude
	}
	return *m.config.Format.CommandPrelude
}

func (m *Mediator) isSelf(msg *discordgo.Message) bool {
	if msg.Author != nil && msg.Author.ID == m.discord.UserID() {
		return true
	}
	return msg.WebhookID != "" && m.transmitter.HasWebhook(msg.WebhookID)
}

// HandleDiscordMessage relays a created or edited Discord message to IRC.
func (m *Mediator) HandleDiscordMessage(ctx context.Context, msg *discordgo.Message, edited bool) {
	if msg.Author == nil {
		return
	}

	mapping, ok := m.mapper.ByDiscord(msg.ChannelID)
	if !ok {
		return
	}

	if m.isSelf(msg) {
		m.metrics.Dropped("self")
		return
	}

	if edited {
		if !m.config.SendMessageUpdates {
			return
		}
		if msg.WebhookID != "" && m.now().Sub(msg.Timestamp) < editWindow {
			m.metrics.Dropped("edit_window")
			return
		}
	}

	if !edited && strings.EqualFold(strings.TrimSpace(msg.Content), "/names") && m.sendNames(mapping) {
		return
	}

	relay := func() { m.relayToIRC(ctx, mapping, msg, edited) }
	if m.companion != nil && msg.WebhookID == "" {
		go m.awaitCompanion(ctx, msg.ID, relay)
		return
	}
	relay()
}

// awaitCompanion gives the proxy service time to claim a message, then relays it
// on the bridge loop unless it was claimed.
func (m *Mediator) awaitCompanion(ctx context.Context, messageID string, relay func()) {
	select {
	case <-time.After(m.companionDelay):
	case <-ctx.Done():
		return
	}

	claimed, err := m.companionClaims.Get(ctx, messageID)
	if err != nil {
		log.WithError(err).WithField("message", messageID).Warnln("Could not ask PluralKit about message, relaying it anyway")
	}
	if claimed {
		m.metrics.Dropped("companion")
		return
	}
	m.schedule(relay)
}

func (m *Mediator) sendNames(mapping *Mapping) bool {
	nicks, ok := m.roster.Nicks(mapping.IRCChannel)
	if !ok {
		log.WithField("channel", mapping.IRCChannel).Warnln("No names known for IRC channel, relaying /names")
		return false
	}

	for i, nick := range nicks {
		nicks[i] = EscapeMarkdown(nick)
	}
	m.postDiscord(mapping, fmt.Sprintf("Users in %s\n> %s", mapping.IRCChannel, strings.Join(nicks, ", ")))
	return true
}

func (m *Mediator) ignoredMember(ctx context.Context, member *discordgo.Member) bool {
	if !m.ignore.HasRoleRules() {
		return false
	}
	for _, id := range member.Roles {
		if m.ignore.IgnoreRoleID(id) {
			return true
		}
		role, err := m.resolver.Role(ctx, id)
		if err != nil {
			log.WithError(err).WithField("role", id).Debugln("Could not look up role")
			continue
		}
		if m.ignore.IgnoreRole(role) {
			return true
		}
	}
	return false
}

func (m *Mediator) relayToIRC(ctx context.Context, mapping *Mapping, msg *discordgo.Message, edited bool) {
	author := msg.Author
	if m.ignore.IgnoreDiscordUser(author.Username, author.ID) {
		m.metrics.Dropped("ignored")
		return
	}

	username := author.Username
	nickname := author.Username
	if author.GlobalName != "" {
		nickname = author.GlobalName
	}

	// Webhook authors are not guild members
	if msg.WebhookID == "" {
		member, err := m.resolver.Member(ctx, author.ID)
		if err != nil {
			log.WithError(err).WithField("user", author.ID).Debugln("Could not look up message author")
		} else {
			if m.ignoredMember(ctx, member) {
				m.metrics.Dropped("ignored")
				return
			}
			nickname = DisplayName(member)
		}
	}

	display := nickname
	if m.config.ParallelPingFix {
		display = BreakPing(display)
	}
	if m.config.IRCNickColor {
		display = m.palette.Wrap(nickname, display)
		username = m.palette.Wrap(username, username)
	}

	text := m.resolver.ToIRC(ctx, msg.Content)

	values := map[string]string{
		"author":          display,
		"nickname":        display,
		"displayUsername": display,
		"discordUsername": username,
		"text":            text,
		"discordChannel":  "#" + mapping.DiscordChannel.Name,
		"ircChannel":      mapping.IRCChannel,
		"side":            "Discord",
	}

	// Edited commands go through the ordinary relay below
	if m.isCommand(text) && !edited {
		if prelude := m.commandPrelude(); prelude != "" {
			m.sendIRC(mapping.IRCChannel, SubstitutePattern(prelude, values))
		}
		m.sendIRC(mapping.IRCChannel, ircf.FlattenNewlines(text))
		m.metrics.Relayed(metrics.DiscordToIRC)
		return
	}

	if strings.TrimSpace(text) != "" {
		values["text"] = ircf.FlattenNewlines(ircf.MarkdownToIRC(text))
		line := SubstitutePattern(m.config.Format.IRCText, values)
		if edited {
			line = "(edited) " + line
		}
		m.sendIRC(mapping.IRCChannel, line)
	}

	if !edited {
		for _, a := range msg.Attachments {
			values["attachmentURL"] = a.URL
			m.sendIRC(mapping.IRCChannel, SubstitutePattern(m.config.Format.URLAttachment, values))
		}
	}

	m.metrics.Relayed(metrics.DiscordToIRC)
}

// sendIRC sends text as one or more PRIVMSGs, in order.
func (m *Mediator) sendIRC(channel, text string) {
	for _, chunk := range SplitMessage(text, ircLineLimit) {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		m.irc.Privmsg(channel, chunk)
	}
}

// HandleIRCMessage relays a channel message from IRC to Discord.
func (m *Mediator) HandleIRCMessage(ctx context.Context, nick, hostmask, channel, text string) {
	if nick == m.irc.GetNick() {
		return
	}

	mapping, ok := m.mapper.ByIRC(channel)
	if !ok {
		return
	}

	if m.ignore.IgnoreIRCUser(nick, hostmask) {
		m.metrics.Dropped("ignored")
		return
	}
	if m.ignore.IgnoreMessage(mapping.IRCChannel, text) {
		m.metrics.Dropped("pattern")
		return
	}

	withFormat := ircf.ToMarkdown(text, nick, m.format)

	values := map[string]string{
		"author":          nick,
		"nickname":        nick,
		"displayUsername": nick,
		"text":            withFormat,
		"discordChannel":  "#" + mapping.DiscordChannel.Name,
		"ircChannel":      mapping.IRCChannel,
		"side":            "IRC",
	}

	if m.isCommand(text) {
		if prelude := m.commandPrelude(); prelude != "" {
			m.postDiscord(mapping, SubstitutePattern(prelude, values))
		}
		m.postDiscord(mapping, text)
		m.metrics.Relayed(metrics.IRCToDiscord)
		return
	}

	withMentions := m.resolver.ToDiscord(ctx, nick, withFormat)

	if mapping.Webhook != nil {
		m.deliverWebhook(ctx, mapping, nick, withMentions)
	} else {
		values["withMentions"] = withMentions
		m.postDiscord(mapping, SubstitutePattern(m.config.Format.Discord, values))
	}
	m.metrics.Relayed(metrics.IRCToDiscord)
}

// HandleIRCAction relays a /me action, italicised.
func (m *Mediator) HandleIRCAction(ctx context.Context, nick, hostmask, channel, text string) {
	m.HandleIRCMessage(ctx, nick, hostmask, channel, "_"+text+"_")
}
