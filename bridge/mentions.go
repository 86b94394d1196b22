package bridge

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/qaisjp/discord-irc-mediator/cache"
	"github.com/qaisjp/discord-irc-mediator/metrics"
)

var (
	userMentionRegex    = regexp.MustCompile(`<@!?(\d+)>`)
	channelMentionRegex = regexp.MustCompile(`<#(\d+)>`)
	roleMentionRegex    = regexp.MustCompile(`<@&(\d+)>`)
	customEmojiRegex    = regexp.MustCompile(`<a?(:\w+:)\d+>`)

	mentionableRegex = regexp.MustCompile(`([^@\s:,]+):|@(\S+)`)
	emojiNameRegex   = regexp.MustCompile(`:(\w+):`)
	channelNameRegex = regexp.MustCompile(`#([^\s#@'!?,.]+)`)
)

// trailingPunctuation, including markdown emphasis, is split off "@name" references
// before lookup and put back afterwards.
const trailingPunctuation = `.,!?;:'")]}>*_~|`

// Resolver translates mentions, channel references and custom emoji between
// Discord's tokens and the plain names IRC users type.
type Resolver struct {
	members  *cache.Cache[string, *discordgo.Member]
	roles    *cache.Cache[string, *discordgo.Role]
	channels *cache.Cache[string, *discordgo.Channel]

	allMembers  *cache.Value[[]*discordgo.Member]
	allRoles    *cache.Value[[]*discordgo.Role]
	allChannels *cache.Value[[]*discordgo.Channel]
	emojis      *cache.Value[[]*discordgo.Emoji]

	allowRolePings bool
	ignore         *IgnorePolicy
}

// NewResolver builds a Resolver whose lookups are cached for ttl.
func NewResolver(guild Guild, ttl time.Duration, allowRolePings bool, ignore *IgnorePolicy, m *metrics.Metrics) *Resolver {
	r := &Resolver{
		members:        cache.New[string, *discordgo.Member](ttl, guild.Member),
		roles:          cache.New[string, *discordgo.Role](ttl, guild.Role),
		channels:       cache.New[string, *discordgo.Channel](ttl, guild.Channel),
		allMembers:     cache.NewValue[[]*discordgo.Member](ttl, guild.Members),
		allRoles:       cache.NewValue[[]*discordgo.Role](ttl, guild.Roles),
		allChannels:    cache.NewValue[[]*discordgo.Channel](ttl, guild.Channels),
		emojis:         cache.NewValue[[]*discordgo.Emoji](ttl, guild.Emojis),
		allowRolePings: allowRolePings,
		ignore:         ignore,
	}

	r.members.OnFetch = m.CacheFetch("member")
	r.roles.OnFetch = m.CacheFetch("role")
	r.channels.OnFetch = m.CacheFetch("channel")
	r.allMembers.OnFetch = m.CacheFetch("members")
	r.allRoles.OnFetch = m.CacheFetch("roles")
	r.allChannels.OnFetch = m.CacheFetch("channels")
	r.emojis.OnFetch = m.CacheFetch("emojis")

	return r
}

// setClock replaces the clock of every cache.
func (r *Resolver) setClock(now func() time.Time) {
	r.members.Now = now
	r.roles.Now = now
	r.channels.Now = now
	r.allMembers.Now = now
	r.allRoles.Now = now
	r.allChannels.Now = now
	r.emojis.Now = now
}

// Member returns a guild member by user ID.
func (r *Resolver) Member(ctx context.Context, userID string) (*discordgo.Member, error) {
	return r.members.Get(ctx, userID)
}

// Members returns every guild member.
func (r *Resolver) Members(ctx context.Context) ([]*discordgo.Member, error) {
	return r.allMembers.Get(ctx)
}

// Role returns a guild role by ID.
func (r *Resolver) Role(ctx context.Context, roleID string) (*discordgo.Role, error) {
	return r.roles.Get(ctx, roleID)
}

// ForgetMember drops a member from the cache after Discord reports a change.
func (r *Resolver) ForgetMember(userID string) {
	r.members.Forget(userID)
	r.allMembers.Purge()
}

// ForgetRoles drops every cached role.
func (r *Resolver) ForgetRoles() {
	r.roles.Purge()
	r.allRoles.Purge()
}

// ForgetChannels drops every cached channel.
func (r *Resolver) ForgetChannels() {
	r.channels.Purge()
	r.allChannels.Purge()
}

// ForgetEmojis drops the cached emoji list.
func (r *Resolver) ForgetEmojis() {
	r.emojis.Purge()
}

// DisplayName is the name a member is shown as: nickname, then global name, then username.
func DisplayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User == nil {
		return ""
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}

// ToIRC replaces Discord mention tokens with readable names.
func (r *Resolver) ToIRC(ctx context.Context, text string) string {
	text = userMentionRegex.ReplaceAllStringFunc(text, func(token string) string {
		id := userMentionRegex.FindStringSubmatch(token)[1]
		member, err := r.members.Get(ctx, id)
		if err != nil {
			log.WithError(err).WithField("user", id).Warnln("Could not resolve user mention")
			return ""
		}
		return "@" + DisplayName(member)
	})

	text = channelMentionRegex.ReplaceAllStringFunc(text, func(token string) string {
		id := channelMentionRegex.FindStringSubmatch(token)[1]
		channel, err := r.channels.Get(ctx, id)
		if err != nil {
			log.WithError(err).WithField("channel", id).Debugln("Could not resolve channel mention")
			return "#deleted-channel"
		}
		return "#" + channel.Name
	})

	text = roleMentionRegex.ReplaceAllStringFunc(text, func(token string) string {
		id := roleMentionRegex.FindStringSubmatch(token)[1]
		role, err := r.roles.Get(ctx, id)
		if err != nil {
			log.WithError(err).WithField("role", id).Debugln("Could not resolve role mention")
			return "@deleted-role"
		}
		return "@" + role.Name
	})

	return customEmojiRegex.ReplaceAllString(text, "$1")
}

// ToDiscord turns names typed on IRC into Discord mentions, custom emoji and
// channel links. Names that match nothing are left alone.
func (r *Resolver) ToDiscord(ctx context.Context, author, text string) string {
	if !r.ignore.SkipPings(author) {
		text = r.resolveMentionables(ctx, text)
	}
	text = r.resolveEmoji(ctx, text)
	return r.resolveChannels(ctx, text)
}

func (r *Resolver) resolveMentionables(ctx context.Context, text string) string {
	return mentionableRegex.ReplaceAllStringFunc(text, func(match string) string {
		sub := mentionableRegex.FindStringSubmatch(match)

		ref, suffix := sub[1], ""
		if sub[2] != "" {
			ref = strings.TrimRight(sub[2], trailingPunctuation)
			suffix = sub[2][len(ref):]
		}
		ref = strings.SplitN(ref, "#", 2)[0]
		if ref == "" {
			return match
		}

		if member := r.findMember(ctx, ref); member != nil {
			return member.Mention() + suffix
		}
		if r.allowRolePings {
			if role := r.findRole(ctx, ref); role != nil {
				return role.Mention() + suffix
			}
		}
		return match
	})
}

func (r *Resolver) findMember(ctx context.Context, name string) *discordgo.User {
	members, err := r.allMembers.Get(ctx)
	if err != nil {
		log.WithError(err).Warnln("Could not list guild members")
		return nil
	}
	for _, m := range members {
		if m.User == nil {
			continue
		}
		if strings.EqualFold(m.User.Username, name) || (m.Nick != "" && strings.EqualFold(m.Nick, name)) {
			return m.User
		}
	}
	return nil
}

func (r *Resolver) findRole(ctx context.Context, name string) *discordgo.Role {
	roles, err := r.allRoles.Get(ctx)
	if err != nil {
		log.WithError(err).Warnln("Could not list guild roles")
		return nil
	}
	for _, role := range roles {
		if role.Mentionable && strings.EqualFold(role.Name, name) {
			return role
		}
	}
	return nil
}

func (r *Resolver) resolveEmoji(ctx context.Context, text string) string {
	if !emojiNameRegex.MatchString(text) {
		return text
	}
	emojis, err := r.emojis.Get(ctx)
	if err != nil {
		log.WithError(err).Warnln("Could not list guild emojis")
		return text
	}
	return emojiNameRegex.ReplaceAllStringFunc(text, func(match string) string {
		name := match[1 : len(match)-1]
		for _, e := range emojis {
			if e.RequireColons && e.Name == name {
				return e.MessageFormat()
			}
		}
		return match
	})
}

func (r *Resolver) resolveChannels(ctx context.Context, text string) string {
	if !channelNameRegex.MatchString(text) {
		return text
	}
	channels, err := r.allChannels.Get(ctx)
	if err != nil {
		log.WithError(err).Warnln("Could not list guild channels")
		return text
	}
	return channelNameRegex.ReplaceAllStringFunc(text, func(match string) string {
		for _, c := range channels {
			if strings.EqualFold(c.Name, match[1:]) {
				return c.Mention()
			}
		}
		return match
	})
}
