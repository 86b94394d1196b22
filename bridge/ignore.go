package bridge

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

func lowerSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = struct{}{}
	}
	return set
}

// IgnorePolicy decides which authors and messages are never relayed.
type IgnorePolicy struct {
	ircNicks     map[string]struct{}
	ircHostmasks []glob.Glob
	discordNames map[string]struct{}
	discordIDs   map[string]struct{}
	roles        map[string]struct{}
	patterns     map[string][]string
	noPing       map[string]struct{}
}

// NewIgnorePolicy compiles the ignore rules.
func NewIgnorePolicy(users IgnoreUsers, cfg IgnoreConfig) (*IgnorePolicy, error) {
	p := &IgnorePolicy{
		ircNicks:     lowerSet(users.IRC),
		discordNames: lowerSet(users.Discord),
		discordIDs:   make(map[string]struct{}, len(users.DiscordIDs)),
		roles:        lowerSet(users.Roles),
		patterns:     make(map[string][]string, len(cfg.IgnorePatterns)),
		noPing:       lowerSet(cfg.IgnorePingIRCUsers),
	}

	for _, id := range users.DiscordIDs {
		p.discordIDs[id] = struct{}{}
	}

	for _, mask := range users.IRCHostmasks {
		g, err := glob.Compile(strings.ToLower(mask))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid hostmask %q", mask)
		}
		p.ircHostmasks = append(p.ircHostmasks, g)
	}

	for channel, patterns := range cfg.IgnorePatterns {
		channel = strings.ToLower(channel)
		p.patterns[channel] = append(p.patterns[channel], patterns...)
	}

	return p, nil
}

// IgnoreIRCUser reports whether an IRC author is ignored, by nick or by
// a nick!user@host hostmask.
func (p *IgnorePolicy) IgnoreIRCUser(nick, hostmask string) bool {
	if _, ok := p.ircNicks[strings.ToLower(nick)]; ok {
		return true
	}
	if hostmask == "" {
		return false
	}
	hostmask = strings.ToLower(hostmask)
	for _, g := range p.ircHostmasks {
		if g.Match(hostmask) {
			return true
		}
	}
	return false
}

// IgnoreDiscordUser reports whether a Discord author is ignored by name or ID.
func (p *IgnorePolicy) IgnoreDiscordUser(username, id string) bool {
	if _, ok := p.discordIDs[id]; ok {
		return true
	}
	_, ok := p.discordNames[strings.ToLower(username)]
	return ok
}

// HasRoleRules reports whether any role is ignored.
func (p *IgnorePolicy) HasRoleRules() bool {
	return len(p.roles) > 0
}

// IgnoreRoleID reports whether a role is ignored by its ID.
func (p *IgnorePolicy) IgnoreRoleID(id string) bool {
	_, ok := p.roles[strings.ToLower(id)]
	return ok
}

// IgnoreRole reports whether a role is ignored by ID or name.
func (p *IgnorePolicy) IgnoreRole(role *discordgo.Role) bool {
	if p.IgnoreRoleID(role.ID) {
		return true
	}
	_, ok := p.roles[strings.ToLower(role.Name)]
	return ok
}

// IgnoreMessage reports whether text contains an ignore pattern for the IRC channel.
// Patterns are literal, so * and ? only match themselves.
func (p *IgnorePolicy) IgnoreMessage(ircChannel, text string) bool {
	for _, pattern := range p.patterns[strings.ToLower(ircChannel)] {
		if strings.Contains(text, pattern) {
			return true
		}
	}
	return false
}

// SkipPings reports whether messages from an IRC nick never resolve into pings.
func (p *IgnorePolicy) SkipPings(nick string) bool {
	_, ok := p.noPing[strings.ToLower(nick)]
	return ok
}
