// Package dstate provides helpers for discordgo that first tries the State, and then falls back on an endpoint request.
package dstate

import (
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a lookup succeeded but matched nothing.
var ErrNotFound = errors.New("not found")

// membersPageSize is the most members Discord returns per request.
const membersPageSize = 1000

// ChannelMessage returns a message, preferring the state cache.
func ChannelMessage(s *discordgo.Session, channelID string, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if msg, err := s.State.Message(channelID, messageID); err == nil {
		return msg, err
	}

	return s.ChannelMessage(channelID, messageID, options...)
}

// Member returns a guild member, preferring the state cache.
func Member(s *discordgo.Session, guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error) {
	if m, err := s.State.Member(guildID, userID); err == nil {
		return m, nil
	}

	m, err := s.GuildMember(guildID, userID, options...)
	if err != nil {
		return nil, errors.Wrapf(err, "could not fetch member %s", userID)
	}
	return m, nil
}

// Members pages through every member of a guild. It always asks the API,
// since the state only holds members that have been seen.
func Members(s *discordgo.Session, guildID string, options ...discordgo.RequestOption) ([]*discordgo.Member, error) {
	var all []*discordgo.Member
	after := ""
	for {
		page, err := s.GuildMembers(guildID, after, membersPageSize, options...)
		if err != nil {
			return nil, errors.Wrap(err, "could not fetch guild members")
		}
		all = append(all, page...)
		if len(page) < membersPageSize {
			return all, nil
		}
		after = page[len(page)-1].User.ID
	}
}

// Role returns a guild role, preferring the state cache.
func Role(s *discordgo.Session, guildID, roleID string, options ...discordgo.RequestOption) (*discordgo.Role, error) {
	if r, err := s.State.Role(guildID, roleID); err == nil {
		return r, nil
	}

	roles, err := s.GuildRoles(guildID, options...)
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch guild roles")
	}
	for _, r := range roles {
		if r.ID == roleID {
			return r, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "role %s", roleID)
}

// Roles returns every role in a guild.
func Roles(s *discordgo.Session, guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	roles, err := s.GuildRoles(guildID, options...)
	return roles, errors.Wrap(err, "could not fetch guild roles")
}

// Channel returns a channel, preferring the state cache.
func Channel(s *discordgo.Session, channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if c, err := s.State.Channel(channelID); err == nil {
		return c, nil
	}

	c, err := s.Channel(channelID, options...)
	if err != nil {
		return nil, errors.Wrapf(err, "could not fetch channel %s", channelID)
	}
	return c, nil
}

// Channels returns every channel in a guild.
func Channels(s *discordgo.Session, guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error) {
	channels, err := s.GuildChannels(guildID, options...)
	return channels, errors.Wrap(err, "could not fetch guild channels")
}

// Emojis returns every custom emoji in a guild.
func Emojis(s *discordgo.Session, guildID string, options ...discordgo.RequestOption) ([]*discordgo.Emoji, error) {
	emojis, err := s.GuildEmojis(guildID, options...)
	return emojis, errors.Wrap(err, "could not fetch guild emojis")
}
