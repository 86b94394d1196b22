package bridge

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/qaisjp/discord-irc-mediator/transmitter"
)

var ircChannelRegex = regexp.MustCompile(`^(#[^\s,]+)(?: (\S+))?$`)

// ParseIRCChannel splits "#channel [key]" into the channel and its key.
func ParseIRCChannel(s string) (channel, key string, err error) {
	m := ircChannelRegex.FindStringSubmatch(s)
	if m == nil {
		return "", "", errors.Errorf("IRC channel %q is invalid, expected \"#channel\" or \"#channel key\"", s)
	}
	return m[1], m[2], nil
}

// ChannelLookup resolves Discord channels.
type ChannelLookup interface {
	Channel(ctx context.Context, channelID string) (*discordgo.Channel, error)
	Channels(ctx context.Context) ([]*discordgo.Channel, error)
}

// A Mapping pairs a Discord channel with an IRC channel.
type Mapping struct {
	DiscordChannel *discordgo.Channel
	IRCChannel     string
	IRCKey         string

	// Webhook, if set, is used to post IRC messages under the author's name.
	Webhook *discordgo.Webhook
}

// Mapper resolves mappings in both directions.
type Mapper struct {
	mappings  []*Mapping
	byDiscord map[string]*Mapping
	byIRC     map[string]*Mapping
}

func postable(c *discordgo.Channel) bool {
	return c.Type == discordgo.ChannelTypeGuildText || c.Type == discordgo.ChannelTypeGuildNews
}

// NewMapper resolves every configured Discord channel reference, which may be an
// ID or a "#name". References that cannot be resolved, or do not accept messages,
// are left out. A malformed IRC channel or a duplicate is a configuration error.
func NewMapper(ctx context.Context, channelMapping, webhooks map[string]string, lookup ChannelLookup) (*Mapper, error) {
	m := &Mapper{
		byDiscord: make(map[string]*Mapping, len(channelMapping)),
		byIRC:     make(map[string]*Mapping, len(channelMapping)),
	}

	refs := make([]string, 0, len(channelMapping))
	for ref := range channelMapping {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	var named []*discordgo.Channel
	for _, ref := range refs {
		channel, key, err := ParseIRCChannel(channelMapping[ref])
		if err != nil {
			return nil, err
		}
		if _, ok := m.byIRC[strings.ToLower(channel)]; ok {
			return nil, errors.Errorf("channel_mappings contains duplicate entries for %s", channel)
		}

		logger := log.WithFields(log.Fields{"discord": ref, "irc": channel})

		var dc *discordgo.Channel
		if strings.HasPrefix(ref, "#") {
			if named == nil {
				if named, err = lookup.Channels(ctx); err != nil {
					logger.WithError(err).Errorln("Could not list Discord channels, skipping mapping")
					named = nil
					continue
				}
			}
			for _, c := range named {
				if c.Name == ref[1:] && postable(c) {
					dc = c
					break
				}
			}
		} else if dc, err = lookup.Channel(ctx, ref); err != nil {
			logger.WithError(err).Errorln("Could not find Discord channel, skipping mapping")
			continue
		}

		if dc == nil {
			logger.Errorln("Could not find Discord channel, skipping mapping")
			continue
		}
		if !postable(dc) {
			logger.Errorln("Discord channel does not accept messages, skipping mapping")
			continue
		}
		if _, ok := m.byDiscord[dc.ID]; ok {
			return nil, errors.Errorf("channel_mappings contains duplicate entries for %s", ref)
		}

		mapping := &Mapping{DiscordChannel: dc, IRCChannel: channel, IRCKey: key}

		rawURL, ok := webhooks[dc.ID]
		if !ok {
			rawURL, ok = webhooks["#"+dc.Name]
		}
		if ok {
			if mapping.Webhook, err = transmitter.ParseWebhookURL(rawURL); err != nil {
				return nil, errors.Wrapf(err, "webhook for %s", ref)
			}
		}

		m.mappings = append(m.mappings, mapping)
		m.byDiscord[dc.ID] = mapping
		m.byIRC[strings.ToLower(channel)] = mapping
	}

	return m, nil
}

// Mappings returns every resolved mapping.
func (m *Mapper) Mappings() []*Mapping {
	return m.mappings
}

// ByDiscord returns the mapping for a Discord channel ID.
func (m *Mapper) ByDiscord(channelID string) (*Mapping, bool) {
	mapping, ok := m.byDiscord[channelID]
	return mapping, ok
}

// ByIRC returns the mapping for an IRC channel, ignoring case.
func (m *Mapper) ByIRC(channel string) (*Mapping, bool) {
	mapping, ok := m.byIRC[strings.ToLower(channel)]
	return mapping, ok
}

// JoinCommand produces a single JOIN command for every mapped IRC channel.
// Keyed channels come first so their keys line up.
func (m *Mapper) JoinCommand() string {
	var channels, keyedChannels, keys []string

	for _, mapping := range m.mappings {
		if mapping.IRCKey != "" {
			keyedChannels = append(keyedChannels, mapping.IRCChannel)
			keys = append(keys, mapping.IRCKey)
		} else {
			channels = append(channels, mapping.IRCChannel)
		}
	}

	// Just append normal channels to the end of keyed channels
	keyedChannels = append(keyedChannels, channels...)

	return strings.TrimSpace("JOIN " + strings.Join(keyedChannels, ",") + " " + strings.Join(keys, ","))
}

// JoinTarget is the channel, plus its key if any, for a single JOIN.
func (mapping *Mapping) JoinTarget() string {
	return strings.TrimSpace(mapping.IRCChannel + " " + mapping.IRCKey)
}
