package bridge

import "strings"

// Roster tracks the nicks present in each IRC channel. A channel has no
// roster until a full names list has been received for it.
//
// Channel names are compared case-insensitively, nicks exactly.
type Roster struct {
	channels map[string][]string
}

// NewRoster returns an empty Roster.
func NewRoster() *Roster {
	return &Roster{channels: make(map[string][]string)}
}

// Replace sets the full nick list of a channel.
func (r *Roster) Replace(channel string, nicks []string) {
	r.channels[strings.ToLower(channel)] = append([]string(nil), nicks...)
}

// Add appends nick to a channel that has a roster and does not list it yet.
func (r *Roster) Add(channel, nick string) bool {
	key := strings.ToLower(channel)
	nicks, ok := r.channels[key]
	if !ok || indexOf(nicks, nick) >= 0 {
		return false
	}
	r.channels[key] = append(nicks, nick)
	return true
}

// Remove drops one occurrence of nick from a channel.
func (r *Roster) Remove(channel, nick string) bool {
	key := strings.ToLower(channel)
	nicks := r.channels[key]
	i := indexOf(nicks, nick)
	if i < 0 {
		return false
	}
	r.channels[key] = append(nicks[:i:i], nicks[i+1:]...)
	return true
}

// RemoveEverywhere drops nick from every channel and returns the channels it was in.
func (r *Roster) RemoveEverywhere(nick string) (channels []string) {
	for channel := range r.channels {
		if r.Remove(channel, nick) {
			channels = append(channels, channel)
		}
	}
	return channels
}

// Rename replaces oldNick with newNick, moved to the end of the list, in
// every channel listing oldNick. It returns those channels.
func (r *Roster) Rename(oldNick, newNick string) (channels []string) {
	for channel, nicks := range r.channels {
		if indexOf(nicks, oldNick) < 0 {
			continue
		}
		r.Remove(channel, oldNick)
		r.channels[channel] = append(r.channels[channel], newNick)
		channels = append(channels, channel)
	}
	return channels
}

// Drop forgets a channel entirely.
func (r *Roster) Drop(channel string) {
	delete(r.channels, strings.ToLower(channel))
}

// Nicks returns a copy of a channel's nick list.
func (r *Roster) Nicks(channel string) ([]string, bool) {
	nicks, ok := r.channels[strings.ToLower(channel)]
	if !ok {
		return nil, false
	}
	return append([]string(nil), nicks...), true
}

func indexOf(list []string, item string) int {
	for i, v := range list {
		if v == item {
			return i
		}
	}
	return -1
}
