// Package transmitter delivers messages to Discord through per-channel webhooks,
// so each message can carry its own username and avatar.
package transmitter

import (
	"net/url"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// Executor runs a webhook. *discordgo.Session satisfies it.
type Executor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// A Transmitter holds the webhooks registered for a guild's channels.
type Transmitter struct {
	executor Executor

	mu sync.RWMutex
	// channelWebhooks maps from a channel ID to a webhook instance
	channelWebhooks map[string]*discordgo.Webhook
}

// ErrWebhookNotFound is returned when no webhook is registered for a channel
var ErrWebhookNotFound = errors.New("webhook for this channel does not exist")

// New returns a Transmitter with no webhooks.
func New(executor Executor) *Transmitter {
	return &Transmitter{
		executor:        executor,
		channelWebhooks: make(map[string]*discordgo.Webhook),
	}
}

// ParseWebhookURL extracts the webhook ID and token from a URL of the form
// https://discord.com/api/webhooks/<id>/<token>.
func ParseWebhookURL(rawURL string) (*discordgo.Webhook, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid webhook url")
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 {
		return nil, errors.Errorf("webhook url %q has no id and token", rawURL)
	}

	id, token := segments[len(segments)-2], segments[len(segments)-1]
	if id == "" || token == "" {
		return nil, errors.Errorf("webhook url %q has no id and token", rawURL)
	}

	return &discordgo.Webhook{ID: id, Token: token}, nil
}

// Message transmits a message to the given channel with the provided webhook data.
//
// Note that this function will wait until Discord responds with an answer.
func (t *Transmitter) Message(channelID string, params *discordgo.WebhookParams) (*discordgo.Message, error) {
	wh, ok := t.Webhook(channelID)
	if !ok {
		return nil, ErrWebhookNotFound
	}

	msg, err := t.executor.WebhookExecute(wh.ID, wh.Token, true, params)
	if err != nil {
		return nil, errors.Wrap(err, "could not execute existing webhook")
	}

	return msg, nil
}

// Webhook returns the webhook registered for a channel.
func (t *Transmitter) Webhook(channelID string) (*discordgo.Webhook, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	wh, ok := t.channelWebhooks[channelID]
	return wh, ok
}

// HasWebhook checks whether the transmitter is using a particular webhook.
func (t *Transmitter) HasWebhook(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, wh := range t.channelWebhooks {
		if wh.ID == id {
			return true
		}
	}

	return false
}

// AddWebhook allows you to register a channel's webhook with the transmitter.
func (t *Transmitter) AddWebhook(channelID string, webhook *discordgo.Webhook) (replaced bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, replaced = t.channelWebhooks[channelID]
	t.channelWebhooks[channelID] = webhook
	return
}
