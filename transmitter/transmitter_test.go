package transmitter

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type executeCall struct {
	id, token string
	wait      bool
	params    *discordgo.WebhookParams
}

type fakeExecutor struct {
	calls []executeCall
	err   error
}

func (f *fakeExecutor) WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.calls = append(f.calls, executeCall{webhookID, token, wait, data})
	if f.err != nil {
		return nil, f.err
	}
	return &discordgo.Message{ID: "msg", WebhookID: webhookID, Content: data.Content}, nil
}

func TestParseWebhookURL(t *testing.T) {
	wh, err := ParseWebhookURL("https://discord.com/api/webhooks/1234/abcd-token")
	require.NoError(t, err)
	assert.Equal(t, "1234", wh.ID)
	assert.Equal(t, "abcd-token", wh.Token)

	wh, err = ParseWebhookURL("https://discordapp.com/api/webhooks/99/tok/")
	require.NoError(t, err)
	assert.Equal(t, "99", wh.ID)
	assert.Equal(t, "tok", wh.Token)

	_, err = ParseWebhookURL("https://discord.com/")
	assert.Error(t, err)

	_, err = ParseWebhookURL("://bad")
	assert.Error(t, err)
}

func TestMessage(t *testing.T) {
	exec := &fakeExecutor{}
	tr := New(exec)

	_, err := tr.Message("chan", &discordgo.WebhookParams{Content: "hi"})
	assert.Equal(t, ErrWebhookNotFound, err)

	assert.False(t, tr.AddWebhook("chan", &discordgo.Webhook{ID: "1", Token: "t"}))
	assert.True(t, tr.AddWebhook("chan", &discordgo.Webhook{ID: "2", Token: "u"}))

	msg, err := tr.Message("chan", &discordgo.WebhookParams{Content: "hi", Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, "hi", msg.Content)
	require.Len(t, exec.calls, 1)
	assert.Equal(t, "2", exec.calls[0].id)
	assert.Equal(t, "u", exec.calls[0].token)
	assert.True(t, exec.calls[0].wait)
	assert.Equal(t, "bob", exec.calls[0].params.Username)

	assert.True(t, tr.HasWebhook("2"))
	assert.False(t, tr.HasWebhook("1"))
}

func TestMessageError(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("boom")}
	tr := New(exec)
	tr.AddWebhook("chan", &discordgo.Webhook{ID: "1", Token: "t"})

	_, err := tr.Message("chan", &discordgo.WebhookParams{Content: "hi"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
