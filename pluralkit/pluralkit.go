// Package pluralkit asks the PluralKit API whether it has proxied a Discord message.
//
// PluralKit deletes a user's original message and re-posts it through a
// webhook. Messages it has claimed should not be relayed, since the webhook
// copy will be.
package pluralkit

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultEndpoint is the public PluralKit API.
const DefaultEndpoint = "https://api.pluralkit.me/v2"

const (
	maxAttempts = 3
	retryDelay  = time.Second
	queueSize   = 64
)

// ErrRateLimited is returned when the API keeps answering 429 Too Many Requests.
var ErrRateLimited = errors.New("pluralkit rate limit exceeded")

type result struct {
	claimed bool
	err     error
}

type request struct {
	ctx       context.Context
	messageID string
	result    chan result
}

// Client serialises lookups through a single worker so that requests are
// issued one at a time, in the order they were made.
type Client struct {
	endpoint   string
	http       *http.Client
	retryDelay time.Duration

	queue chan request
	done  chan struct{}
}

// New starts a Client. Close must be called to stop its worker.
func New(endpoint string, httpClient *http.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	c := &Client{
		endpoint:   endpoint,
		http:       httpClient,
		retryDelay: retryDelay,
		queue:      make(chan request, queueSize),
		done:       make(chan struct{}),
	}
	go c.work()
	return c
}

// Close stops the worker. Pending lookups fail with context.Canceled.
func (c *Client) Close() {
	close(c.done)
}

// Claimed reports whether PluralKit has proxied the message with the given ID.
func (c *Client) Claimed(ctx context.Context, messageID string) (bool, error) {
	req := request{ctx: ctx, messageID: messageID, result: make(chan result, 1)}

	select {
	case c.queue <- req:
	case <-c.done:
		return false, context.Canceled
	case <-ctx.Done():
		return false, ctx.Err()
	}

	select {
	case r := <-req.result:
		return r.claimed, r.err
	case <-c.done:
		return false, context.Canceled
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (c *Client) work() {
	for {
		select {
		case <-c.done:
			return
		case req := <-c.queue:
			claimed, err := c.lookup(req.ctx, req.messageID)
			req.result <- result{claimed, err}
		}
	}
}

func (c *Client) lookup(ctx context.Context, messageID string) (bool, error) {
	op := func() (bool, error) {
		claimed, err := c.fetch(ctx, messageID)
		if errors.Is(err, ErrRateLimited) {
			log.WithField("message", messageID).Debugln("PluralKit rate limited us, retrying")
			return false, err
		}
		if err != nil {
			return false, backoff.Permanent(err)
		}
		return claimed, nil
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(c.retryDelay)),
		backoff.WithMaxTries(maxAttempts),
	)
}

func (c *Client) fetch(ctx context.Context, messageID string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/messages/"+messageID, nil)
	if err != nil {
		return false, errors.Wrap(err, "could not build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, errors.Wrap(err, "could not query PluralKit")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	case http.StatusTooManyRequests:
		return false, ErrRateLimited
	default:
		return false, errors.Errorf("unexpected PluralKit response %s", resp.Status)
	}
}
