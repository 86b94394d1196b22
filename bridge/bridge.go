// Package bridge relays messages between Discord channels and IRC channels.
package bridge

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/qaisjp/discord-irc-mediator/metrics"
	"github.com/qaisjp/discord-irc-mediator/pluralkit"
	"github.com/qaisjp/discord-irc-mediator/transmitter"
)

// resolveTimeout bounds the channel lookups made while opening the bridge.
const resolveTimeout = 30 * time.Second

// A Bridge represents a bridging between an IRC server and channels in a Discord server
type Bridge struct {
	Config *Config

	discord     *discordBot
	ircListener *ircListener
	mapper      *Mapper
	mediator    *Mediator
	transmitter *transmitter.Transmitter
	pluralkit   *pluralkit.Client
	metrics     *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	// events are run one at a time by loop
	events   chan func(ctx context.Context)
	done     chan bool
	exiting  atomic.Bool
	closeErr error
}

// New validates conf and prepares, without connecting, a Bridge.
func New(conf *Config, m *metrics.Metrics) (*Bridge, error) {
	conf.SetDefaults()
	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration invalid")
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		Config:  conf,
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
		events:  make(chan func(ctx context.Context)),
		done:    make(chan bool),
	}

	var err error
	b.discord, err = newDiscord(b, conf.DiscordToken, conf.GuildID, conf.Debug)
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "could not create discord bot")
	}
	b.transmitter = transmitter.New(b.discord.session)
	b.ircListener = newIRCListener(b)

	if conf.PluralKit {
		b.pluralkit = pluralkit.New(pluralkit.DefaultEndpoint, nil)
	}

	go b.loop()

	return b, nil
}

// Open resolves the channel mappings and connects to both sides.
func (b *Bridge) Open() error {
	ctx, cancel := context.WithTimeout(b.ctx, resolveTimeout)
	defer cancel()

	var err error
	b.mapper, err = NewMapper(ctx, b.Config.ChannelMapping, b.Config.Webhooks, b.discord)
	if err != nil {
		return errors.Wrap(err, "channel mappings could not be set")
	}
	if len(b.mapper.Mappings()) == 0 {
		return errors.New("none of the channel mappings could be resolved")
	}

	for _, mapping := range b.mapper.Mappings() {
		if mapping.Webhook != nil {
			b.transmitter.AddWebhook(mapping.DiscordChannel.ID, mapping.Webhook)
		}
		log.WithFields(log.Fields{
			"discord": "#" + mapping.DiscordChannel.Name,
			"irc":     mapping.IRCChannel,
			"webhook": mapping.Webhook != nil,
		}).Infoln("Mapped channels")
	}

	var companion Companion
	if b.pluralkit != nil {
		companion = b.pluralkit
	}
	b.mediator, err = NewMediator(b.Config, b.discord, b.ircListener, b.mapper, b.transmitter, companion, b.metrics)
	if err != nil {
		return err
	}
	b.mediator.schedule = func(fn func()) {
		b.enqueue(func(context.Context) { fn() })
	}

	// Open a websocket connection to Discord and begin listening.
	if err := b.discord.Open(); err != nil {
		return errors.Wrap(err, "can't open discord")
	}

	if err := b.ircListener.Open(); err != nil {
		return err
	}
	go b.ircListener.Loop(b.ctx)

	return nil
}

// SetDebugMode allows you to control debug logging.
func (b *Bridge) SetDebugMode(debug, verbose bool) {
	b.Config.Debug = debug
	b.Config.Verbose = verbose
	b.discord.SetDebugMode(debug)
	b.ircListener.SetDebugMode(debug, verbose)
}

// Close the Bridge. Closing twice is a no-op.
func (b *Bridge) Close() error {
	if b.exiting.Swap(true) {
		return nil
	}
	b.done <- true
	<-b.done
	return b.closeErr
}

// enqueue hands fn to the loop. It is dropped if the bridge is closing.
func (b *Bridge) enqueue(fn func(ctx context.Context)) {
	select {
	case b.events <- fn:
	case <-b.ctx.Done():
	}
}

func (b *Bridge) loop() {
	for {
		select {
		case fn := <-b.events:
			fn(b.ctx)

		// Done!
		case <-b.done:
			b.cancel()
			b.ircListener.Close()
			if err := b.discord.Close(); err != nil {
				b.closeErr = errors.Wrap(err, "could not close discord session")
			}
			if b.pluralkit != nil {
				b.pluralkit.Close()
			}
			close(b.done)

			return
		}
	}
}
