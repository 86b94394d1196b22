package bridge

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
	irc "github.com/qaisjp/go-ircevent"
	log "github.com/sirupsen/logrus"
)

const (
	reconnectInitialInterval = 5 * time.Second
	reconnectMaxInterval     = time.Minute
	quitMessage              = "Bridge shutting down"
)

var errExiting = errors.New("bridge is shutting down")

// namePrefixes are the channel membership prefixes sent in RPL_NAMREPLY.
const namePrefixes = "~&@%+"

type ircListener struct {
	*irc.Connection
	bridge *Bridge

	// names collects RPL_NAMREPLY lines until RPL_ENDOFNAMES.
	// Only touched from the connection's callback goroutine.
	names map[string][]string
}

func newIRCListener(bridge *Bridge) *ircListener {
	conf := bridge.Config
	irccon := irc.IRC(conf.Nickname, conf.Nickname)
	listener := &ircListener{
		Connection: irccon,
		bridge:     bridge,
		names:      make(map[string][]string),
	}

	if conf.TLS {
		irccon.UseTLS = true
		irccon.TLSConfig = &tls.Config{
			ServerName:         conf.Server,
			InsecureSkipVerify: conf.Insecure,
		}
	}
	irccon.Password = conf.IRCPassword
	listener.SetDebugMode(conf.Debug, conf.Verbose)

	for code, callback := range listener.callbacks() {
		irccon.AddCallback(code, callback)
	}

	return listener
}

// callbacks maps IRC event codes to their handlers.
func (i *ircListener) callbacks() map[string]func(*irc.Event) {
	return map[string]func(*irc.Event){
		"001":         i.OnWelcome,
		"PRIVMSG":     i.OnPrivateMessage,
		"CTCP_ACTION": i.OnPrivateMessage,
		"NOTICE":      i.OnNotice,
		"JOIN":        i.OnJoin,
		"PART":        i.OnPart,
		"QUIT":        i.OnQuit,
		"NICK":        i.OnNick,
		"KICK":        i.OnKick,
		"INVITE":      i.OnInvite,
		"353":         i.OnNamesReply,
		"366":         i.OnNamesEnd,
		"ERROR":       i.OnError,
	}
}

// SetDebugMode controls the connection's own logging.
func (i *ircListener) SetDebugMode(debug, verbose bool) {
	i.VerboseCallbackHandler = verbose
	i.Debug = debug && verbose
}

// OnWelcome runs the configured commands and joins every mapped channel.
func (i *ircListener) OnWelcome(e *irc.Event) {
	log.WithField("nick", i.GetNick()).Infoln("Registered with IRC server")

	for _, command := range i.bridge.Config.AutoSendCommands {
		if len(command) == 0 {
			continue
		}
		log.WithField("command", command[0]).Debugln("Sending automatic command")
		i.SendRaw(RawCommand(command))
	}

	if len(i.bridge.mapper.Mappings()) > 0 {
		i.SendRaw(i.bridge.mapper.JoinCommand())
	}
}

func (i *ircListener) OnPrivateMessage(e *irc.Event) {
	// Ignore private messages
	if len(e.Arguments) == 0 || !strings.HasPrefix(e.Arguments[0], "#") {
		return
	}

	nick, hostmask, channel, text := e.Nick, e.Source, e.Arguments[0], e.Message()
	action := e.Code == "CTCP_ACTION"

	i.bridge.enqueue(func(ctx context.Context) {
		if action {
			i.bridge.mediator.HandleIRCAction(ctx, nick, hostmask, channel, text)
			return
		}
		i.bridge.mediator.HandleIRCMessage(ctx, nick, hostmask, channel, text)
	})
}

func (i *ircListener) OnNotice(e *irc.Event) {
	log.WithFields(log.Fields{
		"from": e.Nick,
		"to":   strings.Join(e.Arguments, " "),
	}).Debugln("Received IRC notice: " + e.Message())
}

func (i *ircListener) OnJoin(e *irc.Event) {
	channel, nick := e.Arguments[0], e.Nick
	i.bridge.enqueue(func(ctx context.Context) {
		i.bridge.mediator.HandleJoin(channel, nick)
	})
}

func (i *ircListener) OnPart(e *irc.Event) {
	channel, nick := e.Arguments[0], e.Nick
	reason := ""
	if len(e.Arguments) > 1 {
		reason = e.Message()
	}
	i.bridge.enqueue(func(ctx context.Context) {
		i.bridge.mediator.HandlePart(channel, nick, reason)
	})
}

func (i *ircListener) OnQuit(e *irc.Event) {
	nick, reason := e.Nick, e.Message()
	i.bridge.enqueue(func(ctx context.Context) {
		i.bridge.mediator.HandleQuit(nick, reason)
	})
}

func (i *ircListener) OnNick(e *irc.Event) {
	oldNick, newNick := e.Nick, e.Message()
	i.bridge.enqueue(func(ctx context.Context) {
		i.bridge.mediator.HandleNick(oldNick, newNick)
	})
}

// OnKick rejoins channels the bridge is kicked from.
func (i *ircListener) OnKick(e *irc.Event) {
	if len(e.Arguments) < 2 {
		return
	}
	channel, nick, by := e.Arguments[0], e.Arguments[1], e.Nick
	reason := ""
	if len(e.Arguments) > 2 {
		reason = e.Message()
	}

	if nick == i.GetNick() {
		if mapping, ok := i.bridge.mapper.ByIRC(channel); ok {
			i.Join(mapping.JoinTarget())
		}
	}

	i.bridge.enqueue(func(ctx context.Context) {
		i.bridge.mediator.HandleKick(channel, nick, by, reason)
	})
}

// OnInvite joins mapped channels the bridge is invited to.
func (i *ircListener) OnInvite(e *irc.Event) {
	channel := e.Message()
	mapping, ok := i.bridge.mapper.ByIRC(channel)
	if !ok {
		log.WithFields(log.Fields{"channel": channel, "from": e.Nick}).Infoln("Ignoring invite to unmapped IRC channel")
		return
	}
	log.WithFields(log.Fields{"channel": channel, "from": e.Nick}).Infoln("Joining IRC channel after invite")
	i.Join(mapping.JoinTarget())
}

// OnNamesReply collects one RPL_NAMREPLY line: <me> <type> <channel> :<names>
func (i *ircListener) OnNamesReply(e *irc.Event) {
	if len(e.Arguments) < 4 {
		return
	}
	channel := strings.ToLower(e.Arguments[2])
	for _, name := range strings.Fields(e.Arguments[3]) {
		if name = strings.TrimLeft(name, namePrefixes); name != "" {
			i.names[channel] = append(i.names[channel], name)
		}
	}
}

// OnNamesEnd hands the collected names to the mediator: <me> <channel> :End of /NAMES list.
func (i *ircListener) OnNamesEnd(e *irc.Event) {
	if len(e.Arguments) < 2 {
		return
	}
	channel := e.Arguments[1]
	nicks := i.names[strings.ToLower(channel)]
	delete(i.names, strings.ToLower(channel))

	i.bridge.enqueue(func(ctx context.Context) {
		i.bridge.mediator.HandleNames(channel, nicks)
	})
}

func (i *ircListener) OnError(e *irc.Event) {
	log.WithField("raw", e.Raw).Errorln("Received ERROR from IRC server")
}

// Open connects to the IRC server.
func (i *ircListener) Open() error {
	server := i.bridge.Config.Address()
	log.WithField("server", server).Infoln("Connecting to IRC server")
	if err := i.Connect(server); err != nil {
		return errors.Wrap(err, "can't open irc connection")
	}
	log.WithField("server", server).Infoln("Connected to IRC server")
	return nil
}

// Loop reconnects whenever the connection drops, until ctx is done or
// the bridge is shutting down.
func (i *ircListener) Loop(ctx context.Context) {
	errChan := i.ErrorChan()
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errChan:
			if i.bridge.exiting.Load() {
				log.Infoln("Disconnected from IRC server")
				return
			}
			log.WithError(err).Errorln("Disconnected from IRC server")

			if err := i.reconnect(ctx); err != nil {
				log.WithError(err).Infoln("Stopped reconnecting to IRC server")
				return
			}
			errChan = i.ErrorChan()
		}
	}
}

func (i *ircListener) reconnect(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = reconnectInitialInterval
	policy.MaxInterval = reconnectMaxInterval

	return reconnectSession(ctx, i.Connection, i.bridge.exiting.Load, policy)
}

// ircSession is the part of the connection the reconnect loop drives.
type ircSession interface {
	Disconnect()
	Reconnect() error
}

// reconnectSession ends the dropped session, so its read, write and ping
// goroutines exit, then reconnects until it succeeds or exiting reports true.
func reconnectSession(ctx context.Context, conn ircSession, exiting func() bool, policy backoff.BackOff) error {
	if exiting() {
		return errExiting
	}
	conn.Disconnect()

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if exiting() {
			return struct{}{}, backoff.Permanent(errExiting)
		}
		log.Infoln("Reconnecting to IRC server")
		if err := conn.Reconnect(); err != nil {
			log.WithError(err).Warnln("Could not reconnect to IRC server")
			return struct{}{}, err
		}
		log.Infoln("Reconnected to IRC server")
		return struct{}{}, nil
	}, backoff.WithBackOff(policy), backoff.WithMaxElapsedTime(0))

	return err
}

// Close quits and disconnects from the server.
func (i *ircListener) Close() {
	if !i.Connected() {
		return
	}
	i.QuitMessage = quitMessage
	i.Quit()
	i.Disconnect()
}
