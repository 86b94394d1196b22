package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/qaisjp/discord-irc-mediator/bridge"
	"github.com/qaisjp/discord-irc-mediator/config"
	"github.com/qaisjp/discord-irc-mediator/metrics"
)

func main() {
	configPath := flag.String("config", "", "Config file (YAML or JSON) holding one bridge or a list of bridges")
	debugMode := flag.Bool("debug", false, "Debug mode? (false = use value from settings)")
	verboseMode := flag.Bool("verbose", false, "Log Discord heartbeats and raw IRC traffic (false = use value from settings)")
	notls := flag.Bool("no-tls", false, "Avoids using TLS at all when connecting to IRC server")
	insecure := flag.Bool("insecure", false, "Skip TLS certificate verification? (INSECURE MODE) (false = use value from settings)")

	flag.Parse()

	if *configPath == "" {
		log.Fatalln("--config argument is required!")
		return
	}

	env := viper.New()
	env.SetConfigFile(*configPath)
	_ = env.BindEnv("debug", "DEBUG")
	_ = env.BindEnv("verbose", "VERBOSE")
	_ = env.BindEnv("discordToken", "DISCORD_TOKEN")

	log.WithField("ConfigPath", *configPath).Infoln("Loading configuration...")

	configs, err := config.Load(*configPath)
	if err != nil {
		log.Fatalln(errors.Wrap(err, "could not load config"))
	}

	debug := *debugMode || env.GetBool("debug")
	verbose := *verboseMode || env.GetBool("verbose")
	for _, c := range configs {
		c.Debug = c.Debug || debug
		c.Verbose = c.Verbose || verbose
		if *notls {
			c.TLS = false
		}
		if *insecure {
			c.Insecure = true
		}
		if token := env.GetString("discordToken"); token != "" {
			c.DiscordToken = token
		}
	}

	discordgo.Logger = discordLogger
	SetLogDebug(configs[0].Debug, configs[0].Verbose)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Bridges share one registry, served from the first address configured
	var srv *http.Server
	for _, c := range configs {
		if c.MetricsAddr != "" {
			srv = metrics.Serve(c.MetricsAddr, reg)
			break
		}
	}

	var bridges []*bridge.Bridge
	for i, c := range configs {
		dib, err := bridge.New(c, m)
		if err != nil {
			log.WithField("error", err).Fatalf("Bridge %d failed to initialise.", i)
			return
		}
		bridges = append(bridges, dib)
	}

	// Create new signal receiver
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	for i, dib := range bridges {
		if err := dib.Open(); err != nil {
			log.WithField("error", err).WithField("server", dib.Config.Server).Fatalf("Bridge %d failed to start.", i)
			return
		}
	}

	// Inform the user that things are happening!
	log.Infoln("Discord-IRC bridge is now running. Press Ctrl-C to exit.")

	// Start watching for live changes...
	env.OnConfigChange(func(e fsnotify.Event) {
		log.Println("Configuration file has changed!")

		reloaded, err := config.Load(*configPath)
		if err != nil {
			log.WithError(err).Errorln("Ignoring invalid configuration")
			return
		}

		for i, dib := range bridges {
			if i >= len(reloaded) {
				break
			}
			newDebug := reloaded[i].Debug || *debugMode || env.GetBool("debug")
			newVerbose := reloaded[i].Verbose || *verboseMode || env.GetBool("verbose")
			if newDebug == dib.Config.Debug && newVerbose == dib.Config.Verbose {
				continue
			}

			log.Printf("Debug changed from %+v to %+v", dib.Config.Debug, newDebug)
			dib.SetDebugMode(newDebug, newVerbose)
			if i == 0 {
				SetLogDebug(newDebug, newVerbose)
			}
		}
	})
	env.WatchConfig()

	// Watch for a shutdown signal
	<-sc

	log.Infoln("Shutting down Discord-IRC bridge...")

	// Cleanly close down the bridges.
	var result error
	for _, dib := range bridges {
		if err := dib.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "could not stop metrics server"))
		}
	}

	if result != nil {
		log.WithError(result).Warnln("Shutdown was not clean")
	}
}

// discordLogLevels maps discordgo's log levels onto logrus.
var discordLogLevels = map[int]log.Level{
	discordgo.LogError:         log.ErrorLevel,
	discordgo.LogWarning:       log.WarnLevel,
	discordgo.LogInformational: log.InfoLevel,
	discordgo.LogDebug:         log.DebugLevel,
}

var logVerbose atomic.Bool

// SetLogDebug sets the logrus level. Discord heartbeat chatter is only
// logged when verbose.
func SetLogDebug(debug, verbose bool) {
	logger := log.StandardLogger()
	if debug {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}
	logVerbose.Store(verbose)
}

// discordLogger routes discordgo's logging through logrus.
func discordLogger(msgL, caller int, format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	if !logVerbose.Load() && strings.Contains(strings.ToLower(msg), "heartbeat") {
		return
	}

	level, ok := discordLogLevels[msgL]
	if !ok {
		level = log.DebugLevel
	}
	log.WithField("source", "discordgo").Log(level, msg)
}
