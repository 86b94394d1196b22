// Package metrics exposes relay counters over Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const namespace = "discord_irc"

// Directions a message can be relayed in.
const (
	DiscordToIRC = "discord_to_irc"
	IRCToDiscord = "irc_to_discord"
)

// Metrics holds the bridge counters. A nil *Metrics records nothing.
type Metrics struct {
	relayed      *prometheus.CounterVec
	dropped      *prometheus.CounterVec
	cacheFetches *prometheus.CounterVec
}

// New registers the bridge counters with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		relayed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_relayed_total",
			Help:      "Messages relayed, by direction.",
		}, []string{"direction"}),
		dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_dropped_total",
			Help:      "Messages deliberately not relayed, by reason.",
		}, []string{"reason"}),
		cacheFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_fetches_total",
			Help:      "Authoritative lookups made on cache misses, by cache.",
		}, []string{"cache"}),
	}
}

// Relayed counts a message relayed in direction.
func (m *Metrics) Relayed(direction string) {
	if m == nil {
		return
	}
	m.relayed.WithLabelValues(direction).Inc()
}

// Dropped counts a message that was filtered out.
func (m *Metrics) Dropped(reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(reason).Inc()
}

// CacheFetch returns a hook counting fetches made by the named cache.
func (m *Metrics) CacheFetch(cache string) func() {
	if m == nil {
		return nil
	}
	counter := m.cacheFetches.WithLabelValues(cache)
	return counter.Inc
}

// Serve exposes gatherer on addr under /metrics until the server is closed.
func Serve(addr string, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithField("addr", addr).Infoln("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Errorln("Metrics server stopped")
		}
	}()

	return srv
}
