package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application counters and gauges. All metrics register
// against an injected registry so tests can use a private one.
type Metrics struct {
	SwipesRecorded      *prometheus.CounterVec
	MatchesCreated      prometheus.Counter
	MessagesSent        prometheus.Counter
	RealtimeConnections prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SwipesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kindled_swipes_total",
			Help: "Total swipes recorded, labeled by direction.",
		}, []string{"direction"}),
		MatchesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kindled_matches_created_total",
			Help: "Total mutual matches formed.",
		}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kindled_messages_sent_total",
			Help: "Total chat messages accepted into the ledger.",
		}),
		RealtimeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kindled_realtime_connections",
			Help: "Open websocket connections.",
		}),
	}

	reg.MustRegister(
		m.SwipesRecorded,
		m.MatchesCreated,
		m.MessagesSent,
		m.RealtimeConnections,
	)

	return m
}

func (m *Metrics) RecordSwipe(direction string) {
	m.SwipesRecorded.WithLabelValues(direction).Inc()
}

func (m *Metrics) RecordMatchCreated() {
	m.MatchesCreated.Inc()
}

func (m *Metrics) RecordMessageSent() {
	m.MessagesSent.Inc()
}

func (m *Metrics) ConnectionOpened() {
	m.RealtimeConnections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	m.RealtimeConnections.Dec()
}

// Handler serves the Prometheus scrape endpoint.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
