// Package metrics exposes the bot's Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the importer, the OAuth manager and the Slack bot report to.
type Recorder interface {
	RecordImport(service, result string, duration time.Duration)
	RecordOAuth(service, step, result string)
	RecordSlackEvent(eventType string)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	imports        *prometheus.CounterVec
	importDuration *prometheus.HistogramVec
	oauth          *prometheus.CounterVec
	slackEvents    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readbot_imports_total",
			Help: "Link imports by destination service and result",
		}, []string{"service", "result"}),
		importDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "readbot_import_duration_seconds",
			Help:    "Time spent importing one link",
			Buckets: prometheus.DefBuckets,
		}, []string{"service"}),
		oauth: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readbot_oauth_total",
			Help: "OAuth handshake steps by service, step and result",
		}, []string{"service", "step", "result"}),
		slackEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readbot_slack_events_total",
			Help: "Slack events received by type",
		}, []string{"type"}),
	}

	reg.MustRegister(
		c.imports,
		c.importDuration,
		c.oauth,
		c.slackEvents,
	)

	return c
}

// RecordImport counts one finished import.
func (c *Collector) RecordImport(service, result string, duration time.Duration) {
	c.imports.WithLabelValues(service, result).Inc()
	c.importDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordOAuth counts one connect or complete step.
func (c *Collector) RecordOAuth(service, step, result string) {
	c.oauth.WithLabelValues(service, step, result).Inc()
}

// RecordSlackEvent counts one inbound Slack event.
func (c *Collector) RecordSlackEvent(eventType string) {
	c.slackEvents.WithLabelValues(eventType).Inc()
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordImport(string, string, time.Duration) {}
func (Nop) RecordOAuth(string, string, string)         {}
func (Nop) RecordSlackEvent(string)                    {}

// Handler serves the registry in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
