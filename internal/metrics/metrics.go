// Package metrics exposes Prometheus instruments for the ledger.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives measurements from the conversation engine and its caches.
type Recorder interface {
	EventHandled(kind, outcome string, elapsed time.Duration)
	RowWritten(table, op string, err error)
	CacheRefreshed(cache string, err error)
	SessionsActive(count int)
	Rejected(reason string)
}

// Outcomes reported by EventHandled.
const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid"
	OutcomeUnavailable = "unavailable"
	OutcomeRejected    = "rejected"
)

// Prometheus implements Recorder with Prometheus collectors.
type Prometheus struct {
	events       *prometheus.CounterVec
	eventLatency *prometheus.HistogramVec
	writes       *prometheus.CounterVec
	refreshes    *prometheus.CounterVec
	sessions     prometheus.Gauge
	rejections   *prometheus.CounterVec
}

var _ Recorder = (*Prometheus)(nil)

// NewPrometheus registers the ledger collectors on reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	factory := promauto.With(reg)
	return &Prometheus{
		events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_events_total",
				Help: "Inbound events handled, by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		eventLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_event_duration_seconds",
				Help:    "Time spent handling one inbound event",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		writes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_table_writes_total",
				Help: "Rows appended and ranges updated, by table and status",
			},
			[]string{"table", "op", "status"},
		),
		refreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_cache_refreshes_total",
				Help: "Cache reloads from the backing store, by cache and status",
			},
			[]string{"cache", "status"},
		),
		sessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ledger_active_sessions",
				Help: "Conversation sessions currently open",
			},
		),
		rejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_rejected_events_total",
				Help: "Events refused before reaching a session",
			},
			[]string{"reason"},
		),
	}
}

// EventHandled implements Recorder.
func (p *Prometheus) EventHandled(kind, outcome string, elapsed time.Duration) {
	p.events.WithLabelValues(kind, outcome).Inc()
	p.eventLatency.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// RowWritten implements Recorder.
func (p *Prometheus) RowWritten(table, op string, err error) {
	p.writes.WithLabelValues(table, op, status(err)).Inc()
}

// CacheRefreshed implements Recorder.
func (p *Prometheus) CacheRefreshed(cache string, err error) {
	p.refreshes.WithLabelValues(cache, status(err)).Inc()
}

// SessionsActive implements Recorder.
func (p *Prometheus) SessionsActive(count int) {
	p.sessions.Set(float64(count))
}

// Rejected implements Recorder.
func (p *Prometheus) Rejected(reason string) {
	p.rejections.WithLabelValues(reason).Inc()
}

// Handler serves the collectors of gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Nop discards every measurement.
type Nop struct{}

var _ Recorder = Nop{}

func (Nop) EventHandled(string, string, time.Duration) {}
func (Nop) RowWritten(string, string, error)           {}
func (Nop) CacheRefreshed(string, error)               {}
func (Nop) SessionsActive(int)                         {}
func (Nop) Rejected(string)                            {}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop{}
	}
	return r
}
