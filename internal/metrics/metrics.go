// Package metrics provides Prometheus metrics for the API surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Counter names as they appear in the registry.
const (
	MetricLogins         = "logins_total"
	MetricLogouts        = "logouts_total"
	MetricSongPlays      = "song_plays_total"
	MetricReportRequests = "report_requests_total"
	MetricSweptLogins    = "swept_logins_total"
)

// Metrics contains the service counters. All operations are
// thread-safe.
type Metrics struct {
	logins         prometheus.Counter
	logouts        prometheus.Counter
	songPlays      prometheus.Counter
	reportRequests prometheus.Counter
	sweptLogins    prometheus.Counter
}

// NewMetrics creates a Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to
// register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricLogins,
			Help: "Total number of successful logins",
		}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricLogouts,
			Help: "Total number of logouts, explicit and swept",
		}),
		songPlays: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSongPlays,
			Help: "Total number of recorded song plays",
		}),
		reportRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricReportRequests,
			Help: "Total number of analytics report requests",
		}),
		sweptLogins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSweptLogins,
			Help: "Total number of stale logins closed by the inactivity sweep",
		}),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncLogins increments the login counter.
func (m *Metrics) IncLogins() {
	m.logins.Inc()
}

// IncLogouts increments the logout counter.
func (m *Metrics) IncLogouts() {
	m.logouts.Inc()
}

// IncSongPlays increments the song play counter.
func (m *Metrics) IncSongPlays() {
	m.songPlays.Inc()
}

// IncReportRequests increments the report request counter.
func (m *Metrics) IncReportRequests() {
	m.reportRequests.Inc()
}

// AddSweptLogins records how many stale logins a sweep closed.
func (m *Metrics) AddSweptLogins(n int) {
	m.sweptLogins.Add(float64(n))
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.logins,
		m.logouts,
		m.songPlays,
		m.reportRequests,
		m.sweptLogins,
	}
}
