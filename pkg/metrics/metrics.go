// Package metrics defines the Prometheus collectors exported by ESS sessions
// and discovery.
//
// Collectors are registered on a caller-supplied registry so that several
// independent sets (one per test, one per process) can coexist. A nil *Session
// or *Discovery is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "ess"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Session holds the collectors updated by an authenticated session.
type Session struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	logins          *prometheus.CounterVec
	retries         prometheus.Counter
	state           *prometheus.GaugeVec
}

// NewSession creates and registers session collectors on reg.
func NewSession(reg prometheus.Registerer) *Session {
	f := promauto.With(reg)
	return &Session{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "requests_total",
			Help:      "Total authenticated requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),

		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of single HTTP exchanges with the appliance.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),

		logins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "logins_total",
			Help:      "Total login handshakes by outcome.",
		}, []string{"outcome"}),

		retries: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "reauth_retries_total",
			Help:      "Total re-authentication retries after an expired token or transport failure.",
		}),

		state: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "session_state",
			Help:      "1 for the current session state, 0 otherwise.",
		}, []string{"state"}),
	}
}

// RecordRequest records the final outcome of an authenticated request.
func (m *Session) RecordRequest(endpoint string, err error) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, outcome(err)).Inc()
}

// ObserveExchange records the duration of one HTTP round trip.
func (m *Session) ObserveExchange(endpoint string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordLogin records a login handshake result.
func (m *Session) RecordLogin(err error) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome(err)).Inc()
}

// RecordRetry counts one re-authentication retry.
func (m *Session) RecordRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

// SetState marks current as the active state among all.
func (m *Session) SetState(current string, all ...string) {
	if m == nil {
		return
	}
	for _, s := range all {
		m.state.WithLabelValues(s).Set(0)
	}
	m.state.WithLabelValues(current).Set(1)
}

// Discovery holds the collectors updated by the mDNS resolver.
type Discovery struct {
	queries    *prometheus.CounterVec
	discovered prometheus.Gauge
}

// NewDiscovery creates and registers discovery collectors on reg.
func NewDiscovery(reg prometheus.Registerer) *Discovery {
	f := promauto.With(reg)
	return &Discovery{
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "discovery_queries_total",
			Help:      "Total mDNS queries by operation and outcome.",
		}, []string{"operation", "outcome"}),

		discovered: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "discovery_appliances",
			Help:      "Number of appliances seen by the last browse.",
		}),
	}
}

// RecordQuery records a resolve or browse result.
func (m *Discovery) RecordQuery(operation string, err error) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(operation, outcome(err)).Inc()
}

// SetDiscovered sets the number of appliances found by the last browse.
func (m *Discovery) SetDiscovered(n int) {
	if m == nil {
		return
	}
	m.discovered.Set(float64(n))
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
