package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSessionCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSession(reg)

	m.RecordRequest("/v1/user/essinfo/home", nil)
	m.RecordRequest("/v1/user/essinfo/home", nil)
	m.RecordRequest("/v1/user/essinfo/home", errors.New("boom"))
	m.RecordLogin(nil)
	m.RecordRetry()
	m.RecordRetry()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/v1/user/essinfo/home", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/v1/user/essinfo/home", OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.retries))
}

func TestSessionStateGauge(t *testing.T) {
	m := NewSession(prometheus.NewRegistry())
	all := []string{"unauthenticated", "authenticated"}

	m.SetState("authenticated", all...)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.state.WithLabelValues("authenticated")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.state.WithLabelValues("unauthenticated")))

	m.SetState("unauthenticated", all...)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.state.WithLabelValues("authenticated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.state.WithLabelValues("unauthenticated")))
}

func TestObserveExchange(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSession(reg)

	m.ObserveExchange("/v1/user/setting/login", 20*time.Millisecond)

	count, err := testutil.GatherAndCount(reg, "ess_request_duration_seconds")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDiscoveryCollectors(t *testing.T) {
	m := NewDiscovery(prometheus.NewRegistry())

	m.RecordQuery("browse", nil)
	m.RecordQuery("resolve", errors.New("not found"))
	m.SetDiscovered(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("browse", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("resolve", OutcomeFailure)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.discovered))
}

func TestNilCollectorsAreNoops(t *testing.T) {
	var s *Session
	var d *Discovery

	assert.NotPanics(t, func() {
		s.RecordRequest("x", nil)
		s.RecordLogin(nil)
		s.RecordRetry()
		s.ObserveExchange("x", time.Second)
		s.SetState("authenticated")
		d.RecordQuery("browse", nil)
		d.SetDiscovered(1)
	})
}
