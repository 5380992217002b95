package metrics

import (
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Appliance exports polled appliance state documents as gauges.
type Appliance struct {
	values *prometheus.GaugeVec
	polls  *prometheus.CounterVec
}

// NewAppliance creates and registers appliance collectors on reg.
func NewAppliance(reg prometheus.Registerer) *Appliance {
	f := promauto.With(reg)
	return &Appliance{
		values: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "appliance_value",
			Help:      "Numeric values reported by the appliance, by state category, section and key.",
		}, []string{"category", "section", "key"}),

		polls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "appliance_polls_total",
			Help:      "Total state polls by category and outcome.",
		}, []string{"category", "outcome"}),
	}
}

// RecordPoll records the outcome of one state poll.
func (m *Appliance) RecordPoll(category string, err error) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(category, outcome(err)).Inc()
}

// SetValues exports every numeric leaf of doc and returns how many were set.
// The appliance encodes numbers as strings; non-numeric leaves are skipped.
// Leaves directly under doc use an empty section label.
func (m *Appliance) SetValues(category string, doc map[string]any) int {
	if m == nil {
		return 0
	}
	n := 0
	for section, v := range doc {
		nested, ok := v.(map[string]any)
		if !ok {
			if f, ok := numeric(v); ok {
				m.values.WithLabelValues(category, "", section).Set(f)
				n++
			}
			continue
		}
		for key, leaf := range nested {
			if f, ok := numeric(leaf); ok {
				m.values.WithLabelValues(category, section, key).Set(f)
				n++
			}
		}
	}
	return n
}

func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
