package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	CyclesTotal    *prometheus.CounterVec
	FailOpensTotal *prometheus.CounterVec
	RegimeGauge    *prometheus.GaugeVec
	CycleDuration  prometheus.Histogram
	DecisionsTotal *prometheus.CounterVec
}

// regime label values mapped onto a gauge: 0 RANGE, 1 BREAKOUT, 2 SHOCK.
var regimeCodes = map[string]float64{
	"RANGE":    0,
	"BREAKOUT": 1,
	"SHOCK":    2,
}

// New creates and registers the collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradepulse",
			Name:      "cycles_total",
			Help:      "Decision cycles run, by outcome.",
		}, []string{"outcome"}),
		FailOpensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradepulse",
			Name:      "fail_opens_total",
			Help:      "Component errors converted to conservative defaults.",
		}, []string{"component"}),
		RegimeGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tradepulse",
			Name:      "regime",
			Help:      "Current regime code per symbol (0 range, 1 breakout, 2 shock).",
		}, []string{"symbol"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tradepulse",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one decision cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradepulse",
			Name:      "decisions_total",
			Help:      "Strategy decisions, by action.",
		}, []string{"action"}),
	}
	reg.MustRegister(m.CyclesTotal, m.FailOpensTotal, m.RegimeGauge, m.CycleDuration, m.DecisionsTotal)
	return m
}

// ObserveRegime records the current regime for a symbol.
func (m *Metrics) ObserveRegime(symbol, regime string) {
	if code, ok := regimeCodes[regime]; ok {
		m.RegimeGauge.WithLabelValues(symbol).Set(code)
	}
}

// FailOpen counts one fail-open conversion for a component.
func (m *Metrics) FailOpen(component string) {
	m.FailOpensTotal.WithLabelValues(component).Inc()
}
